// Copyright (C) 2017 ScyllaDB

package cfgutil

import (
	"bytes"
	"os"

	"go.uber.org/config"
)

// ParseYAML attempts to load and parse the files given by files and store
// the contents of the files in the struct given by target.
// It will overwrite any conflicting keys by the keys in the subsequent files.
// Missing files will not cause an error but will just be skipped.
// References in the form ${NAME} or ${NAME:default} are expanded from the
// process environment.
func ParseYAML(target interface{}, files ...string) error {
	opts := []config.YAMLOption{config.Expand(os.LookupEnv)}
	for _, f := range files {
		if fileExists(f) {
			opts = append(opts, config.File(f))
		}
	}
	return populate(target, opts)
}

// ParseYAMLSources works like ParseYAML but reads in-memory documents.
func ParseYAMLSources(target interface{}, sources ...[]byte) error {
	opts := []config.YAMLOption{config.Expand(os.LookupEnv)}
	for _, s := range sources {
		opts = append(opts, config.Source(bytes.NewReader(s)))
	}
	return populate(target, opts)
}

func populate(target interface{}, opts []config.YAMLOption) error {
	cfg, err := config.NewYAML(opts...)
	if err != nil {
		return err
	}
	return cfg.Get(config.Root).Populate(target)
}

func fileExists(filename string) bool {
	info, err := os.Stat(filename)
	if os.IsNotExist(err) {
		return false
	}
	return err == nil && !info.IsDir()
}
