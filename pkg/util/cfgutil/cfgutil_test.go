// Copyright (C) 2017 ScyllaDB

package cfgutil

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v2"
)

type profile struct {
	Consistency string `yaml:"consistency"`
}

type result struct {
	ContactPoints  []string      `yaml:"contact_points"`
	Keyspace       string        `yaml:"keyspace"`
	Username       string        `yaml:"username"`
	Password       string        `yaml:"password"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
	PoolSize       int           `yaml:"pool_size_per_host"`
	Profile        profile       `yaml:"profile"`
}

func TestParseYAML(t *testing.T) {
	base := result{
		ContactPoints:  []string{"127.0.0.1:9042"},
		Keyspace:       "base",
		ConnectTimeout: 5 * time.Second,
		Profile:        profile{Consistency: "LOCAL_QUORUM"},
	}
	first := base
	first.Keyspace = "first"
	first.Username = "scylla"
	first.Profile = profile{Consistency: "ONE"}

	table := []struct {
		Name          string
		Input         []string
		Golden        result
		ErrorExpected bool
	}{
		{
			Name:   "basic",
			Input:  []string{"./testdata/base.yaml", "./testdata/first.yaml"},
			Golden: first,
		},
		{
			Name:   "missing override file",
			Input:  []string{"./testdata/base.yaml", "./testdata/missing.yaml"},
			Golden: base,
		},
		{
			Name:   "one missing override file",
			Input:  []string{"./testdata/base.yaml", "./testdata/missing.yaml", "./testdata/first.yaml"},
			Golden: first,
		},
		{
			Name:          "invalid type",
			Input:         []string{"./testdata/base.yaml", "./testdata/invalid_type.yaml"},
			ErrorExpected: true,
		},
	}
	for _, test := range table {
		t.Run(test.Name, func(t *testing.T) {
			got := &result{}
			err := ParseYAML(got, test.Input...)
			if test.ErrorExpected {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(*got, test.Golden); diff != "" {
				t.Errorf("%s", diff)
			}
		})
	}
}

func TestParseYAMLExpandsEnvironment(t *testing.T) {
	t.Run("default", func(t *testing.T) {
		got := &result{}
		if err := ParseYAML(got, "./testdata/env.yaml"); err != nil {
			t.Fatal(err)
		}
		if got.Password != "fallback" {
			t.Errorf("expected fallback, got %q", got.Password)
		}
	})

	t.Run("set", func(t *testing.T) {
		t.Setenv("CFGUTIL_TEST_PASSWORD", "secret")
		got := &result{}
		if err := ParseYAML(got, "./testdata/env.yaml"); err != nil {
			t.Fatal(err)
		}
		if got.Password != "secret" {
			t.Errorf("expected secret, got %q", got.Password)
		}
	})
}

func TestParseYAMLSources(t *testing.T) {
	override, err := yaml.Marshal(map[string]interface{}{"keyspace": "inline"})
	if err != nil {
		t.Fatal(err)
	}

	got := &result{Keyspace: "default"}
	if err := ParseYAMLSources(got, []byte("username: u\n"), override); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(result{Keyspace: "inline", Username: "u"}, *got); diff != "" {
		t.Errorf("%s", diff)
	}
}
