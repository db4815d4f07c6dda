// Copyright (C) 2025 ScyllaDB

package bind

import (
	"fmt"
	"sort"
	"strings"

	"github.com/scylladb/go-set/strset"
	"github.com/scylladb/scyllaquery/pkg/cqlerrors"
	"github.com/scylladb/scyllaquery/pkg/cqlvalue"
)

// Positional converts args, one per '?' marker, to values.
// When specs is not nil it holds the declared type of every marker and each
// value is coerced to it.
func Positional(p Placeholders, args []any, specs []cqlvalue.ColumnSpec) ([]cqlvalue.Value, error) {
	if p.IsNamed() {
		return nil, cqlerrors.Bindingf("statement uses named markers, positional values given")
	}
	if len(args) != p.Positional {
		return nil, countMismatch(p.Positional, len(args))
	}
	if err := checkSpecs(p, specs); err != nil {
		return nil, err
	}

	out := make([]cqlvalue.Value, len(args))
	for i, a := range args {
		v, err := convert(a, specAt(specs, i))
		if err != nil {
			return nil, cqlerrors.Wrap(cqlerrors.KindBinding, err, describe(i, specAt(specs, i)))
		}
		out[i] = v
	}
	return out, nil
}

// Named converts args keyed by marker name to positional values in marker
// order. Keys are matched case-insensitively. Two keys equal after
// lowercasing are rejected as ambiguous. Keys that match no marker are
// ignored.
func Named(p Placeholders, args map[string]any, specs []cqlvalue.ColumnSpec) ([]cqlvalue.Value, error) {
	if p.Positional > 0 {
		return nil, cqlerrors.Bindingf("statement uses positional markers, named values given")
	}
	if err := checkSpecs(p, specs); err != nil {
		return nil, err
	}

	folded, err := foldKeys(args)
	if err != nil {
		return nil, err
	}

	missing := strset.Difference(p.UniqueNames(), keySet(folded))
	if !missing.IsEmpty() {
		names := missing.List()
		sort.Strings(names)
		return nil, cqlerrors.Bindingf("missing values for named parameters: %s", strings.Join(names, ", "))
	}

	out := make([]cqlvalue.Value, len(p.Names))
	for i, name := range p.Names {
		v, err := convert(folded[name], specAt(specs, i))
		if err != nil {
			return nil, cqlerrors.Wrap(cqlerrors.KindBinding, err, fmt.Sprintf("parameter %q", name))
		}
		out[i] = v
	}
	return out, nil
}

// Values converts already final values, coercing them when specs is given.
// It is used for statements whose values were produced together with
// their text.
func Values(values []cqlvalue.Value, specs []cqlvalue.ColumnSpec) ([]cqlvalue.Value, error) {
	if specs == nil {
		return values, nil
	}
	if len(specs) != len(values) {
		return nil, countMismatch(len(specs), len(values))
	}
	out := make([]cqlvalue.Value, len(values))
	for i, v := range values {
		c, err := cqlvalue.Coerce(v, specs[i].Type)
		if err != nil {
			return nil, cqlerrors.Wrap(cqlerrors.KindBinding, err, describe(i, &specs[i]))
		}
		out[i] = c
	}
	return out, nil
}

func foldKeys(args map[string]any) (map[string]any, error) {
	folded := make(map[string]any, len(args))
	orig := make(map[string]string, len(args))
	for k, v := range args {
		lk := strings.ToLower(k)
		if prev, ok := orig[lk]; ok {
			a, b := prev, k
			if a > b {
				a, b = b, a
			}
			return nil, cqlerrors.Bindingf("parameters %q and %q are ambiguous, names are case-insensitive", a, b)
		}
		orig[lk] = k
		folded[lk] = v
	}
	return folded, nil
}

func keySet(m map[string]any) *strset.Set {
	s := strset.NewWithSize(len(m))
	for k := range m {
		s.Add(k)
	}
	return s
}

func checkSpecs(p Placeholders, specs []cqlvalue.ColumnSpec) error {
	if specs != nil && len(specs) != p.Count() {
		return cqlerrors.Bindingf("statement metadata describes %d markers, text has %d", len(specs), p.Count())
	}
	return nil
}

func specAt(specs []cqlvalue.ColumnSpec, i int) *cqlvalue.ColumnSpec {
	if specs == nil {
		return nil
	}
	return &specs[i]
}

func convert(in any, spec *cqlvalue.ColumnSpec) (cqlvalue.Value, error) {
	v, err := cqlvalue.Of(in)
	if err != nil {
		return cqlvalue.Null, err
	}
	if spec == nil {
		return v, nil
	}
	return cqlvalue.Coerce(v, spec.Type)
}

func countMismatch(expected, got int) error {
	what := "too many"
	if got < expected {
		what = "too few"
	}
	return cqlerrors.Bindingf("%s values: statement takes %d, got %d", what, expected, got)
}

func describe(i int, spec *cqlvalue.ColumnSpec) string {
	if spec != nil && spec.Name != "" {
		return fmt.Sprintf("parameter %d (%s %s)", i, spec.Name, spec.Type)
	}
	return fmt.Sprintf("parameter %d", i)
}
