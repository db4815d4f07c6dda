// Copyright (C) 2025 ScyllaDB

package result

import (
	"reflect"
	"sort"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/scylladb/go-reflectx"
	"github.com/scylladb/go-set/strset"
	"github.com/scylladb/gocqlx/v2"
	"github.com/scylladb/scyllaquery/pkg/cqlerrors"
	"github.com/scylladb/scyllaquery/pkg/cqlvalue"
)

// Mapper converts a row into T.
type Mapper[T any] func(Row) (T, error)

// Field sets one field of T from a row.
type Field[T any] struct {
	column string
	set    func(*T, cqlvalue.Value) error
}

// Col maps column name into a field of T through setter, the cell is
// converted to F following cqlvalue.As.
func Col[T, F any](name string, setter func(*T, F)) Field[T] {
	return Field[T]{
		column: name,
		set: func(dst *T, v cqlvalue.Value) error {
			f, err := cqlvalue.As[F](v)
			if err != nil {
				return err
			}
			setter(dst, f)
			return nil
		},
	}
}

// Record builds T from the listed columns. Every listed column must be
// present in the row.
func Record[T any](fields ...Field[T]) Mapper[T] {
	return func(row Row) (T, error) {
		var out T
		for _, f := range fields {
			v, ok := row.Get(f.column)
			if !ok {
				return out, cqlerrors.Mappingf("column %q is missing", f.column)
			}
			if err := f.set(&out, v); err != nil {
				return out, cqlerrors.Wrap(cqlerrors.KindMapping, err, "column "+quote(f.column))
			}
		}
		return out, nil
	}
}

func quote(s string) string {
	return `"` + s + `"`
}

// Values returns the row as its cells.
func Values() Mapper[[]cqlvalue.Value] {
	return func(row Row) ([]cqlvalue.Value, error) {
		return row.Values(), nil
	}
}

// RowMaps returns the row as column name to plain Go value.
func RowMaps() Mapper[map[string]any] {
	return func(row Row) (map[string]any, error) {
		return row.Map(), nil
	}
}

func scalarMapper[T any]() Mapper[T] {
	return func(row Row) (T, error) {
		v, err := cqlvalue.As[T](row.values[0])
		if err != nil {
			return v, cqlerrors.Wrap(cqlerrors.KindMapping, err, "column "+quote(row.cols.specs[0].Name))
		}
		return v, nil
	}
}

// Struct maps columns to the fields of struct T by the db tag, or by the
// snake_case field name. Every column must have a field and every field
// must have a column.
func Struct[T any]() Mapper[T] {
	t := reflect.TypeFor[T]()
	if t.Kind() != reflect.Struct {
		return func(Row) (T, error) {
			var zero T
			return zero, cqlerrors.Mappingf("struct mapping requires a struct type, got %s", t)
		}
	}

	sm := gocqlx.DefaultMapper.TypeMap(t)
	fields := strset.New()
	for name := range sm.Names {
		if !strings.Contains(name, ".") {
			fields.Add(name)
		}
	}

	return func(row Row) (T, error) {
		var out T
		v := reflect.ValueOf(&out).Elem()

		unmapped := fields.Copy()
		for i, spec := range row.cols.specs {
			name := strings.ToLower(spec.Name)
			fi, ok := sm.Names[name]
			if !ok || strings.Contains(name, ".") {
				return out, cqlerrors.Mappingf("column %q has no matching field in %s", spec.Name, t)
			}
			f := reflectx.FieldByIndexes(v, fi.Index)
			if err := cqlvalue.Assign(f.Addr().Interface(), row.values[i]); err != nil {
				return out, cqlerrors.Wrap(cqlerrors.KindMapping, err, "column "+quote(spec.Name))
			}
			unmapped.Remove(name)
		}
		if !unmapped.IsEmpty() {
			missing := unmapped.List()
			sort.Strings(missing)
			return out, cqlerrors.Mappingf("fields %s of %s have no matching column", strings.Join(missing, ", "), t)
		}
		return out, nil
	}
}

// Decode maps rows through mapstructure using the db tag, untagged fields
// match column names case-insensitively. Values convert weakly, unknown
// columns and unset fields are errors.
func Decode[T any]() Mapper[T] {
	return func(row Row) (T, error) {
		var out T
		dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			ErrorUnused:      true,
			ErrorUnset:       true,
			WeaklyTypedInput: true,
			TagName:          "db",
			Result:           &out,
		})
		if err != nil {
			return out, errors.Wrap(err, "create decoder")
		}
		if err := dec.Decode(row.Map()); err != nil {
			return out, cqlerrors.Wrap(cqlerrors.KindMapping, err, "decode")
		}
		return out, nil
	}
}
