// Copyright (C) 2025 ScyllaDB

// Package result materializes driver responses into rows and user types.
package result

import (
	"slices"
	"strings"

	"github.com/scylladb/scyllaquery/pkg/cqlvalue"
)

type columnIndex struct {
	specs  []cqlvalue.ColumnSpec
	byName map[string]int
}

func newColumnIndex(specs []cqlvalue.ColumnSpec) *columnIndex {
	idx := &columnIndex{
		specs:  slices.Clone(specs),
		byName: make(map[string]int, len(specs)),
	}
	for i, s := range specs {
		if _, ok := idx.byName[s.Name]; !ok {
			idx.byName[s.Name] = i
		}
	}
	return idx
}

func (c *columnIndex) names() []string {
	out := make([]string, 0, len(c.specs))
	for _, s := range c.specs {
		out = append(out, s.Name)
	}
	return out
}

// Row is an ordered sequence of named cells.
type Row struct {
	cols   *columnIndex
	values []cqlvalue.Value
}

func newRows(cols *columnIndex, values [][]cqlvalue.Value) []Row {
	rows := make([]Row, 0, len(values))
	for _, v := range values {
		rows = append(rows, Row{cols: cols, values: v})
	}
	return rows
}

func (r Row) Len() int {
	return len(r.values)
}

// Columns returns the column names in order.
func (r Row) Columns() []string {
	if r.cols == nil {
		return nil
	}
	return r.cols.names()
}

// Values returns the cells in column order.
func (r Row) Values() []cqlvalue.Value {
	return slices.Clone(r.values)
}

// Value returns the i-th cell.
func (r Row) Value(i int) cqlvalue.Value {
	return r.values[i]
}

// Get returns the cell of column name. Names are matched exactly first,
// then case-insensitively.
func (r Row) Get(name string) (cqlvalue.Value, bool) {
	if r.cols == nil {
		return cqlvalue.Null, false
	}
	if i, ok := r.cols.byName[name]; ok {
		return r.values[i], true
	}
	for i, s := range r.cols.specs {
		if strings.EqualFold(s.Name, name) {
			return r.values[i], true
		}
	}
	return cqlvalue.Null, false
}

// Map returns the row as column name to plain Go value.
func (r Row) Map() map[string]any {
	out := make(map[string]any, len(r.values))
	for i, v := range r.values {
		out[r.cols.specs[i].Name] = v.Interface()
	}
	return out
}

func (r Row) String() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, v := range r.values {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(r.cols.specs[i].Name)
		b.WriteString(": ")
		b.WriteString(v.String())
	}
	b.WriteByte('}')
	return b.String()
}
