// Copyright (C) 2025 ScyllaDB

package result

import (
	"fmt"
	"slices"

	"github.com/scylladb/scyllaquery/pkg/cqlerrors"
	"github.com/scylladb/scyllaquery/pkg/cqlvalue"
	"github.com/scylladb/scyllaquery/pkg/driver"
	"github.com/scylladb/scyllaquery/pkg/util/uuid"
)

// QueryResult is a fully buffered response. Accessors are read-only and may
// be called any number of times.
type QueryResult struct {
	cols     *columnIndex
	rows     []Row
	traceID  *uuid.UUID
	warnings []string
}

// New buffers pages of one response, in order. Columns are taken from the
// first page.
func New(pages ...driver.Page) *QueryResult {
	r := &QueryResult{cols: newColumnIndex(nil)}
	if len(pages) == 0 {
		return r
	}

	r.cols = newColumnIndex(pages[0].Columns)
	r.traceID = pages[0].TraceID
	var n int
	for _, p := range pages {
		n += len(p.Rows)
	}
	r.rows = make([]Row, 0, n)
	for _, p := range pages {
		r.rows = append(r.rows, newRows(r.cols, p.Rows)...)
		r.warnings = append(r.warnings, p.Warnings...)
	}
	return r
}

// Columns returns the result column specs, empty for statements returning
// no rows.
func (r *QueryResult) Columns() []cqlvalue.ColumnSpec {
	return slices.Clone(r.cols.specs)
}

func (r *QueryResult) Len() int {
	return len(r.rows)
}

// TraceID returns the trace id when tracing was requested.
func (r *QueryResult) TraceID() (uuid.UUID, bool) {
	if r.traceID == nil {
		return uuid.Nil, false
	}
	return *r.traceID, true
}

// Warnings returns the server warnings attached to the response.
func (r *QueryResult) Warnings() []string {
	return slices.Clone(r.warnings)
}

func errNoRowsExpected() error {
	return cqlerrors.Mappingf("no rows expected, the statement does not return rows")
}

func (r *QueryResult) expectRows() error {
	if len(r.cols.specs) == 0 {
		return errNoRowsExpected()
	}
	return nil
}

func (r *QueryResult) expectScalar() error {
	if err := r.expectRows(); err != nil {
		return err
	}
	if n := len(r.cols.specs); n != 1 {
		return cqlerrors.Usagef("scalar requires exactly one column, result has %d", n)
	}
	return nil
}

// Rows returns all rows.
func (r *QueryResult) Rows() ([]Row, error) {
	if err := r.expectRows(); err != nil {
		return nil, err
	}
	return slices.Clone(r.rows), nil
}

// All returns all rows as column name to value maps.
func (r *QueryResult) All() ([]map[string]any, error) {
	if err := r.expectRows(); err != nil {
		return nil, err
	}
	out := make([]map[string]any, 0, len(r.rows))
	for _, row := range r.rows {
		out = append(out, row.Map())
	}
	return out, nil
}

// First returns the first row, ok is false when there are no rows.
func (r *QueryResult) First() (row Row, ok bool, err error) {
	if err := r.expectRows(); err != nil {
		return Row{}, false, err
	}
	if len(r.rows) == 0 {
		return Row{}, false, nil
	}
	return r.rows[0], true, nil
}

// Scalars returns the only column of every row.
func (r *QueryResult) Scalars() ([]cqlvalue.Value, error) {
	if err := r.expectScalar(); err != nil {
		return nil, err
	}
	out := make([]cqlvalue.Value, 0, len(r.rows))
	for _, row := range r.rows {
		out = append(out, row.values[0])
	}
	return out, nil
}

// Scalar returns the only column of the first row, ok is false when there
// are no rows.
func (r *QueryResult) Scalar() (v cqlvalue.Value, ok bool, err error) {
	if err := r.expectScalar(); err != nil {
		return cqlvalue.Null, false, err
	}
	if len(r.rows) == 0 {
		return cqlvalue.Null, false, nil
	}
	return r.rows[0].values[0], true, nil
}

func rowError(i int, err error) error {
	return cqlerrors.Wrap(cqlerrors.KindMapping, err, fmt.Sprintf("row %d", i))
}

// All maps every row of r with m.
func All[T any](r *QueryResult, m Mapper[T]) ([]T, error) {
	if err := r.expectRows(); err != nil {
		return nil, err
	}
	out := make([]T, 0, len(r.rows))
	for i, row := range r.rows {
		v, err := m(row)
		if err != nil {
			return nil, rowError(i, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// First maps the first row of r with m.
func First[T any](r *QueryResult, m Mapper[T]) (v T, ok bool, err error) {
	row, ok, err := r.First()
	if err != nil || !ok {
		return v, ok, err
	}
	v, err = m(row)
	if err != nil {
		return v, false, rowError(0, err)
	}
	return v, true, nil
}

// ScalarsAs extracts the only column of every row as T.
func ScalarsAs[T any](r *QueryResult) ([]T, error) {
	if err := r.expectScalar(); err != nil {
		return nil, err
	}
	return All(r, scalarMapper[T]())
}

// ScalarAs extracts the only column of the first row as T.
func ScalarAs[T any](r *QueryResult) (v T, ok bool, err error) {
	if err := r.expectScalar(); err != nil {
		return v, false, err
	}
	return First(r, scalarMapper[T]())
}
