// Copyright (C) 2025 ScyllaDB

// Package qb builds INSERT, UPDATE, DELETE and SELECT statements.
//
// Builders are mutable and chainable. A value that can not be converted is
// recorded and reported by Build, so chains need no error checks.
package qb

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/scylladb/scyllaquery/pkg/bind"
	"github.com/scylladb/scyllaquery/pkg/cqlerrors"
	"github.com/scylladb/scyllaquery/pkg/cqlvalue"
	"github.com/scylladb/scyllaquery/pkg/result"
	"github.com/scylladb/scyllaquery/pkg/statement"
)

// Executor runs statements eagerly.
type Executor interface {
	Execute(ctx context.Context, s statement.Statement, params statement.Params) (*result.QueryResult, error)
}

// PagedExecutor runs statements returning rows page by page.
type PagedExecutor interface {
	ExecutePaged(ctx context.Context, s statement.Statement, params statement.Params) (*result.Iterator, error)
}

// values accumulates converted values and the first conversion error.
type values struct {
	vs  []cqlvalue.Value
	err error
}

func (v *values) add(in ...any) {
	for _, x := range in {
		cv, err := cqlvalue.Of(x)
		if err != nil {
			if v.err == nil {
				v.err = cqlerrors.Wrap(cqlerrors.KindBinding, err, fmt.Sprintf("value %d", len(v.vs)))
			}
			cv = cqlvalue.Null
		}
		v.vs = append(v.vs, cv)
	}
}

// addClause adds the values of a free-form clause. The clause must use
// positional markers, one for every value.
func (v *values) addClause(clause string, in ...any) {
	if v.err == nil {
		v.err = checkClause(clause, len(in))
	}
	v.add(in...)
}

func checkClause(clause string, n int) error {
	ph, err := bind.Parse(clause)
	switch {
	case err != nil:
		return cqlerrors.Wrap(cqlerrors.KindBinding, err, fmt.Sprintf("clause %q", clause))
	case ph.IsNamed():
		return cqlerrors.Bindingf("clause %q uses named markers, only ? is supported", clause)
	case ph.Positional != n:
		return cqlerrors.Bindingf("clause %q takes %d values, got %d", clause, ph.Positional, n)
	default:
		return nil
	}
}

type where struct {
	clauses []string
	values
}

func (w *where) add(clause string, vs ...any) {
	w.clauses = append(w.clauses, clause)
	w.values.addClause(clause, vs...)
}

func (w *where) String() string {
	if len(w.clauses) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(w.clauses, " AND ")
}

// condition is an IF EXISTS flag or IF clauses, the last call wins between
// IfExists and If.
type condition struct {
	exists  bool
	clauses []string
	values
}

func (c *condition) ifExists() {
	c.exists = true
	c.clauses = nil
	c.values = values{}
}

func (c *condition) add(clause string, vs ...any) {
	c.exists = false
	c.clauses = append(c.clauses, clause)
	c.values.addClause(clause, vs...)
}

func (c *condition) String() string {
	switch {
	case c.exists:
		return "IF EXISTS"
	case len(c.clauses) > 0:
		return "IF " + strings.Join(c.clauses, " AND ")
	default:
		return ""
	}
}

type using struct {
	ttl       *time.Duration
	timestamp *int64
	timeout   *time.Duration
}

func (u *using) String() string {
	var parts []string
	if u.ttl != nil {
		parts = append(parts, "TTL "+strconv.FormatInt(int64(*u.ttl/time.Second), 10))
	}
	if u.timestamp != nil {
		parts = append(parts, "TIMESTAMP "+strconv.FormatInt(*u.timestamp, 10))
	}
	if u.timeout != nil {
		parts = append(parts, "TIMEOUT "+formatDuration(*u.timeout))
	}
	if len(parts) == 0 {
		return ""
	}
	return "USING " + strings.Join(parts, " AND ")
}

// formatDuration renders d as a CQL duration literal in the largest unit
// that keeps it exact.
func formatDuration(d time.Duration) string {
	switch {
	case d%time.Hour == 0 && d != 0:
		return strconv.FormatInt(int64(d/time.Hour), 10) + "h"
	case d%time.Minute == 0 && d != 0:
		return strconv.FormatInt(int64(d/time.Minute), 10) + "m"
	case d%time.Second == 0:
		return strconv.FormatInt(int64(d/time.Second), 10) + "s"
	case d%time.Millisecond == 0:
		return strconv.FormatInt(int64(d/time.Millisecond), 10) + "ms"
	case d%time.Microsecond == 0:
		return strconv.FormatInt(int64(d/time.Microsecond), 10) + "us"
	default:
		return strconv.FormatInt(int64(d), 10) + "ns"
	}
}

// join joins the non-empty parts with single spaces.
func join(parts ...string) string {
	var b strings.Builder
	for _, p := range parts {
		if p == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(p)
	}
	return b.String()
}

func concat(lists ...[]cqlvalue.Value) []cqlvalue.Value {
	var n int
	for _, l := range lists {
		n += len(l)
	}
	out := make([]cqlvalue.Value, 0, n)
	for _, l := range lists {
		out = append(out, l...)
	}
	return out
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func execute(ctx context.Context, e Executor, b statement.Built, err error) (*result.QueryResult, error) {
	if err != nil {
		return nil, err
	}
	return e.Execute(ctx, b, nil)
}

func addToBatch(batch statement.InlineBatch, b statement.Built, err error) (statement.InlineBatch, error) {
	if err != nil {
		return batch, err
	}
	return batch.AddBuilt(b), nil
}
