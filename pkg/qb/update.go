// Copyright (C) 2025 ScyllaDB

package qb

import (
	"context"
	"strings"
	"time"

	"github.com/scylladb/scyllaquery/pkg/cqlerrors"
	"github.com/scylladb/scyllaquery/pkg/result"
	"github.com/scylladb/scyllaquery/pkg/statement"
)

// UpdateBuilder builds UPDATE statements. Values are ordered SET values
// first, then WHERE values, then IF values.
type UpdateBuilder struct {
	table       string
	assignments []string
	values      values
	where       where
	cond        condition
	using       using
	opts        statement.Options
}

// Update starts an UPDATE of table.
func Update(table string) *UpdateBuilder {
	return &UpdateBuilder{table: table}
}

// Set assigns v to column.
func (b *UpdateBuilder) Set(column string, v any) *UpdateBuilder {
	b.assignments = append(b.assignments, column+" = ?")
	b.values.add(v)
	return b
}

// Inc adds v to column.
func (b *UpdateBuilder) Inc(column string, v any) *UpdateBuilder {
	b.assignments = append(b.assignments, column+" = "+column+" + ?")
	b.values.add(v)
	return b
}

// Dec subtracts v from column.
func (b *UpdateBuilder) Dec(column string, v any) *UpdateBuilder {
	b.assignments = append(b.assignments, column+" = "+column+" - ?")
	b.values.add(v)
	return b
}

// Where adds a clause, joined with AND, binding values to its markers.
func (b *UpdateBuilder) Where(clause string, values ...any) *UpdateBuilder {
	b.where.add(clause, values...)
	return b
}

// If adds a condition, joined with AND. It replaces IfExists.
func (b *UpdateBuilder) If(clause string, values ...any) *UpdateBuilder {
	b.cond.add(clause, values...)
	return b
}

// IfExists replaces conditions added with If.
func (b *UpdateBuilder) IfExists() *UpdateBuilder {
	b.cond.ifExists()
	return b
}

func (b *UpdateBuilder) TTL(d time.Duration) *UpdateBuilder {
	b.using.ttl = &d
	return b
}

func (b *UpdateBuilder) Timestamp(micros int64) *UpdateBuilder {
	b.using.timestamp = &micros
	return b
}

func (b *UpdateBuilder) Timeout(d time.Duration) *UpdateBuilder {
	b.using.timeout = &d
	return b
}

func (b *UpdateBuilder) Options(o statement.Options) *UpdateBuilder {
	b.opts = o
	return b
}

func (b *UpdateBuilder) Build() (statement.Built, error) {
	if len(b.assignments) == 0 {
		return statement.Built{}, cqlerrors.QueryBuilderf("update of %s has no assignments", b.table)
	}
	if len(b.where.clauses) == 0 {
		return statement.Built{}, cqlerrors.QueryBuilderf("update of %s has no where clause", b.table)
	}
	if err := firstErr(b.values.err, b.where.err, b.cond.err); err != nil {
		return statement.Built{}, err
	}

	text := join(
		"UPDATE",
		b.table,
		b.using.String(),
		"SET "+strings.Join(b.assignments, ", "),
		b.where.String(),
		b.cond.String(),
	)
	return statement.NewBuilt(statement.BuiltUpdate, text, concat(b.values.vs, b.where.vs, b.cond.vs), b.opts), nil
}

func (b *UpdateBuilder) String() string {
	s, err := b.Build()
	if err != nil {
		return err.Error()
	}
	return s.Text()
}

func (b *UpdateBuilder) Execute(ctx context.Context, e Executor) (*result.QueryResult, error) {
	s, err := b.Build()
	return execute(ctx, e, s, err)
}

func (b *UpdateBuilder) AddToBatch(batch statement.InlineBatch) (statement.InlineBatch, error) {
	s, err := b.Build()
	return addToBatch(batch, s, err)
}
