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

// DeleteBuilder builds DELETE statements.
type DeleteBuilder struct {
	table   string
	columns []string
	where   where
	cond    condition
	using   using
	opts    statement.Options
}

// Delete starts a DELETE from table. Without Columns whole rows are
// deleted.
func Delete(table string) *DeleteBuilder {
	return &DeleteBuilder{table: table}
}

func (b *DeleteBuilder) Columns(columns ...string) *DeleteBuilder {
	b.columns = append(b.columns, columns...)
	return b
}

func (b *DeleteBuilder) Where(clause string, values ...any) *DeleteBuilder {
	b.where.add(clause, values...)
	return b
}

func (b *DeleteBuilder) If(clause string, values ...any) *DeleteBuilder {
	b.cond.add(clause, values...)
	return b
}

func (b *DeleteBuilder) IfExists() *DeleteBuilder {
	b.cond.ifExists()
	return b
}

func (b *DeleteBuilder) Timestamp(micros int64) *DeleteBuilder {
	b.using.timestamp = &micros
	return b
}

func (b *DeleteBuilder) Timeout(d time.Duration) *DeleteBuilder {
	b.using.timeout = &d
	return b
}

func (b *DeleteBuilder) Options(o statement.Options) *DeleteBuilder {
	b.opts = o
	return b
}

func (b *DeleteBuilder) Build() (statement.Built, error) {
	if len(b.where.clauses) == 0 {
		return statement.Built{}, cqlerrors.QueryBuilderf("delete from %s has no where clause", b.table)
	}
	if err := firstErr(b.where.err, b.cond.err); err != nil {
		return statement.Built{}, err
	}

	text := join(
		"DELETE",
		strings.Join(b.columns, ", "),
		"FROM",
		b.table,
		b.using.String(),
		b.where.String(),
		b.cond.String(),
	)
	return statement.NewBuilt(statement.BuiltDelete, text, concat(b.where.vs, b.cond.vs), b.opts), nil
}

func (b *DeleteBuilder) String() string {
	s, err := b.Build()
	if err != nil {
		return err.Error()
	}
	return s.Text()
}

func (b *DeleteBuilder) Execute(ctx context.Context, e Executor) (*result.QueryResult, error) {
	s, err := b.Build()
	return execute(ctx, e, s, err)
}

func (b *DeleteBuilder) AddToBatch(batch statement.InlineBatch) (statement.InlineBatch, error) {
	s, err := b.Build()
	return addToBatch(batch, s, err)
}
