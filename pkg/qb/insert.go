// Copyright (C) 2025 ScyllaDB

package qb

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/scylladb/scyllaquery/pkg/cqlerrors"
	"github.com/scylladb/scyllaquery/pkg/result"
	"github.com/scylladb/scyllaquery/pkg/statement"
)

// InsertBuilder builds INSERT statements.
type InsertBuilder struct {
	table       string
	columns     []string
	values      values
	ifNotExists bool
	using       using
	opts        statement.Options
}

// Insert starts an INSERT into table.
func Insert(table string) *InsertBuilder {
	return &InsertBuilder{table: table}
}

// Set adds column with value v.
func (b *InsertBuilder) Set(column string, v any) *InsertBuilder {
	b.columns = append(b.columns, column)
	b.values.add(v)
	return b
}

func (b *InsertBuilder) IfNotExists() *InsertBuilder {
	b.ifNotExists = true
	return b
}

// TTL sets the time to live of the inserted cells, in whole seconds.
func (b *InsertBuilder) TTL(d time.Duration) *InsertBuilder {
	b.using.ttl = &d
	return b
}

// Timestamp sets the write timestamp in microseconds.
func (b *InsertBuilder) Timestamp(micros int64) *InsertBuilder {
	b.using.timestamp = &micros
	return b
}

// Timeout sets the server side timeout.
func (b *InsertBuilder) Timeout(d time.Duration) *InsertBuilder {
	b.using.timeout = &d
	return b
}

// Options sets the request options of the built statement.
func (b *InsertBuilder) Options(o statement.Options) *InsertBuilder {
	b.opts = o
	return b
}

func (b *InsertBuilder) Build() (statement.Built, error) {
	if len(b.columns) == 0 {
		return statement.Built{}, cqlerrors.QueryBuilderf("insert into %s has no columns set", b.table)
	}
	if b.values.err != nil {
		return statement.Built{}, b.values.err
	}

	markers := strings.TrimSuffix(strings.Repeat("?,", len(b.columns)), ",")
	ifNotExists := ""
	if b.ifNotExists {
		ifNotExists = "IF NOT EXISTS"
	}
	text := join(
		"INSERT INTO",
		b.table,
		fmt.Sprintf("(%s) VALUES (%s)", strings.Join(b.columns, ","), markers),
		ifNotExists,
		b.using.String(),
	)
	return statement.NewBuilt(statement.BuiltInsert, text, b.values.vs, b.opts), nil
}

func (b *InsertBuilder) String() string {
	s, err := b.Build()
	if err != nil {
		return err.Error()
	}
	return s.Text()
}

// Execute builds the statement and runs it with its own values.
func (b *InsertBuilder) Execute(ctx context.Context, e Executor) (*result.QueryResult, error) {
	s, err := b.Build()
	return execute(ctx, e, s, err)
}

// AddToBatch builds the statement and appends it to batch.
func (b *InsertBuilder) AddToBatch(batch statement.InlineBatch) (statement.InlineBatch, error) {
	s, err := b.Build()
	return addToBatch(batch, s, err)
}
