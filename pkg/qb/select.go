// Copyright (C) 2025 ScyllaDB

package qb

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/scylladb/scyllaquery/pkg/result"
	"github.com/scylladb/scyllaquery/pkg/statement"
)

type order struct {
	column string
	desc   bool
}

// SelectBuilder builds SELECT statements.
type SelectBuilder struct {
	table             string
	columns           []string
	distinct          bool
	where             where
	groupBy           []string
	orderBy           []order
	perPartitionLimit *int
	limit             *int
	allowFiltering    bool
	bypassCache       bool
	timeout           *time.Duration
	opts              statement.Options
}

// Select starts a SELECT from table. Without Columns all columns are
// selected.
func Select(table string) *SelectBuilder {
	return &SelectBuilder{table: table}
}

// Columns adds selectors, they may carry aliases and function calls.
func (b *SelectBuilder) Columns(columns ...string) *SelectBuilder {
	b.columns = append(b.columns, columns...)
	return b
}

func (b *SelectBuilder) Distinct() *SelectBuilder {
	b.distinct = true
	return b
}

func (b *SelectBuilder) Where(clause string, values ...any) *SelectBuilder {
	b.where.add(clause, values...)
	return b
}

func (b *SelectBuilder) GroupBy(columns ...string) *SelectBuilder {
	b.groupBy = append(b.groupBy, columns...)
	return b
}

func (b *SelectBuilder) OrderBy(column string, desc bool) *SelectBuilder {
	b.orderBy = append(b.orderBy, order{column: column, desc: desc})
	return b
}

func (b *SelectBuilder) PerPartitionLimit(n int) *SelectBuilder {
	b.perPartitionLimit = &n
	return b
}

func (b *SelectBuilder) Limit(n int) *SelectBuilder {
	b.limit = &n
	return b
}

func (b *SelectBuilder) AllowFiltering() *SelectBuilder {
	b.allowFiltering = true
	return b
}

func (b *SelectBuilder) BypassCache() *SelectBuilder {
	b.bypassCache = true
	return b
}

func (b *SelectBuilder) Timeout(d time.Duration) *SelectBuilder {
	b.timeout = &d
	return b
}

func (b *SelectBuilder) Options(o statement.Options) *SelectBuilder {
	b.opts = o
	return b
}

func (b *SelectBuilder) Build() (statement.Built, error) {
	if b.where.err != nil {
		return statement.Built{}, b.where.err
	}

	columns := "*"
	if len(b.columns) > 0 {
		columns = strings.Join(b.columns, ",")
	}
	distinct := ""
	if b.distinct {
		distinct = "DISTINCT"
	}
	groupBy := ""
	if len(b.groupBy) > 0 {
		groupBy = "GROUP BY " + strings.Join(b.groupBy, ", ")
	}
	orderBy := ""
	if len(b.orderBy) > 0 {
		parts := make([]string, 0, len(b.orderBy))
		for _, o := range b.orderBy {
			if o.desc {
				parts = append(parts, o.column+" DESC")
			} else {
				parts = append(parts, o.column+" ASC")
			}
		}
		orderBy = "ORDER BY " + strings.Join(parts, ", ")
	}
	perPartitionLimit := ""
	if b.perPartitionLimit != nil {
		perPartitionLimit = "PER PARTITION LIMIT " + strconv.Itoa(*b.perPartitionLimit)
	}
	limit := ""
	if b.limit != nil {
		limit = "LIMIT " + strconv.Itoa(*b.limit)
	}
	allowFiltering := ""
	if b.allowFiltering {
		allowFiltering = "ALLOW FILTERING"
	}
	bypassCache := ""
	if b.bypassCache {
		bypassCache = "BYPASS CACHE"
	}
	u := using{timeout: b.timeout}

	text := join(
		"SELECT",
		distinct,
		columns,
		"FROM",
		b.table,
		b.where.String(),
		groupBy,
		orderBy,
		perPartitionLimit,
		limit,
		allowFiltering,
		bypassCache,
		u.String(),
	)
	return statement.NewBuilt(statement.BuiltSelect, text, b.where.vs, b.opts), nil
}

func (b *SelectBuilder) String() string {
	s, err := b.Build()
	if err != nil {
		return err.Error()
	}
	return s.Text()
}

func (b *SelectBuilder) Execute(ctx context.Context, e Executor) (*result.QueryResult, error) {
	s, err := b.Build()
	return execute(ctx, e, s, err)
}

// ExecutePaged builds the statement and returns an iterator over its rows.
func (b *SelectBuilder) ExecutePaged(ctx context.Context, e PagedExecutor) (*result.Iterator, error) {
	s, err := b.Build()
	if err != nil {
		return nil, err
	}
	return e.ExecutePaged(ctx, s, nil)
}

func (b *SelectBuilder) AddToBatch(batch statement.InlineBatch) (statement.InlineBatch, error) {
	s, err := b.Build()
	return addToBatch(batch, s, err)
}
