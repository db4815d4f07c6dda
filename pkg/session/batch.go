// Copyright (C) 2025 ScyllaDB

package session

import (
	"context"

	"github.com/scylladb/scyllaquery/pkg/cqlerrors"
	"github.com/scylladb/scyllaquery/pkg/driver"
	"github.com/scylladb/scyllaquery/pkg/result"
	"github.com/scylladb/scyllaquery/pkg/statement"
	utilerrors "github.com/scylladb/scyllaquery/pkg/util/errors"
	"k8s.io/klog/v2"
)

// Batch sends the statements of b together. params is nil or holds one
// positional list per statement, in order. Every entry is bound before
// anything is sent, all binding errors are reported together.
func (s *Session) Batch(ctx context.Context, b statement.Batch, params []statement.Params) (*result.QueryResult, error) {
	c, err := s.conn()
	if err != nil {
		return nil, err
	}
	if b.Len() == 0 {
		return nil, cqlerrors.Usagef("empty batch")
	}
	if params != nil && len(params) != b.Len() {
		return nil, cqlerrors.Bindingf("batch has %d statements, got %d parameter lists", b.Len(), len(params))
	}

	stmts := b.Statements()
	entries := make([]driver.BatchEntry, len(stmts))
	errs := make([]error, len(stmts))
	for i, st := range stmts {
		var p statement.Params
		if params != nil {
			p = params[i]
		}
		if prep, ok := st.(statement.Prepared); ok {
			if err := c.owns(prep); err != nil {
				errs[i] = err
				continue
			}
		}
		values, err := statement.BindBatchEntry(st, p)
		if err != nil {
			errs[i] = err
			continue
		}
		entries[i] = driver.BatchEntry{Statement: st.Text(), Values: values}
	}
	if err := bindErrors(errs); err != nil {
		return nil, err
	}

	return c.batch(ctx, b.Type(), entries, b.Options())
}

// InlineBatch sends the statements of b with the values bound when they
// were added.
func (s *Session) InlineBatch(ctx context.Context, b statement.InlineBatch) (*result.QueryResult, error) {
	c, err := s.conn()
	if err != nil {
		return nil, err
	}
	if b.Len() == 0 {
		return nil, cqlerrors.Usagef("empty batch")
	}

	src := b.Entries()
	entries := make([]driver.BatchEntry, len(src))
	errs := make([]error, len(src))
	for i, e := range src {
		if prep, ok := e.Statement.(statement.Prepared); ok {
			if err := c.owns(prep); err != nil {
				errs[i] = err
				continue
			}
		}
		entries[i] = driver.BatchEntry{Statement: e.Statement.Text(), Values: e.Values}
	}
	if err := bindErrors(errs); err != nil {
		return nil, err
	}

	return c.batch(ctx, b.Type(), entries, b.Options())
}

// bindErrors aggregates per entry errors. The aggregate keeps the kind of
// the first error, so a stale prepared statement stays a SessionError.
func bindErrors(errs []error) error {
	agg := utilerrors.NewIndexedAggregate("statement", errs)
	if agg == nil {
		return nil
	}
	kind := cqlerrors.KindBinding
	for _, err := range errs {
		if err != nil {
			kind = cqlerrors.KindOf(err)
			break
		}
	}
	return cqlerrors.Wrap(kind, agg, "batch")
}

func (c conn) batch(ctx context.Context, t statement.BatchType, entries []driver.BatchEntry, opts statement.Options) (*result.QueryResult, error) {
	req := driver.BatchRequest{
		Type:     t,
		Entries:  entries,
		Settings: opts.Resolve(c.profile),
	}
	klog.V(4).InfoS("Executing batch", "type", t, "statements", len(entries), "session", c.id)

	page, err := c.core.Batch(ctx, req)
	if err != nil {
		return nil, err
	}
	return result.New(page), nil
}
