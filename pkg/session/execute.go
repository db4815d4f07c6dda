// Copyright (C) 2025 ScyllaDB

package session

import (
	"context"

	"github.com/scylladb/scyllaquery/pkg/bind"
	"github.com/scylladb/scyllaquery/pkg/cqlerrors"
	"github.com/scylladb/scyllaquery/pkg/cqlvalue"
	"github.com/scylladb/scyllaquery/pkg/driver"
	"github.com/scylladb/scyllaquery/pkg/result"
	"github.com/scylladb/scyllaquery/pkg/statement"
	"github.com/scylladb/scyllaquery/pkg/util/parallel"
)

// Execute runs st with params and buffers every page of the response.
//
// Query binds Args to '?' markers or NamedArgs to ':name' markers.
// Prepared binds Args only. Built takes no params, its values are final.
func (s *Session) Execute(ctx context.Context, st statement.Statement, params statement.Params) (*result.QueryResult, error) {
	c, err := s.conn()
	if err != nil {
		return nil, err
	}
	req, err := c.request(st, params)
	if err != nil {
		return nil, err
	}

	var pages []driver.Page
	for {
		page, err := c.core.Query(ctx, req)
		if err != nil {
			return nil, err
		}
		pages = append(pages, page)
		if !page.HasMorePages() {
			break
		}
		req.PageState = page.PageState
	}
	return result.New(pages...), nil
}

// ExecutePaged runs st and returns an iterator that fetches the following
// pages on demand. Built statements other than SELECT are rejected.
func (s *Session) ExecutePaged(ctx context.Context, st statement.Statement, params statement.Params) (*result.Iterator, error) {
	if b, ok := st.(statement.Built); ok && !b.ReturnsRows() {
		return nil, cqlerrors.QueryBuilderf("paging requested on %s statement", b.Kind())
	}

	c, err := s.conn()
	if err != nil {
		return nil, err
	}
	req, err := c.request(st, params)
	if err != nil {
		return nil, err
	}

	first, err := c.core.Query(ctx, req)
	if err != nil {
		return nil, err
	}

	fetch := func(ctx context.Context, state []byte) (driver.Page, error) {
		if !s.IsStarted() {
			return driver.Page{}, cqlerrors.Sessionf("session is not started")
		}
		r := req
		r.PageState = state
		return c.core.Query(ctx, r)
	}
	return result.NewIterator(first, fetch), nil
}

// ExecuteConcurrent runs statements concurrently, at most limit at a time,
// zero meaning all at once. params is nil or holds the params of every
// statement. Results are in statement order, nil for failed statements,
// and errors are aggregated.
func (s *Session) ExecuteConcurrent(ctx context.Context, stmts []statement.Statement, params []statement.Params, limit int) ([]*result.QueryResult, error) {
	if params != nil && len(params) != len(stmts) {
		return nil, cqlerrors.Bindingf("got %d parameter lists for %d statements", len(params), len(stmts))
	}

	out := make([]*result.QueryResult, len(stmts))
	err := parallel.ForEach(len(stmts), limit, func(i int) error {
		var p statement.Params
		if params != nil {
			p = params[i]
		}
		r, err := s.Execute(ctx, stmts[i], p)
		if err != nil {
			return err
		}
		out[i] = r
		return nil
	})
	return out, err
}

func (c conn) request(st statement.Statement, params statement.Params) (driver.Request, error) {
	values, err := c.bind(st, params)
	if err != nil {
		return driver.Request{}, err
	}
	opts := st.Options()
	return driver.Request{
		Statement: st.Text(),
		Values:    values,
		Settings:  opts.Resolve(c.profile),
		PageSize:  opts.PageSize(),
	}, nil
}

func (c conn) bind(st statement.Statement, params statement.Params) ([]cqlvalue.Value, error) {
	switch st := st.(type) {
	case statement.Query:
		ph, err := st.Placeholders()
		if err != nil {
			return nil, err
		}
		switch p := params.(type) {
		case statement.NamedArgs:
			return bind.Named(ph, p, nil)
		case statement.Args:
			return bind.Positional(ph, p, nil)
		default:
			if ph.IsNamed() {
				return bind.Named(ph, nil, nil)
			}
			return bind.Positional(ph, nil, nil)
		}
	case statement.Prepared:
		if err := c.owns(st); err != nil {
			return nil, err
		}
		if _, ok := params.(statement.NamedArgs); ok {
			return nil, cqlerrors.Bindingf("prepared statements bind positionally")
		}
		args, _ := params.(statement.Args)
		return statement.BindPrepared(st, args)
	case statement.Built:
		if !statement.IsEmpty(params) {
			return nil, cqlerrors.Bindingf("values of a built statement are final, got %d more", params.Len())
		}
		return st.Values(), nil
	default:
		return nil, cqlerrors.Usagef("unsupported statement %T", st)
	}
}

// owns checks p was prepared by this incarnation of the session.
func (c conn) owns(p statement.Prepared) error {
	md := p.Metadata()
	if md == nil {
		return cqlerrors.Usagef("prepared statement has no metadata")
	}
	if md.SessionID != c.id {
		return cqlerrors.Sessionf("prepared statement belongs to session %s, not %s", md.SessionID, c.id)
	}
	return nil
}
