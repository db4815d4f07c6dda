// Copyright (C) 2025 ScyllaDB

package session

import (
	"context"

	"github.com/scylladb/scyllaquery/pkg/bind"
	"github.com/scylladb/scyllaquery/pkg/cqlerrors"
	"github.com/scylladb/scyllaquery/pkg/statement"
	"k8s.io/klog/v2"
)

// Prepare registers text with the cluster. Named markers are rewritten to
// positional ones and the handle binds positionally. The handle is valid
// until the session is shut down.
func (s *Session) Prepare(ctx context.Context, text string) (statement.Prepared, error) {
	c, err := s.conn()
	if err != nil {
		return statement.Prepared{}, err
	}
	ph, err := bind.Parse(text)
	if err != nil {
		return statement.Prepared{}, err
	}

	info, err := c.core.Prepare(ctx, ph.Statement)
	if err != nil {
		return statement.Prepared{}, err
	}
	if len(info.Args) != ph.Count() {
		return statement.Prepared{}, cqlerrors.Bindingf("server reported %d markers, found %d", len(info.Args), ph.Count())
	}
	klog.V(4).InfoS("Prepared statement", "statement", ph.Statement, "args", len(info.Args), "columns", len(info.Result))

	return statement.NewPrepared(text, &statement.Metadata{
		ID:           info.ID,
		Args:         info.Args,
		Result:       info.Result,
		Placeholders: ph,
		SessionID:    c.id,
	}), nil
}
