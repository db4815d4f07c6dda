// Copyright (C) 2025 ScyllaDB

// Package driver defines the boundary between sessions and the driver core
// that owns connections, topology and the wire protocol.
//
// Everything crossing the boundary is expressed in cqlvalue values, so the
// query layer never depends on how the core encodes them.
package driver

import (
	"context"

	"github.com/scylladb/scyllaquery/pkg/cqlvalue"
	"github.com/scylladb/scyllaquery/pkg/profile"
	"github.com/scylladb/scyllaquery/pkg/statement"
	"github.com/scylladb/scyllaquery/pkg/util/uuid"
)

// Column describes a bound marker or a result column.
type Column = cqlvalue.ColumnSpec

// Request is a single statement execution fetching one page.
type Request struct {
	Statement string
	Values    []cqlvalue.Value
	Settings  profile.Effective
	// PageSize is the maximum number of rows of the page, zero means the
	// core default.
	PageSize int
	// PageState continues a previous request, nil starts from the first
	// page.
	PageState []byte
}

// BatchEntry is one statement of a BatchRequest.
type BatchEntry struct {
	Statement string
	Values    []cqlvalue.Value
}

// BatchRequest sends statements together.
type BatchRequest struct {
	Type     statement.BatchType
	Entries  []BatchEntry
	Settings profile.Effective
}

// Page is one page of a response.
type Page struct {
	// Columns is empty when the statement returns no rows.
	Columns []Column
	Rows    [][]cqlvalue.Value
	// PageState is empty when there are no more pages.
	PageState []byte
	// TraceID is set when tracing was requested.
	TraceID  *uuid.UUID
	Warnings []string
}

// HasMorePages reports whether another page can be fetched.
func (p Page) HasMorePages() bool {
	return len(p.PageState) > 0
}

// PreparedInfo is the server metadata of a prepared statement.
type PreparedInfo struct {
	ID     []byte
	Args   []Column
	Result []Column
}

// Core executes requests. Implementations must be safe for concurrent use.
type Core interface {
	Query(ctx context.Context, req Request) (Page, error)
	Batch(ctx context.Context, req BatchRequest) (Page, error)
	Prepare(ctx context.Context, stmt string) (PreparedInfo, error)
	// UseKeyspace switches the keyspace of all subsequent requests.
	UseKeyspace(ctx context.Context, keyspace string) error
	Keyspace() string
	Close() error
}

// Connector opens cores. lb is the policy of requests that do not name one,
// nil for driver defaults.
type Connector interface {
	Connect(ctx context.Context, lb *profile.LoadBalancingPolicy) (Core, error)
}

// ConnectorFunc adapts a function to Connector.
type ConnectorFunc func(ctx context.Context, lb *profile.LoadBalancingPolicy) (Core, error)

func (f ConnectorFunc) Connect(ctx context.Context, lb *profile.LoadBalancingPolicy) (Core, error) {
	return f(ctx, lb)
}
