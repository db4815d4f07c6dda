// Copyright (C) 2025 ScyllaDB

package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/scylladb/scyllaquery/pkg/cqlerrors"
	"github.com/scylladb/scyllaquery/pkg/cqlvalue"
	"github.com/scylladb/scyllaquery/pkg/driver"
	"github.com/scylladb/scyllaquery/pkg/profile"
	"go.uber.org/atomic"
)

// fakeCore serves pages registered per statement. The page state is the
// index of the next page.
type fakeCore struct {
	mu       sync.Mutex
	keyspace string
	pages    map[string][]driver.Page
	prepared map[string]driver.PreparedInfo
	queries  []driver.Request
	batches  []driver.BatchRequest
	closed   bool
}

var _ driver.Core = &fakeCore{}

func newFakeCore() *fakeCore {
	return &fakeCore{
		pages:    make(map[string][]driver.Page),
		prepared: make(map[string]driver.PreparedInfo),
	}
}

func (f *fakeCore) serve(stmt string, pages ...driver.Page) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range pages {
		if i < len(pages)-1 {
			pages[i].PageState = []byte{byte(i + 1)}
		}
	}
	f.pages[stmt] = pages
}

func (f *fakeCore) Query(ctx context.Context, req driver.Request) (driver.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return driver.Page{}, cqlerrors.Sessionf("driver core is closed")
	}
	if err := ctx.Err(); err != nil {
		return driver.Page{}, cqlerrors.Database(err, false)
	}
	f.queries = append(f.queries, req)

	pages := f.pages[req.Statement]
	if len(pages) == 0 {
		return driver.Page{}, nil
	}
	i := 0
	if len(req.PageState) > 0 {
		i = int(req.PageState[0])
	}
	return pages[i], nil
}

func (f *fakeCore) Batch(_ context.Context, req driver.BatchRequest) (driver.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return driver.Page{}, cqlerrors.Sessionf("driver core is closed")
	}
	f.batches = append(f.batches, req)
	return driver.Page{}, nil
}

func (f *fakeCore) Prepare(_ context.Context, stmt string) (driver.PreparedInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	info, ok := f.prepared[stmt]
	if !ok {
		return driver.PreparedInfo{}, cqlerrors.Database(&cqlerrors.Error{Kind: cqlerrors.KindDatabase, Message: "unconfigured table"}, false)
	}
	return info, nil
}

func (f *fakeCore) UseKeyspace(_ context.Context, keyspace string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keyspace = keyspace
	return nil
}

func (f *fakeCore) Keyspace() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.keyspace
}

func (f *fakeCore) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeCore) requests() []driver.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]driver.Request(nil), f.queries...)
}

func (f *fakeCore) batchRequests() []driver.BatchRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]driver.BatchRequest(nil), f.batches...)
}

// countingConnector returns a new fake core on every successful connect.
type countingConnector struct {
	attempts atomic.Int64
	failures int64
	err      error
	cores    []*fakeCore
	policies []*profile.LoadBalancingPolicy
	mu       sync.Mutex
}

func (c *countingConnector) Connect(_ context.Context, lb *profile.LoadBalancingPolicy) (driver.Core, error) {
	if n := c.attempts.Inc(); n <= c.failures {
		return nil, c.err
	}
	core := newFakeCore()
	c.mu.Lock()
	c.cores = append(c.cores, core)
	c.policies = append(c.policies, lb)
	c.mu.Unlock()
	return core, nil
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Backoff.WaitMin = time.Millisecond
	cfg.Backoff.WaitMax = 2 * time.Millisecond
	return cfg
}

// startedSession returns a started session over core.
func startedSession(t *testing.T, core *fakeCore, opts ...Option) *Session {
	t.Helper()

	connector := driver.ConnectorFunc(func(context.Context, *profile.LoadBalancingPolicy) (driver.Core, error) {
		return core, nil
	})
	s, err := New(testConfig(), append([]Option{WithConnector(connector)}, opts...)...)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Startup(context.Background()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if s.IsStarted() {
			_ = s.Shutdown(context.Background())
		}
	})
	return s
}

func intCol(name string) cqlvalue.ColumnSpec {
	return cqlvalue.ColumnSpec{Keyspace: "ks", Table: "users", Name: name, Type: cqlvalue.Native(cqlvalue.KindInt)}
}

func textCol(name string) cqlvalue.ColumnSpec {
	return cqlvalue.ColumnSpec{Keyspace: "ks", Table: "users", Name: name, Type: cqlvalue.Native(cqlvalue.KindText)}
}

func idsPage(ids ...int32) driver.Page {
	p := driver.Page{Columns: []cqlvalue.ColumnSpec{intCol("id")}}
	for _, id := range ids {
		p.Rows = append(p.Rows, []cqlvalue.Value{cqlvalue.NewInt(id)})
	}
	return p
}
