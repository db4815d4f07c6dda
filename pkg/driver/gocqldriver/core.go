// Copyright (C) 2025 ScyllaDB

// Package gocqldriver implements driver.Core on top of gocql.
package gocqldriver

import (
	"bytes"
	"context"
	"sync"
	"time"

	"github.com/gocql/gocql"
	"github.com/pkg/errors"
	"github.com/scylladb/gocqlx/v2"
	"github.com/scylladb/scyllaquery/pkg/cqlerrors"
	"github.com/scylladb/scyllaquery/pkg/cqlvalue"
	"github.com/scylladb/scyllaquery/pkg/driver"
	"github.com/scylladb/scyllaquery/pkg/profile"
	"github.com/scylladb/scyllaquery/pkg/statement"
	"github.com/scylladb/scyllaquery/pkg/util/uuid"
	"k8s.io/klog/v2"
)

// Connector opens gocql backed cores.
type Connector struct {
	cfg Config
}

var _ driver.Connector = &Connector{}

func NewConnector(cfg Config) *Connector {
	return &Connector{cfg: cfg}
}

func (c *Connector) Connect(ctx context.Context, lb *profile.LoadBalancingPolicy) (driver.Core, error) {
	cfg := c.cfg
	cfg.LoadBalancing = lb
	return Open(ctx, cfg)
}

// Core holds a gocql session per load balancing policy in use. Requests
// without a policy, or with the policy of Config.LoadBalancing, use the
// default session.
type Core struct {
	cfg Config

	mu       sync.RWMutex
	keyspace string
	session  *gocql.Session
	policies map[*profile.LoadBalancingPolicy]*gocql.Session
	closed   bool
}

var _ driver.Core = &Core{}

// Open connects the default session.
func Open(ctx context.Context, cfg Config) (*Core, error) {
	if len(cfg.Hosts) == 0 {
		return nil, cqlerrors.Usagef("no contact points")
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = defaultPageSize
	}

	s, err := cfg.createSession(ctx, cfg.Keyspace, cfg.LoadBalancing)
	if err != nil {
		return nil, err
	}
	klog.InfoS("Connected to cluster", "hosts", cfg.Hosts, "keyspace", cfg.Keyspace)

	return &Core{
		cfg:      cfg,
		keyspace: cfg.Keyspace,
		session:  s,
		policies: make(map[*profile.LoadBalancingPolicy]*gocql.Session),
	}, nil
}

func (c Config) createSession(ctx context.Context, keyspace string, lb *profile.LoadBalancingPolicy) (*gocql.Session, error) {
	cluster, err := c.clusterConfig(keyspace, lb)
	if err != nil {
		return nil, err
	}

	type result struct {
		s   *gocql.Session
		err error
	}
	ch := make(chan result, 1)
	go func() {
		s, err := cluster.CreateSession()
		ch <- result{s: s, err: err}
	}()

	select {
	case r := <-ch:
		if r.err != nil {
			return nil, cqlerrors.Database(errors.Wrap(r.err, "create session"), true)
		}
		return r.s, nil
	case <-ctx.Done():
		go func() {
			if r := <-ch; r.s != nil {
				r.s.Close()
			}
		}()
		return nil, cqlerrors.Database(ctx.Err(), errors.Is(ctx.Err(), context.DeadlineExceeded))
	}
}

func (c *Core) sessionFor(ctx context.Context, lb *profile.LoadBalancingPolicy) (*gocql.Session, error) {
	c.mu.RLock()
	if c.closed {
		c.mu.RUnlock()
		return nil, cqlerrors.Sessionf("driver core is closed")
	}
	if lb == nil || lb == c.cfg.LoadBalancing {
		s := c.session
		c.mu.RUnlock()
		return s, nil
	}
	s, ok := c.policies[lb]
	keyspace := c.keyspace
	c.mu.RUnlock()
	if ok {
		return s, nil
	}

	if err := lb.Context().Err(); err != nil {
		return nil, cqlerrors.Wrap(cqlerrors.KindBase, err, "load balancing policy is no longer usable")
	}

	s, err := c.cfg.createSession(ctx, keyspace, lb)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		s.Close()
		return nil, cqlerrors.Sessionf("driver core is closed")
	}
	if existing, ok := c.policies[lb]; ok {
		s.Close()
		return existing, nil
	}
	if c.keyspace != keyspace {
		// Keyspace changed while connecting, the next call reconnects.
		defer s.Close()
		return c.session, nil
	}
	c.policies[lb] = s
	klog.V(2).InfoS("Opened session for load balancing policy", "policy", lb)

	context.AfterFunc(lb.Context(), func() {
		c.mu.Lock()
		s, ok := c.policies[lb]
		delete(c.policies, lb)
		c.mu.Unlock()
		if ok {
			s.Close()
			klog.V(2).InfoS("Closed session of released load balancing policy", "policy", lb)
		}
	})

	return s, nil
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

type traceCapture struct {
	id []byte
}

func (t *traceCapture) Trace(id []byte) {
	t.id = bytes.Clone(id)
}

func (t *traceCapture) traceID() *uuid.UUID {
	if t == nil || len(t.id) == 0 {
		return nil
	}
	u, err := uuid.FromBytes(t.id)
	if err != nil {
		return nil
	}
	return &u
}

func (c *Core) Query(ctx context.Context, req driver.Request) (driver.Page, error) {
	s, err := c.sessionFor(ctx, req.Settings.LoadBalancing)
	if err != nil {
		return driver.Page{}, err
	}

	ctx, cancel := withTimeout(ctx, req.Settings.Timeout)
	defer cancel()

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = c.cfg.PageSize
	}

	q := s.Query(req.Statement, args(req.Values)...).
		WithContext(ctx).
		Consistency(gocql.Consistency(req.Settings.Consistency)).
		SerialConsistency(gocql.SerialConsistency(req.Settings.SerialConsistency)).
		Idempotent(req.Settings.Idempotent).
		PageSize(pageSize).
		PageState(req.PageState)
	if req.Settings.HasTimestamp {
		q = q.WithTimestamp(req.Settings.Timestamp)
	}
	var tracer *traceCapture
	if req.Settings.Tracing {
		tracer = &traceCapture{}
		q = q.Trace(tracer)
	}

	klog.V(4).InfoS("Executing query", "statement", req.Statement, "values", len(req.Values), "consistency", req.Settings.Consistency, "pageSize", pageSize, "continued", len(req.PageState) > 0)

	page, err := readPage(q.Iter())
	if err != nil {
		return driver.Page{}, classify(err, req.Settings.Idempotent)
	}
	page.TraceID = tracer.traceID()
	return page, nil
}

func readPage(iter *gocql.Iter) (driver.Page, error) {
	cols := iter.Columns()
	page := driver.Page{
		Columns: columnsOf(cols),
	}

	var n int
	for _, c := range cols {
		n += width(c.TypeInfo)
	}
	cells := make([]gocql.DirectUnmarshal, n)
	dest := make([]any, n)
	for i := range cells {
		dest[i] = &cells[i]
	}

	var decodeErr error
	for decodeErr == nil && iter.Scan(dest...) {
		row := make([]cqlvalue.Value, len(cols))
		i := 0
		for j, c := range cols {
			w := width(c.TypeInfo)
			row[j], decodeErr = decodeColumn(c, cells[i:i+w])
			if decodeErr != nil {
				decodeErr = errors.Wrapf(decodeErr, "column %q", c.Name)
				break
			}
			i += w
		}
		page.Rows = append(page.Rows, row)
	}

	page.PageState = bytes.Clone(iter.PageState())
	page.Warnings = iter.Warnings()
	if err := iter.Close(); err != nil {
		return driver.Page{}, err
	}
	if decodeErr != nil {
		return driver.Page{}, decodeErr
	}
	return page, nil
}

// width is the number of scan destinations the driver expects for a
// column, tuples are expanded into their elements.
func width(info gocql.TypeInfo) int {
	if t, ok := info.(gocql.TupleTypeInfo); ok {
		return len(t.Elems)
	}
	return 1
}

func decodeColumn(col gocql.ColumnInfo, cells []gocql.DirectUnmarshal) (cqlvalue.Value, error) {
	t, ok := col.TypeInfo.(gocql.TupleTypeInfo)
	if !ok {
		return decode(col.TypeInfo, cells[0])
	}
	if isEmptyTuple(cells) {
		return cqlvalue.Null, nil
	}
	elems := make([]cqlvalue.Value, len(t.Elems))
	for i, e := range t.Elems {
		v, err := decode(e, cells[i])
		if err != nil {
			return cqlvalue.Null, err
		}
		elems[i] = v
	}
	return cqlvalue.NewTuple(elems...), nil
}

func batchType(t statement.BatchType) gocql.BatchType {
	switch t {
	case statement.LoggedBatch:
		return gocql.LoggedBatch
	case statement.CounterBatch:
		return gocql.CounterBatch
	default:
		return gocql.UnloggedBatch
	}
}

func (c *Core) Batch(ctx context.Context, req driver.BatchRequest) (driver.Page, error) {
	s, err := c.sessionFor(ctx, req.Settings.LoadBalancing)
	if err != nil {
		return driver.Page{}, err
	}

	ctx, cancel := withTimeout(ctx, req.Settings.Timeout)
	defer cancel()

	b := s.NewBatch(batchType(req.Type)).
		WithContext(ctx).
		SerialConsistency(gocql.SerialConsistency(req.Settings.SerialConsistency))
	b.SetConsistency(gocql.Consistency(req.Settings.Consistency))
	for _, e := range req.Entries {
		b.Entries = append(b.Entries, gocql.BatchEntry{
			Stmt:       e.Statement,
			Args:       args(e.Values),
			Idempotent: req.Settings.Idempotent,
		})
	}
	if req.Settings.HasTimestamp {
		b = b.WithTimestamp(req.Settings.Timestamp)
	}
	var tracer *traceCapture
	if req.Settings.Tracing {
		tracer = &traceCapture{}
		b = b.Trace(tracer)
	}

	klog.V(4).InfoS("Executing batch", "type", req.Type, "statements", len(req.Entries), "consistency", req.Settings.Consistency)

	if err := s.ExecuteBatch(b); err != nil {
		return driver.Page{}, classify(err, req.Settings.Idempotent)
	}
	return driver.Page{TraceID: tracer.traceID()}, nil
}

var errPrepared = errors.New("prepared")

// Prepare captures the metadata of the statement the driver prepares
// before binding, the statement itself is never executed.
func (c *Core) Prepare(ctx context.Context, stmt string) (driver.PreparedInfo, error) {
	s, err := c.sessionFor(ctx, nil)
	if err != nil {
		return driver.PreparedInfo{}, err
	}

	var info *gocql.QueryInfo
	err = s.Bind(stmt, func(qi *gocql.QueryInfo) ([]any, error) {
		info = qi
		return nil, errPrepared
	}).WithContext(ctx).Exec()
	if info == nil {
		if err == nil {
			err = errors.New("driver did not prepare the statement")
		}
		return driver.PreparedInfo{}, classify(err, true)
	}

	klog.V(4).InfoS("Prepared statement", "statement", stmt, "args", len(info.Args))

	return driver.PreparedInfo{
		ID:     bytes.Clone(info.Id),
		Args:   columnsOf(info.Args),
		Result: columnsOf(info.Rval),
	}, nil
}

// UseKeyspace reconnects with keyspace as the default. Sessions of load
// balancing policies are reopened on their next use.
func (c *Core) UseKeyspace(ctx context.Context, keyspace string) error {
	if _, err := c.sessionFor(ctx, nil); err != nil {
		return err
	}

	s, err := c.cfg.createSession(ctx, keyspace, c.cfg.LoadBalancing)
	if err != nil {
		return err
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		s.Close()
		return cqlerrors.Sessionf("driver core is closed")
	}
	old := c.session
	oldPolicies := c.policies
	c.session = s
	c.keyspace = keyspace
	c.policies = make(map[*profile.LoadBalancingPolicy]*gocql.Session)
	c.mu.Unlock()

	old.Close()
	for _, p := range oldPolicies {
		p.Close()
	}
	klog.InfoS("Switched keyspace", "keyspace", keyspace)
	return nil
}

func (c *Core) Keyspace() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.keyspace
}

// ExecSchema runs a schema change and waits for the cluster to agree on
// the new schema.
func (c *Core) ExecSchema(ctx context.Context, stmt string) error {
	s, err := c.sessionFor(ctx, nil)
	if err != nil {
		return err
	}
	if err := gocqlx.NewSession(s).ContextQuery(ctx, stmt, nil).ExecRelease(); err != nil {
		return classify(err, false)
	}
	if err := s.AwaitSchemaAgreement(ctx); err != nil {
		return classify(err, false)
	}
	return nil
}

func (c *Core) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	s := c.session
	policies := c.policies
	c.policies = nil
	c.mu.Unlock()

	s.Close()
	for _, p := range policies {
		p.Close()
	}
	klog.InfoS("Closed driver core")
	return nil
}
