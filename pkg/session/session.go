// Copyright (C) 2025 ScyllaDB

// Package session executes statements and batches against a cluster and
// materializes their results.
//
// A Session is created stopped. Startup connects it and Shutdown closes
// it, every other operation requires a started session. Sessions are safe
// for concurrent use.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/scylladb/scyllaquery/pkg/cqlerrors"
	"github.com/scylladb/scyllaquery/pkg/driver"
	"github.com/scylladb/scyllaquery/pkg/driver/gocqldriver"
	"github.com/scylladb/scyllaquery/pkg/profile"
	"github.com/scylladb/scyllaquery/pkg/qb"
	"github.com/scylladb/scyllaquery/pkg/util/retry"
	"github.com/scylladb/scyllaquery/pkg/util/uuid"
	"go.uber.org/atomic"
	"k8s.io/klog/v2"
)

type state = int32

const (
	stateStopped state = iota
	stateStarted
)

// Session executes statements through a driver core.
type Session struct {
	cfg       Config
	connector driver.Connector
	metrics   *gocqldriver.Metrics
	profile   *profile.ExecutionProfile

	state atomic.Int32

	mu sync.RWMutex
	// Fields below are set by Startup.
	core           driver.Core
	id             uuid.UUID
	defaultProfile *profile.ExecutionProfile
	release        context.CancelFunc
}

var (
	_ qb.Executor      = &Session{}
	_ qb.PagedExecutor = &Session{}
)

// Option customizes a Session.
type Option func(s *Session)

// WithConnector replaces the gocql connector.
func WithConnector(c driver.Connector) Option {
	return func(s *Session) {
		s.connector = c
	}
}

// WithMetrics makes the gocql connector report to m. It has no effect
// together with WithConnector.
func WithMetrics(m *gocqldriver.Metrics) Option {
	return func(s *Session) {
		s.metrics = m
	}
}

// WithProfile replaces the default profile built from the config.
func WithProfile(p *profile.ExecutionProfile) Option {
	return func(s *Session) {
		s.profile = p
	}
}

// New returns a stopped session.
func New(cfg Config, opts ...Option) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, cqlerrors.Wrap(cqlerrors.KindBase, err, "invalid session config")
	}

	s := &Session{cfg: cfg}
	for _, o := range opts {
		o(s)
	}
	if s.connector == nil {
		s.connector = gocqldriver.NewConnector(cfg.driverConfig(s.metrics))
	}
	return s, nil
}

// Startup connects the session, retrying with the configured backoff while
// the failure is transient. It fails if the session is already started.
func (s *Session) Startup(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Load() == stateStarted {
		return cqlerrors.Sessionf("session is already started")
	}

	// Load balancing policies live until shutdown, not until ctx is done.
	lifetime, release := context.WithCancel(context.WithoutCancel(ctx))
	p := s.profile
	if p == nil {
		var err error
		p, err = s.cfg.Profile.Build(lifetime)
		if err != nil {
			release()
			return cqlerrors.Wrap(cqlerrors.KindBase, err, "default profile")
		}
	}

	b := s.cfg.Backoff
	backoff := retry.WithMaxRetries(
		retry.NewExponentialBackoff(b.WaitMin, 0, b.WaitMax, b.Multiplier, b.Jitter),
		b.MaxRetries,
	)
	var core driver.Core
	connect := func() error {
		c, err := s.connector.Connect(ctx, p.LoadBalancingPolicy())
		if err != nil {
			if !cqlerrors.IsRetryable(err) || ctx.Err() != nil {
				return retry.Permanent(err)
			}
			return err
		}
		core = c
		return nil
	}
	notify := func(err error, wait time.Duration) {
		klog.InfoS("Connecting to cluster failed, retrying", "hosts", s.cfg.Hosts, "wait", wait, "err", err)
	}
	if err := retry.WithNotify(ctx, connect, backoff, notify); err != nil {
		release()
		return errors.Wrap(err, "connect")
	}

	s.core = core
	s.id = uuid.MustRandom()
	s.defaultProfile = p
	s.release = release
	s.state.Store(stateStarted)

	klog.InfoS("Session started", "hosts", s.cfg.Hosts, "keyspace", core.Keyspace(), "session", s.id)
	return nil
}

// Shutdown closes the session. It fails if the session is not started.
// In-flight requests fail with a SessionError.
func (s *Session) Shutdown(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Load() != stateStarted {
		return cqlerrors.Sessionf("session is not started")
	}
	s.state.Store(stateStopped)

	err := s.core.Close()
	if err != nil {
		klog.ErrorS(err, "Failed to close driver core", "session", s.id)
	}
	s.release()

	klog.InfoS("Session stopped", "session", s.id)
	s.core = nil
	s.defaultProfile = nil
	s.release = nil
	return err
}

// IsStarted reports whether the session is started.
func (s *Session) IsStarted() bool {
	return s.state.Load() == stateStarted
}

// ID identifies the current incarnation of the session. It changes on
// every Startup.
func (s *Session) ID() uuid.UUID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.id
}

// Profile returns the default execution profile of the started session.
func (s *Session) Profile() *profile.ExecutionProfile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.defaultProfile
}

// conn is a snapshot of the started session.
type conn struct {
	core    driver.Core
	id      uuid.UUID
	profile *profile.ExecutionProfile
}

func (s *Session) conn() (conn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state.Load() != stateStarted {
		return conn{}, cqlerrors.Sessionf("session is not started")
	}
	return conn{core: s.core, id: s.id, profile: s.defaultProfile}, nil
}

// UseKeyspace switches the keyspace of all subsequent requests. Unless
// caseSensitive is set the name is lowercased.
func (s *Session) UseKeyspace(ctx context.Context, name string, caseSensitive bool) error {
	c, err := s.conn()
	if err != nil {
		return err
	}
	if name == "" {
		return cqlerrors.Usagef("empty keyspace name")
	}
	ks := keyspace(name, caseSensitive)
	if err := c.core.UseKeyspace(ctx, ks); err != nil {
		return err
	}
	klog.V(2).InfoS("Switched keyspace", "keyspace", ks, "session", c.id)
	return nil
}

// Keyspace returns the current keyspace, empty when none is used or the
// session is not started.
func (s *Session) Keyspace() string {
	c, err := s.conn()
	if err != nil {
		return ""
	}
	return c.core.Keyspace()
}
