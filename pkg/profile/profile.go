// Copyright (C) 2025 ScyllaDB

// Package profile holds execution settings shared by statements and
// sessions.
//
// Each setting resolves independently: a per-statement override wins over
// the statement's profile, which wins over the session's default profile,
// which wins over the protocol default.
package profile

import (
	"time"

	"github.com/scylladb/scyllaquery/pkg/pointer"
)

// Protocol defaults, used when no level of the chain sets a value.
const (
	DefaultConsistency       = LocalQuorum
	DefaultSerialConsistency = LocalSerial
	DefaultTimeout           = 30 * time.Second
)

// Settings holds optional execution settings. A nil field is unset.
type Settings struct {
	Consistency       *Consistency
	SerialConsistency *SerialConsistency
	// Timeout bounds a single request or page fetch. Zero disables it.
	Timeout *time.Duration
	// Timestamp is the client write timestamp in microseconds since the
	// Unix epoch.
	Timestamp  *int64
	Idempotent *bool
	Tracing    *bool
}

// Or returns s with unset fields taken from fallback.
func (s Settings) Or(fallback Settings) Settings {
	return Settings{
		Consistency:       pointer.First(s.Consistency, fallback.Consistency),
		SerialConsistency: pointer.First(s.SerialConsistency, fallback.SerialConsistency),
		Timeout:           pointer.First(s.Timeout, fallback.Timeout),
		Timestamp:         pointer.First(s.Timestamp, fallback.Timestamp),
		Idempotent:        pointer.First(s.Idempotent, fallback.Idempotent),
		Tracing:           pointer.First(s.Tracing, fallback.Tracing),
	}.clone()
}

// IsZero reports whether no field is set.
func (s Settings) IsZero() bool {
	return s == Settings{}
}

func (s Settings) clone() Settings {
	return Settings{
		Consistency:       clonePtr(s.Consistency),
		SerialConsistency: clonePtr(s.SerialConsistency),
		Timeout:           clonePtr(s.Timeout),
		Timestamp:         clonePtr(s.Timestamp),
		Idempotent:        clonePtr(s.Idempotent),
		Tracing:           clonePtr(s.Tracing),
	}
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	return pointer.Ptr(*p)
}

// ExecutionProfile is an immutable bundle of execution settings and an
// optional load balancing policy. With* methods return modified copies, so
// a profile can be shared by any number of statements.
// A nil *ExecutionProfile is valid and sets nothing.
type ExecutionProfile struct {
	settings Settings
	lb       *LoadBalancingPolicy
}

// New returns an empty profile.
func New() *ExecutionProfile {
	return &ExecutionProfile{}
}

// NewFromSettings returns a profile holding a copy of s.
func NewFromSettings(s Settings) *ExecutionProfile {
	return &ExecutionProfile{settings: s.clone()}
}

func (p *ExecutionProfile) clone() *ExecutionProfile {
	if p == nil {
		return &ExecutionProfile{}
	}
	return &ExecutionProfile{settings: p.settings.clone(), lb: p.lb}
}

func (p *ExecutionProfile) WithConsistency(c Consistency) *ExecutionProfile {
	n := p.clone()
	n.settings.Consistency = pointer.Ptr(c)
	return n
}

func (p *ExecutionProfile) WithSerialConsistency(c SerialConsistency) *ExecutionProfile {
	n := p.clone()
	n.settings.SerialConsistency = pointer.Ptr(c)
	return n
}

func (p *ExecutionProfile) WithTimeout(d time.Duration) *ExecutionProfile {
	n := p.clone()
	n.settings.Timeout = pointer.Ptr(d)
	return n
}

func (p *ExecutionProfile) WithTimestamp(micros int64) *ExecutionProfile {
	n := p.clone()
	n.settings.Timestamp = pointer.Ptr(micros)
	return n
}

func (p *ExecutionProfile) WithIdempotent(v bool) *ExecutionProfile {
	n := p.clone()
	n.settings.Idempotent = pointer.Ptr(v)
	return n
}

func (p *ExecutionProfile) WithTracing(v bool) *ExecutionProfile {
	n := p.clone()
	n.settings.Tracing = pointer.Ptr(v)
	return n
}

func (p *ExecutionProfile) WithLoadBalancingPolicy(lb *LoadBalancingPolicy) *ExecutionProfile {
	n := p.clone()
	n.lb = lb
	return n
}

// Settings returns a copy of the profile settings.
func (p *ExecutionProfile) Settings() Settings {
	if p == nil {
		return Settings{}
	}
	return p.settings.clone()
}

// LoadBalancingPolicy returns the policy or nil.
func (p *ExecutionProfile) LoadBalancingPolicy() *LoadBalancingPolicy {
	if p == nil {
		return nil
	}
	return p.lb
}

// Effective holds fully resolved settings for one request.
type Effective struct {
	Consistency       Consistency
	SerialConsistency SerialConsistency
	Timeout           time.Duration
	// Timestamp is valid when HasTimestamp is set.
	Timestamp     int64
	HasTimestamp  bool
	Idempotent    bool
	Tracing       bool
	LoadBalancing *LoadBalancingPolicy
}

// Resolve computes effective settings. Profiles are given from the most to
// the least specific, nil profiles are skipped.
func Resolve(override Settings, profiles ...*ExecutionProfile) Effective {
	s := override
	var lb *LoadBalancingPolicy
	for _, p := range profiles {
		s = s.Or(p.Settings())
		if lb == nil {
			lb = p.LoadBalancingPolicy()
		}
	}

	e := Effective{
		Consistency:       pointer.Deref(s.Consistency, DefaultConsistency),
		SerialConsistency: pointer.Deref(s.SerialConsistency, DefaultSerialConsistency),
		Timeout:           pointer.Deref(s.Timeout, DefaultTimeout),
		Idempotent:        pointer.Deref(s.Idempotent, false),
		Tracing:           pointer.Deref(s.Tracing, false),
		LoadBalancing:     lb,
	}
	if s.Timestamp != nil {
		e.Timestamp = *s.Timestamp
		e.HasTimestamp = true
	}
	return e
}
