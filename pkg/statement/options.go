// Copyright (C) 2025 ScyllaDB

package statement

import (
	"time"

	"github.com/scylladb/scyllaquery/pkg/pointer"
	"github.com/scylladb/scyllaquery/pkg/profile"
)

// Options holds per-statement overrides. The zero value overrides nothing.
// With* methods return modified copies.
type Options struct {
	settings profile.Settings
	profile  *profile.ExecutionProfile
	pageSize int
}

func (o Options) WithConsistency(c profile.Consistency) Options {
	o.settings = o.settings.Or(profile.Settings{})
	o.settings.Consistency = pointer.Ptr(c)
	return o
}

func (o Options) WithSerialConsistency(c profile.SerialConsistency) Options {
	o.settings = o.settings.Or(profile.Settings{})
	o.settings.SerialConsistency = pointer.Ptr(c)
	return o
}

func (o Options) WithTimeout(d time.Duration) Options {
	o.settings = o.settings.Or(profile.Settings{})
	o.settings.Timeout = pointer.Ptr(d)
	return o
}

// WithTimestamp sets the write timestamp in microseconds since the Unix
// epoch.
func (o Options) WithTimestamp(micros int64) Options {
	o.settings = o.settings.Or(profile.Settings{})
	o.settings.Timestamp = pointer.Ptr(micros)
	return o
}

func (o Options) WithIdempotent(v bool) Options {
	o.settings = o.settings.Or(profile.Settings{})
	o.settings.Idempotent = pointer.Ptr(v)
	return o
}

func (o Options) WithTracing(v bool) Options {
	o.settings = o.settings.Or(profile.Settings{})
	o.settings.Tracing = pointer.Ptr(v)
	return o
}

func (o Options) WithProfile(p *profile.ExecutionProfile) Options {
	o.profile = p
	return o
}

// WithPageSize sets the number of rows fetched per page. Zero uses the
// session default.
func (o Options) WithPageSize(n int) Options {
	o.pageSize = n
	return o
}

// Settings returns a copy of the overrides.
func (o Options) Settings() profile.Settings {
	return o.settings.Or(profile.Settings{})
}

func (o Options) Profile() *profile.ExecutionProfile {
	return o.profile
}

func (o Options) PageSize() int {
	return o.pageSize
}

// Resolve computes the effective settings against the session default
// profile.
func (o Options) Resolve(sessionDefault *profile.ExecutionProfile) profile.Effective {
	return profile.Resolve(o.settings, o.profile, sessionDefault)
}
