// Copyright (C) 2025 ScyllaDB

// Package statement describes what is sent to the database: raw queries,
// prepared handles, built statements and batches of them.
//
// All types are immutable values. With* methods return modified copies and
// never change the receiver, so a statement can be shared between
// goroutines and reused with different parameters.
package statement

import (
	"slices"
	"time"

	"github.com/scylladb/scyllaquery/pkg/bind"
	"github.com/scylladb/scyllaquery/pkg/cqlvalue"
	"github.com/scylladb/scyllaquery/pkg/profile"
	"github.com/scylladb/scyllaquery/pkg/util/uuid"
)

// Statement is one of Query, Prepared or Built.
type Statement interface {
	// Text is the statement as sent to the database.
	Text() string
	Options() Options
	isStatement()
}

// Query is a raw statement. Its parameters are bound at execute time.
type Query struct {
	text string
	ph   bind.Placeholders
	err  error
	opts Options
}

// NewQuery returns a query for text. Markers are located once, here.
func NewQuery(text string) Query {
	ph, err := bind.Parse(text)
	return Query{text: text, ph: ph, err: err}
}

func (Query) isStatement() {}

// Text returns the query with named markers rewritten to '?'.
func (q Query) Text() string {
	if q.err != nil {
		return q.text
	}
	return q.ph.Statement
}

// Source returns the text the query was created with.
func (q Query) Source() string {
	return q.text
}

// Placeholders returns the markers found in the query text, or the error
// found while looking for them.
func (q Query) Placeholders() (bind.Placeholders, error) {
	return q.ph, q.err
}

func (q Query) Options() Options {
	return q.opts
}

func (q Query) WithOptions(o Options) Query {
	q.opts = o
	return q
}

func (q Query) WithConsistency(c profile.Consistency) Query {
	return q.WithOptions(q.opts.WithConsistency(c))
}

func (q Query) WithSerialConsistency(c profile.SerialConsistency) Query {
	return q.WithOptions(q.opts.WithSerialConsistency(c))
}

func (q Query) WithTimeout(d time.Duration) Query {
	return q.WithOptions(q.opts.WithTimeout(d))
}

func (q Query) WithTimestamp(micros int64) Query {
	return q.WithOptions(q.opts.WithTimestamp(micros))
}

func (q Query) WithIdempotent(v bool) Query {
	return q.WithOptions(q.opts.WithIdempotent(v))
}

func (q Query) WithTracing(v bool) Query {
	return q.WithOptions(q.opts.WithTracing(v))
}

func (q Query) WithProfile(p *profile.ExecutionProfile) Query {
	return q.WithOptions(q.opts.WithProfile(p))
}

func (q Query) WithPageSize(n int) Query {
	return q.WithOptions(q.opts.WithPageSize(n))
}

// Metadata is what the server returned when preparing a statement.
type Metadata struct {
	// ID is the server statement id.
	ID []byte
	// Args describe the bind markers in order.
	Args []cqlvalue.ColumnSpec
	// Result describes the returned columns, empty for statements that
	// return no rows.
	Result []cqlvalue.ColumnSpec
	// Placeholders are the markers of the prepared text.
	Placeholders bind.Placeholders
	// SessionID identifies the session incarnation that prepared the
	// statement.
	SessionID uuid.UUID
}

// Prepared is a handle to a statement prepared by a session. It binds
// positionally, typing values with the server metadata.
type Prepared struct {
	text string
	md   *Metadata
	opts Options
}

// NewPrepared returns a handle. It is called by sessions, applications get
// handles from Session.Prepare.
func NewPrepared(text string, md *Metadata) Prepared {
	return Prepared{text: text, md: md}
}

func (Prepared) isStatement() {}

// Text returns the prepared statement text.
func (p Prepared) Text() string {
	if p.md == nil {
		return p.text
	}
	return p.md.Placeholders.Statement
}

// Source returns the text the statement was prepared from.
func (p Prepared) Source() string {
	return p.text
}

// Metadata returns the server metadata shared by all copies of the handle.
func (p Prepared) Metadata() *Metadata {
	return p.md
}

func (p Prepared) Options() Options {
	return p.opts
}

func (p Prepared) WithOptions(o Options) Prepared {
	p.opts = o
	return p
}

func (p Prepared) WithConsistency(c profile.Consistency) Prepared {
	return p.WithOptions(p.opts.WithConsistency(c))
}

func (p Prepared) WithSerialConsistency(c profile.SerialConsistency) Prepared {
	return p.WithOptions(p.opts.WithSerialConsistency(c))
}

func (p Prepared) WithTimeout(d time.Duration) Prepared {
	return p.WithOptions(p.opts.WithTimeout(d))
}

func (p Prepared) WithTimestamp(micros int64) Prepared {
	return p.WithOptions(p.opts.WithTimestamp(micros))
}

func (p Prepared) WithIdempotent(v bool) Prepared {
	return p.WithOptions(p.opts.WithIdempotent(v))
}

func (p Prepared) WithTracing(v bool) Prepared {
	return p.WithOptions(p.opts.WithTracing(v))
}

func (p Prepared) WithProfile(pr *profile.ExecutionProfile) Prepared {
	return p.WithOptions(p.opts.WithProfile(pr))
}

func (p Prepared) WithPageSize(n int) Prepared {
	return p.WithOptions(p.opts.WithPageSize(n))
}

// BuiltKind is the kind of statement a builder produced.
type BuiltKind uint8

const (
	BuiltInsert BuiltKind = iota
	BuiltUpdate
	BuiltDelete
	BuiltSelect
)

func (k BuiltKind) String() string {
	switch k {
	case BuiltInsert:
		return "INSERT"
	case BuiltUpdate:
		return "UPDATE"
	case BuiltDelete:
		return "DELETE"
	case BuiltSelect:
		return "SELECT"
	default:
		return "UNKNOWN"
	}
}

// Built is a statement generated together with its final values.
type Built struct {
	kind   BuiltKind
	text   string
	values []cqlvalue.Value
	opts   Options
}

// NewBuilt returns a built statement. It is called by the query builder.
func NewBuilt(kind BuiltKind, text string, values []cqlvalue.Value, opts Options) Built {
	return Built{kind: kind, text: text, values: slices.Clone(values), opts: opts}
}

func (Built) isStatement() {}

func (b Built) Text() string {
	return b.text
}

func (b Built) Kind() BuiltKind {
	return b.kind
}

// ReturnsRows reports whether the statement is a SELECT.
func (b Built) ReturnsRows() bool {
	return b.kind == BuiltSelect
}

// Values returns a copy of the statement values.
func (b Built) Values() []cqlvalue.Value {
	return slices.Clone(b.values)
}

func (b Built) Options() Options {
	return b.opts
}

func (b Built) WithOptions(o Options) Built {
	b.opts = o
	return b
}
