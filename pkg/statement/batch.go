// Copyright (C) 2025 ScyllaDB

package statement

import (
	"slices"
	"time"

	"github.com/scylladb/scyllaquery/pkg/bind"
	"github.com/scylladb/scyllaquery/pkg/cqlerrors"
	"github.com/scylladb/scyllaquery/pkg/cqlvalue"
	"github.com/scylladb/scyllaquery/pkg/profile"
)

// BatchType is the atomicity mode of a batch. The zero value is
// UnloggedBatch.
type BatchType uint8

const (
	// UnloggedBatch groups statements on a best-effort basis.
	UnloggedBatch BatchType = iota
	// LoggedBatch writes the batch to the batch log first, so either all
	// statements apply or none does.
	LoggedBatch
	// CounterBatch groups counter updates.
	CounterBatch
)

func (t BatchType) String() string {
	switch t {
	case UnloggedBatch:
		return "UNLOGGED"
	case LoggedBatch:
		return "LOGGED"
	case CounterBatch:
		return "COUNTER"
	default:
		return "UNKNOWN"
	}
}

// Batch is an ordered list of statements sent together. Parameters are
// given when the batch is executed, one positional list per statement.
type Batch struct {
	typ        BatchType
	statements []Statement
	opts       Options
}

// NewBatch returns an empty batch of type t.
func NewBatch(t BatchType) Batch {
	return Batch{typ: t}
}

// Add returns a copy of b with s appended.
func (b Batch) Add(s Statement) Batch {
	b.statements = append(slices.Clip(b.statements), s)
	return b
}

func (b Batch) Type() BatchType {
	return b.typ
}

func (b Batch) Len() int {
	return len(b.statements)
}

// Statements returns a copy of the batch statements.
func (b Batch) Statements() []Statement {
	return slices.Clone(b.statements)
}

func (b Batch) Options() Options {
	return b.opts
}

func (b Batch) WithOptions(o Options) Batch {
	b.opts = o
	return b
}

func (b Batch) WithConsistency(c profile.Consistency) Batch {
	return b.WithOptions(b.opts.WithConsistency(c))
}

func (b Batch) WithSerialConsistency(c profile.SerialConsistency) Batch {
	return b.WithOptions(b.opts.WithSerialConsistency(c))
}

func (b Batch) WithTimeout(d time.Duration) Batch {
	return b.WithOptions(b.opts.WithTimeout(d))
}

func (b Batch) WithTimestamp(micros int64) Batch {
	return b.WithOptions(b.opts.WithTimestamp(micros))
}

func (b Batch) WithIdempotent(v bool) Batch {
	return b.WithOptions(b.opts.WithIdempotent(v))
}

func (b Batch) WithTracing(v bool) Batch {
	return b.WithOptions(b.opts.WithTracing(v))
}

func (b Batch) WithProfile(p *profile.ExecutionProfile) Batch {
	return b.WithOptions(b.opts.WithProfile(p))
}

// Entry is a statement of an InlineBatch with its bound values.
type Entry struct {
	Statement Statement
	Values    []cqlvalue.Value
}

// InlineBatch is a batch whose statements carry their values, bound when
// they are added.
type InlineBatch struct {
	typ     BatchType
	entries []Entry
	opts    Options
}

// NewInlineBatch returns an empty inline batch of type t.
func NewInlineBatch(t BatchType) InlineBatch {
	return InlineBatch{typ: t}
}

// Add binds args to s and returns a copy of b with the entry appended.
// Statements with named markers are rejected. Binding errors leave b
// unchanged.
func (b InlineBatch) Add(s Statement, args Args) (InlineBatch, error) {
	var (
		values []cqlvalue.Value
		err    error
	)
	switch s := s.(type) {
	case Query:
		values, err = bindQuery(s, args)
	case Prepared:
		values, err = BindPrepared(s, args)
	case Built:
		if len(args) > 0 {
			return b, cqlerrors.Bindingf("values of a built statement are final, got %d more", len(args))
		}
		return b.AddBuilt(s), nil
	default:
		return b, cqlerrors.Usagef("unsupported statement %T", s)
	}
	if err != nil {
		return b, cqlerrors.Wrap(cqlerrors.KindBinding, err, "inline batch entry")
	}
	return b.add(Entry{Statement: s, Values: values}), nil
}

// AddBuilt returns a copy of b with s and its values appended.
func (b InlineBatch) AddBuilt(s Built) InlineBatch {
	return b.add(Entry{Statement: s, Values: s.Values()})
}

func (b InlineBatch) add(e Entry) InlineBatch {
	b.entries = append(slices.Clip(b.entries), e)
	return b
}

func (b InlineBatch) Type() BatchType {
	return b.typ
}

func (b InlineBatch) Len() int {
	return len(b.entries)
}

// Entries returns a copy of the batch entries.
func (b InlineBatch) Entries() []Entry {
	out := make([]Entry, len(b.entries))
	for i, e := range b.entries {
		out[i] = Entry{Statement: e.Statement, Values: slices.Clone(e.Values)}
	}
	return out
}

func (b InlineBatch) Options() Options {
	return b.opts
}

func (b InlineBatch) WithOptions(o Options) InlineBatch {
	b.opts = o
	return b
}

func (b InlineBatch) WithConsistency(c profile.Consistency) InlineBatch {
	return b.WithOptions(b.opts.WithConsistency(c))
}

func (b InlineBatch) WithSerialConsistency(c profile.SerialConsistency) InlineBatch {
	return b.WithOptions(b.opts.WithSerialConsistency(c))
}

func (b InlineBatch) WithTimeout(d time.Duration) InlineBatch {
	return b.WithOptions(b.opts.WithTimeout(d))
}

func (b InlineBatch) WithTimestamp(micros int64) InlineBatch {
	return b.WithOptions(b.opts.WithTimestamp(micros))
}

func (b InlineBatch) WithIdempotent(v bool) InlineBatch {
	return b.WithOptions(b.opts.WithIdempotent(v))
}

func (b InlineBatch) WithTracing(v bool) InlineBatch {
	return b.WithOptions(b.opts.WithTracing(v))
}

func (b InlineBatch) WithProfile(p *profile.ExecutionProfile) InlineBatch {
	return b.WithOptions(b.opts.WithProfile(p))
}

func bindQuery(q Query, args Args) ([]cqlvalue.Value, error) {
	ph, err := q.Placeholders()
	if err != nil {
		return nil, err
	}
	if ph.IsNamed() {
		return nil, cqlerrors.Bindingf("batch statements must use positional markers")
	}
	return bind.Positional(ph, args, nil)
}

// BindPrepared binds args to p using its metadata.
func BindPrepared(p Prepared, args Args) ([]cqlvalue.Value, error) {
	md := p.Metadata()
	if md == nil {
		return nil, cqlerrors.Usagef("prepared statement has no metadata")
	}
	return bind.Positional(positional(md.Placeholders), args, md.Args)
}

// BindBatchEntry binds the parameters of one Batch entry. NamedArgs are
// rejected.
func BindBatchEntry(s Statement, params Params) ([]cqlvalue.Value, error) {
	if _, ok := params.(NamedArgs); ok {
		return nil, cqlerrors.Bindingf("batch parameters must be positional")
	}
	args, _ := params.(Args)
	switch s := s.(type) {
	case Query:
		return bindQuery(s, args)
	case Prepared:
		return BindPrepared(s, args)
	case Built:
		if len(args) > 0 {
			return nil, cqlerrors.Bindingf("values of a built statement are final, got %d more", len(args))
		}
		return s.Values(), nil
	default:
		return nil, cqlerrors.Usagef("unsupported statement %T", s)
	}
}

// positional treats named markers of a prepared statement as positional
// ones, prepared statements bind by position only.
func positional(p bind.Placeholders) bind.Placeholders {
	if !p.IsNamed() {
		return p
	}
	return bind.Placeholders{Statement: p.Statement, Positional: len(p.Names)}
}
