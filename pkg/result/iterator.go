// Copyright (C) 2025 ScyllaDB

package result

import (
	"context"
	"iter"
	"slices"

	"github.com/pkg/errors"
	"github.com/scylladb/scyllaquery/pkg/cqlerrors"
	"github.com/scylladb/scyllaquery/pkg/cqlvalue"
	"github.com/scylladb/scyllaquery/pkg/driver"
	"github.com/scylladb/scyllaquery/pkg/util/fsm"
	"github.com/scylladb/scyllaquery/pkg/util/uuid"
	"k8s.io/klog/v2"
)

// PageFetcher fetches the page continuing state.
type PageFetcher func(ctx context.Context, state []byte) (driver.Page, error)

// PagingState is the state of an Iterator.
type PagingState string

const (
	HasBuffered  PagingState = "has_buffered"
	FetchingPage PagingState = "fetching_page"
	Exhausted    PagingState = "exhausted"
)

type pagingEvent string

const (
	eventStop        pagingEvent = "stop"
	eventBufferEmpty pagingEvent = "buffer_empty"
	eventNoMorePages pagingEvent = "no_more_pages"
	eventPageFetched pagingEvent = "page_fetched"
)

// Iterator yields the rows of a paged response. A page is fetched only
// when the rows of the previous one are consumed.
//
// Iterator is not safe for concurrent use.
type Iterator struct {
	fetch   PageFetcher
	cols    *columnIndex
	traceID *uuid.UUID

	buf   [][]cqlvalue.Value
	state []byte
	row   Row
	ok    bool
	err   error

	sm *fsm.StateMachine[PagingState, pagingEvent]
}

// NewIterator starts iterating at first, fetching further pages with fetch.
func NewIterator(first driver.Page, fetch PageFetcher) *Iterator {
	it := &Iterator{
		fetch:   fetch,
		cols:    newColumnIndex(first.Columns),
		traceID: first.TraceID,
		buf:     first.Rows,
		state:   first.PageState,
	}
	it.sm = fsm.New(HasBuffered, eventStop, fsm.StateTransitions[PagingState, pagingEvent]{
		HasBuffered: {
			Action: it.pop,
			Events: map[pagingEvent]PagingState{
				eventBufferEmpty: FetchingPage,
				eventNoMorePages: Exhausted,
			},
		},
		FetchingPage: {
			Action: it.fetchPage,
			Events: map[pagingEvent]PagingState{
				eventPageFetched: HasBuffered,
			},
		},
		Exhausted: {
			Action: it.exhausted,
		},
	}, logTransition)
	return it
}

func logTransition(_ context.Context, from, to PagingState, event pagingEvent) error {
	klog.V(5).InfoS("Paging state transition", "from", from, "to", to, "event", event)
	return nil
}

func (it *Iterator) pop(context.Context) (pagingEvent, error) {
	if len(it.buf) > 0 {
		it.row = Row{cols: it.cols, values: it.buf[0]}
		it.buf = it.buf[1:]
		it.ok = true
		return eventStop, nil
	}
	if len(it.state) > 0 {
		return eventBufferEmpty, nil
	}
	return eventNoMorePages, nil
}

func (it *Iterator) fetchPage(ctx context.Context) (pagingEvent, error) {
	if err := ctx.Err(); err != nil {
		return "", cqlerrors.Database(err, errors.Is(err, context.DeadlineExceeded))
	}
	page, err := it.fetch(ctx, it.state)
	if err != nil {
		return "", err
	}
	it.buf = page.Rows
	it.state = page.PageState
	return eventPageFetched, nil
}

func (it *Iterator) exhausted(context.Context) (pagingEvent, error) {
	it.buf = nil
	it.state = nil
	return eventStop, nil
}

// Next advances to the next row. It returns false when the rows are
// exhausted or an error occurred, see Err.
func (it *Iterator) Next(ctx context.Context) bool {
	it.ok = false
	it.row = Row{}
	if it.err != nil {
		return false
	}
	if err := it.sm.Transition(ctx); err != nil {
		it.err = err
		return false
	}
	return it.ok
}

// Row returns the row Next advanced to.
func (it *Iterator) Row() Row {
	return it.row
}

// Err returns the error that stopped the iteration.
func (it *Iterator) Err() error {
	return it.err
}

// Close drops buffered rows and the paging state, Next returns false
// afterwards.
func (it *Iterator) Close() error {
	it.buf = nil
	it.state = nil
	it.ok = false
	it.row = Row{}
	it.sm.Force(Exhausted)
	return nil
}

// State returns the paging state machine state.
func (it *Iterator) State() PagingState {
	return it.sm.Current()
}

// Columns returns the result column specs.
func (it *Iterator) Columns() []cqlvalue.ColumnSpec {
	return slices.Clone(it.cols.specs)
}

// TraceID returns the trace id of the first page when tracing was
// requested.
func (it *Iterator) TraceID() (uuid.UUID, bool) {
	if it.traceID == nil {
		return uuid.Nil, false
	}
	return *it.traceID, true
}

// Rows returns a sequence of the remaining rows. A failure is yielded once
// as the last element.
func (it *Iterator) Rows(ctx context.Context) iter.Seq2[Row, error] {
	return func(yield func(Row, error) bool) {
		for it.Next(ctx) {
			if !yield(it.Row(), nil) {
				return
			}
		}
		if err := it.Err(); err != nil {
			yield(Row{}, err)
		}
	}
}

// Mapped converts rows of an Iterator as they are pulled.
type Mapped[T any] struct {
	it    *Iterator
	m     Mapper[T]
	n     int
	value T
	err   error
}

// Map returns a sequence of the rows of it converted with m.
func Map[T any](it *Iterator, m Mapper[T]) *Mapped[T] {
	mi := &Mapped[T]{it: it, m: m}
	if len(it.cols.specs) == 0 {
		mi.err = errNoRowsExpected()
	}
	return mi
}

// Scalars returns a sequence of the only column of the rows of it.
func Scalars(it *Iterator) *Mapped[cqlvalue.Value] {
	mi := Map(it, scalarMapper[cqlvalue.Value]())
	if n := len(it.cols.specs); mi.err == nil && n != 1 {
		mi.err = cqlerrors.Usagef("scalar requires exactly one column, result has %d", n)
	}
	return mi
}

func (m *Mapped[T]) Next(ctx context.Context) bool {
	var zero T
	m.value = zero
	if m.err != nil || !m.it.Next(ctx) {
		return false
	}
	v, err := m.m(m.it.Row())
	if err != nil {
		m.err = rowError(m.n, err)
		return false
	}
	m.n++
	m.value = v
	return true
}

func (m *Mapped[T]) Value() T {
	return m.value
}

func (m *Mapped[T]) Err() error {
	if m.err != nil {
		return m.err
	}
	return m.it.Err()
}

func (m *Mapped[T]) Close() error {
	return m.it.Close()
}

// All returns a sequence of the remaining values. A failure is yielded once
// as the last element.
func (m *Mapped[T]) All(ctx context.Context) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		for m.Next(ctx) {
			if !yield(m.Value(), nil) {
				return
			}
		}
		if err := m.Err(); err != nil {
			var zero T
			yield(zero, err)
		}
	}
}
