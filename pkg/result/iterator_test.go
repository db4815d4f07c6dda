// Copyright (C) 2025 ScyllaDB

package result

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/scylladb/scyllaquery/pkg/cqlerrors"
	"github.com/scylladb/scyllaquery/pkg/cqlvalue"
	"github.com/scylladb/scyllaquery/pkg/driver"
	"go.uber.org/atomic"
)

// pager serves count pages from a fixed list, keyed by page state.
type pager struct {
	pages   []driver.Page
	fetches atomic.Int64
	err     error
}

func newPager(pages ...[]int64) *pager {
	p := &pager{}
	for i, counts := range pages {
		page := countPage(counts...)
		if i < len(pages)-1 {
			page.PageState = []byte{byte(i + 1)}
		}
		p.pages = append(p.pages, page)
	}
	return p
}

func (p *pager) fetch(_ context.Context, state []byte) (driver.Page, error) {
	p.fetches.Inc()
	if p.err != nil {
		return driver.Page{}, p.err
	}
	return p.pages[state[0]], nil
}

func (p *pager) iterator() *Iterator {
	return NewIterator(p.pages[0], p.fetch)
}

func collect(t *testing.T, it *Iterator) []int64 {
	t.Helper()

	var out []int64
	for row, err := range it.Rows(context.Background()) {
		if err != nil {
			t.Fatal(err)
		}
		v, _ := row.Value(0).Int64()
		out = append(out, v)
	}
	return out
}

func TestIteratorYieldsEveryRowOnce(t *testing.T) {
	t.Parallel()

	p := newPager([]int64{1, 2}, []int64{}, []int64{3}, []int64{4, 5})
	got := collect(t, p.iterator())

	if diff := cmp.Diff([]int64{1, 2, 3, 4, 5}, got); diff != "" {
		t.Errorf("unexpected rows (-want +got):\n%s", diff)
	}
	if n := p.fetches.Load(); n != 3 {
		t.Errorf("expected 3 fetches, got %d", n)
	}
}

func TestIteratorFetchesOnlyWhenBufferIsEmpty(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	p := newPager([]int64{1, 2}, []int64{3})
	it := p.iterator()

	for i := 0; i < 2; i++ {
		if !it.Next(ctx) {
			t.Fatalf("expected row %d", i)
		}
		if n := p.fetches.Load(); n != 0 {
			t.Fatalf("expected no fetch while rows are buffered, got %d", n)
		}
		if s := it.State(); s != HasBuffered {
			t.Fatalf("expected state %s, got %s", HasBuffered, s)
		}
	}

	if !it.Next(ctx) {
		t.Fatal("expected row from the second page")
	}
	if n := p.fetches.Load(); n != 1 {
		t.Errorf("expected one fetch, got %d", n)
	}
	if it.Next(ctx) {
		t.Fatal("expected end of rows")
	}
	if s := it.State(); s != Exhausted {
		t.Errorf("expected state %s, got %s", Exhausted, s)
	}
	if it.Next(ctx) {
		t.Error("expected exhausted iterator to stay exhausted")
	}
	if it.Err() != nil {
		t.Errorf("unexpected error %v", it.Err())
	}
}

func TestIteratorFetchError(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	p := newPager([]int64{1}, []int64{2})
	p.err = cqlerrors.Database(errors.New("unavailable"), true)
	it := p.iterator()

	if !it.Next(ctx) {
		t.Fatal("expected buffered row")
	}
	if it.Next(ctx) {
		t.Fatal("expected failure")
	}
	if !cqlerrors.IsRetryable(it.Err()) {
		t.Errorf("expected the fetch error, got %v", it.Err())
	}
	if it.Next(ctx) {
		t.Error("expected failed iterator to stay stopped")
	}
	if n := p.fetches.Load(); n != 1 {
		t.Errorf("expected one fetch, got %d", n)
	}
}

func TestIteratorCancelledContext(t *testing.T) {
	t.Parallel()

	p := newPager([]int64{1}, []int64{2})
	it := p.iterator()

	ctx, cancel := context.WithCancel(context.Background())
	if !it.Next(ctx) {
		t.Fatal("expected buffered row")
	}
	cancel()
	if it.Next(ctx) {
		t.Fatal("expected cancellation to stop iteration")
	}
	if !errors.Is(it.Err(), context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", it.Err())
	}
	if cqlerrors.IsRetryable(it.Err()) {
		t.Errorf("expected cancellation not to be retryable, got %v", it.Err())
	}
	if n := p.fetches.Load(); n != 0 {
		t.Errorf("expected no fetch, got %d", n)
	}
}

func TestIteratorExpiredDeadline(t *testing.T) {
	t.Parallel()

	p := newPager([]int64{1}, []int64{2})
	it := p.iterator()

	if !it.Next(context.Background()) {
		t.Fatal("expected buffered row")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 0)
	defer cancel()
	if it.Next(ctx) {
		t.Fatal("expected expired deadline to stop iteration")
	}
	if !errors.Is(it.Err(), context.DeadlineExceeded) {
		t.Errorf("expected context.DeadlineExceeded, got %v", it.Err())
	}
	if !errors.Is(it.Err(), cqlerrors.ErrDatabase) || !cqlerrors.IsRetryable(it.Err()) {
		t.Errorf("expected retryable database error, got %v", it.Err())
	}
	if n := p.fetches.Load(); n != 0 {
		t.Errorf("expected no fetch, got %d", n)
	}
}

func TestIteratorClose(t *testing.T) {
	t.Parallel()

	p := newPager([]int64{1, 2}, []int64{3})
	it := p.iterator()
	if !it.Next(context.Background()) {
		t.Fatal("expected row")
	}
	if err := it.Close(); err != nil {
		t.Fatal(err)
	}
	if it.Next(context.Background()) {
		t.Error("expected closed iterator to yield nothing")
	}
	if n := p.fetches.Load(); n != 0 {
		t.Errorf("expected no fetch after close, got %d", n)
	}
}

func TestIteratorRowsStopsEarly(t *testing.T) {
	t.Parallel()

	p := newPager([]int64{1}, []int64{2}, []int64{3})
	it := p.iterator()
	for row := range it.Rows(context.Background()) {
		if v, _ := row.Value(0).Int64(); v == 2 {
			break
		}
	}
	if n := p.fetches.Load(); n != 1 {
		t.Errorf("expected one fetch, got %d", n)
	}

	got := collect(t, it)
	if diff := cmp.Diff([]int64{3}, got); diff != "" {
		t.Errorf("unexpected remaining rows (-want +got):\n%s", diff)
	}
}

func TestMapIsLazy(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	p := newPager([]int64{1}, []int64{2})
	m := Map(p.iterator(), Record(Col("count", func(d *int, v int) { *d = v })))

	if !m.Next(ctx) || m.Value() != 1 {
		t.Fatalf("expected 1, got %d", m.Value())
	}
	if n := p.fetches.Load(); n != 0 {
		t.Errorf("expected mapping to not fetch ahead, got %d fetches", n)
	}

	var rest []int
	for v, err := range m.All(ctx) {
		if err != nil {
			t.Fatal(err)
		}
		rest = append(rest, v)
	}
	if diff := cmp.Diff([]int{2}, rest); diff != "" {
		t.Errorf("unexpected values (-want +got):\n%s", diff)
	}
}

func TestMapReportsRowIndex(t *testing.T) {
	t.Parallel()

	p := newPager([]int64{1, 300})
	m := Map(p.iterator(), scalarMapper[int8]())

	var n int
	for _, err := range m.All(context.Background()) {
		if err != nil {
			if !errors.Is(err, cqlerrors.ErrMapping) {
				t.Fatalf("expected mapping error, got %v", err)
			}
			if msg := err.Error(); !strings.Contains(msg, "row 1") {
				t.Errorf("expected row index in %q", msg)
			}
			break
		}
		n++
	}
	if n != 1 {
		t.Errorf("expected one mapped value before the failure, got %d", n)
	}
}

func TestScalarsIterator(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	s := Scalars(newPager([]int64{4}).iterator())
	if !s.Next(ctx) || !s.Value().Equal(cqlvalue.NewBigInt(4)) {
		t.Errorf("expected 4, got %s", s.Value())
	}

	multi := NewIterator(usersPage(), nil)
	if Scalars(multi).Next(ctx) {
		t.Error("expected scalars of two columns to fail")
	}
	if err := Scalars(multi).Err(); cqlerrors.KindOf(err) != cqlerrors.KindBase {
		t.Errorf("expected usage error, got %v", err)
	}

	none := NewIterator(driver.Page{}, nil)
	if err := Scalars(none).Err(); !errors.Is(err, cqlerrors.ErrMapping) {
		t.Errorf("expected mapping error, got %v", err)
	}
}
