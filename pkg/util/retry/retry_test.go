// Copyright (C) 2017 ScyllaDB

package retry

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
)

func TestWithNotifyRetriesUntilSuccess(t *testing.T) {
	t.Parallel()

	calls := 0
	notified := 0
	op := func() error {
		calls++
		if calls < 3 {
			return errors.New("not yet")
		}
		return nil
	}

	b := NewExponentialBackoff(time.Millisecond, 0, 5*time.Millisecond, 2, 0)
	err := WithNotify(context.Background(), op, b, func(error, time.Duration) { notified++ })
	if err != nil {
		t.Fatal(err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
	if notified != 2 {
		t.Errorf("expected 2 notifications, got %d", notified)
	}
}

func TestWithNotifyStopsOnPermanent(t *testing.T) {
	t.Parallel()

	calls := 0
	sentinel := errors.New("bad credentials")
	op := func() error {
		calls++
		return Permanent(sentinel)
	}

	b := NewExponentialBackoff(time.Millisecond, 0, time.Millisecond, 2, 0)
	err := WithNotify(context.Background(), op, b, nil)
	if errors.Cause(err) != sentinel {
		t.Fatalf("expected sentinel, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected a single call, got %d", calls)
	}
}

func TestWithMaxRetries(t *testing.T) {
	t.Parallel()

	calls := 0
	op := func() error {
		calls++
		return errors.New("down")
	}

	b := WithMaxRetries(NewExponentialBackoff(time.Millisecond, 0, time.Millisecond, 1, 0), 2)
	if err := WithNotify(context.Background(), op, b, nil); err == nil {
		t.Fatal("expected error")
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}
