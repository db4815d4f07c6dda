// Copyright (C) 2017 ScyllaDB

package timeutc

import (
	"testing"
	"time"
)

func TestMidnight(t *testing.T) {
	in := time.Date(2024, time.March, 3, 23, 30, 15, 500, time.FixedZone("x", -2*3600))
	m := Midnight(in)
	expected := time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC)
	if !m.Equal(expected) {
		t.Errorf("expected %v, got %v", expected, m)
	}
	if d := SinceMidnight(in); d != 90*time.Minute+15*time.Second+500 {
		t.Errorf("unexpected offset %v", d)
	}
}

func TestFromMillis(t *testing.T) {
	got := FromMillis(1_700_000_000_123)
	if got.Location() != time.UTC {
		t.Errorf("expected UTC, got %v", got.Location())
	}
	if got.UnixMilli() != 1_700_000_000_123 {
		t.Errorf("unexpected millis %d", got.UnixMilli())
	}
}

func TestMustParse(t *testing.T) {
	got := MustParse(time.RFC3339, "2024-01-02T03:04:05+02:00")
	if got.Hour() != 1 {
		t.Errorf("expected 1h UTC, got %v", got)
	}
}
