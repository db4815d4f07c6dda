// Copyright (C) 2017 ScyllaDB

package timeutc

import "time"

// Now returns current time in UTC.
func Now() time.Time {
	return time.Now().UTC()
}

// Parse calls time.Parse and returns value in UTC.
func Parse(layout, value string) (time.Time, error) {
	t, err := time.Parse(layout, value)
	return t.UTC(), err
}

// Since returns the time elapsed since t.
func Since(t time.Time) time.Duration {
	return Now().Sub(t.UTC())
}

// Midnight truncates t to the start of its day in UTC.
func Midnight(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// SinceMidnight returns the offset of t from the start of its day in UTC.
func SinceMidnight(t time.Time) time.Duration {
	return t.UTC().Sub(Midnight(t))
}

// FromMillis converts milliseconds since the Unix epoch to a UTC time.
func FromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

// MustParse call time.Parse and returns value in UTC.
// It panics on time.Parse error.
func MustParse(layout, value string) time.Time {
	t, err := Parse(layout, value)
	if err != nil {
		panic(err)
	}
	return t
}
