// Copyright (C) 2025 ScyllaDB

package cqlvalue

import (
	"fmt"
	"time"

	"github.com/scylladb/scyllaquery/pkg/util/timeutc"
)

// Explicit width wrappers. Passing one of these selects the protocol type
// regardless of the width the plain Go value would default to.
type (
	TinyInt  int8
	SmallInt int16
	BigInt   int64
	Counter  int64
	Double   float64
)

// Set marks a sequence as a CQL set.
type Set []any

// Tuple marks a sequence as a CQL tuple.
type Tuple []any

// UDT marks a mapping as a user defined type value keyed by field name.
type UDT map[string]any

// Date is a calendar date without time zone.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf returns the UTC calendar date of t.
func DateOf(t time.Time) Date {
	t = t.UTC()
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

// Time returns midnight UTC of d.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// TimeOfDay is the number of nanoseconds since midnight.
type TimeOfDay time.Duration

// TimeOfDayOf returns the offset of t from midnight UTC.
func TimeOfDayOf(t time.Time) TimeOfDay {
	return TimeOfDay(timeutc.SinceMidnight(t))
}

func (t TimeOfDay) valid() bool {
	return t >= 0 && time.Duration(t) < 24*time.Hour
}

func (t TimeOfDay) String() string {
	d := time.Duration(t)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second
	d -= s * time.Second
	return fmt.Sprintf("%02d:%02d:%02d.%09d", h, m, s, d)
}

// Duration is a CQL duration. Months and days are kept apart from
// nanoseconds because their length varies.
type Duration struct {
	Months      int32
	Days        int32
	Nanoseconds int64
}

func (d Duration) String() string {
	return fmt.Sprintf("%dmo%dd%dns", d.Months, d.Days, d.Nanoseconds)
}
