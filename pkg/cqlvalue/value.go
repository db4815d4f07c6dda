// Copyright (C) 2025 ScyllaDB

package cqlvalue

import (
	"bytes"
	"fmt"
	"math"
	"math/big"
	"net"
	"slices"
	"strings"
	"time"

	"github.com/scylladb/scyllaquery/pkg/util/uuid"
	"gopkg.in/inf.v0"
)

// Value is a single protocol value. Exactly one kind is active. Values are
// immutable, constructors and accessors copy mutable inputs and outputs.
//
// The zero Value is null.
type Value struct {
	kind Kind

	flag   bool
	num    int64
	flt    float64
	str    string
	raw    []byte
	id     uuid.UUID
	ts     time.Time
	date   Date
	dur    Duration
	dec    *inf.Dec
	bigint *big.Int
	ip     net.IP
	elems  []Value
	pairs  []Pair
	fields []Field
}

// Pair is a map entry.
type Pair struct {
	Key   Value
	Value Value
}

// Field is a user defined type field.
type Field struct {
	Name  string
	Value Value
}

var (
	// Null writes NULL.
	Null = Value{kind: KindNull}
	// Unset leaves the bound column untouched.
	Unset = Value{kind: KindUnset}
)

func NewBoolean(b bool) Value { return Value{kind: KindBoolean, flag: b} }

func NewTinyInt(i int8) Value { return Value{kind: KindTinyInt, num: int64(i)} }

func NewSmallInt(i int16) Value { return Value{kind: KindSmallInt, num: int64(i)} }

func NewInt(i int32) Value { return Value{kind: KindInt, num: int64(i)} }

func NewBigInt(i int64) Value { return Value{kind: KindBigInt, num: i} }

func NewCounter(i int64) Value { return Value{kind: KindCounter, num: i} }

// NewVarint returns an arbitrary precision integer. A nil i is null.
func NewVarint(i *big.Int) Value {
	if i == nil {
		return Null
	}
	return Value{kind: KindVarint, bigint: new(big.Int).Set(i)}
}

func NewFloat(f float32) Value { return Value{kind: KindFloat, flt: float64(f)} }

func NewDouble(f float64) Value { return Value{kind: KindDouble, flt: f} }

// NewDecimal returns a decimal. A nil d is null.
func NewDecimal(d *inf.Dec) Value {
	if d == nil {
		return Null
	}
	return Value{kind: KindDecimal, dec: new(inf.Dec).Set(d)}
}

func NewText(s string) Value { return Value{kind: KindText, str: s} }

// NewAscii returns an ascii value, s must hold 7-bit characters only.
func NewAscii(s string) (Value, error) {
	for i := 0; i < len(s); i++ {
		if s[i] > 127 {
			return Null, fmt.Errorf("non-ascii byte at offset %d", i)
		}
	}
	return Value{kind: KindAscii, str: s}, nil
}

// NewBlob returns a blob. A nil b is null, an empty non-nil b is an empty blob.
func NewBlob(b []byte) Value {
	if b == nil {
		return Null
	}
	return Value{kind: KindBlob, raw: bytes.Clone(b)}
}

func NewUUID(u uuid.UUID) Value { return Value{kind: KindUUID, id: u} }

// NewTimeUUID returns a timeuuid, u must be a version 1 UUID.
func NewTimeUUID(u uuid.UUID) (Value, error) {
	if !u.IsTime() {
		return Null, fmt.Errorf("uuid %s is version %d, timeuuid requires version 1", u, u.Version())
	}
	return Value{kind: KindTimeUUID, id: u}, nil
}

// NewTimestamp returns a timestamp with millisecond precision.
func NewTimestamp(t time.Time) Value {
	return Value{kind: KindTimestamp, ts: t.UTC().Truncate(time.Millisecond)}
}

func NewDate(d Date) Value { return Value{kind: KindDate, date: DateOf(d.Time())} }

// NewTime returns a time of day, t must be within [0, 24h).
func NewTime(t TimeOfDay) (Value, error) {
	if !t.valid() {
		return Null, fmt.Errorf("time of day %v out of range", time.Duration(t))
	}
	return Value{kind: KindTime, num: int64(t)}, nil
}

func NewDuration(d Duration) Value { return Value{kind: KindDuration, dur: d} }

// NewInet returns an inet value. A nil ip is null.
func NewInet(ip net.IP) Value {
	if ip == nil {
		return Null
	}
	if v4 := ip.To4(); v4 != nil {
		ip = v4
	}
	return Value{kind: KindInet, ip: slices.Clone(ip)}
}

func NewList(elems ...Value) Value {
	return Value{kind: KindList, elems: slices.Clone(elems)}
}

func NewSet(elems ...Value) Value {
	return Value{kind: KindSet, elems: slices.Clone(elems)}
}

func NewTuple(elems ...Value) Value {
	return Value{kind: KindTuple, elems: slices.Clone(elems)}
}

func NewMap(pairs ...Pair) Value {
	return Value{kind: KindMap, pairs: slices.Clone(pairs)}
}

func NewUDT(fields ...Field) Value {
	return Value{kind: KindUDT, fields: slices.Clone(fields)}
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsNull() bool { return v.kind == KindNull }

func (v Value) IsUnset() bool { return v.kind == KindUnset }

func (v Value) Bool() (bool, bool) {
	return v.flag, v.kind == KindBoolean
}

// Int64 returns the value of any integer kind that fits in 64 bits.
func (v Value) Int64() (int64, bool) {
	switch v.kind {
	case KindTinyInt, KindSmallInt, KindInt, KindBigInt, KindCounter:
		return v.num, true
	case KindVarint:
		if v.bigint.IsInt64() {
			return v.bigint.Int64(), true
		}
	}
	return 0, false
}

// BigInt returns the value of any integer kind.
func (v Value) BigInt() (*big.Int, bool) {
	if v.kind == KindVarint {
		return new(big.Int).Set(v.bigint), true
	}
	if i, ok := v.Int64(); ok {
		return big.NewInt(i), true
	}
	return nil, false
}

// Float64 returns the value of a float or double.
func (v Value) Float64() (float64, bool) {
	if v.kind == KindFloat || v.kind == KindDouble {
		return v.flt, true
	}
	return 0, false
}

func (v Value) Decimal() (*inf.Dec, bool) {
	if v.kind != KindDecimal {
		return nil, false
	}
	return new(inf.Dec).Set(v.dec), true
}

// Text returns the value of a text or ascii.
func (v Value) Text() (string, bool) {
	if v.kind == KindText || v.kind == KindAscii {
		return v.str, true
	}
	return "", false
}

func (v Value) Bytes() ([]byte, bool) {
	if v.kind != KindBlob {
		return nil, false
	}
	return bytes.Clone(v.raw), true
}

// UUID returns the value of a uuid or timeuuid.
func (v Value) UUID() (uuid.UUID, bool) {
	if v.kind == KindUUID || v.kind == KindTimeUUID {
		return v.id, true
	}
	return uuid.Nil, false
}

// Time returns the value of a timestamp, or midnight UTC of a date.
func (v Value) Time() (time.Time, bool) {
	switch v.kind {
	case KindTimestamp:
		return v.ts, true
	case KindDate:
		return v.date.Time(), true
	}
	return time.Time{}, false
}

func (v Value) Date() (Date, bool) {
	return v.date, v.kind == KindDate
}

func (v Value) TimeOfDay() (TimeOfDay, bool) {
	return TimeOfDay(v.num), v.kind == KindTime
}

func (v Value) Duration() (Duration, bool) {
	return v.dur, v.kind == KindDuration
}

func (v Value) IP() (net.IP, bool) {
	if v.kind != KindInet {
		return nil, false
	}
	return slices.Clone(v.ip), true
}

// Elems returns the elements of a list, set or tuple.
func (v Value) Elems() ([]Value, bool) {
	switch v.kind {
	case KindList, KindSet, KindTuple:
		return slices.Clone(v.elems), true
	}
	return nil, false
}

func (v Value) Pairs() ([]Pair, bool) {
	if v.kind != KindMap {
		return nil, false
	}
	return slices.Clone(v.pairs), true
}

func (v Value) Fields() ([]Field, bool) {
	if v.kind != KindUDT {
		return nil, false
	}
	return slices.Clone(v.fields), true
}

// Interface returns v as a plain Go value:
// integers as the Go type of matching width, text as string, blob as []byte,
// uuids as uuid.UUID, timestamps as time.Time, lists sets and tuples as
// []any, maps as map[any]any and UDTs as map[string]any.
// Map keys that are not comparable in Go are replaced by their String form,
// blob keys by their string conversion.
// Null and unset are nil.
func (v Value) Interface() any {
	switch v.kind {
	case KindBoolean:
		return v.flag
	case KindTinyInt:
		return int8(v.num)
	case KindSmallInt:
		return int16(v.num)
	case KindInt:
		return int32(v.num)
	case KindBigInt, KindCounter:
		return v.num
	case KindVarint:
		return new(big.Int).Set(v.bigint)
	case KindFloat:
		return float32(v.flt)
	case KindDouble:
		return v.flt
	case KindDecimal:
		return new(inf.Dec).Set(v.dec)
	case KindText, KindAscii:
		return v.str
	case KindBlob:
		return bytes.Clone(v.raw)
	case KindUUID, KindTimeUUID:
		return v.id
	case KindTimestamp:
		return v.ts
	case KindDate:
		return v.date
	case KindTime:
		return TimeOfDay(v.num)
	case KindDuration:
		return v.dur
	case KindInet:
		return slices.Clone(v.ip)
	case KindList, KindSet, KindTuple:
		out := make([]any, len(v.elems))
		for i, e := range v.elems {
			out[i] = e.Interface()
		}
		return out
	case KindMap:
		out := make(map[any]any, len(v.pairs))
		for _, p := range v.pairs {
			out[p.Key.mapKey()] = p.Value.Interface()
		}
		return out
	case KindUDT:
		out := make(map[string]any, len(v.fields))
		for _, f := range v.fields {
			out[f.Name] = f.Value.Interface()
		}
		return out
	default:
		return nil
	}
}

func (v Value) mapKey() any {
	switch v.kind {
	case KindBlob:
		return string(v.raw)
	case KindVarint, KindDecimal, KindInet, KindList, KindSet, KindMap, KindTuple, KindUDT:
		return v.String()
	default:
		return v.Interface()
	}
}

// Equal reports whether v and o hold the same value. Integer kinds compare
// by numeric value regardless of width, so do float and double.
func (v Value) Equal(o Value) bool {
	if v.kind.IsInteger() && o.kind.IsInteger() {
		a, _ := v.BigInt()
		b, _ := o.BigInt()
		return a.Cmp(b) == 0
	}
	if a, ok := v.Float64(); ok {
		b, ok := o.Float64()
		if v.kind == KindFloat || o.kind == KindFloat {
			return ok && float32(a) == float32(b)
		}
		return ok && (a == b || math.IsNaN(a) && math.IsNaN(b))
	}
	if a, ok := v.Text(); ok {
		b, ok := o.Text()
		return ok && a == b
	}
	if a, ok := v.UUID(); ok {
		b, ok := o.UUID()
		return ok && a == b
	}
	if v.kind != o.kind {
		return false
	}

	switch v.kind {
	case KindNull, KindUnset:
		return true
	case KindBoolean:
		return v.flag == o.flag
	case KindDecimal:
		return v.dec.Cmp(o.dec) == 0
	case KindBlob:
		return bytes.Equal(v.raw, o.raw)
	case KindTimestamp:
		return v.ts.Equal(o.ts)
	case KindDate:
		return v.date == o.date
	case KindTime:
		return v.num == o.num
	case KindDuration:
		return v.dur == o.dur
	case KindInet:
		return v.ip.Equal(o.ip)
	case KindList, KindSet, KindTuple:
		return slices.EqualFunc(v.elems, o.elems, Value.Equal)
	case KindMap:
		return slices.EqualFunc(v.pairs, o.pairs, func(a, b Pair) bool {
			return a.Key.Equal(b.Key) && a.Value.Equal(b.Value)
		})
	case KindUDT:
		return slices.EqualFunc(v.fields, o.fields, func(a, b Field) bool {
			return a.Name == b.Name && a.Value.Equal(b.Value)
		})
	default:
		return false
	}
}

// String returns a CQL literal like rendering of v, for logs and errors.
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "NULL"
	case KindUnset:
		return "UNSET"
	case KindText, KindAscii:
		return "'" + strings.ReplaceAll(v.str, "'", "''") + "'"
	case KindBlob:
		return fmt.Sprintf("0x%x", v.raw)
	case KindTimestamp:
		return "'" + v.ts.Format(time.RFC3339Nano) + "'"
	case KindDate, KindTime, KindDuration:
		return "'" + fmt.Sprint(v.Interface()) + "'"
	case KindInet:
		return "'" + v.ip.String() + "'"
	case KindList, KindSet, KindTuple:
		open, closing := "[", "]"
		if v.kind == KindSet {
			open, closing = "{", "}"
		} else if v.kind == KindTuple {
			open, closing = "(", ")"
		}
		parts := make([]string, len(v.elems))
		for i, e := range v.elems {
			parts[i] = e.String()
		}
		return open + strings.Join(parts, ", ") + closing
	case KindMap:
		parts := make([]string, len(v.pairs))
		for i, p := range v.pairs {
			parts[i] = p.Key.String() + ": " + p.Value.String()
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case KindUDT:
		parts := make([]string, len(v.fields))
		for i, f := range v.fields {
			parts[i] = f.Name + ": " + f.Value.String()
		}
		return "{" + strings.Join(parts, ", ") + "}"
	default:
		return fmt.Sprint(v.Interface())
	}
}
