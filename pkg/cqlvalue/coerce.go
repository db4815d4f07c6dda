// Copyright (C) 2025 ScyllaDB

package cqlvalue

import (
	"fmt"
	"math"
	"math/big"
	"net"
	"strconv"
	"time"

	"github.com/scylladb/scyllaquery/pkg/util/uuid"
	"gopkg.in/inf.v0"
)

var intRanges = map[Kind][2]int64{
	KindTinyInt:  {math.MinInt8, math.MaxInt8},
	KindSmallInt: {math.MinInt16, math.MaxInt16},
	KindInt:      {math.MinInt32, math.MaxInt32},
	KindBigInt:   {math.MinInt64, math.MaxInt64},
	KindCounter:  {math.MinInt64, math.MaxInt64},
}

// Coerce converts v to the declared type t. It is used when server metadata
// is known and resolves ambiguities the rule table in Of cannot, most
// notably integer width. Null and unset pass through.
func Coerce(v Value, t Type) (Value, error) {
	if v.kind == KindNull || v.kind == KindUnset {
		return v, nil
	}

	switch t.Kind {
	case KindTinyInt, KindSmallInt, KindInt, KindBigInt, KindCounter:
		i, ok := v.Int64()
		if !ok {
			if v.kind == KindVarint {
				return Null, fmt.Errorf("varint %s overflows %s", v.bigint, t.Kind)
			}
			return Null, mismatch(v, t)
		}
		r := intRanges[t.Kind]
		if i < r[0] || i > r[1] {
			return Null, fmt.Errorf("value %d overflows %s", i, t.Kind)
		}
		return Value{kind: t.Kind, num: i}, nil

	case KindVarint:
		b, ok := v.BigInt()
		if !ok {
			return Null, mismatch(v, t)
		}
		return NewVarint(b), nil

	case KindFloat, KindDouble:
		f, ok := v.Float64()
		if !ok {
			b, isInt := v.BigInt()
			if !isInt {
				return Null, mismatch(v, t)
			}
			f, _ = new(big.Float).SetInt(b).Float64()
		}
		if t.Kind == KindFloat {
			return NewFloat(float32(f)), nil
		}
		return NewDouble(f), nil

	case KindDecimal:
		switch {
		case v.kind == KindDecimal:
			return v, nil
		case v.kind.IsInteger():
			b, _ := v.BigInt()
			return NewDecimal(new(inf.Dec).SetUnscaledBig(b)), nil
		case v.kind == KindFloat || v.kind == KindDouble:
			d, ok := new(inf.Dec).SetString(strconv.FormatFloat(v.flt, 'f', -1, 64))
			if !ok {
				return Null, fmt.Errorf("cannot represent %v as decimal", v.flt)
			}
			return NewDecimal(d), nil
		}
		return Null, mismatch(v, t)

	case KindText:
		if s, ok := v.Text(); ok {
			return NewText(s), nil
		}
		return Null, mismatch(v, t)

	case KindAscii:
		if s, ok := v.Text(); ok {
			return NewAscii(s)
		}
		return Null, mismatch(v, t)

	case KindUUID, KindTimeUUID:
		u, ok := v.UUID()
		if !ok {
			s, isText := v.Text()
			if !isText {
				return Null, mismatch(v, t)
			}
			var err error
			if u, err = uuid.Parse(s); err != nil {
				return Null, fmt.Errorf("parse %s: %w", t.Kind, err)
			}
		}
		if t.Kind == KindTimeUUID {
			return NewTimeUUID(u)
		}
		return NewUUID(u), nil

	case KindTimestamp:
		if ts, ok := v.Time(); ok {
			return NewTimestamp(ts), nil
		}
		if ms, ok := v.Int64(); ok {
			return NewTimestamp(time.UnixMilli(ms)), nil
		}
		return Null, mismatch(v, t)

	case KindDate:
		if ts, ok := v.Time(); ok {
			return NewDate(DateOf(ts)), nil
		}
		if s, ok := v.Text(); ok {
			ts, err := time.Parse(time.DateOnly, s)
			if err != nil {
				return Null, fmt.Errorf("parse date: %w", err)
			}
			return NewDate(DateOf(ts)), nil
		}
		return Null, mismatch(v, t)

	case KindTime:
		switch v.kind {
		case KindTime:
			return v, nil
		case KindDuration:
			if v.dur.Months != 0 || v.dur.Days != 0 {
				return Null, fmt.Errorf("duration %s has calendar components, time requires nanoseconds only", v.dur)
			}
			return NewTime(TimeOfDay(v.dur.Nanoseconds))
		}
		return Null, mismatch(v, t)

	case KindInet:
		if v.kind == KindInet {
			return v, nil
		}
		if s, ok := v.Text(); ok {
			ip := net.ParseIP(s)
			if ip == nil {
				return Null, fmt.Errorf("invalid inet address %q", s)
			}
			return NewInet(ip), nil
		}
		return Null, mismatch(v, t)

	case KindList, KindSet:
		elems, ok := v.Elems()
		if !ok || len(t.Elems) != 1 {
			return Null, mismatch(v, t)
		}
		out, err := coerceAll(elems, func(int) Type { return t.Elems[0] })
		if err != nil {
			return Null, err
		}
		return Value{kind: t.Kind, elems: out}, nil

	case KindTuple:
		elems, ok := v.Elems()
		if !ok {
			return Null, mismatch(v, t)
		}
		if len(elems) != len(t.Elems) {
			return Null, fmt.Errorf("tuple of %d elements cannot bind to %s", len(elems), t)
		}
		out, err := coerceAll(elems, func(i int) Type { return t.Elems[i] })
		if err != nil {
			return Null, err
		}
		return NewTuple(out...), nil

	case KindMap:
		if v.kind != KindMap || len(t.Elems) != 2 {
			return Null, mismatch(v, t)
		}
		out := make([]Pair, len(v.pairs))
		for i, p := range v.pairs {
			k, err := Coerce(p.Key, t.Elems[0])
			if err != nil {
				return Null, fmt.Errorf("map key %s: %w", p.Key, err)
			}
			val, err := Coerce(p.Value, t.Elems[1])
			if err != nil {
				return Null, fmt.Errorf("map value for key %s: %w", p.Key, err)
			}
			out[i] = Pair{Key: k, Value: val}
		}
		return NewMap(out...), nil

	case KindUDT:
		return coerceUDT(v, t)

	case KindBoolean, KindBlob, KindDuration:
		if v.kind == t.Kind {
			return v, nil
		}
		return Null, mismatch(v, t)

	default:
		return v, nil
	}
}

func coerceAll(elems []Value, typeAt func(int) Type) ([]Value, error) {
	out := make([]Value, len(elems))
	for i, e := range elems {
		c, err := Coerce(e, typeAt(i))
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out[i] = c
	}
	return out, nil
}

func coerceUDT(v Value, t Type) (Value, error) {
	given := make(map[string]Value)
	switch v.kind {
	case KindUDT:
		for _, f := range v.fields {
			given[f.Name] = f.Value
		}
	case KindMap:
		for _, p := range v.pairs {
			name, ok := p.Key.Text()
			if !ok {
				return Null, fmt.Errorf("udt field names must be text, got %s", p.Key.kind)
			}
			given[name] = p.Value
		}
	default:
		return Null, mismatch(v, t)
	}

	out := make([]Field, len(t.Fields))
	for i, ft := range t.Fields {
		fv, ok := given[ft.Name]
		if !ok {
			out[i] = Field{Name: ft.Name, Value: Null}
			continue
		}
		delete(given, ft.Name)
		c, err := Coerce(fv, ft.Type)
		if err != nil {
			return Null, fmt.Errorf("field %q: %w", ft.Name, err)
		}
		out[i] = Field{Name: ft.Name, Value: c}
	}
	for name := range given {
		return Null, fmt.Errorf("%s has no field %q", t, name)
	}
	return NewUDT(out...), nil
}

func mismatch(v Value, t Type) error {
	return fmt.Errorf("cannot bind %s to %s", v.kind, t)
}
