// Copyright (C) 2025 ScyllaDB

package cqlvalue

import (
	"fmt"
	"math"
	"math/big"
	"net"
	"net/netip"
	"reflect"
	"sort"
	"time"

	"github.com/gocql/gocql"
	"github.com/scylladb/scyllaquery/pkg/util/uuid"
	"gopkg.in/inf.v0"
)

// Of converts a Go value to a Value using a fixed rule table.
//
//	nil, nil pointer             null
//	Value                        itself, use Null and Unset for the sentinels
//	bool                         boolean
//	TinyInt SmallInt BigInt      the named width
//	Counter Double               the named type
//	int8 int16 int32             tinyint smallint int
//	int int64 uint8..uint64      bigint, or varint above MaxInt64
//	*big.Int                     bigint when it fits, varint otherwise
//	float32 float64              float double
//	*inf.Dec                     decimal
//	string                       text
//	[]byte                       blob
//	uuid.UUID gocql.UUID [16]byte uuid
//	time.Time                    timestamp
//	Date TimeOfDay               date time
//	time.Duration Duration       duration
//	net.IP netip.Addr            inet
//	Set, map[T]struct{}          set
//	Tuple                        tuple
//	UDT                          udt
//	other slices and arrays      list
//	other maps                   map
//
// Pointers are dereferenced. Any other type is an error.
func Of(in any) (Value, error) {
	switch x := in.(type) {
	case nil:
		return Null, nil
	case Value:
		return x, nil
	case *Value:
		if x == nil {
			return Null, nil
		}
		return *x, nil
	case bool:
		return NewBoolean(x), nil
	case TinyInt:
		return NewTinyInt(int8(x)), nil
	case SmallInt:
		return NewSmallInt(int16(x)), nil
	case BigInt:
		return NewBigInt(int64(x)), nil
	case Counter:
		return NewCounter(int64(x)), nil
	case Double:
		return NewDouble(float64(x)), nil
	case int8:
		return NewTinyInt(x), nil
	case int16:
		return NewSmallInt(x), nil
	case int32:
		return NewInt(x), nil
	case int:
		return NewBigInt(int64(x)), nil
	case int64:
		return NewBigInt(x), nil
	case uint8:
		return NewBigInt(int64(x)), nil
	case uint16:
		return NewBigInt(int64(x)), nil
	case uint32:
		return NewBigInt(int64(x)), nil
	case uint:
		return ofUint64(uint64(x)), nil
	case uint64:
		return ofUint64(x), nil
	case *big.Int:
		if x == nil {
			return Null, nil
		}
		if x.IsInt64() {
			return NewBigInt(x.Int64()), nil
		}
		return NewVarint(x), nil
	case float32:
		return NewFloat(x), nil
	case float64:
		return NewDouble(x), nil
	case *inf.Dec:
		return NewDecimal(x), nil
	case string:
		return NewText(x), nil
	case []byte:
		return NewBlob(x), nil
	case uuid.UUID:
		return NewUUID(x), nil
	case gocql.UUID:
		return NewUUID(uuid.FromGocql(x)), nil
	case [16]byte:
		u, _ := uuid.FromBytes(x[:])
		return NewUUID(u), nil
	case time.Time:
		return NewTimestamp(x), nil
	case Date:
		return NewDate(x), nil
	case TimeOfDay:
		return NewTime(x)
	case time.Duration:
		return NewDuration(Duration{Nanoseconds: int64(x)}), nil
	case Duration:
		return NewDuration(x), nil
	case net.IP:
		return NewInet(x), nil
	case netip.Addr:
		if !x.IsValid() {
			return Null, nil
		}
		return NewInet(net.IP(x.AsSlice())), nil
	case Set:
		elems, err := ofSlice([]any(x))
		if err != nil {
			return Null, err
		}
		return NewSet(elems...), nil
	case Tuple:
		elems, err := ofSlice([]any(x))
		if err != nil {
			return Null, err
		}
		return NewTuple(elems...), nil
	case UDT:
		return ofUDT(x)
	}
	return ofReflect(reflect.ValueOf(in))
}

// MustOf works like Of but panics on error.
func MustOf(in any) Value {
	v, err := Of(in)
	if err != nil {
		panic(err)
	}
	return v
}

func ofUint64(x uint64) Value {
	if x > math.MaxInt64 {
		return NewVarint(new(big.Int).SetUint64(x))
	}
	return NewBigInt(int64(x))
}

func ofSlice(in []any) ([]Value, error) {
	out := make([]Value, len(in))
	for i, e := range in {
		v, err := Of(e)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

func ofUDT(in UDT) (Value, error) {
	names := make([]string, 0, len(in))
	for n := range in {
		names = append(names, n)
	}
	sort.Strings(names)

	fields := make([]Field, len(names))
	for i, n := range names {
		v, err := Of(in[n])
		if err != nil {
			return Null, fmt.Errorf("field %q: %w", n, err)
		}
		fields[i] = Field{Name: n, Value: v}
	}
	return NewUDT(fields...), nil
}

var emptyStructType = reflect.TypeOf(struct{}{})

func ofReflect(rv reflect.Value) (Value, error) {
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return Null, nil
		}
		return Of(rv.Elem().Interface())

	case reflect.Bool:
		return NewBoolean(rv.Bool()), nil
	case reflect.Int8:
		return NewTinyInt(int8(rv.Int())), nil
	case reflect.Int16:
		return NewSmallInt(int16(rv.Int())), nil
	case reflect.Int32:
		return NewInt(int32(rv.Int())), nil
	case reflect.Int, reflect.Int64:
		return NewBigInt(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return ofUint64(rv.Uint()), nil
	case reflect.Float32:
		return NewFloat(float32(rv.Float())), nil
	case reflect.Float64:
		return NewDouble(rv.Float()), nil
	case reflect.String:
		return NewText(rv.String()), nil

	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return Null, nil
		}
		if rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() == reflect.Uint8 {
			return NewBlob(rv.Bytes()), nil
		}
		elems := make([]Value, rv.Len())
		for i := range elems {
			v, err := Of(rv.Index(i).Interface())
			if err != nil {
				return Null, fmt.Errorf("element %d: %w", i, err)
			}
			elems[i] = v
		}
		return NewList(elems...), nil

	case reflect.Map:
		if rv.IsNil() {
			return Null, nil
		}
		keys := rv.MapKeys()
		sortKeys(keys)

		if rv.Type().Elem() == emptyStructType {
			elems := make([]Value, len(keys))
			for i, k := range keys {
				v, err := Of(k.Interface())
				if err != nil {
					return Null, fmt.Errorf("set element: %w", err)
				}
				elems[i] = v
			}
			return NewSet(elems...), nil
		}

		pairs := make([]Pair, len(keys))
		for i, k := range keys {
			kv, err := Of(k.Interface())
			if err != nil {
				return Null, fmt.Errorf("map key: %w", err)
			}
			vv, err := Of(rv.MapIndex(k).Interface())
			if err != nil {
				return Null, fmt.Errorf("map value for key %v: %w", k.Interface(), err)
			}
			pairs[i] = Pair{Key: kv, Value: vv}
		}
		return NewMap(pairs...), nil
	}

	if rv.IsValid() {
		return Null, fmt.Errorf("unsupported type for parameter binding: %s", rv.Type())
	}
	return Null, nil
}

// sortKeys orders map keys so conversion of Go maps is deterministic.
func sortKeys(keys []reflect.Value) {
	sort.Slice(keys, func(i, j int) bool {
		return fmt.Sprint(keys[i].Interface()) < fmt.Sprint(keys[j].Interface())
	})
}
