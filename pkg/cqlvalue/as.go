// Copyright (C) 2025 ScyllaDB

package cqlvalue

import (
	"fmt"
	"math"
	"math/big"
	"net"
	"reflect"
	"time"

	"github.com/gocql/gocql"
	"github.com/scylladb/scyllaquery/pkg/util/uuid"
	"gopkg.in/inf.v0"
)

// As extracts v into a Go value of type T.
//
// Integers convert to any Go integer type they fit in, floats to float32 and
// float64, text to string, blobs to []byte. Collections convert element-wise
// into slices and maps of supported types. Null yields the zero value of T,
// so pointer, slice and map targets receive nil.
func As[T any](v Value) (T, error) {
	var out T
	err := Assign(&out, v)
	return out, err
}

// Assign stores v into the variable dst points to, following the rules of As.
func Assign(dst any, v Value) error {
	if v.kind == KindUnset {
		return fmt.Errorf("cannot read unset value")
	}

	switch d := dst.(type) {
	case *Value:
		*d = v
		return nil
	case *any:
		*d = v.Interface()
		return nil
	}

	if v.kind == KindNull {
		rv := reflect.ValueOf(dst)
		if rv.Kind() != reflect.Pointer || rv.IsNil() {
			return fmt.Errorf("destination must be a non-nil pointer, got %T", dst)
		}
		rv.Elem().SetZero()
		return nil
	}

	switch d := dst.(type) {
	case *bool:
		b, ok := v.Bool()
		if !ok {
			return cannotAssign(v, dst)
		}
		*d = b
	case *string:
		s, ok := v.Text()
		if !ok {
			return cannotAssign(v, dst)
		}
		*d = s
	case *[]byte:
		b, ok := v.Bytes()
		if !ok {
			return cannotAssign(v, dst)
		}
		*d = b
	case *uuid.UUID:
		u, ok := v.UUID()
		if !ok {
			return cannotAssign(v, dst)
		}
		*d = u
	case *gocql.UUID:
		u, ok := v.UUID()
		if !ok {
			return cannotAssign(v, dst)
		}
		*d = u.Gocql()
	case *time.Time:
		t, ok := v.Time()
		if !ok {
			return cannotAssign(v, dst)
		}
		*d = t
	case *Date:
		dt, ok := v.Date()
		if !ok {
			return cannotAssign(v, dst)
		}
		*d = dt
	case *TimeOfDay:
		t, ok := v.TimeOfDay()
		if !ok {
			return cannotAssign(v, dst)
		}
		*d = t
	case *Duration:
		du, ok := v.Duration()
		if !ok {
			return cannotAssign(v, dst)
		}
		*d = du
	case *time.Duration:
		switch v.kind {
		case KindTime:
			*d = time.Duration(v.num)
		case KindDuration:
			if v.dur.Months != 0 || v.dur.Days != 0 {
				return fmt.Errorf("duration %s has calendar components", v.dur)
			}
			*d = time.Duration(v.dur.Nanoseconds)
		default:
			return cannotAssign(v, dst)
		}
	case **big.Int:
		b, ok := v.BigInt()
		if !ok {
			return cannotAssign(v, dst)
		}
		*d = b
	case **inf.Dec:
		dec, ok := v.Decimal()
		if !ok {
			return cannotAssign(v, dst)
		}
		*d = dec
	case *net.IP:
		ip, ok := v.IP()
		if !ok {
			return cannotAssign(v, dst)
		}
		*d = ip
	default:
		return assignReflect(reflect.ValueOf(dst), v)
	}
	return nil
}

func assignReflect(ptr reflect.Value, v Value) error {
	if ptr.Kind() != reflect.Pointer || ptr.IsNil() {
		return fmt.Errorf("destination must be a non-nil pointer, got %s", ptr.Type())
	}
	dst := ptr.Elem()

	switch dst.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i, ok := v.Int64()
		if !ok {
			return cannotAssign(v, ptr.Interface())
		}
		if dst.OverflowInt(i) {
			return fmt.Errorf("value %d overflows %s", i, dst.Type())
		}
		dst.SetInt(i)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		i, ok := v.Int64()
		if !ok {
			return cannotAssign(v, ptr.Interface())
		}
		if i < 0 || dst.OverflowUint(uint64(i)) {
			return fmt.Errorf("value %d overflows %s", i, dst.Type())
		}
		dst.SetUint(uint64(i))
	case reflect.Float32, reflect.Float64:
		f, ok := v.Float64()
		if !ok {
			return cannotAssign(v, ptr.Interface())
		}
		if dst.Kind() == reflect.Float32 && math.Abs(f) > math.MaxFloat32 && !math.IsInf(f, 0) {
			return fmt.Errorf("value %v overflows float32", f)
		}
		dst.SetFloat(f)
	case reflect.String:
		s, ok := v.Text()
		if !ok {
			return cannotAssign(v, ptr.Interface())
		}
		dst.SetString(s)
	case reflect.Bool:
		b, ok := v.Bool()
		if !ok {
			return cannotAssign(v, ptr.Interface())
		}
		dst.SetBool(b)
	case reflect.Pointer:
		elem := reflect.New(dst.Type().Elem())
		if err := Assign(elem.Interface(), v); err != nil {
			return err
		}
		dst.Set(elem)
	case reflect.Slice:
		elems, ok := v.Elems()
		if !ok {
			return cannotAssign(v, ptr.Interface())
		}
		out := reflect.MakeSlice(dst.Type(), len(elems), len(elems))
		for i, e := range elems {
			if err := Assign(out.Index(i).Addr().Interface(), e); err != nil {
				return fmt.Errorf("element %d: %w", i, err)
			}
		}
		dst.Set(out)
	case reflect.Map:
		return assignMap(dst, v)
	default:
		return cannotAssign(v, ptr.Interface())
	}
	return nil
}

func assignMap(dst reflect.Value, v Value) error {
	t := dst.Type()
	out := reflect.MakeMap(t)

	switch v.kind {
	case KindMap:
		for _, p := range v.pairs {
			k := reflect.New(t.Key())
			if err := Assign(k.Interface(), p.Key); err != nil {
				return fmt.Errorf("map key: %w", err)
			}
			e := reflect.New(t.Elem())
			if err := Assign(e.Interface(), p.Value); err != nil {
				return fmt.Errorf("map value for key %s: %w", p.Key, err)
			}
			out.SetMapIndex(k.Elem(), e.Elem())
		}
	case KindSet:
		if t.Elem() != emptyStructType {
			return cannotAssign(v, dst.Addr().Interface())
		}
		for _, el := range v.elems {
			k := reflect.New(t.Key())
			if err := Assign(k.Interface(), el); err != nil {
				return fmt.Errorf("set element: %w", err)
			}
			out.SetMapIndex(k.Elem(), reflect.Zero(emptyStructType))
		}
	case KindUDT:
		if t.Key().Kind() != reflect.String {
			return cannotAssign(v, dst.Addr().Interface())
		}
		for _, f := range v.fields {
			e := reflect.New(t.Elem())
			if err := Assign(e.Interface(), f.Value); err != nil {
				return fmt.Errorf("field %q: %w", f.Name, err)
			}
			out.SetMapIndex(reflect.ValueOf(f.Name).Convert(t.Key()), e.Elem())
		}
	default:
		return cannotAssign(v, dst.Addr().Interface())
	}

	dst.Set(out)
	return nil
}

func cannotAssign(v Value, dst any) error {
	return fmt.Errorf("cannot assign %s to %s", v.kind, reflect.TypeOf(dst).Elem())
}
