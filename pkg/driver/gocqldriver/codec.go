// Copyright (C) 2025 ScyllaDB

package gocqldriver

import (
	"bytes"
	"encoding/binary"
	"math/big"
	"net"
	"time"

	"github.com/gocql/gocql"
	"github.com/pkg/errors"
	"github.com/scylladb/scyllaquery/pkg/cqlvalue"
	"github.com/scylladb/scyllaquery/pkg/util/uuid"
	"gopkg.in/inf.v0"
)

var nativeKinds = map[gocql.Type]cqlvalue.Kind{
	gocql.TypeAscii:     cqlvalue.KindAscii,
	gocql.TypeBigInt:    cqlvalue.KindBigInt,
	gocql.TypeBlob:      cqlvalue.KindBlob,
	gocql.TypeBoolean:   cqlvalue.KindBoolean,
	gocql.TypeCounter:   cqlvalue.KindCounter,
	gocql.TypeDecimal:   cqlvalue.KindDecimal,
	gocql.TypeDouble:    cqlvalue.KindDouble,
	gocql.TypeFloat:     cqlvalue.KindFloat,
	gocql.TypeInt:       cqlvalue.KindInt,
	gocql.TypeText:      cqlvalue.KindText,
	gocql.TypeVarchar:   cqlvalue.KindText,
	gocql.TypeTimestamp: cqlvalue.KindTimestamp,
	gocql.TypeUUID:      cqlvalue.KindUUID,
	gocql.TypeVarint:    cqlvalue.KindVarint,
	gocql.TypeTimeUUID:  cqlvalue.KindTimeUUID,
	gocql.TypeInet:      cqlvalue.KindInet,
	gocql.TypeDate:      cqlvalue.KindDate,
	gocql.TypeTime:      cqlvalue.KindTime,
	gocql.TypeSmallInt:  cqlvalue.KindSmallInt,
	gocql.TypeTinyInt:   cqlvalue.KindTinyInt,
	gocql.TypeDuration:  cqlvalue.KindDuration,
}

// typeOf converts driver type info. Custom types are reported as blobs.
func typeOf(info gocql.TypeInfo) cqlvalue.Type {
	switch t := info.(type) {
	case gocql.CollectionType:
		switch t.Type() {
		case gocql.TypeList:
			return cqlvalue.ListOf(typeOf(t.Elem))
		case gocql.TypeSet:
			return cqlvalue.SetOf(typeOf(t.Elem))
		case gocql.TypeMap:
			return cqlvalue.MapOf(typeOf(t.Key), typeOf(t.Elem))
		}
	case gocql.TupleTypeInfo:
		elems := make([]cqlvalue.Type, 0, len(t.Elems))
		for _, e := range t.Elems {
			elems = append(elems, typeOf(e))
		}
		return cqlvalue.TupleOf(elems...)
	case gocql.UDTTypeInfo:
		fields := make([]cqlvalue.FieldType, 0, len(t.Elements))
		for _, e := range t.Elements {
			fields = append(fields, cqlvalue.FieldType{Name: e.Name, Type: typeOf(e.Type)})
		}
		return cqlvalue.Type{Kind: cqlvalue.KindUDT, Name: t.Name, Fields: fields}
	}

	if k, ok := nativeKinds[info.Type()]; ok {
		return cqlvalue.Native(k)
	}
	return cqlvalue.Native(cqlvalue.KindBlob)
}

func columnsOf(cols []gocql.ColumnInfo) []cqlvalue.ColumnSpec {
	if len(cols) == 0 {
		return nil
	}
	out := make([]cqlvalue.ColumnSpec, 0, len(cols))
	for _, c := range cols {
		out = append(out, cqlvalue.ColumnSpec{
			Keyspace: c.Keyspace,
			Table:    c.Table,
			Name:     c.Name,
			Type:     typeOf(c.TypeInfo),
		})
	}
	return out
}

// bindValue is a gocql.Marshaler encoding a value for the type of the
// marker it is bound to.
type bindValue struct {
	v cqlvalue.Value
}

var _ gocql.Marshaler = bindValue{}

func (b bindValue) MarshalCQL(info gocql.TypeInfo) ([]byte, error) {
	return encode(info, b.v)
}

// args converts values to driver arguments. Unset is passed as the
// driver's unset marker so the column is left untouched.
func args(values []cqlvalue.Value) []any {
	out := make([]any, len(values))
	for i, v := range values {
		if v.IsUnset() {
			out[i] = gocql.UnsetValue
			continue
		}
		out[i] = bindValue{v: v}
	}
	return out
}

func encode(info gocql.TypeInfo, v cqlvalue.Value) ([]byte, error) {
	if v.IsNull() {
		return nil, nil
	}
	if v.IsUnset() {
		return nil, errors.Errorf("unset is not allowed inside %s", info)
	}

	switch t := info.(type) {
	case gocql.CollectionType:
		switch t.Type() {
		case gocql.TypeList, gocql.TypeSet:
			elems, ok := v.Elems()
			if !ok {
				return nil, errors.Errorf("can not encode %s as %s", v.Kind(), info)
			}
			buf := appendInt(nil, len(elems))
			for _, e := range elems {
				var err error
				if buf, err = appendEncoded(buf, t.Elem, e); err != nil {
					return nil, err
				}
			}
			return buf, nil
		case gocql.TypeMap:
			pairs, ok := v.Pairs()
			if !ok {
				return nil, errors.Errorf("can not encode %s as %s", v.Kind(), info)
			}
			buf := appendInt(nil, len(pairs))
			for _, p := range pairs {
				var err error
				if buf, err = appendEncoded(buf, t.Key, p.Key); err != nil {
					return nil, err
				}
				if buf, err = appendEncoded(buf, t.Elem, p.Value); err != nil {
					return nil, err
				}
			}
			return buf, nil
		}
	case gocql.TupleTypeInfo:
		elems, ok := v.Elems()
		if !ok || len(elems) != len(t.Elems) {
			return nil, errors.Errorf("can not encode %s as %s", v, info)
		}
		var buf []byte
		for i, e := range elems {
			var err error
			if buf, err = appendEncoded(buf, t.Elems[i], e); err != nil {
				return nil, err
			}
		}
		return buf, nil
	case gocql.UDTTypeInfo:
		fields, ok := v.Fields()
		if !ok {
			return nil, errors.Errorf("can not encode %s as %s", v.Kind(), info)
		}
		byName := make(map[string]cqlvalue.Value, len(fields))
		for _, f := range fields {
			byName[f.Name] = f.Value
		}
		var buf []byte
		for _, e := range t.Elements {
			var err error
			if buf, err = appendEncoded(buf, e.Type, byName[e.Name]); err != nil {
				return nil, err
			}
		}
		return buf, nil
	}

	native, err := toNative(v)
	if err != nil {
		return nil, err
	}
	return gocql.Marshal(info, native)
}

func appendEncoded(buf []byte, info gocql.TypeInfo, v cqlvalue.Value) ([]byte, error) {
	b, err := encode(info, v)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return appendInt(buf, -1), nil
	}
	buf = appendInt(buf, len(b))
	return append(buf, b...), nil
}

func appendInt(buf []byte, n int) []byte {
	return binary.BigEndian.AppendUint32(buf, uint32(int32(n)))
}

// toNative returns the Go value gocql marshals for the kind of v.
func toNative(v cqlvalue.Value) (any, error) {
	switch v.Kind() {
	case cqlvalue.KindBoolean:
		b, _ := v.Bool()
		return b, nil
	case cqlvalue.KindTinyInt, cqlvalue.KindSmallInt, cqlvalue.KindInt, cqlvalue.KindBigInt, cqlvalue.KindCounter:
		i, _ := v.Int64()
		return i, nil
	case cqlvalue.KindVarint:
		i, _ := v.BigInt()
		return i, nil
	case cqlvalue.KindFloat:
		f, _ := v.Float64()
		return float32(f), nil
	case cqlvalue.KindDouble:
		f, _ := v.Float64()
		return f, nil
	case cqlvalue.KindDecimal:
		d, _ := v.Decimal()
		return d, nil
	case cqlvalue.KindText, cqlvalue.KindAscii:
		s, _ := v.Text()
		return s, nil
	case cqlvalue.KindBlob:
		b, _ := v.Bytes()
		return b, nil
	case cqlvalue.KindUUID, cqlvalue.KindTimeUUID:
		u, _ := v.UUID()
		return u.Gocql(), nil
	case cqlvalue.KindTimestamp, cqlvalue.KindDate:
		t, _ := v.Time()
		return t, nil
	case cqlvalue.KindTime:
		t, _ := v.TimeOfDay()
		return time.Duration(t), nil
	case cqlvalue.KindDuration:
		d, _ := v.Duration()
		return gocql.Duration{Months: d.Months, Days: d.Days, Nanoseconds: d.Nanoseconds}, nil
	case cqlvalue.KindInet:
		ip, _ := v.IP()
		return ip, nil
	default:
		return nil, errors.Errorf("can not encode %s", v.Kind())
	}
}

// decode converts the encoded form of a value of type info. Nil data is
// null.
func decode(info gocql.TypeInfo, data []byte) (cqlvalue.Value, error) {
	if data == nil {
		return cqlvalue.Null, nil
	}

	switch t := info.(type) {
	case gocql.CollectionType:
		switch t.Type() {
		case gocql.TypeList, gocql.TypeSet:
			n, rest, err := readInt(data)
			if err != nil {
				return cqlvalue.Null, err
			}
			elems := make([]cqlvalue.Value, 0, max(n, 0))
			for i := 0; i < n; i++ {
				var e cqlvalue.Value
				if e, rest, err = readDecoded(rest, t.Elem); err != nil {
					return cqlvalue.Null, err
				}
				elems = append(elems, e)
			}
			if t.Type() == gocql.TypeSet {
				return cqlvalue.NewSet(elems...), nil
			}
			return cqlvalue.NewList(elems...), nil
		case gocql.TypeMap:
			n, rest, err := readInt(data)
			if err != nil {
				return cqlvalue.Null, err
			}
			pairs := make([]cqlvalue.Pair, 0, max(n, 0))
			for i := 0; i < n; i++ {
				var p cqlvalue.Pair
				if p.Key, rest, err = readDecoded(rest, t.Key); err != nil {
					return cqlvalue.Null, err
				}
				if p.Value, rest, err = readDecoded(rest, t.Elem); err != nil {
					return cqlvalue.Null, err
				}
				pairs = append(pairs, p)
			}
			return cqlvalue.NewMap(pairs...), nil
		}
	case gocql.TupleTypeInfo:
		elems := make([]cqlvalue.Value, len(t.Elems))
		rest := data
		for i, e := range t.Elems {
			if len(rest) == 0 {
				elems[i] = cqlvalue.Null
				continue
			}
			var err error
			if elems[i], rest, err = readDecoded(rest, e); err != nil {
				return cqlvalue.Null, err
			}
		}
		return cqlvalue.NewTuple(elems...), nil
	case gocql.UDTTypeInfo:
		fields := make([]cqlvalue.Field, len(t.Elements))
		rest := data
		for i, e := range t.Elements {
			fields[i].Name = e.Name
			if len(rest) == 0 {
				fields[i].Value = cqlvalue.Null
				continue
			}
			var err error
			if fields[i].Value, rest, err = readDecoded(rest, e.Type); err != nil {
				return cqlvalue.Null, err
			}
		}
		return cqlvalue.NewUDT(fields...), nil
	}

	return decodeNative(info, data)
}

func readDecoded(data []byte, info gocql.TypeInfo) (cqlvalue.Value, []byte, error) {
	n, rest, err := readInt(data)
	if err != nil {
		return cqlvalue.Null, nil, err
	}
	if n < 0 {
		return cqlvalue.Null, rest, nil
	}
	if n > len(rest) {
		return cqlvalue.Null, nil, errors.Errorf("unexpected end of %s value", info)
	}
	v, err := decode(info, rest[:n:n])
	return v, rest[n:], err
}

func readInt(data []byte) (int, []byte, error) {
	if len(data) < 4 {
		return 0, nil, errors.New("unexpected end of collection")
	}
	return int(int32(binary.BigEndian.Uint32(data))), data[4:], nil
}

func decodeNative(info gocql.TypeInfo, data []byte) (cqlvalue.Value, error) {
	kind, ok := nativeKinds[info.Type()]
	if !ok {
		return cqlvalue.NewBlob(bytes.Clone(data)), nil
	}

	switch kind {
	case cqlvalue.KindBlob:
		return cqlvalue.NewBlob(bytes.Clone(data)), nil
	case cqlvalue.KindBoolean:
		var b bool
		if err := gocql.Unmarshal(info, data, &b); err != nil {
			return cqlvalue.Null, err
		}
		return cqlvalue.NewBoolean(b), nil
	}

	var (
		v   cqlvalue.Value
		err error
	)
	switch kind {
	case cqlvalue.KindTinyInt:
		var i int8
		err = gocql.Unmarshal(info, data, &i)
		v = cqlvalue.NewTinyInt(i)
	case cqlvalue.KindSmallInt:
		var i int16
		err = gocql.Unmarshal(info, data, &i)
		v = cqlvalue.NewSmallInt(i)
	case cqlvalue.KindInt:
		var i int32
		err = gocql.Unmarshal(info, data, &i)
		v = cqlvalue.NewInt(i)
	case cqlvalue.KindBigInt:
		var i int64
		err = gocql.Unmarshal(info, data, &i)
		v = cqlvalue.NewBigInt(i)
	case cqlvalue.KindCounter:
		var i int64
		err = gocql.Unmarshal(info, data, &i)
		v = cqlvalue.NewCounter(i)
	case cqlvalue.KindVarint:
		i := new(big.Int)
		err = gocql.Unmarshal(info, data, i)
		v = cqlvalue.NewVarint(i)
	case cqlvalue.KindFloat:
		var f float32
		err = gocql.Unmarshal(info, data, &f)
		v = cqlvalue.NewFloat(f)
	case cqlvalue.KindDouble:
		var f float64
		err = gocql.Unmarshal(info, data, &f)
		v = cqlvalue.NewDouble(f)
	case cqlvalue.KindDecimal:
		d := new(inf.Dec)
		err = gocql.Unmarshal(info, data, d)
		v = cqlvalue.NewDecimal(d)
	case cqlvalue.KindText:
		var s string
		err = gocql.Unmarshal(info, data, &s)
		v = cqlvalue.NewText(s)
	case cqlvalue.KindAscii:
		var s string
		if err = gocql.Unmarshal(info, data, &s); err == nil {
			v, err = cqlvalue.NewAscii(s)
		}
	case cqlvalue.KindUUID, cqlvalue.KindTimeUUID:
		var u gocql.UUID
		if err = gocql.Unmarshal(info, data, &u); err == nil {
			if kind == cqlvalue.KindTimeUUID {
				v, err = cqlvalue.NewTimeUUID(uuid.FromGocql(u))
			} else {
				v = cqlvalue.NewUUID(uuid.FromGocql(u))
			}
		}
	case cqlvalue.KindTimestamp:
		var t time.Time
		err = gocql.Unmarshal(info, data, &t)
		v = cqlvalue.NewTimestamp(t)
	case cqlvalue.KindDate:
		var t time.Time
		err = gocql.Unmarshal(info, data, &t)
		v = cqlvalue.NewDate(cqlvalue.DateOf(t))
	case cqlvalue.KindTime:
		var d time.Duration
		if err = gocql.Unmarshal(info, data, &d); err == nil {
			v, err = cqlvalue.NewTime(cqlvalue.TimeOfDay(d))
		}
	case cqlvalue.KindDuration:
		var d gocql.Duration
		err = gocql.Unmarshal(info, data, &d)
		v = cqlvalue.NewDuration(cqlvalue.Duration{Months: d.Months, Days: d.Days, Nanoseconds: d.Nanoseconds})
	case cqlvalue.KindInet:
		var ip net.IP
		err = gocql.Unmarshal(info, data, &ip)
		v = cqlvalue.NewInet(ip)
	default:
		return cqlvalue.Null, errors.Errorf("can not decode %s", info)
	}
	if err != nil {
		return cqlvalue.Null, errors.Wrapf(err, "decode %s", info)
	}
	return v, nil
}

// isEmptyTuple reports whether every element of an expanded tuple column
// is null, which is how the driver reports a null tuple.
func isEmptyTuple(cells []gocql.DirectUnmarshal) bool {
	for _, c := range cells {
		if c != nil {
			return false
		}
	}
	return true
}
