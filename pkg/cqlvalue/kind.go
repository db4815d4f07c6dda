// Copyright (C) 2025 ScyllaDB

package cqlvalue

import (
	"fmt"
	"strings"
)

// Kind identifies the protocol type a Value carries.
type Kind uint8

const (
	KindNull Kind = iota
	KindUnset
	KindBoolean
	KindTinyInt
	KindSmallInt
	KindInt
	KindBigInt
	KindCounter
	KindVarint
	KindFloat
	KindDouble
	KindDecimal
	KindText
	KindAscii
	KindBlob
	KindUUID
	KindTimeUUID
	KindTimestamp
	KindDate
	KindTime
	KindDuration
	KindInet
	KindList
	KindSet
	KindMap
	KindTuple
	KindUDT
)

var kindNames = [...]string{
	KindNull:      "null",
	KindUnset:     "unset",
	KindBoolean:   "boolean",
	KindTinyInt:   "tinyint",
	KindSmallInt:  "smallint",
	KindInt:       "int",
	KindBigInt:    "bigint",
	KindCounter:   "counter",
	KindVarint:    "varint",
	KindFloat:     "float",
	KindDouble:    "double",
	KindDecimal:   "decimal",
	KindText:      "text",
	KindAscii:     "ascii",
	KindBlob:      "blob",
	KindUUID:      "uuid",
	KindTimeUUID:  "timeuuid",
	KindTimestamp: "timestamp",
	KindDate:      "date",
	KindTime:      "time",
	KindDuration:  "duration",
	KindInet:      "inet",
	KindList:      "list",
	KindSet:       "set",
	KindMap:       "map",
	KindTuple:     "tuple",
	KindUDT:       "udt",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// IsInteger reports whether k is one of the integer kinds.
func (k Kind) IsInteger() bool {
	switch k {
	case KindTinyInt, KindSmallInt, KindInt, KindBigInt, KindCounter, KindVarint:
		return true
	default:
		return false
	}
}

// IsCollection reports whether k holds nested values.
func (k Kind) IsCollection() bool {
	switch k {
	case KindList, KindSet, KindMap, KindTuple, KindUDT:
		return true
	default:
		return false
	}
}

// Type is the declared type of a column or bind marker as reported by
// prepared statement and result metadata.
type Type struct {
	Kind Kind
	// Elems holds the element type of a list or set, the key and value
	// types of a map, or the component types of a tuple.
	Elems []Type
	// Fields holds the fields of a user defined type.
	Fields []FieldType
	// Name is the user defined type name.
	Name string
}

// FieldType is a named field of a user defined type.
type FieldType struct {
	Name string
	Type Type
}

// Native returns the type of a non-collection kind.
func Native(k Kind) Type {
	return Type{Kind: k}
}

// ListOf returns list<elem>.
func ListOf(elem Type) Type {
	return Type{Kind: KindList, Elems: []Type{elem}}
}

// SetOf returns set<elem>.
func SetOf(elem Type) Type {
	return Type{Kind: KindSet, Elems: []Type{elem}}
}

// MapOf returns map<key, value>.
func MapOf(key, value Type) Type {
	return Type{Kind: KindMap, Elems: []Type{key, value}}
}

// TupleOf returns tuple<elems...>.
func TupleOf(elems ...Type) Type {
	return Type{Kind: KindTuple, Elems: elems}
}

func (t Type) String() string {
	switch t.Kind {
	case KindList, KindSet, KindMap, KindTuple:
		parts := make([]string, 0, len(t.Elems))
		for _, e := range t.Elems {
			parts = append(parts, e.String())
		}
		return fmt.Sprintf("%s<%s>", t.Kind, strings.Join(parts, ", "))
	case KindUDT:
		if t.Name != "" {
			return t.Name
		}
		return t.Kind.String()
	default:
		return t.Kind.String()
	}
}

// ColumnSpec describes a result column or a bind marker.
type ColumnSpec struct {
	Keyspace string
	Table    string
	Name     string
	Type     Type
}
