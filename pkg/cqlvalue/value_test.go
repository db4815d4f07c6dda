// Copyright (C) 2025 ScyllaDB

package cqlvalue

import (
	"math"
	"testing"
	"time"
)

func TestValueEqual(t *testing.T) {
	t.Parallel()

	tt := []struct {
		name     string
		a, b     Value
		expected bool
	}{
		{name: "tinyint equals bigint of same number", a: NewTinyInt(5), b: NewBigInt(5), expected: true},
		{name: "different numbers", a: NewInt(5), b: NewInt(6), expected: false},
		{name: "float equals double at float precision", a: NewFloat(0.1), b: NewDouble(float64(float32(0.1))), expected: true},
		{name: "nan equals nan", a: NewDouble(math.NaN()), b: NewDouble(math.NaN()), expected: true},
		{name: "text equals ascii", a: NewText("x"), b: mustAscii("x"), expected: true},
		{name: "null equals null", a: Null, b: Null, expected: true},
		{name: "null is not unset", a: Null, b: Unset, expected: false},
		{name: "int is not text", a: NewInt(1), b: NewText("1"), expected: false},
		{name: "lists compare elementwise", a: NewList(NewInt(1)), b: NewList(NewBigInt(1)), expected: true},
		{name: "list is not set", a: NewList(NewInt(1)), b: NewSet(NewInt(1)), expected: false},
		{
			name:     "timestamps compare instants",
			a:        NewTimestamp(time.Date(2024, 1, 1, 1, 0, 0, 0, time.FixedZone("x", 3600))),
			b:        NewTimestamp(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
			expected: true,
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if got := tc.a.Equal(tc.b); got != tc.expected {
				t.Errorf("expected %v, got %v", tc.expected, got)
			}
		})
	}
}

func TestValueImmutable(t *testing.T) {
	t.Parallel()

	b := []byte{1, 2, 3}
	v := NewBlob(b)
	b[0] = 9

	got, _ := v.Bytes()
	if got[0] != 1 {
		t.Fatal("constructor did not copy the input")
	}
	got[1] = 9
	again, _ := v.Bytes()
	if again[1] != 2 {
		t.Fatal("accessor exposed internal storage")
	}

	elems := []Value{NewInt(1)}
	l := NewList(elems...)
	elems[0] = NewInt(2)
	out, _ := l.Elems()
	if !out[0].Equal(NewInt(1)) {
		t.Fatal("list constructor did not copy elements")
	}
}

func TestValueString(t *testing.T) {
	t.Parallel()

	tt := []struct {
		in       Value
		expected string
	}{
		{in: Null, expected: "NULL"},
		{in: Unset, expected: "UNSET"},
		{in: NewText("it's"), expected: "'it''s'"},
		{in: NewBlob([]byte{0xca, 0xfe}), expected: "0xcafe"},
		{in: NewList(NewInt(1), NewInt(2)), expected: "[1, 2]"},
		{in: NewSet(NewText("a")), expected: "{'a'}"},
		{in: NewMap(Pair{NewText("k"), NewBigInt(1)}), expected: "{'k': 1}"},
		{in: NewTuple(NewBoolean(true), Null), expected: "(true, NULL)"},
	}

	for _, tc := range tt {
		if got := tc.in.String(); got != tc.expected {
			t.Errorf("expected %s, got %s", tc.expected, got)
		}
	}
}

func TestInterfaceMapKeys(t *testing.T) {
	t.Parallel()

	v := NewMap(Pair{NewBlob([]byte("k")), NewInt(1)}, Pair{NewList(NewInt(1)), NewInt(2)})
	m, ok := v.Interface().(map[any]any)
	if !ok {
		t.Fatalf("unexpected type %T", v.Interface())
	}
	if m["k"] != int32(1) {
		t.Errorf("expected blob key as string, got %v", m)
	}
	if m["[1]"] != int32(2) {
		t.Errorf("expected list key rendered, got %v", m)
	}
}
