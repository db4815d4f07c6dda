// Copyright (C) 2025 ScyllaDB

package bind

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/scylladb/scyllaquery/pkg/cqlerrors"
)

func TestParse(t *testing.T) {
	t.Parallel()

	tt := []struct {
		name     string
		stmt     string
		expected Placeholders
	}{
		{
			name:     "no markers",
			stmt:     "SELECT * FROM t",
			expected: Placeholders{Statement: "SELECT * FROM t"},
		},
		{
			name:     "positional",
			stmt:     "INSERT INTO t (a, b) VALUES (?, ?)",
			expected: Placeholders{Statement: "INSERT INTO t (a, b) VALUES (?, ?)", Positional: 2},
		},
		{
			name: "named are lowercased and rewritten",
			stmt: "INSERT INTO t (a, b) VALUES (:A, :b_2)",
			expected: Placeholders{
				Statement: "INSERT INTO t (a, b) VALUES (?, ?)",
				Names:     []string{"a", "b_2"},
			},
		},
		{
			name: "repeated name",
			stmt: "SELECT * FROM t WHERE a=:id OR b=:ID",
			expected: Placeholders{
				Statement: "SELECT * FROM t WHERE a=? OR b=?",
				Names:     []string{"id", "id"},
			},
		},
		{
			name:     "markers in string literal are ignored",
			stmt:     "SELECT * FROM t WHERE a = 'what?' AND b = 'it''s :x' AND c = ?",
			expected: Placeholders{Statement: "SELECT * FROM t WHERE a = 'what?' AND b = 'it''s :x' AND c = ?", Positional: 1},
		},
		{
			name:     "markers in quoted identifier are ignored",
			stmt:     `SELECT "odd?col" FROM t WHERE id = ?`,
			expected: Placeholders{Statement: `SELECT "odd?col" FROM t WHERE id = ?`, Positional: 1},
		},
		{
			name:     "markers in comments are ignored",
			stmt:     "SELECT * FROM t -- id = ?\nWHERE id = ? /* :x */",
			expected: Placeholders{Statement: "SELECT * FROM t -- id = ?\nWHERE id = ? /* :x */", Positional: 1},
		},
		{
			name:     "markers in dollar block are ignored",
			stmt:     "INSERT INTO t (a, b) VALUES ($$a?b$$, ?)",
			expected: Placeholders{Statement: "INSERT INTO t (a, b) VALUES ($$a?b$$, ?)", Positional: 1},
		},
		{
			name:     "udt literal is not a marker",
			stmt:     "INSERT INTO t (id, addr) VALUES (?, {city:'x', zip:'1'})",
			expected: Placeholders{Statement: "INSERT INTO t (id, addr) VALUES (?, {city:'x', zip:'1'})", Positional: 1},
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, err := Parse(tc.stmt)
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tc.expected, got); diff != "" {
				t.Errorf("unexpected result (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseRejectsMixedMarkers(t *testing.T) {
	t.Parallel()

	_, err := Parse("SELECT * FROM t WHERE a = ? AND b = :b")
	if !errors.Is(err, cqlerrors.ErrBinding) {
		t.Fatalf("expected binding error, got %v", err)
	}
}
