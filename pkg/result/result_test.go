// Copyright (C) 2025 ScyllaDB

package result

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/scylladb/scyllaquery/pkg/cqlerrors"
	"github.com/scylladb/scyllaquery/pkg/cqlvalue"
	"github.com/scylladb/scyllaquery/pkg/driver"
	"github.com/scylladb/scyllaquery/pkg/util/uuid"
)

func col(name string, k cqlvalue.Kind) cqlvalue.ColumnSpec {
	return cqlvalue.ColumnSpec{Keyspace: "ks", Table: "t", Name: name, Type: cqlvalue.Native(k)}
}

func usersPage() driver.Page {
	return driver.Page{
		Columns: []cqlvalue.ColumnSpec{col("id", cqlvalue.KindInt), col("name", cqlvalue.KindText)},
		Rows: [][]cqlvalue.Value{
			{cqlvalue.NewInt(1), cqlvalue.NewText("alice")},
			{cqlvalue.NewInt(2), cqlvalue.NewText("bob")},
		},
	}
}

func countPage(counts ...int64) driver.Page {
	p := driver.Page{Columns: []cqlvalue.ColumnSpec{col("count", cqlvalue.KindBigInt)}}
	for _, c := range counts {
		p.Rows = append(p.Rows, []cqlvalue.Value{cqlvalue.NewBigInt(c)})
	}
	return p
}

func TestQueryResultAccessorsAreRepeatable(t *testing.T) {
	t.Parallel()

	r := New(usersPage())
	if r.Len() != 2 {
		t.Fatalf("expected 2 rows, got %d", r.Len())
	}

	first, err := r.All()
	if err != nil {
		t.Fatal(err)
	}
	second, err := r.All()
	if err != nil {
		t.Fatal(err)
	}
	expected := []map[string]any{
		{"id": int32(1), "name": "alice"},
		{"id": int32(2), "name": "bob"},
	}
	if diff := cmp.Diff(expected, first); diff != "" {
		t.Errorf("unexpected rows (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("second call differs (-first +second):\n%s", diff)
	}

	row, ok, err := r.First()
	if err != nil || !ok {
		t.Fatalf("expected first row, got ok=%v err=%v", ok, err)
	}
	if v, _ := row.Get("NAME"); !v.Equal(cqlvalue.NewText("alice")) {
		t.Errorf("expected case-insensitive lookup to find alice, got %s", v)
	}
	if diff := cmp.Diff([]string{"id", "name"}, row.Columns()); diff != "" {
		t.Errorf("unexpected columns (-want +got):\n%s", diff)
	}
}

func TestQueryResultBuffersAllPages(t *testing.T) {
	t.Parallel()

	p1 := countPage(1, 2)
	p1.PageState = []byte{1}
	p1.Warnings = []string{"w1"}
	p2 := countPage(3)
	p2.Columns = nil

	r := New(p1, p2)
	got, err := ScalarsAs[int64](r)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]int64{1, 2, 3}, got); diff != "" {
		t.Errorf("unexpected scalars (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"w1"}, r.Warnings()); diff != "" {
		t.Errorf("unexpected warnings (-want +got):\n%s", diff)
	}
}

func TestQueryResultZeroColumns(t *testing.T) {
	t.Parallel()

	r := New(driver.Page{})

	checks := map[string]func() error{
		"Rows": func() error { _, err := r.Rows(); return err },
		"All": func() error { _, err := r.All(); return err },
		"First": func() error { _, _, err := r.First(); return err },
		"Scalars": func() error { _, err := r.Scalars(); return err },
		"Scalar": func() error { _, _, err := r.Scalar(); return err },
		"ScalarAs": func() error { _, _, err := ScalarAs[int](r); return err },
		"All mapper": func() error { _, err := All(r, RowMaps()); return err },
	}
	for name, check := range checks {
		err := check()
		if !errors.Is(err, cqlerrors.ErrMapping) {
			t.Errorf("%s: expected mapping error, got %v", name, err)
			continue
		}
		if got := err.Error(); !strings.Contains(got, "no rows expected") {
			t.Errorf("%s: expected message about no rows expected, got %q", name, got)
		}
	}
}

func TestQueryResultEmpty(t *testing.T) {
	t.Parallel()

	r := New(countPage())

	if _, ok, err := r.First(); ok || err != nil {
		t.Errorf("expected absent first row, got ok=%v err=%v", ok, err)
	}
	v, ok, err := r.Scalar()
	if ok || err != nil {
		t.Errorf("expected absent scalar, got ok=%v err=%v", ok, err)
	}
	if !v.IsNull() {
		t.Errorf("expected null, got %s", v)
	}
	rows, err := r.Rows()
	if err != nil || len(rows) != 0 {
		t.Errorf("expected no rows, got %d and %v", len(rows), err)
	}
}

func TestQueryResultScalarRequiresOneColumn(t *testing.T) {
	t.Parallel()

	r := New(usersPage())
	if _, _, err := r.Scalar(); cqlerrors.KindOf(err) != cqlerrors.KindBase {
		t.Errorf("expected usage error, got %v", err)
	}
	if _, err := r.Scalars(); cqlerrors.KindOf(err) != cqlerrors.KindBase {
		t.Errorf("expected usage error, got %v", err)
	}

	one := New(countPage(7))
	v, ok, err := ScalarAs[int](one)
	if err != nil || !ok || v != 7 {
		t.Errorf("expected 7, got %d ok=%v err=%v", v, ok, err)
	}
}

func TestQueryResultTraceID(t *testing.T) {
	t.Parallel()

	if _, ok := New(usersPage()).TraceID(); ok {
		t.Error("expected no trace id")
	}

	id := uuid.MustParse("e7a5f0b2-8c9d-11ee-b9d1-0242ac120002")
	p := usersPage()
	p.TraceID = &id
	got, ok := New(p).TraceID()
	if !ok || got != id {
		t.Errorf("expected trace id %s, got %s", id, got)
	}
}

func TestAllReportsRowIndex(t *testing.T) {
	t.Parallel()

	p := usersPage()
	p.Rows = append(p.Rows, []cqlvalue.Value{cqlvalue.NewText("x"), cqlvalue.NewText("carol")})

	type user struct {
		ID   int
		Name string
	}
	_, err := All(New(p), Record(
		Col("id", func(u *user, v int) { u.ID = v }),
		Col("name", func(u *user, v string) { u.Name = v }),
	))
	if !errors.Is(err, cqlerrors.ErrMapping) {
		t.Fatalf("expected mapping error, got %v", err)
	}
	if msg := err.Error(); !strings.Contains(msg, "row 2") || !strings.Contains(msg, `column "id"`) {
		t.Errorf("expected row index and column in %q", msg)
	}
}
