// Copyright (C) 2025 ScyllaDB

package integration

import (
	"context"
	"time"

	g "github.com/onsi/ginkgo/v2"
	o "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/scylladb/scyllaquery/pkg/cqlerrors"
	"github.com/scylladb/scyllaquery/pkg/cqlvalue"
	"github.com/scylladb/scyllaquery/pkg/driver/gocqldriver"
	"github.com/scylladb/scyllaquery/pkg/profile"
	"github.com/scylladb/scyllaquery/pkg/qb"
	"github.com/scylladb/scyllaquery/pkg/result"
	"github.com/scylladb/scyllaquery/pkg/session"
	"github.com/scylladb/scyllaquery/pkg/statement"
)

type user struct {
	ID   int32  `db:"id"`
	Name string `db:"name"`
}

type account struct {
	ID    int32
	Email string
}

var _ = g.Describe("Session", func() {
	var (
		keyspace string
		s        *session.Session
	)

	g.BeforeEach(func(ctx context.Context) {
		keyspace = createKeyspace(ctx)
		createTable(ctx, keyspace, "users (id int PRIMARY KEY, name text)")
		createTable(ctx, keyspace, "numbers (id int PRIMARY KEY, tiny tinyint, small smallint, big bigint, tags set<text>, at timestamp, maybe text)")
		createTable(ctx, keyspace, "events (p int, c int, PRIMARY KEY (p, c))")
		s = startSession(ctx, keyspace)
	}, g.NodeTimeout(timeout))

	g.It("round-trips values of explicit widths", func(ctx context.Context) {
		at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
		_, err := s.Execute(ctx, statement.NewQuery(
			"INSERT INTO numbers (id, tiny, small, big, tags, at) VALUES (?, ?, ?, ?, ?, ?)",
		), statement.Args{
			int32(1), cqlvalue.TinyInt(5), cqlvalue.SmallInt(300), cqlvalue.BigInt(1 << 40),
			cqlvalue.Set{"a", "b"}, at,
		})
		o.Expect(err).NotTo(o.HaveOccurred())

		r, err := s.Execute(ctx, statement.NewQuery("SELECT tiny, small, big, tags, at, maybe FROM numbers WHERE id = ?"), statement.Args{int32(1)})
		o.Expect(err).NotTo(o.HaveOccurred())
		row, ok, err := r.First()
		o.Expect(err).NotTo(o.HaveOccurred())
		o.Expect(ok).To(o.BeTrue())

		tiny, _ := row.Get("tiny")
		o.Expect(must(tiny.Int64())).To(o.BeEquivalentTo(5))
		o.Expect(tiny.Kind()).To(o.Equal(cqlvalue.KindTinyInt))
		small, _ := row.Get("small")
		o.Expect(must(small.Int64())).To(o.BeEquivalentTo(300))
		big, _ := row.Get("big")
		o.Expect(must(big.Int64())).To(o.BeEquivalentTo(1 << 40))
		tags, _ := row.Get("tags")
		o.Expect(tags.Equal(cqlvalue.NewSet(cqlvalue.NewText("a"), cqlvalue.NewText("b")))).To(o.BeTrue())
		ts, _ := row.Get("at")
		o.Expect(must(ts.Time())).To(o.BeTemporally("==", at))
		maybe, _ := row.Get("maybe")
		o.Expect(maybe.IsNull()).To(o.BeTrue())
	}, g.SpecTimeout(timeout))

	g.It("binds named parameters regardless of key case", func(ctx context.Context) {
		_, err := s.Execute(ctx, statement.NewQuery("INSERT INTO users (id, name) VALUES (:id, :name)"),
			statement.NamedArgs{"ID": int32(1), "Name": "alice"})
		o.Expect(err).NotTo(o.HaveOccurred())

		r, err := s.Execute(ctx, statement.NewQuery("SELECT name FROM users WHERE id = :id"), statement.NamedArgs{"id": int32(1)})
		o.Expect(err).NotTo(o.HaveOccurred())
		name, ok, err := result.ScalarAs[string](r)
		o.Expect(err).NotTo(o.HaveOccurred())
		o.Expect(ok).To(o.BeTrue())
		o.Expect(name).To(o.Equal("alice"))
	}, g.SpecTimeout(timeout))

	g.It("orders update values before where values", func(ctx context.Context) {
		_, err := qb.Insert("users").Set("id", int32(1)).Set("name", "old").Execute(ctx, s)
		o.Expect(err).NotTo(o.HaveOccurred())
		_, err = qb.Update("users").Set("name", "x").Where("id = ?", int32(1)).Execute(ctx, s)
		o.Expect(err).NotTo(o.HaveOccurred())

		r, err := qb.Select("users").Where("id = ?", int32(1)).Execute(ctx, s)
		o.Expect(err).NotTo(o.HaveOccurred())
		u, ok, err := result.First(r, result.Struct[user]())
		o.Expect(err).NotTo(o.HaveOccurred())
		o.Expect(ok).To(o.BeTrue())
		o.Expect(u).To(o.Equal(user{ID: 1, Name: "x"}))
	}, g.SpecTimeout(timeout))

	g.It("rejects named batch parameters before sending anything", func(ctx context.Context) {
		insert := statement.NewQuery("INSERT INTO users (id, name) VALUES (?, ?)")
		b := statement.NewBatch(statement.LoggedBatch).Add(insert).Add(insert)

		_, err := s.Batch(ctx, b, []statement.Params{
			statement.Args{int32(1), "a"},
			statement.NamedArgs{"id": int32(2), "name": "b"},
		})
		o.Expect(err).To(o.MatchError(cqlerrors.ErrBinding))

		r, err := s.Execute(ctx, statement.NewQuery("SELECT count(*) FROM users"), nil)
		o.Expect(err).NotTo(o.HaveOccurred())
		n, _, err := result.ScalarAs[int64](r)
		o.Expect(err).NotTo(o.HaveOccurred())
		o.Expect(n).To(o.BeZero())
	}, g.SpecTimeout(timeout))

	g.It("executes batches", func(ctx context.Context) {
		b := statement.NewInlineBatch(statement.UnloggedBatch)
		for i := range 3 {
			var err error
			b, err = qb.Insert("users").Set("id", int32(i)).Set("name", "u").AddToBatch(b)
			o.Expect(err).NotTo(o.HaveOccurred())
		}
		_, err := s.InlineBatch(ctx, b)
		o.Expect(err).NotTo(o.HaveOccurred())

		r, err := s.Execute(ctx, statement.NewQuery("SELECT id FROM users"), nil)
		o.Expect(err).NotTo(o.HaveOccurred())
		ids, err := result.ScalarsAs[int32](r)
		o.Expect(err).NotTo(o.HaveOccurred())
		o.Expect(ids).To(o.ConsistOf(int32(0), int32(1), int32(2)))
	}, g.SpecTimeout(timeout))

	g.It("distinguishes empty results from results without rows", func(ctx context.Context) {
		r, err := s.Execute(ctx, statement.NewQuery("SELECT id, name FROM users"), nil)
		o.Expect(err).NotTo(o.HaveOccurred())
		_, _, err = r.Scalar()
		o.Expect(err).To(o.HaveOccurred())

		r, err = s.Execute(ctx, statement.NewQuery("SELECT name FROM users WHERE id = 1"), nil)
		o.Expect(err).NotTo(o.HaveOccurred())
		_, ok, err := r.Scalar()
		o.Expect(err).NotTo(o.HaveOccurred())
		o.Expect(ok).To(o.BeFalse())
		_, ok, err = result.First(r, result.Struct[user]())
		o.Expect(err).NotTo(o.HaveOccurred())
		o.Expect(ok).To(o.BeFalse())

		r, err = s.Execute(ctx, statement.NewQuery("INSERT INTO users (id, name) VALUES (1, 'a')"), nil)
		o.Expect(err).NotTo(o.HaveOccurred())
		_, err = r.Rows()
		o.Expect(err).To(o.MatchError(cqlerrors.ErrMapping))
		o.Expect(err.Error()).To(o.ContainSubstring("no rows expected"))
	}, g.SpecTimeout(timeout))

	g.It("names mismatched fields when mapping", func(ctx context.Context) {
		_, err := s.Execute(ctx, statement.NewQuery("INSERT INTO users (id, name) VALUES (1, 'a')"), nil)
		o.Expect(err).NotTo(o.HaveOccurred())

		r, err := s.Execute(ctx, statement.NewQuery("SELECT id, name FROM users"), nil)
		o.Expect(err).NotTo(o.HaveOccurred())
		_, err = result.All(r, result.Struct[account]())
		o.Expect(err).To(o.MatchError(cqlerrors.ErrMapping))
		o.Expect(err.Error()).To(o.ContainSubstring("name"))
	}, g.SpecTimeout(timeout))

	g.It("yields every row of a paged query once", func(ctx context.Context) {
		const k = 57
		insert, err := s.Prepare(ctx, "INSERT INTO events (p, c) VALUES (?, ?)")
		o.Expect(err).NotTo(o.HaveOccurred())
		for i := range k {
			_, err := s.Execute(ctx, insert, statement.Args{1, i})
			o.Expect(err).NotTo(o.HaveOccurred())
		}

		q := statement.NewQuery("SELECT c FROM events WHERE p = ?").WithPageSize(10)
		it, err := s.ExecutePaged(ctx, q, statement.Args{int32(1)})
		o.Expect(err).NotTo(o.HaveOccurred())

		var got []int64
		for v, err := range result.Scalars(it).All(ctx) {
			o.Expect(err).NotTo(o.HaveOccurred())
			got = append(got, must(v.Int64()))
		}
		o.Expect(got).To(o.HaveLen(k))
		for i, c := range got {
			o.Expect(c).To(o.BeEquivalentTo(i))
		}
		o.Expect(it.State()).To(o.Equal(result.Exhausted))
	}, g.SpecTimeout(timeout))

	g.It("applies statement options", func(ctx context.Context) {
		q := statement.NewQuery("INSERT INTO users (id, name) VALUES (1, 'a') IF NOT EXISTS").
			WithSerialConsistency(profile.LocalSerial).
			WithConsistency(profile.One).
			WithTracing(true).
			WithTimeout(10 * time.Second)
		r, err := s.Execute(ctx, q, nil)
		o.Expect(err).NotTo(o.HaveOccurred())
		_, ok := r.TraceID()
		o.Expect(ok).To(o.BeTrue())

		applied, ok, err := result.First(r, result.Record(
			result.Col("[applied]", func(v *bool, applied bool) { *v = applied }),
		))
		o.Expect(err).NotTo(o.HaveOccurred())
		o.Expect(ok).To(o.BeTrue())
		o.Expect(applied).To(o.BeTrue())
	}, g.SpecTimeout(timeout))

	g.It("rejects prepared statements of a previous startup", func(ctx context.Context) {
		p, err := s.Prepare(ctx, "SELECT name FROM users WHERE id = :id")
		o.Expect(err).NotTo(o.HaveOccurred())
		_, err = s.Execute(ctx, p, statement.Args{1})
		o.Expect(err).NotTo(o.HaveOccurred())

		o.Expect(s.Shutdown(ctx)).To(o.Succeed())
		o.Expect(s.Startup(ctx)).To(o.Succeed())

		_, err = s.Execute(ctx, p, statement.Args{1})
		o.Expect(err).To(o.MatchError(cqlerrors.ErrSession))
	}, g.SpecTimeout(timeout))

	g.It("switches keyspace", func(ctx context.Context) {
		other := createKeyspace(ctx)
		o.Expect(s.UseKeyspace(ctx, other, false)).To(o.Succeed())
		o.Expect(s.Keyspace()).To(o.Equal(other))

		_, err := s.Execute(ctx, statement.NewQuery("SELECT * FROM users"), nil)
		o.Expect(err).To(o.MatchError(cqlerrors.ErrDatabase))
	}, g.SpecTimeout(timeout))
})

var _ = g.Describe("Metrics", func() {
	g.It("observes queries", func(ctx context.Context) {
		keyspace := createKeyspace(ctx)
		createTable(ctx, keyspace, "users (id int PRIMARY KEY, name text)")

		m := gocqldriver.NewMetrics()
		s := startSession(ctx, keyspace, session.WithMetrics(m))

		_, err := s.Execute(ctx, statement.NewQuery("SELECT * FROM users"), nil)
		o.Expect(err).NotTo(o.HaveOccurred())
		o.Expect(testutil.CollectAndCount(m)).To(o.BeNumerically(">", 0))
	}, g.SpecTimeout(timeout))
})
