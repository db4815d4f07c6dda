// Copyright (C) 2021 ScyllaDB

package integration

import (
	"context"
	"fmt"

	g "github.com/onsi/ginkgo/v2"
	o "github.com/onsi/gomega"
	"github.com/scylladb/scyllaquery/pkg/session"
	"k8s.io/apimachinery/pkg/util/rand"
	"k8s.io/klog/v2"
)

// createKeyspace creates a keyspace with a random name, dropped when the
// test ends.
func createKeyspace(ctx context.Context) string {
	g.GinkgoHelper()

	name := "it_" + rand.String(8)
	err := schema.ExecSchema(ctx, fmt.Sprintf(
		"CREATE KEYSPACE %s WITH replication = {'class': 'NetworkTopologyStrategy', 'replication_factor': 1}", name,
	))
	o.Expect(err).NotTo(o.HaveOccurred())

	g.DeferCleanup(func(ctx context.Context) {
		if err := schema.ExecSchema(ctx, "DROP KEYSPACE IF EXISTS "+name); err != nil {
			klog.ErrorS(err, "Failed to drop keyspace", "keyspace", name)
		}
	})
	return name
}

func createTable(ctx context.Context, keyspace, definition string) {
	g.GinkgoHelper()

	o.Expect(schema.ExecSchema(ctx, fmt.Sprintf("CREATE TABLE %s.%s", keyspace, definition))).To(o.Succeed())
}

// startSession starts a session on keyspace, shut down when the test ends.
func startSession(ctx context.Context, keyspace string, opts ...session.Option) *session.Session {
	g.GinkgoHelper()

	s, err := session.New(testConfig(keyspace), opts...)
	o.Expect(err).NotTo(o.HaveOccurred())
	o.Expect(s.Startup(ctx)).To(o.Succeed())

	g.DeferCleanup(func(ctx context.Context) {
		if s.IsStarted() {
			o.Expect(s.Shutdown(ctx)).To(o.Succeed())
		}
	})
	return s
}

func must[T any](v T, ok bool) T {
	g.GinkgoHelper()

	o.Expect(ok).To(o.BeTrue())
	return v
}
