// Copyright (C) 2025 ScyllaDB

package gocqldriver

import (
	"context"

	"github.com/gocql/gocql"
	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "scyllaquery"

// Metrics observes requests sent by the driver. It is a prometheus
// collector, register it to export the series.
type Metrics struct {
	queryDuration *prometheus.HistogramVec
	batchDuration *prometheus.HistogramVec
	rows          *prometheus.CounterVec
	errors        *prometheus.CounterVec
	attempts      *prometheus.CounterVec
}

var (
	_ prometheus.Collector = &Metrics{}
	_ gocql.QueryObserver  = &Metrics{}
	_ gocql.BatchObserver  = &Metrics{}
)

func NewMetrics() *Metrics {
	return &Metrics{
		queryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "query",
			Name:      "duration_seconds",
			Help:      "Duration of query attempts.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 16),
		}, []string{"host", "keyspace"}),
		batchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "batch",
			Name:      "duration_seconds",
			Help:      "Duration of batch attempts.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 16),
		}, []string{"host", "keyspace"}),
		rows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "query",
			Name:      "rows_total",
			Help:      "Number of rows received.",
		}, []string{"keyspace"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "errors_total",
			Help:      "Number of failed attempts.",
		}, []string{"host", "type"}),
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "attempts_total",
			Help:      "Number of attempts.",
		}, []string{"type"}),
	}
}

func (m *Metrics) Describe(ch chan<- *prometheus.Desc) {
	m.queryDuration.Describe(ch)
	m.batchDuration.Describe(ch)
	m.rows.Describe(ch)
	m.errors.Describe(ch)
	m.attempts.Describe(ch)
}

func (m *Metrics) Collect(ch chan<- prometheus.Metric) {
	m.queryDuration.Collect(ch)
	m.batchDuration.Collect(ch)
	m.rows.Collect(ch)
	m.errors.Collect(ch)
	m.attempts.Collect(ch)
}

func (m *Metrics) ObserveQuery(_ context.Context, q gocql.ObservedQuery) {
	host := hostLabel(q.Host)
	m.attempts.WithLabelValues("query").Inc()
	m.queryDuration.WithLabelValues(host, q.Keyspace).Observe(q.End.Sub(q.Start).Seconds())
	if q.Rows > 0 {
		m.rows.WithLabelValues(q.Keyspace).Add(float64(q.Rows))
	}
	if q.Err != nil {
		m.errors.WithLabelValues(host, "query").Inc()
	}
}

func (m *Metrics) ObserveBatch(_ context.Context, b gocql.ObservedBatch) {
	host := hostLabel(b.Host)
	m.attempts.WithLabelValues("batch").Inc()
	m.batchDuration.WithLabelValues(host, b.Keyspace).Observe(b.End.Sub(b.Start).Seconds())
	if b.Err != nil {
		m.errors.WithLabelValues(host, "batch").Inc()
	}
}

func hostLabel(h *gocql.HostInfo) string {
	if h == nil {
		return ""
	}
	return h.ConnectAddress().String()
}
