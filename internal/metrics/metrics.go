// Package metrics collects Prometheus counters for DNS lookups and classify
// jobs, and exports them in the node_exporter textfile format.
package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/tbckr/staticscan/internal/classify"
	"github.com/tbckr/staticscan/internal/job"
)

const namespace = "staticscan"

// Metrics holds the collectors of one run. Each instance owns its registry so
// that several can coexist, which keeps tests independent.
type Metrics struct {
	registry *prometheus.Registry

	lookups        *prometheus.CounterVec
	lookupDuration *prometheus.HistogramVec
	lines          *prometheus.CounterVec
	jobs           *prometheus.CounterVec
}

// New registers a fresh set of collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dns_lookups_total",
			Help:      "DNS lookups by record type and result (ok, error, timeout).",
		}, []string{"type", "result"}),
		lookupDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "dns_lookup_duration_seconds",
			Help:      "Time to answer a single DNS lookup.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"type"}),
		lines: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lines_classified_total",
			Help:      "Input lines sorted into each category.",
		}, []string{"category"}),
		jobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_total",
			Help:      "Jobs by final status.",
		}, []string{"status"}),
	}
	m.registry.MustRegister(m.lookups, m.lookupDuration, m.lines, m.jobs)
	return m
}

// Gatherer exposes the registry.
func (m *Metrics) Gatherer() prometheus.Gatherer { return m.registry }

// WriteTextfile writes every collected metric to path, replacing it atomically.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}

// ObserveJob records the final counters of a job. Jobs still processing are
// ignored.
func (m *Metrics) ObserveJob(s job.Snapshot) {
	if !s.Done() {
		return
	}
	m.jobs.WithLabelValues(string(s.Status)).Inc()
	m.observeCounts(s.Counts())
}

// ObserveResults records lines classified outside of a job.
func (m *Metrics) ObserveResults(r job.Results) {
	m.observeCounts(r.Counts())
}

func (m *Metrics) observeCounts(c job.Counts) {
	m.lines.WithLabelValues(string(classify.GitHub)).Add(float64(c.GitHub))
	m.lines.WithLabelValues(string(classify.Netlify)).Add(float64(c.Netlify))
	m.lines.WithLabelValues(string(classify.Other)).Add(float64(c.Others))
}

// WrapResolver returns a resolver that times and counts every lookup made
// through r.
func (m *Metrics) WrapResolver(r classify.Resolver) classify.Resolver {
	return &instrumented{next: r, m: m}
}

type instrumented struct {
	next classify.Resolver
	m    *Metrics
}

func (i *instrumented) ResolveA(ctx context.Context, host string) ([]string, error) {
	return i.observe("A", func() ([]string, error) { return i.next.ResolveA(ctx, host) })
}

func (i *instrumented) ResolveCNAME(ctx context.Context, host string) ([]string, error) {
	return i.observe("CNAME", func() ([]string, error) { return i.next.ResolveCNAME(ctx, host) })
}

func (i *instrumented) observe(qtype string, fn func() ([]string, error)) ([]string, error) {
	start := time.Now()
	records, err := fn()
	i.m.lookupDuration.WithLabelValues(qtype).Observe(time.Since(start).Seconds())
	i.m.lookups.WithLabelValues(qtype, result(err)).Inc()
	return records, err
}

func result(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "error"
	}
}
