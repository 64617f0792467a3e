// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package metrics collects Prometheus counters for a pipeline run:
//   - trialscope_registry_pages_total: pages fetched from the registry
//   - trialscope_registry_page_failures_total: failed page fetches by position (first, later)
//   - trialscope_registry_records_total: records by outcome (kept, truncated, cutoff)
//   - trialscope_queries_total: per-term queries by outcome (ok, failed)
//   - trialscope_query_duration_seconds: per-term query latency
//   - trialscope_normalizations_total: name normalizations by method (llm, fallback, rules)
//
// A Recorder owns its registry so that concurrent tests never share state.
// All methods are safe on a nil *Recorder, which records nothing.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder holds the run's collectors and the registry they belong to.
type Recorder struct {
	registry      *prometheus.Registry
	pages         prometheus.Counter
	pageFailures  *prometheus.CounterVec
	records       *prometheus.CounterVec
	queries       *prometheus.CounterVec
	queryDuration prometheus.Histogram
	normalization *prometheus.CounterVec
}

// New creates a Recorder with all collectors registered.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		pages: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "trialscope_registry_pages_total",
			Help: "Registry result pages fetched successfully",
		}),
		pageFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "trialscope_registry_page_failures_total",
			Help: "Registry page fetches that failed",
		}, []string{"position"}),
		records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "trialscope_registry_records_total",
			Help: "Registry records by outcome",
		}, []string{"outcome"}),
		queries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "trialscope_queries_total",
			Help: "Per-term registry queries by outcome",
		}, []string{"outcome"}),
		queryDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "trialscope_query_duration_seconds",
			Help:    "Wall time of one per-term registry query including pagination",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		normalization: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "trialscope_normalizations_total",
			Help: "Name normalizations by method",
		}, []string{"method"}),
	}
	r.registry.MustRegister(r.pages, r.pageFailures, r.records, r.queries, r.queryDuration, r.normalization)
	return r
}

// Registry exposes the underlying registry for gathering.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// PageFetched counts one successful registry page.
func (r *Recorder) PageFetched() {
	if r == nil {
		return
	}
	r.pages.Inc()
}

// PageFailed counts a failed page fetch. first distinguishes an aborted
// query from a truncated one.
func (r *Recorder) PageFailed(first bool) {
	if r == nil {
		return
	}
	position := "later"
	if first {
		position = "first"
	}
	r.pageFailures.WithLabelValues(position).Inc()
}

// Records adds n records with the given outcome.
func (r *Recorder) Records(outcome string, n int) {
	if r == nil || n <= 0 {
		return
	}
	r.records.WithLabelValues(outcome).Add(float64(n))
}

// QueryDone records the outcome and latency of one per-term query.
func (r *Recorder) QueryDone(ok bool, elapsed time.Duration) {
	if r == nil {
		return
	}
	outcome := "ok"
	if !ok {
		outcome = "failed"
	}
	r.queries.WithLabelValues(outcome).Inc()
	r.queryDuration.Observe(elapsed.Seconds())
}

// Normalized counts one normalization by method: "llm", "fallback", or "rules".
func (r *Recorder) Normalized(method string) {
	if r == nil {
		return
	}
	r.normalization.WithLabelValues(method).Inc()
}

// WriteTextfile writes all collected metrics in the Prometheus text format
// to path, suitable for the node_exporter textfile collector.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("writing metrics textfile: %w", err)
	}
	return nil
}
