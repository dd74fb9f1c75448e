// Package metrics exposes Prometheus counters for reconciliation outcomes.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kozaktomas/face-reindex/internal/facematch"
)

// Metrics holds the collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry
	outcomes *prometheus.CounterVec
	rows     *prometheus.CounterVec
	detect   prometheus.Histogram
}

// New registers the collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "face_reindex_outcomes_total",
			Help: "Processed submissions by status and rejection kind",
		}, []string{"status", "kind"}),
		rows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "face_reindex_result_rows_total",
			Help: "Reconciled rows by type",
		}, []string{"type"}),
		detect: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "face_reindex_detect_seconds",
			Help:    "Duration of detection provider calls",
			Buckets: prometheus.DefBuckets,
		}),
	}
	m.registry.MustRegister(m.outcomes, m.rows, m.detect)
	return m
}

// ObserveOutcome counts an outcome. Rows are counted only once delivered.
func (m *Metrics) ObserveOutcome(o facematch.Outcome) {
	if m == nil {
		return
	}
	m.outcomes.WithLabelValues(string(o.Status), string(o.Kind)).Inc()
	if !o.IsMatched() {
		return
	}
	for _, r := range o.Results {
		m.rows.WithLabelValues(rowType(r)).Inc()
	}
}

// ObserveDetect records how long a provider call took.
func (m *Metrics) ObserveDetect(d time.Duration) {
	if m == nil {
		return
	}
	m.detect.Observe(d.Seconds())
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func rowType(r facematch.MatchResult) string {
	switch {
	case !r.Reindexed():
		return "not_reindexed"
	case r.IsNewFace != nil && *r.IsNewFace:
		return "new_face"
	default:
		return "matched"
	}
}
