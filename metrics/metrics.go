// Package metrics exposes Prometheus instrumentation for merge runs.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "callmatch"

// Merge outcomes used as the status label.
const (
	StatusOK         = "ok"
	StatusBadRequest = "bad_request"
	StatusInvalid    = "invalid"
	StatusError      = "error"
)

var (
	mergesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "merges_total",
			Help:      "Total number of merge runs by outcome.",
		},
		[]string{"status"},
	)

	rowsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_total",
			Help:      "Total number of input rows read, by table.",
		},
		[]string{"table"},
	)

	matchedRowsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "matched_rows_total",
			Help:      "Total number of sales rows matched to a call.",
		},
	)

	mergeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "merge_duration_seconds",
			Help:      "Duration of merge runs, parsing included.",
			Buckets:   prometheus.DefBuckets,
		},
	)
)

// ObserveMerge records one merge attempt.
func ObserveMerge(status string, took time.Duration) {
	mergesTotal.WithLabelValues(status).Inc()
	mergeDuration.Observe(took.Seconds())
}

// ObserveRows records rows read and matched by a successful merge.
func ObserveRows(callRows, salesRows, matched int) {
	rowsTotal.WithLabelValues("calls").Add(float64(callRows))
	rowsTotal.WithLabelValues("sales").Add(float64(salesRows))
	matchedRowsTotal.Add(float64(matched))
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
