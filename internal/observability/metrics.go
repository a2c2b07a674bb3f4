package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "optimizing"

var (
	registerOnce sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests.",
		},
		[]string{"node", "method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"node", "method", "path", "status"},
	)
	streamLoads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "loads_total",
			Help:      "Cell loads by outcome.",
		},
		[]string{"node", "outcome"},
	)
	streamLoadDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "load_duration_seconds",
			Help:      "Duration of successful cell loads in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
		},
		[]string{"node"},
	)
	streamEvictions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "evictions_total",
			Help:      "Cells evicted by the state they were in.",
		},
		[]string{"node", "from"},
	)
	streamCells = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "cells",
			Help:      "Resident cells by lifecycle state.",
		},
		[]string{"node", "state"},
	)
	streamInFlight = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "in_flight",
			Help:      "Loads dispatched and not yet applied.",
		},
		[]string{"node"},
	)
)

// Load outcomes used as the outcome label.
const (
	OutcomeDispatched = "dispatched"
	OutcomeCompleted  = "completed"
	OutcomeFailed     = "failed"
	OutcomeDiscarded  = "discarded"
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			httpRequests,
			httpDuration,
			streamLoads,
			streamLoadDuration,
			streamEvictions,
			streamCells,
			streamInFlight,
		)
	})
}

func RecordHTTPRequest(node, method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(node, method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(node, method, path, statusLabel).Observe(duration.Seconds())
}

func RecordLoad(node, outcome string) {
	RegisterMetrics()
	streamLoads.WithLabelValues(node, outcome).Inc()
}

func RecordLoadDuration(node string, duration time.Duration) {
	RegisterMetrics()
	streamLoadDuration.WithLabelValues(node).Observe(duration.Seconds())
}

func RecordEviction(node, from string) {
	RegisterMetrics()
	streamEvictions.WithLabelValues(node, from).Inc()
}

func SetResident(node string, requested, loading, ready, inFlight int) {
	RegisterMetrics()
	streamCells.WithLabelValues(node, "requested").Set(float64(requested))
	streamCells.WithLabelValues(node, "loading").Set(float64(loading))
	streamCells.WithLabelValues(node, "ready").Set(float64(ready))
	streamInFlight.WithLabelValues(node).Set(float64(inFlight))
}
