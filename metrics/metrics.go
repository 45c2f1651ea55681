// Package metrics exposes Prometheus collectors for the registry,
// pipeline, and connector layers, grounded on the teacher's
// engine/metrics.go (a CounterVec + HistogramVec pair registered with
// prometheus.MustRegister at package init).
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// SubjectsAttached tracks the current number of attached subjects.
	SubjectsAttached = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "reactive",
		Subsystem: "registry",
		Name:      "subjects_attached",
		Help:      "Current number of attached subjects.",
	})

	// WritesTotal counts property writes that pass through
	// metrics.Interceptor, labeled by outcome ("committed" when the rest
	// of the chain returns nil, "rejected" when it returns an error).
	WritesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "reactive",
		Subsystem: "pipeline",
		Name:      "writes_total",
		Help:      "Total property writes processed, by outcome.",
	}, []string{"outcome"})

	// ReadDuration observes read-pipeline latency.
	ReadDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "reactive",
		Subsystem: "pipeline",
		Name:      "read_duration_seconds",
		Help:      "Read pipeline latency.",
		Buckets:   prometheus.DefBuckets,
	})

	// RetryQueueDepth tracks a source connector's current retry queue
	// length, labeled by source name.
	RetryQueueDepth = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "reactive",
		Subsystem: "source",
		Name:      "retry_queue_depth",
		Help:      "Current depth of a source connector's retry queue.",
	}, []string{"source"})

	// RetryQueueDropsTotal counts oldest-drop events on a full retry
	// queue, labeled by source name.
	RetryQueueDropsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "reactive",
		Subsystem: "source",
		Name:      "retry_queue_drops_total",
		Help:      "Total retry queue batches dropped due to overflow.",
	}, []string{"source"})

	// ReconnectsTotal counts source reconnect attempts, labeled by
	// source name.
	ReconnectsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "reactive",
		Subsystem: "source",
		Name:      "reconnects_total",
		Help:      "Total source reconnect attempts.",
	}, []string{"source"})
)

func init() {
	prometheus.MustRegister(
		SubjectsAttached,
		WritesTotal,
		ReadDuration,
		RetryQueueDepth,
		RetryQueueDropsTotal,
		ReconnectsTotal,
	)
}
