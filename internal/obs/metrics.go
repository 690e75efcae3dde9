// Package obs exposes the dispatch core's and transport's internal state as
// Prometheus metrics, named and organized the way the scheduler's own
// observability package wires its gauges, counters, and histograms.
package obs

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// QueueDepth tracks envelopes accepted but not yet running.
	QueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "nimbus_dispatch_queue_depth",
		Help: "Current number of envelopes queued but not yet running",
	})

	// RunningCount tracks envelopes between before-run and after-run.
	RunningCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "nimbus_dispatch_running",
		Help: "Current number of envelopes running",
	})

	// AdmissionRejections counts rejected submissions by reason.
	AdmissionRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nimbus_dispatch_rejections_total",
		Help: "Submissions rejected by the dispatch core",
	}, []string{"reason"}) // soft_cap, shutdown

	// RetryAttempts counts every rescheduled envelope.
	RetryAttempts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "nimbus_dispatch_retries_total",
		Help: "Total number of task retries scheduled",
	})

	// RetriesExhausted counts tasks that never succeeded within maxRetries.
	RetriesExhausted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "nimbus_dispatch_retries_exhausted_total",
		Help: "Tasks that exhausted their retry budget without succeeding",
	})

	// FlushDuration tracks how long flush() calls take to resolve.
	FlushDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "nimbus_dispatch_flush_duration_seconds",
		Help:    "Duration of Flush calls from invocation to resolution",
		Buckets: prometheus.DefBuckets,
	})

	// TransportRequestDuration tracks outbound delivery latency per outcome.
	TransportRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "nimbus_transport_request_duration_seconds",
		Help:    "Duration of outbound event delivery requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"transport", "outcome"}) // outcome: success, http_error, network_error

	// SampledDrops counts events dropped by client-side sampling.
	SampledDrops = promauto.NewCounter(prometheus.CounterOpts{
		Name: "nimbus_transport_sampled_drops_total",
		Help: "Events dropped by the sampling rate limiter before submission",
	})

	// DedupeSuppressed counts events suppressed by the cross-process dedupe cache.
	DedupeSuppressed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "nimbus_transport_dedupe_suppressed_total",
		Help: "Events suppressed as duplicates by the dedupe cache",
	})
)
