// Package metrics provides Prometheus metrics for the Clover service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RunsTotal tracks migration runs by kind and status
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clover",
			Subsystem: "migration",
			Name:      "runs_total",
			Help:      "Total number of migration runs by kind and status",
		},
		[]string{"kind", "status"},
	)

	// RunDuration tracks migration run duration in seconds
	RunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "clover",
			Subsystem: "migration",
			Name:      "run_duration_seconds",
			Help:      "Duration of migration runs in seconds",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800, 3600},
		},
		[]string{"kind"},
	)

	// UnitsProcessed tracks processed units by outcome
	UnitsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clover",
			Subsystem: "migration",
			Name:      "units_processed_total",
			Help:      "Total number of processed units by object and outcome",
		},
		[]string{"object", "status"},
	)

	// FilesUploaded tracks files uploaded to the destination
	FilesUploaded = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "clover",
			Subsystem: "migration",
			Name:      "files_uploaded_total",
			Help:      "Total number of files uploaded",
		},
	)

	// NotesCreated tracks notes created on destination records
	NotesCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "clover",
			Subsystem: "migration",
			Name:      "notes_created_total",
			Help:      "Total number of notes created",
		},
	)

	// ResolverBatches tracks ID resolution batches by status
	ResolverBatches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clover",
			Subsystem: "resolver",
			Name:      "batches_total",
			Help:      "Total number of ID resolution batches by status",
		},
		[]string{"object", "status"},
	)

	// ResolverWaitTime tracks time spent pacing between resolution batches
	ResolverWaitTime = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "clover",
			Subsystem: "resolver",
			Name:      "wait_seconds",
			Help:      "Time spent waiting between resolution batches in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
	)

	// HTTPRequests tracks inbound HTTP requests by status class
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clover",
			Subsystem: "http_server",
			Name:      "requests_total",
			Help:      "Total number of inbound HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	// HTTPRequestDuration tracks inbound HTTP request duration
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "clover",
			Subsystem: "http_server",
			Name:      "request_duration_seconds",
			Help:      "Duration of inbound HTTP requests in seconds",
			Buckets:   []float64{0.005, 0.025, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "route"},
	)

	// OutboundRequests tracks outbound HTTP requests
	OutboundRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clover",
			Subsystem: "http_client",
			Name:      "requests_total",
			Help:      "Total number of outbound HTTP requests",
		},
		[]string{"method", "status_code"},
	)

	// OutboundRequestDuration tracks outbound HTTP request duration
	OutboundRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "clover",
			Subsystem: "http_client",
			Name:      "request_duration_seconds",
			Help:      "Duration of outbound HTTP requests in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method"},
	)

	// KafkaMessagesPublished tracks Kafka messages published
	KafkaMessagesPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clover",
			Subsystem: "kafka",
			Name:      "messages_published_total",
			Help:      "Total number of messages published to Kafka",
		},
		[]string{"topic", "status"},
	)

	// AuthTokenRefreshes tracks auth token refresh operations
	AuthTokenRefreshes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clover",
			Subsystem: "auth",
			Name:      "token_refreshes_total",
			Help:      "Total number of auth token refresh operations",
		},
		[]string{"status"},
	)
)

// RecordRun records a completed migration run
func RecordRun(kind, status string, durationSeconds float64) {
	RunsTotal.WithLabelValues(kind, status).Inc()
	RunDuration.WithLabelValues(kind).Observe(durationSeconds)
}

// RecordUnit records a processed unit outcome
func RecordUnit(object, status string) {
	UnitsProcessed.WithLabelValues(object, status).Inc()
}
