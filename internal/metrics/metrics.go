// Package metrics exposes Prometheus instrumentation for the crawler.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// External API metrics
var (
	// APIRequestsTotal tracks outgoing search API requests by endpoint and status.
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crawler_api_requests_total",
			Help: "Total external API requests by endpoint and status",
		},
		[]string{"endpoint", "status"},
	)

	// APIRequestDuration tracks external API request latency in seconds.
	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "crawler_api_request_duration_seconds",
			Help:    "External API request duration in seconds",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"endpoint"},
	)

	// RetriesTotal counts backoff retries issued by the throttle.
	RetriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "crawler_retries_total",
			Help: "Total retries scheduled after retryable API failures",
		},
	)

	// ThrottleWaitSeconds tracks time spent waiting for a pacing slot.
	ThrottleWaitSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "crawler_throttle_wait_seconds",
			Help:    "Time spent waiting for the request pacing slot",
			Buckets: []float64{.001, .01, .1, .5, 1, 2, 5, 10},
		},
	)
)

// Batch metrics
var (
	// BatchRowsTotal tracks processed batch rows by outcome.
	BatchRowsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crawler_batch_rows_total",
			Help: "Processed batch rows by outcome (ok/partial/failed)",
		},
		[]string{"status"},
	)

	// PostsRetrievedTotal counts posts produced by pagination.
	PostsRetrievedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "crawler_posts_retrieved_total",
			Help: "Total posts retrieved across all queries",
		},
	)
)
