// Package metrics provides Prometheus metrics for the analysis cascade and
// its HTTP surface.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CascadeAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "svitlogics_cascade_attempts_total",
			Help: "Model attempts by outcome",
		},
		[]string{"model", "outcome"},
	)
	CascadeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "svitlogics_cascade_duration_seconds",
			Help:    "Wall-clock duration of a full cascade walk",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
		},
	)
	TasksTerminal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "svitlogics_tasks_terminal_total",
			Help: "Background analysis tasks by terminal status",
		},
		[]string{"status"},
	)
	RateLimitRejections = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "svitlogics_rate_limit_rejections_total",
			Help: "Requests rejected by the fixed-window rate limiter",
		},
	)
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "svitlogics_http_requests_total",
			Help: "HTTP requests by method, endpoint and status",
		},
		[]string{"method", "endpoint", "status"},
	)
	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "svitlogics_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"method", "endpoint"},
	)
)

// Attempt outcome labels used by the cascade.
const (
	OutcomeSuccess   = "success"
	OutcomeSkipped   = "skipped_budget"
	OutcomeRetryable = "retryable"
	OutcomeFatal     = "fatal"
)

// RecordAttempt counts one cascade attempt.
func RecordAttempt(model, outcome string) {
	CascadeAttempts.WithLabelValues(model, outcome).Inc()
}

// RecordHTTPRequest counts one served HTTP request.
func RecordHTTPRequest(method, endpoint, status string, duration time.Duration) {
	HTTPRequests.WithLabelValues(method, endpoint, status).Inc()
	HTTPDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}
