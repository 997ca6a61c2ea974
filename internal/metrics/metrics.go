// Package metrics defines the Prometheus collectors for the service's own
// operational metrics (not to be confused with the machine telemetry this
// service ingests — these are about the server itself).
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TotalRequests counts HTTP requests by method, route pattern and
	// status class.
	TotalRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// RequestDuration observes request latency by method and route pattern.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// MonitoringPayloads counts accepted agent metric submissions.
	MonitoringPayloads = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "monitoring_payloads_total",
			Help: "Total number of monitoring payloads stored",
		},
	)

	// RateLimited counts requests rejected by the rate limiter.
	RateLimited = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rate_limited_requests_total",
			Help: "Total number of requests rejected with 429",
		},
	)
)
