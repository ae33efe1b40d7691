// Package metrics provides Prometheus metrics for observability.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTPRequestsTotal counts total HTTP requests by method, path, and status.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration measures request latency in seconds.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	// ActiveConnections tracks current active connections.
	ActiveConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "active_connections",
			Help: "Number of active connections",
		},
	)

	// PasswordsGeneratedTotal counts generated passwords.
	PasswordsGeneratedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "passwords_generated_total",
			Help: "Total number of passwords generated",
		},
	)

	// PasswordLength observes the length of generated passwords.
	PasswordLength = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "password_length",
			Help:    "Length of generated passwords",
			Buckets: prometheus.LinearBuckets(8, 8, 8),
		},
	)

	// CharsetUsageTotal counts generations per enabled charset.
	CharsetUsageTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "charset_usage_total",
			Help: "Total number of generation requests with each charset enabled",
		},
		[]string{"charset"},
	)

	// RejectedRequestsTotal counts generation requests refused by validation.
	RejectedRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "password_requests_rejected_total",
			Help: "Total number of password requests rejected by validation",
		},
		[]string{"reason"},
	)

	// StatsFlushDuration measures how long persisting usage statistics takes.
	StatsFlushDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "stats_flush_duration_seconds",
			Help:    "Usage statistics flush duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
	)

	// RateLimitedTotal counts rate-limited requests.
	RateLimitedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rate_limited_total",
			Help: "Total number of rate-limited requests",
		},
	)
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordRequest records an HTTP request metric.
func RecordRequest(method, path string, status int, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordGenerated records count passwords of the given length built from charsets.
func RecordGenerated(length, count int, charsets []string) {
	PasswordsGeneratedTotal.Add(float64(count))
	for i := 0; i < count; i++ {
		PasswordLength.Observe(float64(length))
	}
	for _, c := range charsets {
		CharsetUsageTotal.WithLabelValues(c).Inc()
	}
}

// RecordRejected records a request refused for reason.
func RecordRejected(reason string) {
	RejectedRequestsTotal.WithLabelValues(reason).Inc()
}

// RecordStatsFlush records a statistics flush duration.
func RecordStatsFlush(duration time.Duration) {
	StatsFlushDuration.Observe(duration.Seconds())
}

// RecordRateLimited records a rate-limited request.
func RecordRateLimited() {
	RateLimitedTotal.Inc()
}
