package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP request metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rozgar_api_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rozgar_api_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	rateLimitRejections = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rozgar_api_rate_limit_rejections_total",
			Help: "Total number of requests rejected by the rate limiter",
		},
	)

	authFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rozgar_api_auth_failures_total",
			Help: "Total number of failed credential verifications",
		},
		[]string{"reason"},
	)

	analyticsEventsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rozgar_api_analytics_events_dropped_total",
			Help: "Analytics events dropped because the tracker buffer was full",
		},
	)
)

// RecordHTTPRequest records an HTTP request
func RecordHTTPRequest(method, endpoint string, statusCode int, durationSeconds float64) {
	status := "unknown"
	switch {
	case statusCode >= 200 && statusCode < 300:
		status = "2xx"
	case statusCode >= 300 && statusCode < 400:
		status = "3xx"
	case statusCode >= 400 && statusCode < 500:
		status = "4xx"
	case statusCode >= 500:
		status = "5xx"
	}

	httpRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	httpRequestDuration.WithLabelValues(method, endpoint).Observe(durationSeconds)
}

// RecordRateLimitRejection records a request rejected by the rate limiter
func RecordRateLimitRejection() {
	rateLimitRejections.Inc()
}

// RecordAuthFailure records a failed credential verification.
// reason is "expired" or "invalid".
func RecordAuthFailure(reason string) {
	authFailures.WithLabelValues(reason).Inc()
}

// RecordAnalyticsEventDropped records a dropped analytics event
func RecordAnalyticsEventDropped() {
	analyticsEventsDropped.Inc()
}

// Handler returns the Prometheus scrape handler
func Handler() http.Handler {
	return promhttp.Handler()
}
