// Package metrics holds the Prometheus collectors of the API server. They are
// registered with the default registry and exposed on /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Auth event label values.
const (
	EventRegister       = "register"
	EventLoginSuccess   = "login_success"
	EventLoginFailure   = "login_failure"
	EventRefresh        = "refresh"
	EventLogout         = "logout"
	EventPasswordChange = "password_change"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foodable_http_requests_total",
			Help: "Total number of HTTP requests by method, route pattern and status",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "foodable_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	AuthEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foodable_auth_events_total",
			Help: "Authentication events by outcome",
		},
		[]string{"event"},
	)

	RateLimitStoreFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "foodable_ratelimit_store_fallbacks_total",
			Help: "Rate-limit counter operations served from memory because the shared store failed",
		},
	)
)

// RecordHTTPRequest records one completed request. route is the chi route
// pattern, not the raw path, to keep label cardinality bounded.
func RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

func RecordAuthEvent(event string) {
	AuthEventsTotal.WithLabelValues(event).Inc()
}

func RecordRateLimitFallback() {
	RateLimitStoreFallbacks.Inc()
}
