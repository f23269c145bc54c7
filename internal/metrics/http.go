package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sqllens",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests by method, endpoint and status",
	}, []string{"method", "endpoint", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "sqllens",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "endpoint"})

	httpErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sqllens",
		Subsystem: "http",
		Name:      "errors_total",
		Help:      "Total HTTP error responses by method, endpoint and error type",
	}, []string{"method", "endpoint", "status", "error_type"})
)

// RecordHTTPRequest records one completed HTTP request. Endpoint should be a
// route pattern, not a raw path, to keep label cardinality bounded.
func RecordHTTPRequest(method, endpoint string, status int, duration time.Duration) {
	statusLabel := strconv.Itoa(status)
	httpRequestsTotal.WithLabelValues(method, endpoint, statusLabel).Inc()
	httpRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())

	if status >= 400 {
		errorType := "client_error"
		if status >= 500 {
			errorType = "server_error"
		}
		httpErrorsTotal.WithLabelValues(method, endpoint, statusLabel, errorType).Inc()
	}
}
