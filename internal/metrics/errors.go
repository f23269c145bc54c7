package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sqllens",
		Name:      "errors_total",
		Help:      "Total errors by code and HTTP status",
	}, []string{"error_code", "http_status"})

	panicsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "sqllens",
		Name:      "panics_total",
		Help:      "Total recovered panics",
	})

	errorsByEndpoint = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sqllens",
		Name:      "errors_by_endpoint_total",
		Help:      "Total errors by endpoint and code",
	}, []string{"endpoint", "error_code"})
)

// RecordError records an error with code and status
func RecordError(errorCode string, httpStatus int) {
	errorsTotal.WithLabelValues(errorCode, strconv.Itoa(httpStatus)).Inc()
}

// RecordPanic records a panic recovery
func RecordPanic() {
	panicsTotal.Inc()
}

// RecordErrorByEndpoint records an error by endpoint
func RecordErrorByEndpoint(endpoint string, errorCode string) {
	errorsByEndpoint.WithLabelValues(endpoint, errorCode).Inc()
}
