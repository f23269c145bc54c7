package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Application-level metrics following Prometheus conventions
var (
	operationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sqllens",
		Name:      "operations_total",
		Help:      "Total application operations by status",
	}, []string{"operation", "status"})

	backendEvaluationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sqllens",
		Subsystem: "backend",
		Name:      "evaluations_total",
		Help:      "Total backend evaluations by status",
	}, []string{"backend", "status"})

	backendEvaluationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "sqllens",
		Subsystem: "backend",
		Name:      "evaluation_duration_seconds",
		Help:      "Backend evaluation latency in seconds",
		Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{"backend"})

	jobsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sqllens",
		Subsystem: "jobs",
		Name:      "total",
		Help:      "Total batch jobs by terminal status",
	}, []string{"status"})

	jobUnitsProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "sqllens",
		Subsystem: "jobs",
		Name:      "units_processed_total",
		Help:      "Total code units processed across all jobs",
	})

	healthCheckTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sqllens",
		Name:      "health_check_total",
		Help:      "Total health check executions by status",
	}, []string{"check", "status"})
)

// RecordOperation records an application operation with status
func RecordOperation(operation string, success bool) {
	status := "success"
	if !success {
		status = "failure"
	}
	operationsTotal.WithLabelValues(operation, status).Inc()
}

// RecordBackendEvaluation records one backend evaluation with its outcome and latency
func RecordBackendEvaluation(backend string, success bool, duration time.Duration) {
	status := "success"
	if !success {
		status = "failure"
	}
	backendEvaluationsTotal.WithLabelValues(backend, status).Inc()
	backendEvaluationDuration.WithLabelValues(backend).Observe(duration.Seconds())
}

// RecordJob records a batch job reaching a terminal status
func RecordJob(status string) {
	jobsTotal.WithLabelValues(status).Inc()
}

// RecordUnitProcessed records one processed code unit
func RecordUnitProcessed() {
	jobUnitsProcessed.Inc()
}

// RecordHealthCheck records a health check execution
func RecordHealthCheck(checkName string, healthy bool) {
	status := "healthy"
	if !healthy {
		status = "unhealthy"
	}
	healthCheckTotal.WithLabelValues(checkName, status).Inc()
}
