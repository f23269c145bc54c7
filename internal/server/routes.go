package server

import (
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sqllens/sqllens/internal/config"
	"github.com/sqllens/sqllens/internal/server/handlers"
)

// registerRoutes registers all HTTP routes
func (s *Server) registerRoutes() {
	cfg := config.GetConfig()

	// Standard health endpoints
	if cfg == nil || cfg.Health.Enabled {
		s.router.Get("/health", handlers.HealthHandler)
		s.router.Get("/healthz", handlers.HealthHandler)
		s.router.Get("/health/live", handlers.LivenessHandler)
		s.router.Get("/health/ready", handlers.ReadinessHandler)
		s.router.Get("/health/startup", handlers.StartupHandler)
	}

	// Version endpoint
	s.router.Get("/version", handlers.VersionHandler)

	// Prometheus metrics endpoint
	if cfg == nil || cfg.Metrics.Enabled {
		s.router.Handle("/metrics", promhttp.Handler())
	}

	// Evaluation API
	eval := handlers.NewEvaluationHandlers(s.svc)
	s.router.Route("/api/v1", func(r chi.Router) {
		r.Post("/evaluations", eval.Submit)
		r.Get("/evaluations", eval.List)
		r.Get("/evaluations/{id}", eval.Get)
		r.Get("/evaluations/{id}/status", eval.Status)
		r.Delete("/evaluations/{id}", eval.Delete)
		r.Get("/statistics", eval.Statistics)
	})
}
