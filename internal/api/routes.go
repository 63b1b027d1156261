package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRoutes configures all HTTP routes and returns the router.
//
// Route structure:
//
//	GET /health                                 liveness
//	GET /metrics                                prometheus metrics
//	GET /api/v1/calendar/{year}                 rendered year (text or json)
//	GET /api/v1/calendar/{year}/locate/{date}   grid position of a date
func SetupRoutes(handlers *Handlers, limiter *RateLimiter, reg *prometheus.Registry, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(ChainMiddleware(
		RecoveryMiddleware(logger),
		RequestIDMiddleware(),
		LoggingMiddleware(logger),
		NewMetrics(reg).Middleware(),
		CORSMiddleware(),
	))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, CodeNotFound, "Route not found")
	})

	// ==========================================================================
	// Operational routes
	// ==========================================================================
	r.Get("/health", handlers.HealthCheck)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	// ==========================================================================
	// Calendar routes (rate limited)
	// ==========================================================================
	r.Route("/api/v1/calendar", func(r chi.Router) {
		r.Use(limiter.Middleware())

		r.Get("/{year}", handlers.GetCalendar)
		r.Get("/{year}/locate/{date}", handlers.LocateDate)
	})

	return r
}
