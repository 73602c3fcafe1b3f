package http

import (
	"log/slog"
	nethttp "net/http"

	"github.com/go-chi/chi/v5"

	"f1-stats-service/internal/metrics"
)

// NewRouter registers the read API routes with logging and metrics
// middleware applied to every request.
func NewRouter(handler *Handler, logger *slog.Logger, rec *metrics.Recorder) nethttp.Handler {
	r := chi.NewRouter()
	r.Use(LoggingMiddleware(logger))
	r.Use(MetricsMiddleware(rec))

	r.Get("/health", handler.Health)
	r.Get("/ready", handler.Ready)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/schedule", handler.Schedule)
		r.Get("/standings/drivers", handler.DriverStandings)
		r.Get("/standings/constructors", handler.ConstructorStandings)
		r.Get("/results", handler.Results)
		r.Get("/results/qualifying", handler.Qualifying)
		r.Get("/results/sprint", handler.Sprint)
		r.Get("/laps", handler.Laps)
		r.Get("/bio", handler.Bio)
		r.Get("/teams/{name}", handler.Team)
	})

	return r
}
