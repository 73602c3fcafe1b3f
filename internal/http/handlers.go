// Package http exposes the pipeline through a thin JSON read API.
package http

import (
	"context"
	"log/slog"
	nethttp "net/http"
	"strconv"

	json "github.com/goccy/go-json"
	"github.com/go-chi/chi/v5"

	"f1-stats-service/internal/domain"
	"f1-stats-service/internal/teams"
)

// StatsService is the schedule/standings/results surface of the primary
// provider client.
type StatsService interface {
	SeasonSchedule(ctx context.Context, season string) ([]domain.Race, error)
	DriverStandings(ctx context.Context, season string, round int) ([]domain.StandingEntry, error)
	ConstructorStandings(ctx context.Context, season string) ([]domain.ConstructorStanding, error)
	RaceResults(ctx context.Context, season string, round int) (domain.Classification, bool, error)
	LastRaceResults(ctx context.Context) (domain.Classification, bool, error)
	QualifyingResults(ctx context.Context, season string, round int) ([]domain.QualifyingResult, bool, error)
	SprintResults(ctx context.Context, season string, round int) (domain.Classification, bool, error)
}

// LapService is the reconciliation engine surface.
type LapService interface {
	LapsForDriver(ctx context.Context, season string, round int, driverID string) []domain.LapRecord
	LapsForRace(ctx context.Context, season string, round int) map[string][]domain.LapRecord
}

// BioService resolves driver biographies.
type BioService interface {
	SummaryByID(ctx context.Context, driverID, season string) (string, bool)
}

// ReadyFunc reports whether the service has warmed its caches.
type ReadyFunc func() bool

// Handler wires HTTP routes to the pipeline services.
type Handler struct {
	stats  StatsService
	laps   LapService
	bio    BioService
	ready  ReadyFunc
	logger *slog.Logger
}

// NewHandler constructs a Handler. bio and ready may be nil.
func NewHandler(stats StatsService, laps LapService, bio BioService, ready ReadyFunc, logger *slog.Logger) *Handler {
	return &Handler{stats: stats, laps: laps, bio: bio, ready: ready, logger: logger}
}

// Health reports process liveness.
func (h *Handler) Health(w nethttp.ResponseWriter, _ *nethttp.Request) {
	h.writeJSON(w, nethttp.StatusOK, map[string]string{"status": "ok"})
}

// Ready reports whether startup warming has completed.
func (h *Handler) Ready(w nethttp.ResponseWriter, _ *nethttp.Request) {
	if h.ready != nil && !h.ready() {
		h.writeError(w, nethttp.StatusServiceUnavailable, "warming up")
		return
	}
	h.writeJSON(w, nethttp.StatusOK, map[string]string{"status": "ready"})
}

// Schedule serves the season calendar.
func (h *Handler) Schedule(w nethttp.ResponseWriter, r *nethttp.Request) {
	season := seasonParam(r)
	races, err := h.stats.SeasonSchedule(r.Context(), season)
	if err != nil {
		h.writeError(w, nethttp.StatusBadGateway, "schedule unavailable")
		return
	}
	h.writeJSON(w, nethttp.StatusOK, map[string]any{"season": season, "races": races})
}

// DriverStandings serves the driver championship table.
func (h *Handler) DriverStandings(w nethttp.ResponseWriter, r *nethttp.Request) {
	season := seasonParam(r)
	round, _ := roundParam(r)
	entries, err := h.stats.DriverStandings(r.Context(), season, round)
	if err != nil {
		h.writeError(w, nethttp.StatusBadGateway, "standings unavailable")
		return
	}
	h.writeJSON(w, nethttp.StatusOK, map[string]any{"season": season, "standings": entries})
}

// ConstructorStandings serves the constructor championship table.
func (h *Handler) ConstructorStandings(w nethttp.ResponseWriter, r *nethttp.Request) {
	season := seasonParam(r)
	entries, err := h.stats.ConstructorStandings(r.Context(), season)
	if err != nil {
		h.writeError(w, nethttp.StatusBadGateway, "standings unavailable")
		return
	}
	h.writeJSON(w, nethttp.StatusOK, map[string]any{"season": season, "standings": entries})
}

// Results serves one race's classification; without a round it serves the
// most recent completed race.
func (h *Handler) Results(w nethttp.ResponseWriter, r *nethttp.Request) {
	round, ok := roundParam(r)
	var (
		classification domain.Classification
		found          bool
		err            error
	)
	if !ok {
		classification, found, err = h.stats.LastRaceResults(r.Context())
	} else {
		classification, found, err = h.stats.RaceResults(r.Context(), seasonParam(r), round)
	}
	if err != nil {
		h.writeError(w, nethttp.StatusBadGateway, "results unavailable")
		return
	}
	if !found {
		h.writeError(w, nethttp.StatusNotFound, "no results for this race")
		return
	}
	h.writeJSON(w, nethttp.StatusOK, classification)
}

// Qualifying serves one race's qualifying classification.
func (h *Handler) Qualifying(w nethttp.ResponseWriter, r *nethttp.Request) {
	round, ok := roundParam(r)
	if !ok {
		h.writeError(w, nethttp.StatusBadRequest, "round required")
		return
	}
	results, found, err := h.stats.QualifyingResults(r.Context(), seasonParam(r), round)
	if err != nil {
		h.writeError(w, nethttp.StatusBadGateway, "qualifying unavailable")
		return
	}
	if !found {
		h.writeError(w, nethttp.StatusNotFound, "no qualifying for this race")
		return
	}
	h.writeJSON(w, nethttp.StatusOK, map[string]any{"results": results})
}

// Sprint serves one race's sprint classification.
func (h *Handler) Sprint(w nethttp.ResponseWriter, r *nethttp.Request) {
	round, ok := roundParam(r)
	if !ok {
		h.writeError(w, nethttp.StatusBadRequest, "round required")
		return
	}
	classification, found, err := h.stats.SprintResults(r.Context(), seasonParam(r), round)
	if err != nil {
		h.writeError(w, nethttp.StatusBadGateway, "sprint unavailable")
		return
	}
	if !found {
		h.writeError(w, nethttp.StatusNotFound, "no sprint for this race")
		return
	}
	h.writeJSON(w, nethttp.StatusOK, classification)
}

// Laps serves reconciled laps: one driver's when ?driver= is given, the
// whole race otherwise. Absence of lap data is a valid empty payload,
// never an error.
func (h *Handler) Laps(w nethttp.ResponseWriter, r *nethttp.Request) {
	round, ok := roundParam(r)
	if !ok {
		h.writeError(w, nethttp.StatusBadRequest, "round required")
		return
	}
	season := seasonParam(r)
	if driverID := r.URL.Query().Get("driver"); driverID != "" {
		laps := h.laps.LapsForDriver(r.Context(), season, round, driverID)
		h.writeJSON(w, nethttp.StatusOK, map[string]any{"driverId": driverID, "laps": laps})
		return
	}
	race := h.laps.LapsForRace(r.Context(), season, round)
	if race == nil {
		race = map[string][]domain.LapRecord{}
	}
	h.writeJSON(w, nethttp.StatusOK, map[string]any{"laps": race})
}

// Bio serves a short driver biography.
func (h *Handler) Bio(w nethttp.ResponseWriter, r *nethttp.Request) {
	driverID := r.URL.Query().Get("driver")
	if driverID == "" {
		h.writeError(w, nethttp.StatusBadRequest, "driver required")
		return
	}
	if h.bio == nil {
		h.writeError(w, nethttp.StatusNotFound, "no biography available")
		return
	}
	summary, ok := h.bio.SummaryByID(r.Context(), driverID, seasonParam(r))
	if !ok {
		h.writeError(w, nethttp.StatusNotFound, "no biography available")
		return
	}
	h.writeJSON(w, nethttp.StatusOK, map[string]string{"driverId": driverID, "summary": summary})
}

// Team serves the canonical identity and color for a constructor name or
// alias.
func (h *Handler) Team(w nethttp.ResponseWriter, r *nethttp.Request) {
	name := chi.URLParam(r, "name")
	if name == "" {
		h.writeError(w, nethttp.StatusBadRequest, "team name required")
		return
	}
	id := teams.CanonicalID(name)
	h.writeJSON(w, nethttp.StatusOK, map[string]string{
		"constructorId": id,
		"color":         teams.Color(id),
	})
}

func seasonParam(r *nethttp.Request) string {
	if season := r.URL.Query().Get("season"); season != "" {
		return season
	}
	return domain.SeasonCurrent
}

func roundParam(r *nethttp.Request) (int, bool) {
	raw := r.URL.Query().Get("round")
	if raw == "" {
		return 0, false
	}
	round, err := strconv.Atoi(raw)
	if err != nil || round < 1 {
		return 0, false
	}
	return round, true
}

func (h *Handler) writeJSON(w nethttp.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil && h.logger != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w nethttp.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
