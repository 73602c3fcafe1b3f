// Package providers defines the shared result shapes and capability
// interfaces for the upstream data providers. The lap-fetch paths never
// return errors; failures surface as annotations on the result so callers
// can fall back without exception-driven control flow.
package providers

import (
	"context"

	"f1-stats-service/internal/domain"
)

// Lap-fetch annotations. Empty means the fetch completed cleanly.
const (
	LapErrorRateLimited = "rate_limited"
	LapErrorFetchFailed = "fetch_failed"
	LapErrorNotFetched  = "not_fetched"
)

// DriverLaps is the outcome of a per-driver lap fetch. Laps may be partial
// when LapError is set: pages collected before the failure are kept.
type DriverLaps struct {
	DriverID string             `json:"driverId"`
	Laps     []domain.LapRecord `json:"laps"`
	LapError string             `json:"lapError,omitempty"`
}

// RaceLaps is the outcome of a bulk per-race lap fetch, keyed by the
// provider's embedded per-lap driver identifier. Complete is false when any
// page failed; partial aggregates must not be cached.
type RaceLaps struct {
	Laps     map[string][]domain.LapRecord `json:"laps"`
	Complete bool                          `json:"complete"`
	LapError string                        `json:"lapError,omitempty"`
}

// History is the primary provider: season schedules, standings, and race
// results. Endpoint failures are terminal for the call and wrap the
// endpoint name.
type History interface {
	SeasonSchedule(ctx context.Context, season string) ([]domain.Race, error)
	DriverStandings(ctx context.Context, season string, round int) ([]domain.StandingEntry, error)
	ConstructorStandings(ctx context.Context, season string) ([]domain.ConstructorStanding, error)
	RaceResults(ctx context.Context, season string, round int) (domain.Classification, bool, error)
	DriverLaps(ctx context.Context, season string, round int, driverID string) DriverLaps
}

// BulkLaps is the optional whole-race capability of the primary provider.
// Whether a provider supports it is a construction-time fact, not a runtime
// probe.
type BulkLaps interface {
	RaceLaps(ctx context.Context, season string, round int) RaceLaps
}

// Telemetry is the secondary provider: session resolution and
// high-resolution laps. It has no stable driver identifier; drivers are
// matched by normalized family name.
type Telemetry interface {
	ResolveSession(ctx context.Context, season string, round int) (int, bool, error)
	DriverNumber(ctx context.Context, sessionKey int, driverID string) (int, bool)
	LapsForDriver(ctx context.Context, sessionKey, driverNumber int) ([]domain.LapRecord, error)
}
