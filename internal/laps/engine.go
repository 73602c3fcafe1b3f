// Package laps reconciles lap-time data across the two providers: bulk
// primary fetches fanned out per driver, dedup and reordering of dirty
// upstream data, and a per-driver fallback chain ending in a cacheable
// empty result. Nothing in this package returns an error to callers;
// absence of data is a normal state.
package laps

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/singleflight"

	"f1-stats-service/internal/cache"
	"f1-stats-service/internal/domain"
	"f1-stats-service/internal/logging"
	"f1-stats-service/internal/metrics"
	"f1-stats-service/internal/providers"
)

// Config controls an Engine.
type Config struct {
	Cache     cache.Store
	Archive   *cache.Archive // optional persistent layer, best-effort
	History   providers.History
	Bulk      providers.BulkLaps // nil when the primary lacks the bulk endpoint
	Telemetry providers.Telemetry
	GroupSize int // batch concurrency, default 5
	Logger    *slog.Logger
	Metrics   *metrics.Recorder
}

// Engine is the lap-time reconciliation engine. Safe for concurrent use.
type Engine struct {
	cache     cache.Store
	archive   *cache.Archive
	history   providers.History
	bulk      providers.BulkLaps
	telemetry providers.Telemetry
	groupSize int
	logger    *slog.Logger
	metrics   *metrics.Recorder
	flight    singleflight.Group
}

const defaultGroupSize = 5

// New constructs an Engine. The cache defaults to a fresh in-memory store
// when nil.
func New(cfg Config) *Engine {
	e := &Engine{
		cache:     cfg.Cache,
		archive:   cfg.Archive,
		history:   cfg.History,
		bulk:      cfg.Bulk,
		telemetry: cfg.Telemetry,
		groupSize: cfg.GroupSize,
		logger:    cfg.Logger,
		metrics:   cfg.Metrics,
	}
	if e.cache == nil {
		e.cache = cache.NewMemory()
	}
	if e.groupSize <= 0 {
		e.groupSize = defaultGroupSize
	}
	return e
}

func raceKey(season string, round int) string {
	return fmt.Sprintf("race-laps-%s-%d", season, round)
}

func driverKey(season string, round int, driverID string) string {
	return fmt.Sprintf("laps-%s-%d-%s", season, round, driverID)
}

// LapsForRace returns reconciled laps for every driver in a race, keyed by
// driver identifier. An empty map is a "no data" state, not an error: the
// bulk endpoint may simply have nothing for this round yet. Only complete
// aggregates are cached (a complete-but-empty round included, so it is not
// refetched per driver); partial results are returned but never stored.
// Concurrent callers for the same race coalesce onto a single bulk fetch.
func (e *Engine) LapsForRace(ctx context.Context, season string, round int) map[string][]domain.LapRecord {
	key := raceKey(season, round)
	if laps, ok := e.cachedRace(key); ok {
		e.metrics.RecordCacheLookup("race-laps", true)
		return laps
	}
	e.metrics.RecordCacheLookup("race-laps", false)

	v, _, _ := e.flight.Do(key, func() (any, error) {
		// A caller that lost the race to an earlier flight finds the
		// aggregate already cached.
		if laps, ok := e.cachedRace(key); ok {
			return laps, nil
		}
		return e.fetchRace(ctx, season, round, key), nil
	})
	laps, _ := v.(map[string][]domain.LapRecord)
	return laps
}

func (e *Engine) cachedRace(key string) (map[string][]domain.LapRecord, bool) {
	if v, ok := e.cache.Get(key); ok {
		if laps, ok := v.(map[string][]domain.LapRecord); ok {
			return laps, true
		}
	}
	return nil, false
}

func (e *Engine) fetchRace(ctx context.Context, season string, round int, key string) map[string][]domain.LapRecord {
	if laps, ok := e.archiveGetRace(key); ok {
		e.cache.Set(key, laps, cache.TTLLaps)
		return laps
	}

	if e.bulk == nil {
		return nil
	}
	result := e.bulk.RaceLaps(ctx, season, round)
	if len(result.Laps) == 0 && !result.Complete {
		return nil
	}

	reconciled := make(map[string][]domain.LapRecord, len(result.Laps))
	for driverID, raw := range result.Laps {
		reconciled[driverID] = Reconcile(raw)
	}

	if result.Complete {
		e.cache.Set(key, reconciled, cache.TTLLaps)
		for driverID, driverLaps := range reconciled {
			e.cache.Set(driverKey(season, round, driverID), driverLaps, cache.TTLLaps)
		}
		e.archivePut(key, reconciled)
	} else {
		logging.Warn(e.logger, "partial bulk lap aggregate, not caching",
			slog.String(logging.FieldSeason, season),
			slog.Int(logging.FieldRound, round),
			"lap_error", result.LapError,
		)
	}
	return reconciled
}

// LapsForDriver returns one driver's reconciled laps, following the
// fallback chain: cache, bulk primary, per-driver primary pagination,
// secondary telemetry. Total exhaustion yields an empty slice which is
// itself cached so repeated misses within the TTL window cost nothing.
func (e *Engine) LapsForDriver(ctx context.Context, season string, round int, driverID string) []domain.LapRecord {
	laps, _ := e.lapsForDriver(ctx, season, round, driverID)
	return laps
}

// lapsForDriver carries the failure annotation alongside the data for the
// batch orchestrator; the public accessor discards it.
func (e *Engine) lapsForDriver(ctx context.Context, season string, round int, driverID string) ([]domain.LapRecord, string) {
	key := driverKey(season, round, driverID)
	if v, ok := e.cache.Get(key); ok {
		if laps, ok := v.([]domain.LapRecord); ok {
			e.metrics.RecordCacheLookup("laps", true)
			return laps, ""
		}
	}
	e.metrics.RecordCacheLookup("laps", false)

	if laps, ok := e.archiveGet(key); ok {
		e.cache.Set(key, laps, cache.TTLLaps)
		return laps, ""
	}

	if raceLaps := e.LapsForRace(ctx, season, round); len(raceLaps[driverID]) > 0 {
		return raceLaps[driverID], ""
	}

	annotation := ""
	if e.history != nil {
		result := e.history.DriverLaps(ctx, season, round, driverID)
		annotation = result.LapError
		if laps := Reconcile(result.Laps); len(laps) > 0 {
			if annotation == "" {
				e.cache.Set(key, laps, cache.TTLLaps)
				e.archivePut(key, laps)
			}
			return laps, annotation
		}
	}

	if laps := e.telemetryLaps(ctx, season, round, driverID); len(laps) > 0 {
		e.cache.Set(key, laps, cache.TTLLaps)
		e.archivePut(key, laps)
		return laps, ""
	}

	empty := []domain.LapRecord{}
	e.cache.Set(key, empty, cache.TTLLaps)
	return empty, annotation
}

// telemetryLaps walks the secondary provider: session, driver number, laps.
// Every miss along the way is a normal absence.
func (e *Engine) telemetryLaps(ctx context.Context, season string, round int, driverID string) []domain.LapRecord {
	if e.telemetry == nil {
		return nil
	}
	sessionKey, ok, err := e.telemetry.ResolveSession(ctx, season, round)
	if err != nil || !ok {
		if err != nil {
			logging.Warn(e.logger, "telemetry session resolution failed",
				slog.String(logging.FieldSeason, season),
				slog.Int(logging.FieldRound, round), "error", err)
		}
		return nil
	}
	number, ok := e.telemetry.DriverNumber(ctx, sessionKey, driverID)
	if !ok {
		return nil
	}
	raw, err := e.telemetry.LapsForDriver(ctx, sessionKey, number)
	if err != nil {
		logging.Warn(e.logger, "telemetry lap fetch failed",
			slog.String(logging.FieldDriver, driverID), "error", err)
		return nil
	}
	return Reconcile(raw)
}

// Reconcile enforces the lap-sequence invariant on raw upstream data:
// entries with unparsable times are dropped, duplicated lap numbers keep
// only the numerically fastest entry, and the survivors are sorted by
// ascending lap number.
func Reconcile(raw []domain.LapRecord) []domain.LapRecord {
	fastest := make(map[int]struct {
		record   domain.LapRecord
		duration time.Duration
	}, len(raw))
	for _, lap := range raw {
		d, err := domain.ParseLapTime(lap.Time)
		if err != nil {
			continue
		}
		if prev, ok := fastest[lap.Lap]; ok && prev.duration <= d {
			continue
		}
		fastest[lap.Lap] = struct {
			record   domain.LapRecord
			duration time.Duration
		}{lap, d}
	}
	out := make([]domain.LapRecord, 0, len(fastest))
	for _, entry := range fastest {
		out = append(out, entry.record)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Lap < out[j].Lap })
	return out
}

func (e *Engine) archivePut(key string, value any) {
	if e.archive == nil {
		return
	}
	if err := e.archive.Put(key, value, cache.TTLLaps); err != nil {
		logging.Warn(e.logger, "lap archive write failed", "error", err)
	}
}

func (e *Engine) archiveGetRace(key string) (map[string][]domain.LapRecord, bool) {
	if e.archive == nil {
		return nil, false
	}
	var laps map[string][]domain.LapRecord
	ok, err := e.archive.Get(key, &laps)
	if err != nil {
		logging.Warn(e.logger, "lap archive read failed", "error", err)
		return nil, false
	}
	return laps, ok
}

func (e *Engine) archiveGet(key string) ([]domain.LapRecord, bool) {
	if e.archive == nil {
		return nil, false
	}
	var laps []domain.LapRecord
	ok, err := e.archive.Get(key, &laps)
	if err != nil {
		logging.Warn(e.logger, "lap archive read failed", "error", err)
		return nil, false
	}
	return laps, ok
}
