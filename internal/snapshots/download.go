package snapshots

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"f1-stats-service/internal/domain"
	"f1-stats-service/internal/laps"
	"f1-stats-service/internal/logging"
	"f1-stats-service/internal/providers"
)

const defaultTopDrivers = 5

// StatsSource is the slice of the primary client the downloader needs.
type StatsSource interface {
	SeasonSchedule(ctx context.Context, season string) ([]domain.Race, error)
	DriverStandings(ctx context.Context, season string, round int) ([]domain.StandingEntry, error)
	RaceResults(ctx context.Context, season string, round int) (domain.Classification, bool, error)
}

// LapFetcher is the batch surface of the reconciliation engine.
type LapFetcher interface {
	FetchBatch(ctx context.Context, season string, round int, driverIDs []string, onProgress laps.ProgressFunc) []laps.BatchResult
}

// Downloader walks seasons race by race and persists lap artifacts for the
// season points-leaders plus each race's participants.
type Downloader struct {
	stats      StatsSource
	fetcher    LapFetcher
	writer     *Writer
	topDrivers int
	logger     *slog.Logger
}

// NewDownloader constructs a Downloader.
func NewDownloader(stats StatsSource, fetcher LapFetcher, writer *Writer, topDrivers int, logger *slog.Logger) *Downloader {
	if topDrivers <= 0 {
		topDrivers = defaultTopDrivers
	}
	return &Downloader{
		stats:      stats,
		fetcher:    fetcher,
		writer:     writer,
		topDrivers: topDrivers,
		logger:     logger,
	}
}

// Run downloads every listed season. The first failure aborts the run.
func (d *Downloader) Run(ctx context.Context, seasons []string) error {
	for _, season := range seasons {
		season = strings.TrimSpace(season)
		if season == "" {
			continue
		}
		if err := d.DownloadSeason(ctx, season); err != nil {
			return fmt.Errorf("season %s: %w", season, err)
		}
	}
	return nil
}

// DownloadSeason persists artifacts for every race of one season.
func (d *Downloader) DownloadSeason(ctx context.Context, season string) error {
	standings, err := d.stats.DriverStandings(ctx, season, 0)
	if err != nil {
		return fmt.Errorf("driver standings: %w", err)
	}
	topIDs := make([]string, 0, d.topDrivers)
	standingsLookup := make(map[string]domain.StandingEntry, len(standings))
	for i, entry := range standings {
		if i < d.topDrivers {
			topIDs = append(topIDs, entry.Driver.DriverID)
		}
		standingsLookup[entry.Driver.DriverID] = entry
	}

	schedule, err := d.stats.SeasonSchedule(ctx, season)
	if err != nil {
		return fmt.Errorf("schedule: %w", err)
	}

	for _, race := range schedule {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := d.downloadRace(ctx, season, race, topIDs, standingsLookup); err != nil {
			return fmt.Errorf("round %d: %w", race.Round, err)
		}
	}
	return nil
}

func (d *Downloader) downloadRace(ctx context.Context, season string, race domain.Race, topIDs []string, standingsLookup map[string]domain.StandingEntry) error {
	logging.Info(d.logger, "processing race",
		slog.String(logging.FieldSeason, season),
		slog.Int(logging.FieldRound, race.Round),
		"race", race.RaceName)

	classification, _, err := d.stats.RaceResults(ctx, season, race.Round)
	if err != nil {
		return fmt.Errorf("race results: %w", err)
	}
	resultLookup := make(map[string]domain.RaceResult, len(classification.Results))
	driverIDs := append([]string(nil), topIDs...)
	seen := make(map[string]bool, len(topIDs))
	for _, id := range topIDs {
		seen[id] = true
	}
	for _, result := range classification.Results {
		id := result.Driver.DriverID
		resultLookup[id] = result
		if !seen[id] {
			seen[id] = true
			driverIDs = append(driverIDs, id)
		}
	}
	if len(driverIDs) == 0 {
		return nil
	}

	batch := d.fetcher.FetchBatch(ctx, season, race.Round, driverIDs,
		func(completed, total int, driverID string) {
			logging.Info(d.logger, "lap fetch progress",
				slog.String(logging.FieldDriver, driverID),
				slog.Int(logging.FieldCount, completed),
				"total", total)
		})
	batchLookup := make(map[string]laps.BatchResult, len(batch))
	for _, result := range batch {
		batchLookup[result.DriverID] = result
	}

	entries := make([]IndexEntry, 0, len(driverIDs))
	for _, driverID := range driverIDs {
		lapResult, fetched := batchLookup[driverID]
		if !fetched {
			lapResult = laps.BatchResult{DriverID: driverID, Error: providers.LapErrorNotFetched}
		}

		driver, constructor := identityFor(driverID, resultLookup, standingsLookup)
		snapshot := DriverSnapshot{
			Season:      season,
			Round:       race.Round,
			RaceName:    race.RaceName,
			Driver:      driver,
			Constructor: constructor,
			Laps:        lapResult.Laps,
			LapError:    lapResult.Error,
		}
		if err := d.writer.WriteDriverSnapshot(snapshot); err != nil {
			return fmt.Errorf("driver %s: %w", driverID, err)
		}

		entries = append(entries, IndexEntry{
			DriverID:    driverID,
			Driver:      driver,
			Constructor: constructor,
			HasLapData:  len(lapResult.Laps) > 0,
			LapError:    lapResult.Error,
			File:        DriverFile(season, race.Round, driverID),
		})
	}

	return d.writer.WriteRaceIndex(RaceIndex{
		Season:    season,
		Round:     race.Round,
		RaceName:  race.RaceName,
		CircuitID: race.CircuitID,
		Drivers:   entries,
	})
}

// identityFor prefers the race result's identity, falls back to the
// standings entry, and as a last resort synthesizes one from the ID so the
// artifact is still written.
func identityFor(driverID string, results map[string]domain.RaceResult, standings map[string]domain.StandingEntry) (domain.Driver, domain.Constructor) {
	if result, ok := results[driverID]; ok {
		return result.Driver, result.Constructor
	}
	if entry, ok := standings[driverID]; ok {
		return entry.Driver, entry.Constructor()
	}
	return domain.Driver{DriverID: driverID, GivenName: driverID}, domain.Constructor{Name: "Unknown"}
}
