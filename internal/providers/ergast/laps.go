package ergast

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	json "github.com/goccy/go-json"

	"f1-stats-service/internal/domain"
	"f1-stats-service/internal/logging"
	"f1-stats-service/internal/providers"
	"f1-stats-service/internal/transport"
)

const (
	lapPageSize = 200
	// Guard against a runaway loop when the reported total is inconsistent
	// with the pages actually served.
	maxLapPages = 20
	// A 429 on the very first page gets one whole-fetch retry after a
	// longer pause before the fetch gives up.
	firstPageRetryDelay = 5 * time.Second
)

type lapEntry struct {
	driverID string
	lap      int
	time     string
}

// DriverLaps fetches one driver's laps for a race, paginating until the
// reported total is reached. It never returns an error: pages collected
// before a failure are kept and the failure reason is annotated.
func (c *Client) DriverLaps(ctx context.Context, season string, round int, driverID string) providers.DriverLaps {
	entries, annotation := c.fetchLapPages(ctx, func(offset int) string {
		return fmt.Sprintf("%s/%s/%d/drivers/%s/laps.json?limit=%d&offset=%d",
			c.base, season, round, driverID, lapPageSize, offset)
	})
	laps := make([]domain.LapRecord, 0, len(entries))
	for _, e := range entries {
		laps = append(laps, domain.LapRecord{Lap: e.lap, Time: e.time})
	}
	return providers.DriverLaps{DriverID: driverID, Laps: laps, LapError: annotation}
}

// RaceLaps fetches every driver's laps for a race through the bulk endpoint,
// grouped by the per-lap driver identifier. Complete is false when any page
// failed; callers must not cache partial aggregates.
func (c *Client) RaceLaps(ctx context.Context, season string, round int) providers.RaceLaps {
	entries, annotation := c.fetchLapPages(ctx, func(offset int) string {
		return fmt.Sprintf("%s/%s/%d/laps.json?limit=%d&offset=%d",
			c.base, season, round, lapPageSize, offset)
	})
	byDriver := make(map[string][]domain.LapRecord)
	for _, e := range entries {
		if e.driverID == "" {
			continue
		}
		byDriver[e.driverID] = append(byDriver[e.driverID], domain.LapRecord{Lap: e.lap, Time: e.time})
	}
	return providers.RaceLaps{
		Laps:     byDriver,
		Complete: annotation == "",
		LapError: annotation,
	}
}

// fetchLapPages walks the pagination protocol: pages are requested in
// strictly increasing offset order, accumulation stops once the reported
// total is reached or a page comes back empty, and maxLapPages bounds the
// walk regardless of what the upstream claims.
func (c *Client) fetchLapPages(ctx context.Context, buildURL func(offset int) string) ([]lapEntry, string) {
	var entries []lapEntry
	firstPageRetried := false

	for page := 0; page < maxLapPages; page++ {
		offset := page * lapPageSize
		body, err := c.http.Get(ctx, buildURL(offset))
		if err != nil {
			if _, rateLimited := transport.AsRateLimit(err); rateLimited {
				if page == 0 && !firstPageRetried {
					firstPageRetried = true
					logging.Warn(c.logger, "lap fetch rate limited on first page, retrying once",
						slog.String(logging.FieldProvider, "ergast"))
					if sleepErr := c.sleep(ctx, firstPageRetryDelay); sleepErr != nil {
						return entries, providers.LapErrorRateLimited
					}
					page--
					continue
				}
				return entries, providers.LapErrorRateLimited
			}
			return entries, providers.LapErrorFetchFailed
		}

		pageEntries, total, err := decodeLapPage(body)
		if err != nil {
			logging.Warn(c.logger, "undecodable lap page",
				slog.String(logging.FieldProvider, "ergast"), "error", err)
			return entries, providers.LapErrorFetchFailed
		}
		if len(pageEntries) == 0 {
			break
		}
		entries = append(entries, pageEntries...)
		if total > 0 && len(entries) >= total {
			break
		}
	}
	return entries, ""
}

// decodeLapPage flattens one page's nested Laps/Timings into lap entries and
// returns the declared total record count.
func decodeLapPage(body []byte) ([]lapEntry, int, error) {
	var doc mrData
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, 0, err
	}
	total := atoi(doc.MRData.Total)
	race, ok := firstRace(&doc)
	if !ok {
		return nil, total, nil
	}
	var entries []lapEntry
	for _, lap := range race.Laps {
		number := atoi(lap.Number)
		for _, timing := range lap.Timings {
			entries = append(entries, lapEntry{
				driverID: timing.DriverID,
				lap:      number,
				time:     timing.Time,
			})
		}
	}
	return entries, total, nil
}
