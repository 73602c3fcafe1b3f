// Package ergast is the client for the primary historical-statistics
// provider (Ergast-shaped REST, served by the Jolpica mirror). All endpoints
// are unauthenticated GETs returning an MRData envelope; responses are
// cached with per-endpoint TTLs.
package ergast

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	json "github.com/goccy/go-json"

	"f1-stats-service/internal/cache"
	"f1-stats-service/internal/domain"
	"f1-stats-service/internal/metrics"
)

// DefaultBaseURL is the Jolpica mirror of the retired Ergast API.
const DefaultBaseURL = "https://api.jolpi.ca/ergast/f1"

// Getter abstracts the rate-limited transport.
type Getter interface {
	Get(ctx context.Context, url string) ([]byte, error)
}

// Config controls a Client.
type Config struct {
	BaseURL   string
	Transport Getter
	Cache     cache.Store
	Logger    *slog.Logger
	Metrics   *metrics.Recorder
}

// Client fetches schedules, standings, results, and lap times from the
// primary provider. Safe for concurrent use.
type Client struct {
	base    string
	http    Getter
	cache   cache.Store
	logger  *slog.Logger
	metrics *metrics.Recorder

	// Injectable for tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// New constructs a Client. Transport is required; the cache defaults to a
// fresh in-memory store when nil.
func New(cfg Config) *Client {
	c := &Client{
		base:    cfg.BaseURL,
		http:    cfg.Transport,
		cache:   cfg.Cache,
		logger:  cfg.Logger,
		metrics: cfg.Metrics,
		sleep:   sleepCtx,
	}
	if c.base == "" {
		c.base = DefaultBaseURL
	}
	if c.cache == nil {
		c.cache = cache.NewMemory()
	}
	return c
}

// SeasonSchedule returns the race calendar for a season ("current" or a
// four-digit year).
func (c *Client) SeasonSchedule(ctx context.Context, season string) ([]domain.Race, error) {
	url := fmt.Sprintf("%s/%s.json", c.base, season)
	doc, err := c.fetch(ctx, "schedule", url, "schedule-"+season, cache.TTLSchedule)
	if err != nil {
		return nil, err
	}
	if doc.MRData.RaceTable == nil {
		return nil, nil
	}
	races := make([]domain.Race, 0, len(doc.MRData.RaceTable.Races))
	for _, r := range doc.MRData.RaceTable.Races {
		races = append(races, r.toDomain())
	}
	return races, nil
}

// DriverStandings returns the driver championship table. A positive round
// scopes the snapshot to that round; otherwise the season-to-date table is
// returned.
func (c *Client) DriverStandings(ctx context.Context, season string, round int) ([]domain.StandingEntry, error) {
	url := fmt.Sprintf("%s/%s/driverStandings.json", c.base, season)
	key := "driver-standings-" + season
	if round > 0 {
		url = fmt.Sprintf("%s/%s/%d/driverStandings.json", c.base, season, round)
		key = fmt.Sprintf("driver-standings-%s-%d", season, round)
	}
	doc, err := c.fetch(ctx, "driver-standings", url, key, cache.TTLStandings)
	if err != nil {
		return nil, err
	}
	list, ok := firstStandingsList(doc)
	if !ok {
		return nil, nil
	}
	entries := make([]domain.StandingEntry, 0, len(list.DriverStandings))
	for _, s := range list.DriverStandings {
		entry := domain.StandingEntry{
			Position: atoi(s.Position),
			Points:   atof(s.Points),
			Wins:     atoi(s.Wins),
			Driver:   s.Driver.toDomain(),
		}
		for _, con := range s.Constructors {
			entry.Constructors = append(entry.Constructors, con.toDomain())
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// ConstructorStandings returns the constructor championship table.
func (c *Client) ConstructorStandings(ctx context.Context, season string) ([]domain.ConstructorStanding, error) {
	url := fmt.Sprintf("%s/%s/constructorStandings.json", c.base, season)
	doc, err := c.fetch(ctx, "constructor-standings", url, "constructor-standings-"+season, cache.TTLStandings)
	if err != nil {
		return nil, err
	}
	list, ok := firstStandingsList(doc)
	if !ok {
		return nil, nil
	}
	entries := make([]domain.ConstructorStanding, 0, len(list.ConstructorStandings))
	for _, s := range list.ConstructorStandings {
		entries = append(entries, domain.ConstructorStanding{
			Position:    atoi(s.Position),
			Points:      atof(s.Points),
			Wins:        atoi(s.Wins),
			Constructor: s.Constructor.toDomain(),
		})
	}
	return entries, nil
}

// RaceResults returns the classification of one race. ok is false when the
// provider has no data for the round yet.
func (c *Client) RaceResults(ctx context.Context, season string, round int) (domain.Classification, bool, error) {
	url := fmt.Sprintf("%s/%s/%d/results.json", c.base, season, round)
	key := fmt.Sprintf("race-results-%s-%d", season, round)
	doc, err := c.fetch(ctx, "race-results", url, key, cache.TTLResults)
	if err != nil {
		return domain.Classification{}, false, err
	}
	race, ok := firstRace(doc)
	if !ok || len(race.Results) == 0 {
		return domain.Classification{}, false, nil
	}
	return race.toClassification(race.Results), true, nil
}

// LastRaceResults returns the classification of the most recent completed
// race of the current season, cached on a short TTL since it changes on
// race weekends.
func (c *Client) LastRaceResults(ctx context.Context) (domain.Classification, bool, error) {
	url := c.base + "/current/last/results.json"
	doc, err := c.fetch(ctx, "last-race-results", url, "last-race-results", cache.TTLLastRace)
	if err != nil {
		return domain.Classification{}, false, err
	}
	race, ok := firstRace(doc)
	if !ok || len(race.Results) == 0 {
		return domain.Classification{}, false, nil
	}
	return race.toClassification(race.Results), true, nil
}

// QualifyingResults returns one race's qualifying classification.
func (c *Client) QualifyingResults(ctx context.Context, season string, round int) ([]domain.QualifyingResult, bool, error) {
	url := fmt.Sprintf("%s/%s/%d/qualifying.json", c.base, season, round)
	key := fmt.Sprintf("qualifying-%s-%d", season, round)
	doc, err := c.fetch(ctx, "qualifying", url, key, cache.TTLResults)
	if err != nil {
		return nil, false, err
	}
	race, ok := firstRace(doc)
	if !ok || len(race.QualifyingResults) == 0 {
		return nil, false, nil
	}
	out := make([]domain.QualifyingResult, 0, len(race.QualifyingResults))
	for _, q := range race.QualifyingResults {
		out = append(out, domain.QualifyingResult{
			Position:    atoi(q.Position),
			Driver:      q.Driver.toDomain(),
			Constructor: q.Constructor.toDomain(),
			Q1:          q.Q1,
			Q2:          q.Q2,
			Q3:          q.Q3,
		})
	}
	return out, true, nil
}

// SprintResults returns one race's sprint classification, absent for
// non-sprint weekends.
func (c *Client) SprintResults(ctx context.Context, season string, round int) (domain.Classification, bool, error) {
	url := fmt.Sprintf("%s/%s/%d/sprint.json", c.base, season, round)
	key := fmt.Sprintf("sprint-%s-%d", season, round)
	doc, err := c.fetch(ctx, "sprint", url, key, cache.TTLResults)
	if err != nil {
		return domain.Classification{}, false, err
	}
	race, ok := firstRace(doc)
	if !ok || len(race.SprintResults) == 0 {
		return domain.Classification{}, false, nil
	}
	return race.toClassification(race.SprintResults), true, nil
}

// Drivers returns the season's driver list, used for biography URL
// discovery. Cached for a day since rosters change rarely.
func (c *Client) Drivers(ctx context.Context, season string) ([]domain.Driver, error) {
	url := fmt.Sprintf("%s/%s/drivers.json", c.base, season)
	doc, err := c.fetch(ctx, "drivers", url, "drivers-"+season, cache.TTLBiography)
	if err != nil {
		return nil, err
	}
	if doc.MRData.DriverTable == nil {
		return nil, nil
	}
	drivers := make([]domain.Driver, 0, len(doc.MRData.DriverTable.Drivers))
	for _, d := range doc.MRData.DriverTable.Drivers {
		drivers = append(drivers, d.toDomain())
	}
	return drivers, nil
}

// fetch retrieves and decodes an MRData document, consulting the response
// cache first. Lap pagination bypasses this and manages its own pages.
func (c *Client) fetch(ctx context.Context, endpoint, url, key string, ttl time.Duration) (*mrData, error) {
	if v, ok := c.cache.Get(key); ok {
		if doc, ok := v.(*mrData); ok {
			c.metrics.RecordCacheLookup(endpoint, true)
			return doc, nil
		}
	}
	c.metrics.RecordCacheLookup(endpoint, false)

	body, err := c.http.Get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("ergast %s: %w", endpoint, err)
	}
	var doc mrData
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("ergast %s: decode: %w", endpoint, err)
	}
	c.cache.Set(key, &doc, ttl)
	return &doc, nil
}

func firstRace(doc *mrData) (raceWire, bool) {
	if doc.MRData.RaceTable == nil || len(doc.MRData.RaceTable.Races) == 0 {
		return raceWire{}, false
	}
	return doc.MRData.RaceTable.Races[0], true
}

func firstStandingsList(doc *mrData) (standingsList, bool) {
	if doc.MRData.StandingsTable == nil || len(doc.MRData.StandingsTable.StandingsLists) == 0 {
		return standingsList{}, false
	}
	return doc.MRData.StandingsTable.StandingsLists[0], true
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
