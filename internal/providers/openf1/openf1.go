// Package openf1 is the client for the secondary high-resolution telemetry
// provider. Its rate limits are materially looser than the primary's, so
// the transport it is given applies only a light minimum-interval throttle
// and no retry budget.
package openf1

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"time"

	json "github.com/goccy/go-json"

	"f1-stats-service/internal/cache"
	"f1-stats-service/internal/domain"
	"f1-stats-service/internal/logging"
	"f1-stats-service/internal/metrics"
)

// DefaultBaseURL is the public OpenF1 REST API.
const DefaultBaseURL = "https://api.openf1.org/v1"

// Getter abstracts the throttled transport.
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

// Client resolves sessions and fetches lap telemetry. Safe for concurrent
// use.
type Client struct {
	base    string
	http    Getter
	cache   cache.Store
	logger  *slog.Logger
	metrics *metrics.Recorder

	now func() time.Time // injectable for tests
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
		now:     time.Now,
	}
	if c.base == "" {
		c.base = DefaultBaseURL
	}
	if c.cache == nil {
		c.cache = cache.NewMemory()
	}
	return c
}

type sessionWire struct {
	SessionKey  int    `json:"session_key"`
	SessionName string `json:"session_name"`
	DateStart   string `json:"date_start"`
	CircuitName string `json:"circuit_short_name"`
}

type sessionDriverWire struct {
	DriverNumber int    `json:"driver_number"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	NameAcronym  string `json:"name_acronym"`
}

type lapWire struct {
	LapNumber   int     `json:"lap_number"`
	LapDuration float64 `json:"lap_duration"`
}

// ResolveSession maps a (season, round) pair onto a session key by listing
// the year's race sessions sorted by start date and taking the entry at
// position round-1. The alignment is positional: it assumes the telemetry
// calendar matches the primary provider's round numbering, which breaks
// silently on cancellations or reorderings, so a miss is reported rather
// than guessed around.
func (c *Client) ResolveSession(ctx context.Context, season string, round int) (int, bool, error) {
	sessions, err := c.raceSessions(ctx, season)
	if err != nil {
		return 0, false, err
	}
	if round < 1 || round > len(sessions) {
		logging.Warn(c.logger, "no telemetry session at round position",
			slog.String(logging.FieldSeason, season),
			slog.Int(logging.FieldRound, round),
			slog.Int(logging.FieldCount, len(sessions)),
		)
		return 0, false, nil
	}
	return sessions[round-1].SessionKey, true, nil
}

// raceSessions lists the year's race sessions. The provider's year filter
// is numeric, so the "current" sentinel is resolved to the wall-clock year
// before querying; the resolved year also keys the cache, so sentinel and
// literal lookups share one entry.
func (c *Client) raceSessions(ctx context.Context, season string) ([]sessionWire, error) {
	year := season
	if year == domain.SeasonCurrent {
		year = strconv.Itoa(c.now().Year())
	}
	key := "sessions-" + year
	if v, ok := c.cache.Get(key); ok {
		if sessions, ok := v.([]sessionWire); ok {
			c.metrics.RecordCacheLookup("sessions", true)
			return sessions, nil
		}
	}
	c.metrics.RecordCacheLookup("sessions", false)

	url := fmt.Sprintf("%s/sessions?year=%s&session_name=Race", c.base, year)
	body, err := c.http.Get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("openf1 sessions: %w", err)
	}
	var sessions []sessionWire
	if err := json.Unmarshal(body, &sessions); err != nil {
		return nil, fmt.Errorf("openf1 sessions: decode: %w", err)
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessionStart(sessions[i]).Before(sessionStart(sessions[j]))
	})
	c.cache.Set(key, sessions, cache.TTLSessions)
	return sessions, nil
}

func sessionStart(s sessionWire) time.Time {
	t, err := time.Parse(time.RFC3339, s.DateStart)
	if err != nil {
		return time.Time{}
	}
	return t
}

// DriverNumber resolves the provider's car number for a primary-provider
// driver identifier. The providers share no stable ID, so the session's
// driver list is matched by normalized family name, with a static
// name-to-number table as a last resort. A miss is a normal state.
func (c *Client) DriverNumber(ctx context.Context, sessionKey int, driverID string) (int, bool) {
	family := familyNameFromID(driverID)
	drivers, err := c.sessionDrivers(ctx, sessionKey)
	if err != nil {
		logging.Warn(c.logger, "session driver lookup failed, using static table",
			slog.String(logging.FieldDriver, driverID), "error", err)
	}
	for _, d := range drivers {
		if normalizeName(d.LastName) == family {
			return d.DriverNumber, true
		}
	}
	if number, ok := staticDriverNumbers[driverID]; ok {
		return number, true
	}
	return 0, false
}

func (c *Client) sessionDrivers(ctx context.Context, sessionKey int) ([]sessionDriverWire, error) {
	key := fmt.Sprintf("session-drivers-%d", sessionKey)
	if v, ok := c.cache.Get(key); ok {
		if drivers, ok := v.([]sessionDriverWire); ok {
			c.metrics.RecordCacheLookup("session-drivers", true)
			return drivers, nil
		}
	}
	c.metrics.RecordCacheLookup("session-drivers", false)

	url := fmt.Sprintf("%s/drivers?session_key=%d", c.base, sessionKey)
	body, err := c.http.Get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("openf1 drivers: %w", err)
	}
	var drivers []sessionDriverWire
	if err := json.Unmarshal(body, &drivers); err != nil {
		return nil, fmt.Errorf("openf1 drivers: decode: %w", err)
	}
	c.cache.Set(key, drivers, cache.TTLSessions)
	return drivers, nil
}

// LapsForDriver fetches a driver's laps for a session. Laps without a
// duration (in/out laps, red flags) are skipped; durations arrive as
// seconds and are converted to canonical time strings.
func (c *Client) LapsForDriver(ctx context.Context, sessionKey, driverNumber int) ([]domain.LapRecord, error) {
	url := fmt.Sprintf("%s/laps?session_key=%d&driver_number=%d", c.base, sessionKey, driverNumber)
	body, err := c.http.Get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("openf1 laps: %w", err)
	}
	var laps []lapWire
	if err := json.Unmarshal(body, &laps); err != nil {
		return nil, fmt.Errorf("openf1 laps: decode: %w", err)
	}
	records := make([]domain.LapRecord, 0, len(laps))
	for _, lap := range laps {
		if lap.LapDuration <= 0 {
			continue
		}
		records = append(records, domain.LapRecord{
			Lap:  lap.LapNumber,
			Time: domain.FormatLapTime(lap.LapDuration),
		})
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Lap < records[j].Lap })
	return records, nil
}
