// Package bio fetches short driver biographies from the public encyclopedia
// REST summary endpoint. Biographies are decoration: absence is a normal
// state and nothing here is required for pipeline correctness.
package bio

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	json "github.com/goccy/go-json"

	"f1-stats-service/internal/cache"
	"f1-stats-service/internal/domain"
	"f1-stats-service/internal/logging"
	"f1-stats-service/internal/metrics"
)

// DefaultBaseURL is the Wikipedia REST v1 API.
const DefaultBaseURL = "https://en.wikipedia.org/api/rest_v1"

// Getter abstracts the transport.
type Getter interface {
	Get(ctx context.Context, url string) ([]byte, error)
}

// DriverSource lists a season's drivers, used to discover encyclopedia URLs
// from the primary provider's driver records.
type DriverSource interface {
	Drivers(ctx context.Context, season string) ([]domain.Driver, error)
}

// Config controls a Client.
type Config struct {
	BaseURL   string
	Transport Getter
	Cache     cache.Store
	Drivers   DriverSource
	Logger    *slog.Logger
	Metrics   *metrics.Recorder
}

// Client resolves driver biographies, cached for a day.
type Client struct {
	base    string
	http    Getter
	cache   cache.Store
	drivers DriverSource
	logger  *slog.Logger
	metrics *metrics.Recorder
}

// New constructs a Client.
func New(cfg Config) *Client {
	c := &Client{
		base:    cfg.BaseURL,
		http:    cfg.Transport,
		cache:   cfg.Cache,
		drivers: cfg.Drivers,
		logger:  cfg.Logger,
		metrics: cfg.Metrics,
	}
	if c.base == "" {
		c.base = DefaultBaseURL
	}
	if c.cache == nil {
		c.cache = cache.NewMemory()
	}
	return c
}

type summaryWire struct {
	Extract string `json:"extract"`
}

// SummaryByName fetches a biography by the driver's display name. The name
// is turned into a page title the way the encyclopedia expects
// ("Max Verstappen" -> "Max_Verstappen").
func (c *Client) SummaryByName(ctx context.Context, givenName, familyName string) (string, bool) {
	title := strings.TrimSpace(givenName + " " + familyName)
	if title == "" {
		return "", false
	}
	return c.summary(ctx, strings.ReplaceAll(title, " ", "_"))
}

// SummaryByID resolves a biography through the primary provider's driver
// record: its encyclopedia URL is preferred since name-based titles are
// ambiguous across eras; the name is the fallback.
func (c *Client) SummaryByID(ctx context.Context, driverID, season string) (string, bool) {
	driver, ok := c.lookupDriver(ctx, driverID, season)
	if !ok {
		return "", false
	}
	if driver.URL != "" {
		if title, ok := titleFromWikiURL(driver.URL); ok {
			if extract, ok := c.summary(ctx, title); ok {
				return extract, true
			}
		}
	}
	return c.SummaryByName(ctx, driver.GivenName, driver.FamilyName)
}

// WikiURLByID returns the encyclopedia URL from the primary provider's
// driver record, when present.
func (c *Client) WikiURLByID(ctx context.Context, driverID, season string) (string, bool) {
	driver, ok := c.lookupDriver(ctx, driverID, season)
	if !ok || driver.URL == "" {
		return "", false
	}
	return driver.URL, true
}

func (c *Client) lookupDriver(ctx context.Context, driverID, season string) (domain.Driver, bool) {
	if c.drivers == nil || driverID == "" {
		return domain.Driver{}, false
	}
	if season == "" {
		season = domain.SeasonCurrent
	}
	drivers, err := c.drivers.Drivers(ctx, season)
	if err != nil {
		logging.Warn(c.logger, "driver list lookup failed",
			slog.String(logging.FieldDriver, driverID), "error", err)
		return domain.Driver{}, false
	}
	want := strings.ToLower(driverID)
	for _, d := range drivers {
		if strings.ToLower(d.DriverID) == want || (d.Code != "" && strings.ToLower(d.Code) == want) {
			return d, true
		}
	}
	return domain.Driver{}, false
}

func (c *Client) summary(ctx context.Context, title string) (string, bool) {
	key := "driver-summary-" + title
	if v, ok := c.cache.Get(key); ok {
		if extract, ok := v.(string); ok {
			c.metrics.RecordCacheLookup("biography", true)
			return extract, extract != ""
		}
	}
	c.metrics.RecordCacheLookup("biography", false)

	endpoint := fmt.Sprintf("%s/page/summary/%s", c.base, url.PathEscape(title))
	body, err := c.http.Get(ctx, endpoint)
	if err != nil {
		logging.Warn(c.logger, "biography fetch failed", "title", title, "error", err)
		return "", false
	}
	var doc summaryWire
	if err := json.Unmarshal(body, &doc); err != nil {
		return "", false
	}
	// Absence is cached too, so repeated lookups of a missing page stay
	// local for the TTL window.
	c.cache.Set(key, doc.Extract, cache.TTLBiography)
	return doc.Extract, doc.Extract != ""
}

// titleFromWikiURL extracts the page title from an encyclopedia article
// URL ("https://en.wikipedia.org/wiki/Max_Verstappen" -> "Max_Verstappen").
func titleFromWikiURL(raw string) (string, bool) {
	idx := strings.LastIndex(raw, "/")
	if idx < 0 || idx == len(raw)-1 {
		return "", false
	}
	title, err := url.PathUnescape(raw[idx+1:])
	if err != nil || title == "" {
		return "", false
	}
	return title, true
}
