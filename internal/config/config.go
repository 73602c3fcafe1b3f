// Package config defines process configuration, loaded by layering
// defaults, an optional YAML file, and F1_-prefixed environment variables.
package config

import "time"

// Config contains everything the service and the snapshot CLI need.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat selects text or json handler output.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`
	// ReadTimeout/WriteTimeout/IdleTimeout bound the HTTP server.
	ReadTimeoutSec  int `koanf:"read_timeout_sec"`
	WriteTimeoutSec int `koanf:"write_timeout_sec"`
	IdleTimeoutSec  int `koanf:"idle_timeout_sec"`

	Ergast    ErgastConfig    `koanf:"ergast"`
	OpenF1    OpenF1Config    `koanf:"openf1"`
	Laps      LapsConfig      `koanf:"laps"`
	Snapshots SnapshotsConfig `koanf:"snapshots"`
	Metrics   MetricsConfig   `koanf:"metrics"`
	Poll      PollConfig      `koanf:"poll"`
}

// ErgastConfig tunes the primary provider transport.
type ErgastConfig struct {
	BaseURL       string `koanf:"base_url"`
	MinIntervalMS int    `koanf:"min_interval_ms"`
	MaxRetries    int    `koanf:"max_retries"`
	BaseDelayMS   int    `koanf:"base_delay_ms"`
	TimeoutSec    int    `koanf:"timeout_sec"`
	CurlFallback  bool   `koanf:"curl_fallback"`
	Breaker       bool   `koanf:"breaker"`
}

// OpenF1Config tunes the secondary provider transport. The upstream's rate
// limits are loose, so only a light throttle applies and retries stay off.
type OpenF1Config struct {
	BaseURL       string `koanf:"base_url"`
	MinIntervalMS int    `koanf:"min_interval_ms"`
	TimeoutSec    int    `koanf:"timeout_sec"`
}

// LapsConfig tunes the reconciliation engine.
type LapsConfig struct {
	// Concurrency is the fixed batch group size.
	Concurrency int `koanf:"concurrency"`
	// ArchiveDir enables the persistent lap archive when non-empty.
	ArchiveDir string `koanf:"archive_dir"`
}

// SnapshotsConfig controls where the CLI writes artifacts.
type SnapshotsConfig struct {
	Dir string `koanf:"dir"`
	// TopDrivers is how many points-leaders join every race's driver set.
	TopDrivers int `koanf:"top_drivers"`
}

// MetricsConfig controls telemetry export.
type MetricsConfig struct {
	Enabled      bool   `koanf:"enabled"`
	Addr         string `koanf:"addr"`
	OtlpEndpoint string `koanf:"otlp_endpoint"`
	OtlpInsecure bool   `koanf:"otlp_insecure"`
}

// PollConfig controls the schedule-warming poller.
type PollConfig struct {
	Enabled     bool `koanf:"enabled"`
	IntervalMin int  `koanf:"interval_min"`
}

// New returns the default configuration.
func New() *Config {
	return &Config{
		LogLevel:        "info",
		LogFormat:       "text",
		Addr:            ":8080",
		ReadTimeoutSec:  10,
		WriteTimeoutSec: 30,
		IdleTimeoutSec:  60,
		Ergast: ErgastConfig{
			MinIntervalMS: 250,
			MaxRetries:    3,
			BaseDelayMS:   1000,
			TimeoutSec:    15,
			CurlFallback:  true,
			Breaker:       true,
		},
		OpenF1: OpenF1Config{
			MinIntervalMS: 50,
			TimeoutSec:    15,
		},
		Laps: LapsConfig{
			Concurrency: 5,
		},
		Snapshots: SnapshotsConfig{
			Dir:        "public/laps",
			TopDrivers: 5,
		},
		Metrics: MetricsConfig{
			Addr: ":9090",
		},
		Poll: PollConfig{
			Enabled:     true,
			IntervalMin: 30,
		},
	}
}

// ReadTimeout returns the HTTP read timeout as a duration.
func (c *Config) ReadTimeout() time.Duration {
	return time.Duration(c.ReadTimeoutSec) * time.Second
}

// WriteTimeout returns the HTTP write timeout as a duration.
func (c *Config) WriteTimeout() time.Duration {
	return time.Duration(c.WriteTimeoutSec) * time.Second
}

// IdleTimeout returns the HTTP idle timeout as a duration.
func (c *Config) IdleTimeout() time.Duration {
	return time.Duration(c.IdleTimeoutSec) * time.Second
}

// PollInterval returns the schedule poller cadence.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Poll.IntervalMin) * time.Minute
}
