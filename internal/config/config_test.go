package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Addr != ":8080" {
		t.Fatalf("unexpected addr %s", cfg.Addr)
	}
	if cfg.Laps.Concurrency != 5 {
		t.Fatalf("unexpected concurrency %d", cfg.Laps.Concurrency)
	}
	if cfg.Ergast.MaxRetries != 3 || !cfg.Ergast.CurlFallback {
		t.Fatalf("unexpected ergast defaults %+v", cfg.Ergast)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("F1_ADDR", ":9999")
	t.Setenv("F1_ERGAST__MAX_RETRIES", "1")
	t.Setenv("F1_LAPS__CONCURRENCY", "3")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Addr != ":9999" {
		t.Fatalf("expected env addr, got %s", cfg.Addr)
	}
	if cfg.Ergast.MaxRetries != 1 {
		t.Fatalf("expected nested env override, got %d", cfg.Ergast.MaxRetries)
	}
	if cfg.Laps.Concurrency != 3 {
		t.Fatalf("expected concurrency 3, got %d", cfg.Laps.Concurrency)
	}
}

func TestFileThenEnvPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "addr: \":7070\"\nergast:\n  min_interval_ms: 500\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("F1_CONFIG", path)
	t.Setenv("F1_ADDR", ":6060")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Env wins over file; file wins over defaults.
	if cfg.Addr != ":6060" {
		t.Fatalf("expected env to win, got %s", cfg.Addr)
	}
	if cfg.Ergast.MinIntervalMS != 500 {
		t.Fatalf("expected file value, got %d", cfg.Ergast.MinIntervalMS)
	}
}

func TestInvalidConcurrencyRejected(t *testing.T) {
	t.Setenv("F1_LAPS__CONCURRENCY", "0")
	if _, err := Load(); err == nil {
		t.Fatal("expected validation error")
	}
}
