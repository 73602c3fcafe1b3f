// Command snapshots downloads lap data for one or more seasons and writes
// JSON artifacts for offline consumption. Seasons are passed as a single
// comma-separated argument; with no argument the current year is used.
//
//	snapshots 2023,2024
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"f1-stats-service/internal/cache"
	"f1-stats-service/internal/config"
	"f1-stats-service/internal/laps"
	"f1-stats-service/internal/logging"
	"f1-stats-service/internal/providers/ergast"
	"f1-stats-service/internal/providers/openf1"
	"f1-stats-service/internal/snapshots"
	"f1-stats-service/internal/transport"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "snapshot run failed:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger := logging.NewLogger(logging.Config{
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
		Service: "f1-snapshots",
	})

	seasons := []string{strconv.Itoa(time.Now().Year())}
	if len(os.Args) > 1 {
		seasons = strings.Split(os.Args[1], ",")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := cache.NewMemory()

	var archive *cache.Archive
	if cfg.Laps.ArchiveDir != "" {
		a, err := cache.OpenArchive(cfg.Laps.ArchiveDir)
		if err != nil {
			logging.Warn(logger, "lap archive unavailable, continuing without persistence", "error", err)
		} else {
			archive = a
			defer func() {
				if err := archive.Close(); err != nil {
					logging.Warn(logger, "lap archive close failed", "error", err)
				}
			}()
		}
	}

	ergastClient := ergast.New(ergast.Config{
		BaseURL: cfg.Ergast.BaseURL,
		Transport: transport.New(transport.Config{
			Name:           "ergast",
			MinInterval:    time.Duration(cfg.Ergast.MinIntervalMS) * time.Millisecond,
			MaxRetries:     cfg.Ergast.MaxRetries,
			BaseDelay:      time.Duration(cfg.Ergast.BaseDelayMS) * time.Millisecond,
			HTTPClient:     &http.Client{Timeout: time.Duration(cfg.Ergast.TimeoutSec) * time.Second},
			CurlFallback:   cfg.Ergast.CurlFallback,
			BreakerEnabled: cfg.Ergast.Breaker,
			Logger:         logger,
		}),
		Cache:  store,
		Logger: logger,
	})

	openf1Client := openf1.New(openf1.Config{
		BaseURL: cfg.OpenF1.BaseURL,
		Transport: transport.New(transport.Config{
			Name:        "openf1",
			MinInterval: time.Duration(cfg.OpenF1.MinIntervalMS) * time.Millisecond,
			MaxRetries:  transport.NoRetry,
			HTTPClient:  &http.Client{Timeout: time.Duration(cfg.OpenF1.TimeoutSec) * time.Second},
			Logger:      logger,
		}),
		Cache:  store,
		Logger: logger,
	})

	engine := laps.New(laps.Config{
		Cache:     store,
		Archive:   archive,
		History:   ergastClient,
		Bulk:      ergastClient,
		Telemetry: openf1Client,
		GroupSize: cfg.Laps.Concurrency,
		Logger:    logger,
	})

	downloader := snapshots.NewDownloader(
		ergastClient,
		engine,
		snapshots.NewWriter(cfg.Snapshots.Dir),
		cfg.Snapshots.TopDrivers,
		logger,
	)

	logging.Info(logger, "snapshot run starting",
		"seasons", strings.Join(seasons, ","),
		"dir", cfg.Snapshots.Dir)
	if err := downloader.Run(ctx, seasons); err != nil {
		return err
	}
	logging.Info(logger, "snapshot run complete")
	return nil
}
