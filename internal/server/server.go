// Package server wires the pipeline together: transports, provider
// clients, the reconciliation engine, the read API, and the schedule
// poller, with graceful shutdown across all of them.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"f1-stats-service/internal/bio"
	"f1-stats-service/internal/cache"
	"f1-stats-service/internal/config"
	httpapi "f1-stats-service/internal/http"
	"f1-stats-service/internal/laps"
	"f1-stats-service/internal/logging"
	"f1-stats-service/internal/metrics"
	"f1-stats-service/internal/providers/ergast"
	"f1-stats-service/internal/providers/openf1"
	"f1-stats-service/internal/transport"
)

var metricsSetup = metrics.Setup

// shutdownTimeout remains a var for tests to override.
var shutdownTimeout = 10 * time.Second

// Server owns every long-lived component of the service.
type Server struct {
	cfg           *config.Config
	logger        *slog.Logger
	metrics       *metrics.Recorder
	engine        *laps.Engine
	archive       *cache.Archive
	httpServer    httpServer
	metricsServer httpServer
	poller        *Poller
	metricsStop   func(context.Context) error
}

// New constructs a fully wired server from configuration.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	recorder, metricsSrv, metricsShutdown := buildMetrics(cfg, logger)

	store := cache.NewMemory()

	var archive *cache.Archive
	if cfg.Laps.ArchiveDir != "" {
		a, err := cache.OpenArchive(cfg.Laps.ArchiveDir)
		if err != nil {
			logging.Warn(logger, "lap archive unavailable, continuing without persistence", "error", err)
		} else {
			archive = a
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
			Metrics:        recorder,
		}),
		Cache:   store,
		Logger:  logger,
		Metrics: recorder,
	})

	openf1Client := openf1.New(openf1.Config{
		BaseURL: cfg.OpenF1.BaseURL,
		Transport: transport.New(transport.Config{
			Name:        "openf1",
			MinInterval: time.Duration(cfg.OpenF1.MinIntervalMS) * time.Millisecond,
			MaxRetries:  transport.NoRetry,
			HTTPClient:  &http.Client{Timeout: time.Duration(cfg.OpenF1.TimeoutSec) * time.Second},
			Logger:      logger,
			Metrics:     recorder,
		}),
		Cache:   store,
		Logger:  logger,
		Metrics: recorder,
	})

	engine := laps.New(laps.Config{
		Cache:     store,
		Archive:   archive,
		History:   ergastClient,
		Bulk:      ergastClient,
		Telemetry: openf1Client,
		GroupSize: cfg.Laps.Concurrency,
		Logger:    logger,
		Metrics:   recorder,
	})

	bioClient := bio.New(bio.Config{
		Transport: transport.New(transport.Config{
			Name:       "wikipedia",
			MaxRetries: transport.NoRetry,
			HTTPClient: &http.Client{Timeout: time.Duration(cfg.Ergast.TimeoutSec) * time.Second},
			Logger:     logger,
			Metrics:    recorder,
		}),
		Cache:   store,
		Drivers: ergastClient,
		Logger:  logger,
		Metrics: recorder,
	})

	var poller *Poller
	ready := httpapi.ReadyFunc(func() bool { return true })
	if cfg.Poll.Enabled {
		poller = NewPoller(ergastClient, logger, recorder, cfg.PollInterval())
		ready = func() bool { return poller.Status().IsReady() }
	}

	handler := httpapi.NewHandler(ergastClient, engine, bioClient, ready, logger)
	router := httpapi.NewRouter(handler, logger, recorder)

	srv := netHTTPServer{srv: &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout(),
		WriteTimeout: cfg.WriteTimeout(),
		IdleTimeout:  cfg.IdleTimeout(),
	}}

	return &Server{
		cfg:           cfg,
		logger:        logger,
		metrics:       recorder,
		engine:        engine,
		archive:       archive,
		httpServer:    srv,
		metricsServer: metricsSrv,
		poller:        poller,
		metricsStop:   metricsShutdown,
	}, nil
}

// Run starts the poller and HTTP servers, then waits for context
// cancellation to shut down gracefully.
func (s *Server) Run(ctx context.Context, stop context.CancelFunc) {
	if s.metricsServer != nil {
		launchServer("metrics", s.metricsServer, s.logger, nil)
	}
	launchServer("http", s.httpServer, s.logger, func(error) {
		if stop != nil {
			stop()
		}
	})
	if s.poller != nil {
		s.poller.Start(ctx)
	}

	<-ctx.Done()
	logging.Info(s.logger, "shutdown signal received")
	s.gracefulShutdown()
}

// Handler exposes the HTTP handler (useful for tests).
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler()
}

func (s *Server) gracefulShutdown() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if s.poller != nil {
		if err := s.poller.Stop(shutdownCtx); err != nil {
			logging.Error(s.logger, "failed to stop poller", err)
		}
	}
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		logging.Error(s.logger, "graceful shutdown failed", err)
	}
	if s.metricsStop != nil {
		if err := s.metricsStop(shutdownCtx); err != nil {
			logging.Warn(s.logger, "metrics shutdown failed", "error", err)
		}
	}
	if s.metricsServer != nil {
		if err := s.metricsServer.Shutdown(shutdownCtx); err != nil {
			logging.Warn(s.logger, "metrics server shutdown failed", "error", err)
		}
	}
	if err := s.archive.Close(); err != nil {
		logging.Warn(s.logger, "lap archive close failed", "error", err)
	}
	logging.Info(s.logger, "shutdown complete")
}

func buildMetrics(cfg *config.Config, logger *slog.Logger) (*metrics.Recorder, httpServer, func(context.Context) error) {
	rec, handler, shutdown, err := metricsSetup(context.Background(), metrics.TelemetryConfig{
		Enabled:      cfg.Metrics.Enabled,
		ServiceName:  "f1-stats-service",
		OtlpEndpoint: cfg.Metrics.OtlpEndpoint,
		OtlpInsecure: cfg.Metrics.OtlpInsecure,
	})
	if err != nil {
		logging.Warn(logger, "metrics setup failed, continuing without telemetry", "error", err)
		return metrics.NewRecorder(), nil, nil
	}

	var metricsSrv httpServer
	if handler != nil && cfg.Metrics.Enabled {
		metricsSrv = netHTTPServer{srv: &http.Server{
			Addr:    cfg.Metrics.Addr,
			Handler: handler,
		}}
	}
	return rec, metricsSrv, shutdown
}

func launchServer(name string, srv httpServer, logger *slog.Logger, onError func(error)) {
	go func() {
		logging.Info(logger, "starting "+name+" server", slog.String("addr", srv.Addr()))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Warn(logger, name+" server failed", "error", err)
			if onError != nil {
				onError(err)
			}
		}
	}()
}
