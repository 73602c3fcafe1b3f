package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"f1-stats-service/internal/config"
	"f1-stats-service/internal/logging"
	"f1-stats-service/internal/server"
)

const appVersion = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "invalid configuration:", err)
		os.Exit(1)
	}

	logger := logging.NewLogger(logging.Config{
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
		Service: "f1-stats-service",
		Version: appVersion,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Error("server construction failed", "error", err)
		os.Exit(1)
	}
	srv.Run(ctx, stop)
}
