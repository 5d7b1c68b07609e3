package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/nfrund/announcer/internal/config"
	"github.com/nfrund/announcer/internal/logging"
	"github.com/nfrund/announcer/internal/server"
)

func main() {
	cfg, err := config.New()
	if err != nil {
		// slog is configured from cfg, so it is not ready yet.
		log.Fatalf("Invalid configuration: %v", err)
	}
	logger := logging.New(cfg.GetLogFormat(), cfg.GetLogLevel())

	s, err := server.New(cfg, server.WithLogger(logger))
	if err != nil {
		slog.Error("Failed to start server", "error", err)
		os.Exit(1)
	}

	if err := s.Start(context.Background()); err != nil {
		slog.Error("Server stopped with error", "error", err)
		os.Exit(1)
	}
}
