// Package main provides the entry point for the tracksplit HTTP server.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/maauso/tracksplit/internal/bootstrap"
	"github.com/maauso/tracksplit/internal/config"
	"github.com/maauso/tracksplit/internal/server"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// Load configuration from environment
	cfg, err := config.LoadContext(ctx)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Create structured logger
	logger := cfg.NewLogger()
	slog.SetDefault(logger)

	logger.Info("starting tracksplit API",
		slog.Int("port", cfg.Port),
		slog.String("log_format", cfg.LogFormat),
		slog.String("log_level", cfg.LogLevel),
		slog.String("temp_dir", cfg.TempDir),
		slog.String("output_dir", cfg.OutputDir),
		slog.Int("max_concurrent_tracks", cfg.MaxConcurrentTracks),
		slog.Float64("min_track_sec", cfg.MinTrackSec),
		slog.Bool("s3_enabled", cfg.S3Enabled()),
	)

	deps, err := bootstrap.NewDependencies(cfg, logger)
	if err != nil {
		return fmt.Errorf("initialize dependencies: %w", err)
	}

	handlers := server.NewHandlers(deps.SplitService, deps.Storage, logger,
		server.WithOutputDir(cfg.OutputDir),
	)
	router := server.NewRouter(handlers, logger, server.DefaultConfig())

	return server.ListenAndServe(ctx, fmt.Sprintf(":%d", cfg.Port), router, logger)
}
