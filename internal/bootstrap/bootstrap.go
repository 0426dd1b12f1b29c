// Package bootstrap provides dependency initialization for tracksplit.
package bootstrap

import (
	"fmt"
	"log/slog"

	"github.com/maauso/tracksplit/internal/audio"
	"github.com/maauso/tracksplit/internal/config"
	"github.com/maauso/tracksplit/internal/job"
	"github.com/maauso/tracksplit/internal/media"
	"github.com/maauso/tracksplit/internal/storage"
)

// Dependencies holds all initialized dependencies for the CLI and HTTP server.
type Dependencies struct {
	SplitService *job.SplitService
	Storage      storage.Storage
}

// NewDependencies creates and initializes all dependencies for the application.
func NewDependencies(cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	if logger == nil {
		logger = slog.Default()
	}

	// Initialize storage
	store, err := initStorage(cfg, logger)
	if err != nil {
		return nil, err
	}

	// Initialize silence detector and track extractor
	detector := audio.NewFFmpegDetector(cfg.FFmpegPath, logger)
	extractor := media.NewFFmpegExtractor(cfg.FFmpegPath)

	// Initialize job repository
	repo := job.NewMemoryRepository()

	svc := job.NewSplitService(
		repo,
		detector,
		extractor,
		store,
		logger,
		job.WithMaxConcurrentTracks(cfg.MaxConcurrentTracks),
		job.WithMinTrackSec(cfg.MinTrackSec),
		job.WithDetectOpts(cfg.DetectOpts()),
	)

	return &Dependencies{
		SplitService: svc,
		Storage:      store,
	}, nil
}

// initStorage creates the appropriate storage backend based on configuration.
func initStorage(cfg *config.Config, logger *slog.Logger) (storage.Storage, error) {
	if cfg.S3Enabled() {
		s3Cfg := storage.S3Config{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			Prefix:          cfg.S3Prefix,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
		}
		s3Store, err := storage.NewS3Storage(cfg.TempDir, s3Cfg)
		if err != nil {
			return nil, fmt.Errorf("create S3 storage: %w", err)
		}
		logger.Info("S3 storage configured",
			slog.String("bucket", cfg.S3Bucket),
			slog.String("region", cfg.S3Region),
			slog.String("prefix", cfg.S3Prefix),
		)
		return s3Store, nil
	}

	localStore, err := storage.NewLocalStorage(cfg.TempDir)
	if err != nil {
		return nil, fmt.Errorf("create local storage: %w", err)
	}
	logger.Info("local storage configured",
		slog.String("temp_dir", cfg.TempDir),
	)
	return localStore, nil
}
