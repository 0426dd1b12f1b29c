// Package config provides configuration loading from environment variables.
package config

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/sethvargo/go-envconfig"

	"github.com/maauso/tracksplit/internal/audio"
)

// ErrInvalidConfig is returned when a loaded value is out of range.
var ErrInvalidConfig = errors.New("config: invalid value")

// Config holds all configuration for the application.
type Config struct {
	// Server settings
	Port int `env:"PORT, default=8080" json:"port" validate:"min=1,max=65535"`

	// Storage settings
	TempDir   string `env:"TEMP_DIR, default=/tmp/tracksplit" json:"temp_dir" validate:"required"`
	OutputDir string `env:"OUTPUT_DIR, default=/tmp/tracksplit/tracks" json:"output_dir" validate:"required"`

	// Processing settings
	FFmpegPath          string  `env:"FFMPEG_PATH, default=ffmpeg" json:"ffmpeg_path"`
	MinTrackSec         float64 `env:"MIN_TRACK_SEC, default=20" json:"min_track_sec" validate:"gte=0"`
	SilenceNoiseDB      float64 `env:"SILENCE_NOISE_DB, default=-40" json:"silence_noise_db" validate:"lt=0"`
	MinSilenceSec       float64 `env:"MIN_SILENCE_SEC, default=1.4" json:"min_silence_sec" validate:"gt=0"`
	MaxConcurrentTracks int     `env:"MAX_CONCURRENT_TRACKS, default=3" json:"max_concurrent_tracks" validate:"min=1,max=64"`

	// Optional S3 settings
	S3Bucket           string `env:"S3_BUCKET" json:"s3_bucket,omitempty"`
	S3Region           string `env:"S3_REGION" json:"s3_region,omitempty"`
	S3Prefix           string `env:"S3_PREFIX" json:"s3_prefix,omitempty"`
	S3Endpoint         string `env:"S3_ENDPOINT" json:"s3_endpoint,omitempty" validate:"omitempty,url"`
	AWSAccessKeyID     string `env:"AWS_ACCESS_KEY_ID" json:"-"`     // Masked in JSON
	AWSSecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY" json:"-"` // Masked in JSON

	// Logging settings
	LogFormat string `env:"LOG_FORMAT, default=text" json:"log_format" validate:"oneof=text json TEXT JSON"`
	LogLevel  string `env:"LOG_LEVEL, default=info" json:"log_level"` // "debug", "info", "warn", "error"
}

// S3Enabled returns true if S3 configuration is provided.
func (c *Config) S3Enabled() bool {
	return c.S3Bucket != "" && c.S3Region != ""
}

// DetectOpts returns the silence detection options described by the config.
func (c *Config) DetectOpts() audio.DetectOpts {
	return audio.DetectOpts{
		NoiseDB:       c.SilenceNoiseDB,
		MinSilenceSec: c.MinSilenceSec,
	}
}

// Load reads configuration from environment variables using go-envconfig
// and validates the result.
func Load() (*Config, error) {
	return LoadContext(context.Background())
}

// LoadContext is Load with a caller supplied context.
func LoadContext(ctx context.Context) (*Config, error) {
	cfg := &Config{}

	if err := envconfig.Process(ctx, cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that every value is within its allowed range.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("%w: %s failed %q", ErrInvalidConfig, fe.Field(), fe.Tag())
		}
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// NewLogger creates a structured logger based on the configuration.
// When LogFormat is "json", it outputs JSON logs suitable for production.
// Otherwise, it outputs human-readable text logs.
func (c *Config) NewLogger() *slog.Logger {
	return c.NewLoggerTo(os.Stdout)
}

// NewLoggerTo is NewLogger writing to w. The CLI logs to stderr so that
// stdout carries only the track table.
func (c *Config) NewLoggerTo(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLogLevel(c.LogLevel)}

	var handler slog.Handler
	if strings.ToLower(c.LogFormat) == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler)
}

// String returns a string representation of the config with sensitive values masked.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Port: %d, TempDir: %s, OutputDir: %s, FFmpegPath: %s, MinTrackSec: %g, SilenceNoiseDB: %g, MinSilenceSec: %g, MaxConcurrentTracks: %d, S3Bucket: %s, S3Region: %s, S3Prefix: %s, LogFormat: %s, LogLevel: %s}",
		c.Port,
		c.TempDir,
		c.OutputDir,
		c.FFmpegPath,
		c.MinTrackSec,
		c.SilenceNoiseDB,
		c.MinSilenceSec,
		c.MaxConcurrentTracks,
		c.S3Bucket,
		c.S3Region,
		c.S3Prefix,
		c.LogFormat,
		c.LogLevel,
	)
}

// parseLogLevel converts a string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
