package main

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/maauso/tracksplit/internal/config"
)

type commandContext struct {
	logLevel string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext() *commandContext {
	return &commandContext{}
}

// ensureConfig loads the environment configuration once per process.
func (c *commandContext) ensureConfig(ctx context.Context) (*config.Config, error) {
	c.configOnce.Do(func() {
		if ctx == nil {
			ctx = context.Background()
		}
		cfg, err := config.LoadContext(ctx)
		if err != nil {
			c.configErr = err
			return
		}
		if level := strings.TrimSpace(c.logLevel); level != "" {
			cfg.LogLevel = level
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) logger(w io.Writer) *slog.Logger {
	if c.config == nil {
		return slog.New(slog.NewTextHandler(w, nil))
	}
	return c.config.NewLoggerTo(w)
}
