package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/maauso/tracksplit/internal/bootstrap"
	"github.com/maauso/tracksplit/internal/server"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			base, err := ctx.ensureConfig(cmd.Context())
			if err != nil {
				return err
			}
			cfg := *base
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			logger := cfg.NewLogger()
			slog.SetDefault(logger)
			logger.Info("starting tracksplit API",
				slog.Int("port", cfg.Port),
				slog.String("output_dir", cfg.OutputDir),
				slog.Bool("s3_enabled", cfg.S3Enabled()),
			)

			deps, err := bootstrap.NewDependencies(&cfg, logger)
			if err != nil {
				return fmt.Errorf("initialize dependencies: %w", err)
			}

			handlers := server.NewHandlers(deps.SplitService, deps.Storage, logger,
				server.WithOutputDir(cfg.OutputDir),
			)
			router := server.NewRouter(handlers, logger, server.DefaultConfig())

			return server.ListenAndServe(cmd.Context(), fmt.Sprintf(":%d", cfg.Port), router, logger)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Listen port (overrides PORT)")

	return cmd
}
