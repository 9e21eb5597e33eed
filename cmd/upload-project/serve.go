package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/joandiazestigarribia/upload-project/internal/app"
	"github.com/joandiazestigarribia/upload-project/internal/config"
	"github.com/joandiazestigarribia/upload-project/internal/logging"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the file manager HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			load := config.LoadConfig
			if opts.configFile != "" {
				load = func() (*config.Config, error) { return config.Load(opts.configFile) }
			}
			cfg, err := load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			level := cfg.Log.Level
			if opts.logLevel != "" {
				level = opts.logLevel
			}
			if err := logging.Configure(os.Stderr, level, cfg.Log.Format); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := app.New(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() {
				if err := a.Close(); err != nil {
					slog.Error("Error closing resources", "error", err)
				}
			}()

			return a.Run(ctx)
		},
	}
}
