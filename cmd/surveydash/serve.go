package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"surveydash/internal/api"
	"surveydash/internal/config"
	"surveydash/internal/container"
	"surveydash/internal/errors"
)

func newServeCmd() *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the dashboard HTTP API",
		Long: `Run the dashboard HTTP API.

Configuration is read from the environment (and a .env file when present):
KOBO_TOKEN, KOBO_ASSETS, GEOCODER_*, SESSION_TTL, DATABASE_URL and friends.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if port != "" {
				cfg.Server.Port = port
			}
			return runServe(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVar(&port, "port", "", "Listen port (overrides PORT)")
	return cmd
}

func runServe(ctx context.Context, cfg *config.Config) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := container.New(cfg)
	if err != nil {
		return errors.Wrap(err, "failed to create application container")
	}
	defer c.Shutdown(context.Background())

	if err := c.ConnectDatabase(ctx); err != nil {
		return errors.Wrap(err, "failed to initialize report archive")
	}

	server := api.NewServer(c.Service, cfg.Server.GinMode)
	return server.Run(ctx, ":"+cfg.Server.Port)
}
