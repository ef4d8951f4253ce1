package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/heidiheidi1234567890/kurochan-okite-bot/internal/app"
	"github.com/heidiheidi1234567890/kurochan-okite-bot/internal/config"
	"github.com/heidiheidi1234567890/kurochan-okite-bot/internal/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the bot (polling or webhook, per RUN_MODE)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func runServe(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("logger init: %w", err)
	}
	// Ensure logger flush; ignore sync error (common on some platforms).
	defer func() { _ = log.Sync() }()

	application, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Error("app init failed", zap.Error(err))
		return err
	}
	if err := application.Run(ctx); err != nil {
		log.Error("app run failed", zap.Error(err))
		return err
	}
	return nil
}
