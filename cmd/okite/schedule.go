package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/heidiheidi1234567890/kurochan-okite-bot/internal/clock"
	"github.com/heidiheidi1234567890/kurochan-okite-bot/internal/command"
	"github.com/heidiheidi1234567890/kurochan-okite-bot/internal/config"
	"github.com/heidiheidi1234567890/kurochan-okite-bot/internal/logger"
	"github.com/heidiheidi1234567890/kurochan-okite-bot/internal/store"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule <command...>",
	Short: "Run one admin command against the configured store",
	Long: "Runs list, exclude, unexclude, override, unoverride or help against the\n" +
		"store selected by STORE_BACKEND, acting as the first id in ADMIN_IDS.",
	Example: "  okite schedule list\n  okite schedule override 2025-06-01 7:30",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("config: %w", err)
		}
		log, err := logger.New(cfg.LogLevel)
		if err != nil {
			return fmt.Errorf("logger init: %w", err)
		}
		defer func() { _ = log.Sync() }()

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		return runSchedule(ctx, cfg, log, strings.Join(args, " "), cmd.OutOrStdout())
	},
}

func runSchedule(ctx context.Context, cfg config.Config, log *zap.Logger, text string, out io.Writer) error {
	if len(cfg.AdminIDs) == 0 {
		return errors.New("ADMIN_IDS must list at least one admin")
	}
	// A memory store dies with this process; nothing else would see the change.
	if cfg.StoreBackend == config.BackendMemory {
		if cmd, err := command.Parse(text); err == nil && cmd.Kind.Mutates() {
			return fmt.Errorf("%s would not persist with STORE_BACKEND=memory; use file, sqlite or redis", cmd.Kind)
		}
	}
	sched, events, err := store.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer sched.Close()

	in := command.New(sched, cfg.AdminIDs, events, clock.Real(), log)
	res := in.Handle(ctx, cfg.AdminIDs[0], text)
	if res.Outcome == command.OutcomeUnrecognized {
		return fmt.Errorf("unknown command %q (try: okite schedule help)", text)
	}
	fmt.Fprintln(out, res.Reply)
	if res.Outcome != command.OutcomeOK {
		return res.Err
	}
	return nil
}
