package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/heidiheidi1234567890/kurochan-okite-bot/internal/config"
	"github.com/heidiheidi1234567890/kurochan-okite-bot/internal/domain"
)

func fileConfig(t *testing.T) config.Config {
	t.Helper()
	return config.Config{
		TZ:           "Asia/Tokyo",
		DefaultStart: "08:00",
		AdminIDs:     []int64{42},
		StoreBackend: config.BackendFile,
		FilePath:     filepath.Join(t.TempDir(), "schedule.yaml"),
	}
}

func TestRunSchedulePersists(t *testing.T) {
	ctx := context.Background()
	cfg := fileConfig(t)

	var out bytes.Buffer
	require.NoError(t, runSchedule(ctx, cfg, zap.NewNop(), "override 2025-06-01 7:30", &out))
	assert.Equal(t, "Wakeup on 2025-06-01 set to 07:30.\n", out.String())

	out.Reset()
	require.NoError(t, runSchedule(ctx, cfg, zap.NewNop(), "list", &out))
	assert.Contains(t, out.String(), "2025-06-01 → 07:30")
}

func TestRunScheduleErrors(t *testing.T) {
	ctx := context.Background()
	cfg := fileConfig(t)

	var out bytes.Buffer
	err := runSchedule(ctx, cfg, zap.NewNop(), "exclude 2025-6-1", &out)
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
	assert.Contains(t, out.String(), "2025-6-1")

	err = runSchedule(ctx, cfg, zap.NewNop(), "snooze", &out)
	assert.ErrorContains(t, err, "unknown command")

	cfg.AdminIDs = nil
	assert.Error(t, runSchedule(ctx, cfg, zap.NewNop(), "list", &out))
}

func TestRunScheduleRefusesMemoryMutations(t *testing.T) {
	ctx := context.Background()
	cfg := fileConfig(t)
	cfg.StoreBackend = config.BackendMemory

	var out bytes.Buffer
	err := runSchedule(ctx, cfg, zap.NewNop(), "exclude 2025-06-02", &out)
	assert.ErrorContains(t, err, "would not persist")
	assert.Empty(t, out.String())

	require.NoError(t, runSchedule(ctx, cfg, zap.NewNop(), "list", &out))
	assert.NotEmpty(t, out.String())
}

func TestScheduleCommandRequiresArgs(t *testing.T) {
	defer rootCmd.SetArgs(nil)

	rootCmd.SetArgs([]string{"schedule"})
	err := rootCmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires at least 1 arg")
}
