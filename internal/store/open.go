package store

import (
	"context"
	"fmt"

	"github.com/heidiheidi1234567890/kurochan-okite-bot/internal/config"
)

const memoryLogSize = 500

// Open builds the schedule store and event log for the configured backend.
// Backends without a native log fall back to an in-memory one.
func Open(ctx context.Context, cfg config.Config) (*Schedule, EventLog, error) {
	var b Backend
	switch cfg.StoreBackend {
	case config.BackendMemory:
		b = NewMemory()
	case config.BackendFile:
		fb, err := OpenFile(cfg.FilePath)
		if err != nil {
			return nil, nil, err
		}
		b = fb
	case config.BackendSQLite:
		sb, err := OpenSQLite(ctx, cfg.DBPath)
		if err != nil {
			return nil, nil, err
		}
		b = sb
	case config.BackendRedis:
		rb, err := OpenRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, nil, err
		}
		b = rb
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}

	log, ok := b.(EventLog)
	if !ok {
		log = NewMemoryLog(memoryLogSize)
	}
	return NewSchedule(b, cfg.Start()), log, nil
}
