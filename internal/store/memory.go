package store

import (
	"context"
	"sync"

	"github.com/heidiheidi1234567890/kurochan-okite-bot/internal/domain"
)

// MemoryBackend keeps entries in a map. Contents are lost on exit.
type MemoryBackend struct {
	mu      sync.RWMutex
	entries map[string]domain.ScheduleEntry
}

// NewMemory returns an empty in-memory backend.
func NewMemory() *MemoryBackend {
	return &MemoryBackend{entries: make(map[string]domain.ScheduleEntry)}
}

func (m *MemoryBackend) Name() string { return "memory" }

func (m *MemoryBackend) Get(_ context.Context, date string) (domain.ScheduleEntry, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[date]
	return cloneEntry(e), ok, nil
}

func (m *MemoryBackend) Put(_ context.Context, e domain.ScheduleEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[e.Date] = cloneEntry(e)
	return nil
}

func (m *MemoryBackend) All(_ context.Context) ([]domain.ScheduleEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.ScheduleEntry, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, cloneEntry(e))
	}
	return out, nil
}

func (m *MemoryBackend) Close() error { return nil }

func cloneEntry(e domain.ScheduleEntry) domain.ScheduleEntry {
	if e.Override != nil {
		o := *e.Override
		e.Override = &o
	}
	return e
}
