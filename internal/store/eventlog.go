package store

import (
	"context"
	"sync"
	"time"
)

// Event types recorded in the event log.
const (
	EventCommand          = "command"
	EventSessionStart     = "session_start"
	EventSessionResponded = "session_responded"
	EventSessionEscalated = "session_escalated"
	EventTriggerSkipped   = "trigger_skipped"
)

// LogEntry is an append-only audit record. Nothing reads it to make
// decisions.
type LogEntry struct {
	Time    time.Time `json:"ts"`
	Type    string    `json:"event_type"`
	UserID  int64     `json:"user_id"`
	Message string    `json:"message"`
}

// EventLog stores LogEntry records.
type EventLog interface {
	Append(ctx context.Context, e LogEntry) error
	// Recent returns up to n entries, newest first.
	Recent(ctx context.Context, n int) ([]LogEntry, error)
}

// MemoryLog keeps the newest entries in process memory.
type MemoryLog struct {
	mu      sync.Mutex
	limit   int
	entries []LogEntry
}

// NewMemoryLog creates a log holding at most limit entries.
func NewMemoryLog(limit int) *MemoryLog {
	if limit <= 0 {
		limit = 1
	}
	return &MemoryLog{limit: limit}
}

func (l *MemoryLog) Append(_ context.Context, e LogEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, e)
	if over := len(l.entries) - l.limit; over > 0 {
		l.entries = append(l.entries[:0], l.entries[over:]...)
	}
	return nil
}

func (l *MemoryLog) Recent(_ context.Context, n int) ([]LogEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if n > len(l.entries) {
		n = len(l.entries)
	}
	out := make([]LogEntry, 0, n)
	for i := len(l.entries) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, l.entries[i])
	}
	return out, nil
}
