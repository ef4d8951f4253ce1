package notify

import (
	"context"
	"strings"
	"sync"

	"github.com/heidiheidi1234567890/kurochan-okite-bot/internal/logger"
)

// NameCache memoizes display names for the life of the process. Only
// successful lookups are cached; on failure the masked id is returned so
// callers always get something printable.
//
// Entries are never evicted; the user set is a handful of configured ids.
type NameCache struct {
	sink Sink

	mu    sync.RWMutex
	names map[int64]string
}

func NewNameCache(sink Sink) *NameCache {
	return &NameCache{sink: sink, names: make(map[int64]string)}
}

// Name returns the display name for userID.
func (c *NameCache) Name(ctx context.Context, userID int64) string {
	c.mu.RLock()
	name, ok := c.names[userID]
	c.mu.RUnlock()
	if ok {
		return name
	}

	name, err := c.sink.DisplayName(ctx, userID)
	name = strings.TrimSpace(name)
	if err != nil || name == "" {
		return "user " + logger.MaskID(userID)
	}

	c.mu.Lock()
	c.names[userID] = name
	c.mu.Unlock()
	return name
}
