package store

import (
	"context"
	"os"
	"testing"
	"time"
)

// openTestRedis connects to OKITE_TEST_REDIS_ADDR (default localhost:6379,
// DB 15) and flushes it. The test is skipped when no server answers.
func openTestRedis(t *testing.T) *RedisBackend {
	t.Helper()
	addr := os.Getenv("OKITE_TEST_REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	b, err := OpenRedis(ctx, addr, "", 15)
	if err != nil {
		t.Skipf("Skipping Redis test: %v", err)
	}
	if err := b.client.FlushDB(ctx).Err(); err != nil {
		_ = b.Close()
		t.Fatalf("flush: %v", err)
	}
	return b
}

func TestRedisEntryFromHash(t *testing.T) {
	e, err := entryFromHash("2025-06-01", map[string]string{
		"excluded":        "0",
		"override_hour":   "7",
		"override_minute": "30",
	})
	if err != nil {
		t.Fatalf("entryFromHash: %v", err)
	}
	if e.Excluded || e.Override == nil || e.Override.Hour != 7 || e.Override.Minute != 30 {
		t.Fatalf("unexpected entry: %+v", e)
	}

	e, err = entryFromHash("2025-06-02", map[string]string{"excluded": "1"})
	if err != nil {
		t.Fatalf("entryFromHash: %v", err)
	}
	if !e.Excluded || e.Override != nil {
		t.Fatalf("unexpected entry: %+v", e)
	}

	if _, err := entryFromHash("2025-06-03", map[string]string{"override_hour": "x"}); err == nil {
		t.Fatalf("want error for corrupt hour")
	}
}
