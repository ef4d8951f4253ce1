package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/heidiheidi1234567890/kurochan-okite-bot/internal/domain"
	"github.com/heidiheidi1234567890/kurochan-okite-bot/internal/notify/notifytest"
)

func TestBroadcastContinuesPastFailures(t *testing.T) {
	rec := notifytest.New()
	rec.FailFor(2)

	ds := Broadcast(context.Background(), rec, zap.NewNop(), []int64{1, 2, 3}, "hello")
	require.Len(t, ds, 3)
	assert.Equal(t, int64(1), ds[0].UserID)
	assert.NoError(t, ds[0].Err)
	assert.NoError(t, ds[2].Err)
	assert.Equal(t, 1, Failed(ds))

	var de *domain.DeliveryError
	require.True(t, errors.As(ds[1].Err, &de))
	assert.Equal(t, int64(2), de.UserID)
	assert.ErrorIs(t, ds[1].Err, notifytest.ErrSend)

	for _, id := range []int64{1, 2, 3} {
		assert.Equal(t, []string{"hello"}, rec.To(id))
	}
}

func TestBroadcastEmpty(t *testing.T) {
	ds := Broadcast(context.Background(), notifytest.New(), zap.NewNop(), nil, "x")
	assert.Empty(t, ds)
}

func TestNameCache(t *testing.T) {
	ctx := context.Background()
	rec := notifytest.New()
	rec.SetName(10, "Kuro")
	c := NewNameCache(rec)

	assert.Equal(t, "Kuro", c.Name(ctx, 10))
	assert.Equal(t, "Kuro", c.Name(ctx, 10))
	assert.Equal(t, 1, rec.Lookups())

	// Failures are masked and retried next time.
	assert.Equal(t, "user ***2345", c.Name(ctx, 12345))
	assert.Equal(t, "user ***2345", c.Name(ctx, 12345))
	assert.Equal(t, 3, rec.Lookups())
}

func TestLimitedHonorsContext(t *testing.T) {
	rec := notifytest.New()
	l := NewLimited(rec, 1, 1)
	ctx := context.Background()
	require.NoError(t, l.SendText(ctx, 1, "a"))

	ctx, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
	defer cancel()
	err := l.SendText(ctx, 1, "b")
	require.Error(t, err)
	assert.Equal(t, []string{"a"}, rec.To(1))
}
