// Package notify defines the outbound messaging contract and the helpers
// the session engine builds on it.
package notify

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/heidiheidi1234567890/kurochan-okite-bot/internal/domain"
	"github.com/heidiheidi1234567890/kurochan-okite-bot/internal/logger"
)

// Sink delivers text messages and resolves display names. The Telegram
// transport implements it.
type Sink interface {
	SendText(ctx context.Context, userID int64, text string) error
	DisplayName(ctx context.Context, userID int64) (string, error)
}

// Delivery is the outcome of one send in a broadcast.
type Delivery struct {
	UserID int64
	Err    error // *domain.DeliveryError on failure
}

// Broadcast sends text to every recipient concurrently and waits for all
// of them. A failed send is logged and recorded; it never cancels the
// others. Results are in recipient order.
func Broadcast(ctx context.Context, sink Sink, log *zap.Logger, recipients []int64, text string) []Delivery {
	results := make([]Delivery, len(recipients))
	var g errgroup.Group
	for i, id := range recipients {
		i, id := i, id
		g.Go(func() error {
			results[i].UserID = id
			if err := sink.SendText(ctx, id, text); err != nil {
				results[i].Err = &domain.DeliveryError{UserID: id, Err: err}
				log.Warn("delivery failed", logger.UserID("recipient", id), zap.Error(err))
			}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// Failed counts failed deliveries.
func Failed(ds []Delivery) int {
	n := 0
	for _, d := range ds {
		if d.Err != nil {
			n++
		}
	}
	return n
}
