package notify

import (
	"context"

	"golang.org/x/time/rate"
)

// Limited throttles SendText through a token bucket so bursts (a
// broadcast plus command replies) stay under the transport's send limit.
// DisplayName is not throttled.
type Limited struct {
	Sink
	limiter *rate.Limiter
}

// NewLimited allows perSecond sends with the given burst.
func NewLimited(s Sink, perSecond float64, burst int) *Limited {
	return &Limited{Sink: s, limiter: rate.NewLimiter(rate.Limit(perSecond), burst)}
}

func (l *Limited) SendText(ctx context.Context, userID int64, text string) error {
	if err := l.limiter.Wait(ctx); err != nil {
		return err
	}
	return l.Sink.SendText(ctx, userID, text)
}
