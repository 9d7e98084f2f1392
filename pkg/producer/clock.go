package producer

import (
	"context"
	"time"
)

// Clock returns a step that publishes the current time. A nil now uses time.Now.
func Clock(pub Publisher[time.Time], now func() time.Time) Step {
	if now == nil {
		now = time.Now
	}
	return func(ctx context.Context) error {
		return pub.Send(ctx, now())
	}
}
