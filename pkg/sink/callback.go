package sink

import (
	"context"

	"github.com/dmitrymomot/beacon/pkg/notification"
)

// Callback handles notifications from one source.
type Callback func(ctx context.Context, env notification.Envelope) error

// Typed adapts fn to a Callback that decodes the payload into T first.
// Decoding failures are returned and logged by the sink.
func Typed[T any](fn func(ctx context.Context, n notification.Notification[T]) error) Callback {
	return func(ctx context.Context, env notification.Envelope) error {
		n, err := notification.Decode[T](env)
		if err != nil {
			return err
		}
		return fn(ctx, n)
	}
}
