package producer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dmitrymomot/beacon/pkg/logger"
	"github.com/dmitrymomot/beacon/pkg/notification"
)

// Step is one unit of periodic work.
type Step func(ctx context.Context) error

// Publisher is the sending side of a source.
type Publisher[T any] interface {
	Send(ctx context.Context, payload T, opts ...notification.Option) error
}

// Option configures Loop.
type Option func(*loopOptions)

type loopOptions struct {
	name        string
	logger      *slog.Logger
	maxFailures int
}

func WithName(name string) Option {
	return func(o *loopOptions) { o.name = name }
}

func WithLogger(l *slog.Logger) Option {
	return func(o *loopOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMaxFailures stops the loop after n consecutive failed steps. Zero means never.
func WithMaxFailures(n int) Option {
	return func(o *loopOptions) { o.maxFailures = max(n, 0) }
}

// Loop runs step once right away and then every interval until ctx is done.
// A failing or panicking step is logged and the loop carries on.
// It returns ctx.Err() on cancellation.
func Loop(ctx context.Context, interval time.Duration, step Step, opts ...Option) error {
	if interval <= 0 {
		return ErrInvalidInterval
	}
	if step == nil {
		return ErrNilStep
	}
	o := loopOptions{name: "producer", logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	log := o.logger.With(logger.Component(o.name))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	failures := 0
	for {
		if err := guard(ctx, step); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			failures++
			log.WarnContext(ctx, "step failed", logger.Error(err), slog.Int("consecutive_failures", failures))
			if o.maxFailures > 0 && failures >= o.maxFailures {
				return errors.Join(ErrTooManyFailures, err)
			}
		} else {
			failures = 0
		}

		select {
		case <-ctx.Done():
			log.InfoContext(ctx, "producer stopped")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func guard(ctx context.Context, step Step) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Join(ErrStepPanicked, fmt.Errorf("%v", r))
		}
	}()
	return step(ctx)
}
