package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/dmitrymomot/beacon/pkg/logger"
	"github.com/dmitrymomot/beacon/pkg/redis"
	"github.com/dmitrymomot/beacon/pkg/registry"
	"github.com/dmitrymomot/beacon/pkg/source"
	"github.com/dmitrymomot/beacon/pkg/transport"
)

// openRegistry builds the configured registry backend. The returned close
// function releases it; check is nil for the memory backend.
func openRegistry(ctx context.Context, cfg registryConfig) (reg registry.Registry, check func(context.Context) error, closeFn func() error, err error) {
	switch cfg.Backend {
	case backendMemory, "":
		return registry.NewMemory(), nil, func() error { return nil }, nil
	case backendRedis:
		client, err := redis.Connect(ctx, cfg.Redis)
		if err != nil {
			return nil, nil, nil, err
		}
		return registry.NewRedis(client, registry.WithKey(cfg.RedisKey)), redis.Healthcheck(client), client.Close, nil
	}
	return nil, nil, nil, fmt.Errorf("unknown registry backend %q", cfg.Backend)
}

// bindWithRetry calls bind until it succeeds, backing off between attempts.
// Rejections are not retried.
func bindWithRetry(ctx context.Context, cfg sourceConfig, bind func(context.Context) error) error {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = cfg.BindInterval
	eb.MaxElapsedTime = 0
	attempts := max(cfg.BindAttempts, 1)
	policy := backoff.WithContext(backoff.WithMaxRetries(eb, uint64(attempts-1)), ctx)

	return backoff.RetryNotify(func() error {
		err := bind(ctx)
		if errors.Is(err, source.ErrAlreadyBound) || errors.Is(err, transport.ErrRejected) {
			return backoff.Permanent(err)
		}
		return err
	}, policy, func(err error, next time.Duration) {
		slog.Default().WarnContext(ctx, "bind failed, retrying", logger.Error(err), logger.Duration(next))
	})
}

// shutdownContext outlives the cancelled command context for the grace period.
func shutdownContext(parent context.Context, grace time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(parent), grace)
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func healthChecks(checks ...func(context.Context) error) []func(context.Context) error {
	var out []func(context.Context) error
	for _, c := range checks {
		if c != nil {
			out = append(out, c)
		}
	}
	return out
}
