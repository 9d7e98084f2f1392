package redis

import (
	"context"
	"errors"

	"github.com/cenkalti/backoff/v4"
	"github.com/redis/go-redis/v9"
)

// Connect opens a client for cfg.ConnectionURL and returns it once the server answers PING.
//
// Failed attempts are retried with exponential backoff starting at
// RetryInterval, at most RetryAttempts times in total, all within
// ConnectTimeout. It returns ErrEmptyConnectionURL, ErrFailedToParseRedisConnString
// or ErrRedisNotReady.
func Connect(ctx context.Context, cfg Config) (*redis.Client, error) {
	if cfg.ConnectionURL == "" {
		return nil, ErrEmptyConnectionURL
	}

	opts, err := redis.ParseURL(cfg.ConnectionURL)
	if err != nil {
		return nil, errors.Join(ErrFailedToParseRedisConnString, err)
	}

	if cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
	}

	attempts := max(cfg.RetryAttempts, 1)

	eb := backoff.NewExponentialBackOff()
	if cfg.RetryInterval > 0 {
		eb.InitialInterval = cfg.RetryInterval
	}
	eb.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(eb, uint64(attempts-1)), ctx)

	var client *redis.Client
	err = backoff.Retry(func() error {
		c := redis.NewClient(opts)
		if pingErr := c.Ping(ctx).Err(); pingErr != nil {
			_ = c.Close()
			return pingErr
		}
		client = c
		return nil
	}, policy)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, errors.Join(ErrRedisNotReady, ctxErr)
		}
		return nil, errors.Join(ErrRedisNotReady, err)
	}

	return client, nil
}
