package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/beacon/pkg/redis"
	"github.com/dmitrymomot/beacon/pkg/source"
	"github.com/dmitrymomot/beacon/pkg/transport"
)

func TestOpenRegistry(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("memory", func(t *testing.T) {
		t.Parallel()
		reg, check, closeFn, err := openRegistry(ctx, registryConfig{Backend: backendMemory})
		require.NoError(t, err)
		assert.Nil(t, check)
		require.NoError(t, reg.Bind(ctx, "Clock", "mem://1"))
		assert.NoError(t, closeFn())
	})

	t.Run("redis", func(t *testing.T) {
		t.Parallel()
		mr := miniredis.RunT(t)
		reg, check, closeFn, err := openRegistry(ctx, registryConfig{
			Backend:  backendRedis,
			RedisKey: "test:registry",
			Redis:    redis.Config{ConnectionURL: "redis://" + mr.Addr(), RetryAttempts: 1},
		})
		require.NoError(t, err)
		defer closeFn()

		require.NoError(t, check(ctx))
		require.NoError(t, reg.Bind(ctx, "Clock", "http://localhost:1/sources/Clock"))
		assert.True(t, mr.Exists("test:registry"))
	})

	t.Run("unknown", func(t *testing.T) {
		t.Parallel()
		_, _, _, err := openRegistry(ctx, registryConfig{Backend: "etcd"})
		assert.ErrorContains(t, err, "unknown registry backend")
	})
}

func TestBindWithRetry(t *testing.T) {
	t.Parallel()
	cfg := sourceConfig{BindAttempts: 5, BindInterval: time.Millisecond}

	t.Run("retries until bound", func(t *testing.T) {
		t.Parallel()
		calls := 0
		err := bindWithRetry(context.Background(), cfg, func(context.Context) error {
			calls++
			if calls < 3 {
				return &transport.ConnectFailure{Target: "localhost:1099", Err: transport.ErrUnreachable}
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("gives up", func(t *testing.T) {
		t.Parallel()
		calls := 0
		err := bindWithRetry(context.Background(), cfg, func(context.Context) error {
			calls++
			return transport.ErrUnreachable
		})
		assert.ErrorIs(t, err, transport.ErrUnreachable)
		assert.Equal(t, 5, calls)
	})

	t.Run("rejections are permanent", func(t *testing.T) {
		t.Parallel()
		calls := 0
		err := bindWithRetry(context.Background(), cfg, func(context.Context) error {
			calls++
			return errors.Join(transport.ErrRejected, errors.New("closed"))
		})
		assert.ErrorIs(t, err, transport.ErrRejected)
		assert.Equal(t, 1, calls)

		calls = 0
		err = bindWithRetry(context.Background(), cfg, func(context.Context) error {
			calls++
			return source.ErrAlreadyBound
		})
		assert.ErrorIs(t, err, source.ErrAlreadyBound)
		assert.Equal(t, 1, calls)
	})
}

func TestHealthChecks(t *testing.T) {
	t.Parallel()
	ok := func(context.Context) error { return nil }
	assert.Empty(t, healthChecks(nil))
	assert.Len(t, healthChecks(nil, ok), 1)
}

func TestIgnoreCanceled(t *testing.T) {
	t.Parallel()
	assert.NoError(t, ignoreCanceled(context.Canceled))
	assert.NoError(t, ignoreCanceled(nil))
	assert.ErrorIs(t, ignoreCanceled(context.DeadlineExceeded), context.DeadlineExceeded)
}

func TestRegistryCommandRejectsUnknownBackend(t *testing.T) {
	err := newApp().RunContext(context.Background(), []string{
		"beacon", "--log-level", "error",
		"registry", "--addr", "127.0.0.1:0", "--backend", "etcd",
	})
	assert.ErrorContains(t, err, "unknown registry backend")
}

func TestDirectoryCommandStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- newApp().RunContext(ctx, []string{
			"beacon", "--log-level", "error",
			"directory", "--addr", "127.0.0.1:0",
		})
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("directory command did not stop")
	}
}
