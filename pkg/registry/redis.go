package registry

import (
	"context"
	"errors"
	"slices"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisKey is the hash that holds the bindings.
const DefaultRedisKey = "beacon:registry"

// Redis is a Registry stored in a single Redis hash, name → address.
type Redis struct {
	client redis.UniversalClient
	key    string
}

var _ Registry = (*Redis)(nil)

// RedisOption configures a Redis registry.
type RedisOption func(*Redis)

// WithKey overrides DefaultRedisKey, e.g. to run several fabrics on one server.
func WithKey(key string) RedisOption {
	return func(r *Redis) {
		if key != "" {
			r.key = key
		}
	}
}

func NewRedis(client redis.UniversalClient, opts ...RedisOption) *Redis {
	r := &Redis{client: client, key: DefaultRedisKey}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Redis) Lookup(ctx context.Context, name string) (string, error) {
	if name == "" {
		return "", ErrEmptyName
	}
	addr, err := r.client.HGet(ctx, r.key, name).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotBound
	}
	if err != nil {
		return "", errors.Join(ErrBackend, err)
	}
	return addr, nil
}

func (r *Redis) Bind(ctx context.Context, name, addr string) error {
	if err := validate(name, addr); err != nil {
		return err
	}
	ok, err := r.client.HSetNX(ctx, r.key, name, addr).Result()
	if err != nil {
		return errors.Join(ErrBackend, err)
	}
	if !ok {
		return ErrAlreadyBound
	}
	return nil
}

func (r *Redis) Rebind(ctx context.Context, name, addr string) error {
	if err := validate(name, addr); err != nil {
		return err
	}
	if err := r.client.HSet(ctx, r.key, name, addr).Err(); err != nil {
		return errors.Join(ErrBackend, err)
	}
	return nil
}

func (r *Redis) Unbind(ctx context.Context, name string) error {
	if name == "" {
		return ErrEmptyName
	}
	n, err := r.client.HDel(ctx, r.key, name).Result()
	if err != nil {
		return errors.Join(ErrBackend, err)
	}
	if n == 0 {
		return ErrNotBound
	}
	return nil
}

func (r *Redis) List(ctx context.Context) ([]string, error) {
	names, err := r.client.HKeys(ctx, r.key).Result()
	if err != nil {
		return nil, errors.Join(ErrBackend, err)
	}
	slices.Sort(names)
	return names, nil
}

// Healthcheck pings the backing server.
func (r *Redis) Healthcheck(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return errors.Join(ErrBackend, err)
	}
	return nil
}
