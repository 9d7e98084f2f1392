// Package redis connects beacon nodes to a Redis server.
//
// It is used by the Redis-backed name registry so that several directory
// processes, or a directory and its standby, can share one set of bindings.
//
// Connect parses a redis:// URL, then pings the server with exponential
// backoff until it answers, the attempt budget is spent or the connect
// timeout elapses:
//
//	client, err := redis.Connect(ctx, redis.Config{
//	    ConnectionURL:  "redis://localhost:6379/0",
//	    RetryAttempts:  3,
//	    RetryInterval:  time.Second,
//	    ConnectTimeout: 10 * time.Second,
//	})
//
// Healthcheck returns a probe suitable for the HTTP node's health endpoint.
package redis
