package redis

import "errors"

var (
	ErrFailedToParseRedisConnString = errors.New("redis: failed to parse connection string")
	ErrRedisNotReady                = errors.New("redis: server did not become ready within the given time period")
	ErrEmptyConnectionURL           = errors.New("redis: empty connection URL")
	ErrHealthcheckFailed            = errors.New("redis: healthcheck failed")
)
