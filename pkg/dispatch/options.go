package dispatch

import (
	"log/slog"
	"runtime"
	"time"
)

const (
	defaultQueueSize    = 1024
	defaultReapInterval = 5 * time.Minute
	defaultGraceWindow  = 5 * time.Second
)

// DefaultWorkers is the pool size used when WithWorkers is not given.
func DefaultWorkers() int {
	return runtime.NumCPU() * 8
}

// Option configures a Pool.
type Option func(*options)

type options struct {
	name         string
	workers      int
	queueSize    int
	reapInterval time.Duration
	graceWindow  time.Duration
	logger       *slog.Logger
}

// WithName labels the pool's log records.
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

// WithWorkers sets the number of workers. Non-positive values are ignored.
func WithWorkers(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.workers = n
		}
	}
}

// WithQueueSize sets the capacity of the task queue. Submit blocks while it is full.
func WithQueueSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.queueSize = n
		}
	}
}

// WithReapInterval sets how often finished scheduled handles are pruned.
func WithReapInterval(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.reapInterval = d
		}
	}
}

// WithGraceWindow sets the period between "still waiting" logs during Shutdown.
func WithGraceWindow(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.graceWindow = d
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}
