package sink

import (
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/beacon/pkg/lookup"
	"github.com/dmitrymomot/beacon/pkg/transport"
)

// Option configures a Sink.
type Option func(*options)

type options struct {
	id              uuid.UUID
	transport       transport.Transport
	connectTimeout  time.Duration
	defaultCallback Callback
	logger          *slog.Logger
}

// WithID reuses a subscriber id, typically one persisted from a previous run.
func WithID(id uuid.UUID) Option {
	return func(o *options) { o.id = id }
}

func WithTransport(tr transport.Transport) Option {
	return func(o *options) { o.transport = tr }
}

// WithConnectTimeout bounds the registry probe of connect operations.
func WithConnectTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.connectTimeout = d
		}
	}
}

// WithDefaultCallback handles notifications whose origin has no callback.
// Without it they are logged at debug level and dropped.
func WithDefaultCallback(cb Callback) Option {
	return func(o *options) { o.defaultCallback = cb }
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

func defaultOptions() options {
	return options{
		connectTimeout: lookup.DefaultConnectTimeout,
		logger:         slog.Default(),
	}
}
