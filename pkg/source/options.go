package source

import (
	"log/slog"
	"time"

	"github.com/dmitrymomot/beacon/pkg/dispatch"
	"github.com/dmitrymomot/beacon/pkg/lookup"
	"github.com/dmitrymomot/beacon/pkg/transport"
)

const defaultDeliveryTimeout = 2 * time.Second

// Option configures a Source.
type Option func(*options)

type options struct {
	pool            *dispatch.Pool
	transport       transport.Transport
	deliveryTimeout time.Duration
	retryInterval   time.Duration
	connectTimeout  time.Duration
	logger          *slog.Logger
}

// WithPool shares pool with other components. The source will not shut it down.
// Without it the source owns a private pool.
func WithPool(pool *dispatch.Pool) Option {
	return func(o *options) { o.pool = pool }
}

// WithTransport sets the transport used by Bind.
func WithTransport(tr transport.Transport) Option {
	return func(o *options) { o.transport = tr }
}

// WithDeliveryTimeout bounds a single Notify call.
func WithDeliveryTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.deliveryTimeout = d
		}
	}
}

// WithRetryInterval enables periodic flush attempts for subscribers with a
// non-empty retry queue. Zero, the default, waits for the next send or a
// re-registration.
func WithRetryInterval(d time.Duration) Option {
	return func(o *options) {
		if d >= 0 {
			o.retryInterval = d
		}
	}
}

// WithConnectTimeout bounds the registry probe made by Bind.
func WithConnectTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.connectTimeout = d
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

func defaultOptions() options {
	return options{
		deliveryTimeout: defaultDeliveryTimeout,
		connectTimeout:  lookup.DefaultConnectTimeout,
		logger:          slog.Default(),
	}
}
