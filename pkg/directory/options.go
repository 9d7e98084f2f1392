package directory

import (
	"log/slog"

	"github.com/dmitrymomot/beacon/pkg/source"
	"github.com/dmitrymomot/beacon/pkg/transport"
)

// Option configures a Directory.
type Option func(*options)

type options struct {
	transport  transport.Transport
	logger     *slog.Logger
	sourceOpts []source.Option
}

// WithTransport sets the transport used to name and dial source handles. Required.
func WithTransport(tr transport.Transport) Option {
	return func(o *options) { o.transport = tr }
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithSourceOptions configures the listing source, e.g. its pool or delivery timeout.
func WithSourceOptions(opts ...source.Option) Option {
	return func(o *options) { o.sourceOpts = append(o.sourceOpts, opts...) }
}
