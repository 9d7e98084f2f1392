package httprpc

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/dmitrymomot/beacon/pkg/httpserver"
)

// DefaultStubCacheSize bounds the number of dialed handles kept per node.
const DefaultStubCacheSize = 256

// Option configures a Node.
type Option func(*options)

type options struct {
	server        httpserver.Config
	advertiseHost string
	client        *http.Client
	logger        *slog.Logger
	cacheSize     int
	checks        []func(context.Context) error
	serverOpts    []httpserver.Option
}

func defaultOptions() options {
	return options{
		server:    httpserver.Config{Addr: ":1099"},
		client:    &http.Client{Timeout: 10 * time.Second},
		logger:    slog.Default(),
		cacheSize: DefaultStubCacheSize,
	}
}

// WithAddr sets the listen address, ":1099" by default.
func WithAddr(addr string) Option {
	return func(o *options) {
		if addr != "" {
			o.server.Addr = addr
		}
	}
}

// WithAdvertiseHost sets the host other processes use to reach this node.
// By default the listener's host is used, with wildcard addresses replaced by localhost.
func WithAdvertiseHost(host string) Option {
	return func(o *options) { o.advertiseHost = host }
}

func WithHTTPClient(c *http.Client) Option {
	return func(o *options) {
		if c != nil {
			o.client = c
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

func WithStubCacheSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.cacheSize = n
		}
	}
}

// WithHealthChecks adds readiness checks to /healthz, e.g. a Redis ping.
func WithHealthChecks(checks ...func(context.Context) error) Option {
	return func(o *options) { o.checks = append(o.checks, checks...) }
}

// WithServerConfig applies timeouts and the address from cfg. An empty
// cfg.Addr keeps the current address.
func WithServerConfig(cfg httpserver.Config) Option {
	return func(o *options) {
		if cfg.Addr == "" {
			cfg.Addr = o.server.Addr
		}
		o.server = cfg
	}
}

// WithServerOptions passes options to the underlying HTTP server.
func WithServerOptions(opts ...httpserver.Option) Option {
	return func(o *options) { o.serverOpts = append(o.serverOpts, opts...) }
}
