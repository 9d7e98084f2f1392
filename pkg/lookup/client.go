package lookup

import (
	"context"
	"errors"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrymomot/beacon/pkg/registry"
	"github.com/dmitrymomot/beacon/pkg/transport"
)

const (
	// DirectoryName is the name the Directory binds under.
	DirectoryName = "Directory"
	// DefaultPort is the registry port used when none is configured.
	DefaultPort = 1099
	// DefaultConnectTimeout bounds the registry probe.
	DefaultConnectTimeout = 500 * time.Millisecond
)

// Option configures Resolve.
type Option func(*Client)

// WithConnectTimeout bounds the registry probe. Non-positive values are ignored.
func WithConnectTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// Client is a resolved registry.
type Client struct {
	tr       transport.Transport
	host     string
	port     int
	timeout  time.Duration
	registry registry.Registry
}

// Resolve dials the registry at host:port and verifies it answers.
func Resolve(ctx context.Context, tr transport.Transport, host string, port int, opts ...Option) (*Client, error) {
	if host == "" {
		host = "localhost"
	}
	if port <= 0 {
		port = DefaultPort
	}
	c := &Client{tr: tr, host: host, port: port, timeout: DefaultConnectTimeout}
	for _, opt := range opts {
		opt(c)
	}

	reg, err := tr.DialRegistry(ctx, host, port)
	if err != nil {
		return nil, &transport.ConnectFailure{Target: c.Target(), Err: unreachable(err)}
	}

	probeCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	if _, err := reg.List(probeCtx); err != nil {
		return nil, &transport.ConnectFailure{Target: c.Target(), Err: unreachable(err)}
	}

	c.registry = reg
	return c, nil
}

// Registry returns the resolved name service.
func (c *Client) Registry() registry.Registry { return c.registry }

// Transport returns the transport the client dials with.
func (c *Client) Transport() transport.Transport { return c.tr }

func (c *Client) Host() string { return c.host }
func (c *Client) Port() int    { return c.port }

// Target returns host:port of the registry.
func (c *Client) Target() string {
	return net.JoinHostPort(c.host, strconv.Itoa(c.port))
}

// IsLocal reports whether the registry runs on this machine.
func (c *Client) IsLocal() bool { return IsLocalHost(c.host) }

// Directory resolves the running Directory.
func (c *Client) Directory(ctx context.Context) (transport.DirectoryHandle, error) {
	addr, err := c.lookup(ctx, DirectoryName)
	if err != nil {
		return nil, err
	}
	dir, err := c.tr.DialDirectory(addr)
	if err != nil {
		return nil, &transport.ConnectFailure{Target: DirectoryName, Err: err}
	}
	return dir, nil
}

// Source resolves the source bound under name.
func (c *Client) Source(ctx context.Context, name string) (transport.SourceHandle, error) {
	addr, err := c.lookup(ctx, name)
	if err != nil {
		return nil, err
	}
	src, err := c.tr.DialSource(addr)
	if err != nil {
		return nil, &transport.ConnectFailure{Target: name, Err: err}
	}
	return src, nil
}

// Names lists every name bound in the registry.
func (c *Client) Names(ctx context.Context) ([]string, error) {
	names, err := c.registry.List(ctx)
	if err != nil {
		return nil, &transport.ConnectFailure{Target: c.Target(), Err: unreachable(err)}
	}
	return names, nil
}

func (c *Client) lookup(ctx context.Context, name string) (string, error) {
	addr, err := c.registry.Lookup(ctx, name)
	switch {
	case err == nil:
		return addr, nil
	case errors.Is(err, registry.ErrNotBound):
		return "", &transport.ConnectFailure{Target: name, Err: errors.Join(transport.ErrNotFound, err)}
	default:
		return "", &transport.ConnectFailure{Target: name, Err: err}
	}
}

func unreachable(err error) error {
	if errors.Is(err, transport.ErrUnreachable) || errors.Is(err, transport.ErrRejected) {
		return err
	}
	return errors.Join(transport.ErrUnreachable, err)
}

// IsLocalHost reports whether host names this machine: "localhost" or a loopback address.
func IsLocalHost(host string) bool {
	host = strings.TrimSuffix(strings.ToLower(strings.TrimSpace(host)), ".")
	if host == "" || host == "localhost" {
		return true
	}
	if ip := net.ParseIP(strings.Trim(host, "[]")); ip != nil {
		return ip.IsLoopback()
	}
	return false
}
