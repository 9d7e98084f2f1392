package httprpc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/dmitrymomot/beacon/pkg/httpserver"
	"github.com/dmitrymomot/beacon/pkg/logger"
	"github.com/dmitrymomot/beacon/pkg/registry"
	"github.com/dmitrymomot/beacon/pkg/transport"
)

const (
	kindSources     = "sources"
	kindSinks       = "sinks"
	kindDirectories = "directories"
)

// Node serves local objects over HTTP and dials remote ones.
type Node struct {
	opts   options
	logger *slog.Logger
	server *httpserver.Server
	stubs  *stubCache

	mu        sync.RWMutex
	baseURL   string
	registry  registry.Registry
	objects   map[string]any // "kind/id" -> object
	addresses map[any]string // object -> "kind/id"
}

var _ transport.Transport = (*Node)(nil)

// NewNode creates a node. It does not listen until Listen or Run.
func NewNode(opts ...Option) *Node {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	serverOpts := append([]httpserver.Option{httpserver.WithLogger(o.logger)}, o.serverOpts...)

	return &Node{
		opts:      o,
		logger:    o.logger.With(logger.Component("httprpc")),
		server:    httpserver.NewFromConfig(o.server, serverOpts...),
		stubs:     newStubCache(o.cacheSize),
		objects:   make(map[string]any),
		addresses: make(map[any]string),
	}
}

// Listen binds the listener and advertises the node at its address.
func (n *Node) Listen() (string, error) {
	addr, err := n.server.Listen()
	if err != nil {
		return "", err
	}
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "", err
	}
	if n.opts.advertiseHost != "" {
		host = n.opts.advertiseHost
	} else if ip := net.ParseIP(host); host == "" || (ip != nil && ip.IsUnspecified()) {
		host = "localhost"
	}

	n.mu.Lock()
	if n.baseURL == "" {
		n.baseURL = "http://" + net.JoinHostPort(host, port)
	}
	n.mu.Unlock()
	return addr, nil
}

// Advertise sets the base URL exported addresses are built from. It is
// needed only when the handler is served by something other than Run.
func (n *Node) Advertise(baseURL string) {
	n.mu.Lock()
	n.baseURL = strings.TrimRight(baseURL, "/")
	n.mu.Unlock()
}

// BaseURL returns the advertised base URL, empty before Listen or Advertise.
func (n *Node) BaseURL() string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.baseURL
}

// Run serves the node until ctx is cancelled.
func (n *Node) Run(ctx context.Context) error {
	if _, err := n.Listen(); err != nil {
		return err
	}
	return n.server.Run(ctx, n.Handler())
}

// Shutdown stops serving. Exported objects stay exported.
func (n *Node) Shutdown(ctx context.Context) error {
	return n.server.Shutdown(ctx)
}

// ServeRegistry exposes reg under /registry.
func (n *Node) ServeRegistry(reg registry.Registry) {
	n.mu.Lock()
	n.registry = reg
	n.mu.Unlock()
}

// Export makes obj reachable and returns its address. Directories, sources
// and sinks are accepted; stubs return the address they point at.
func (n *Node) Export(obj any) (string, error) {
	if obj == nil {
		return "", transport.ErrNotExported
	}
	if a, ok := obj.(transport.Addresser); ok {
		return a.Address(), nil
	}

	kind, ok := kindOf(obj)
	if !ok {
		return "", errors.Join(transport.ErrNotExported, fmt.Errorf("%T is not a sink, source or directory", obj))
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	if n.baseURL == "" {
		return "", ErrNotAdvertised
	}
	if key, ok := n.addresses[obj]; ok {
		return n.baseURL + "/" + key, nil
	}

	key := kind + "/" + url.PathEscape(objectID(obj))
	if _, taken := n.objects[key]; taken {
		key = kind + "/" + uuid.NewString()
	}
	n.objects[key] = obj
	n.addresses[obj] = key
	n.logger.Debug("object exported", logger.Address(n.baseURL+"/"+key))
	return n.baseURL + "/" + key, nil
}

// Unexport stops serving the object at addr. Later calls to it answer 410.
func (n *Node) Unexport(addr string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	key := strings.TrimPrefix(strings.TrimPrefix(addr, n.baseURL), "/")
	if obj, ok := n.objects[key]; ok {
		delete(n.addresses, obj)
		delete(n.objects, key)
	}
}

// AddressOf exports handle on first use.
func (n *Node) AddressOf(handle any) (string, error) {
	return n.Export(handle)
}

// DialRegistry returns a client for the registry served at host:port.
func (n *Node) DialRegistry(ctx context.Context, host string, port int) (registry.Registry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	base := "http://" + net.JoinHostPort(host, strconv.Itoa(port))
	stub := n.stubs.getOrCreate(base+"/registry", func() any {
		return &registryClient{node: n, base: base + "/registry"}
	})
	return stub.(*registryClient), nil
}

func (n *Node) DialSource(addr string) (transport.SourceHandle, error) {
	kind, err := addressKind(addr)
	if err != nil {
		return nil, err
	}
	switch kind {
	case kindSources:
		return n.stubs.getOrCreate(addr, func() any { return &sourceClient{node: n, addr: addr} }).(*sourceClient), nil
	case kindDirectories:
		return n.DialDirectory(addr)
	}
	return nil, wrongKind(addr, "source")
}

func (n *Node) DialSink(addr string) (transport.SinkHandle, error) {
	kind, err := addressKind(addr)
	if err != nil {
		return nil, err
	}
	if kind != kindSinks {
		return nil, wrongKind(addr, "sink")
	}
	return n.stubs.getOrCreate(addr, func() any { return &sinkClient{node: n, addr: addr} }).(*sinkClient), nil
}

func (n *Node) DialDirectory(addr string) (transport.DirectoryHandle, error) {
	kind, err := addressKind(addr)
	if err != nil {
		return nil, err
	}
	if kind != kindDirectories {
		return nil, wrongKind(addr, "directory")
	}
	return n.stubs.getOrCreate(addr, func() any {
		return &directoryClient{sourceClient{node: n, addr: addr}}
	}).(*directoryClient), nil
}

func (n *Node) object(kind, id string) (any, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	obj, ok := n.objects[kind+"/"+url.PathEscape(id)]
	return obj, ok
}

func (n *Node) servedRegistry() registry.Registry {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.registry
}

func kindOf(obj any) (string, bool) {
	switch obj.(type) {
	case transport.DirectoryHandle:
		return kindDirectories, true
	case transport.SourceHandle:
		return kindSources, true
	case transport.SinkHandle:
		return kindSinks, true
	}
	return "", false
}

// objectID prefers a sink's id or a source's name over a random one.
func objectID(obj any) string {
	switch v := obj.(type) {
	case interface{ ID() uuid.UUID }:
		return v.ID().String()
	case interface{ Name() string }:
		if name := v.Name(); name != "" {
			return name
		}
	}
	return uuid.NewString()
}

// addressKind returns the object kind encoded in an http address.
func addressKind(addr string) (string, error) {
	u, err := url.Parse(addr)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", errors.Join(ErrBadAddress, fmt.Errorf("%q", addr))
	}
	parts := strings.Split(strings.Trim(u.EscapedPath(), "/"), "/")
	if len(parts) != 2 || parts[1] == "" {
		return "", errors.Join(ErrBadAddress, fmt.Errorf("%q", addr))
	}
	return parts[0], nil
}

func wrongKind(addr, want string) error {
	return errors.Join(transport.ErrWrongKind, fmt.Errorf("%s is not a %s", addr, want))
}
