package memnet

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/dmitrymomot/beacon/pkg/registry"
	"github.com/dmitrymomot/beacon/pkg/transport"
)

const scheme = "mem://"

// Network is a set of in-process objects reachable by address.
type Network struct {
	mu         sync.RWMutex
	objects    map[string]any
	addresses  map[any]string
	registries map[string]registry.Registry
	offline    map[string]bool
	seq        atomic.Uint64
}

var _ transport.Transport = (*Network)(nil)

func New() *Network {
	return &Network{
		objects:    make(map[string]any),
		addresses:  make(map[any]string),
		registries: make(map[string]registry.Registry),
		offline:    make(map[string]bool),
	}
}

// ServeRegistry makes reg reachable at host:port and returns that address.
func (n *Network) ServeRegistry(host string, port int, reg registry.Registry) string {
	addr := net.JoinHostPort(host, strconv.Itoa(port))
	n.mu.Lock()
	n.registries[addr] = reg
	n.mu.Unlock()
	return addr
}

// Export makes obj reachable and returns its address. Exporting the same
// object twice returns the same address. obj must be a comparable value,
// in practice a pointer.
func (n *Network) Export(obj any) (string, error) {
	if obj == nil {
		return "", transport.ErrNotExported
	}
	if a, ok := obj.(transport.Addresser); ok {
		return a.Address(), nil
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	if addr, ok := n.addresses[obj]; ok {
		return addr, nil
	}
	addr := scheme + strconv.FormatUint(n.seq.Add(1), 10)
	n.objects[addr] = obj
	n.addresses[obj] = addr
	return addr, nil
}

// Unexport removes the object served at addr.
func (n *Network) Unexport(addr string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if obj, ok := n.objects[addr]; ok {
		delete(n.addresses, obj)
		delete(n.objects, addr)
	}
	delete(n.registries, addr)
}

// SetOnline switches an exported object or a served registry on or off.
// Calls through stubs to an offline address fail with transport.ErrUnreachable.
func (n *Network) SetOnline(addr string, online bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if online {
		delete(n.offline, addr)
	} else {
		n.offline[addr] = true
	}
}

// AddressOf exports handle on first use, the way remote object systems do
// when a local object is passed as an argument.
func (n *Network) AddressOf(handle any) (string, error) {
	return n.Export(handle)
}

func (n *Network) DialRegistry(ctx context.Context, host string, port int) (registry.Registry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &registryStub{net: n, addr: net.JoinHostPort(host, strconv.Itoa(port))}, nil
}

func (n *Network) DialSource(addr string) (transport.SourceHandle, error) {
	if _, err := resolve[transport.SourceHandle](n, addr); err != nil && !errors.Is(err, transport.ErrUnreachable) {
		return nil, err
	}
	return &sourceStub{net: n, addr: addr}, nil
}

func (n *Network) DialSink(addr string) (transport.SinkHandle, error) {
	if _, err := resolve[transport.SinkHandle](n, addr); err != nil && !errors.Is(err, transport.ErrUnreachable) {
		return nil, err
	}
	return &sinkStub{net: n, addr: addr}, nil
}

func (n *Network) DialDirectory(addr string) (transport.DirectoryHandle, error) {
	if _, err := resolve[transport.DirectoryHandle](n, addr); err != nil && !errors.Is(err, transport.ErrUnreachable) {
		return nil, err
	}
	return &directoryStub{sourceStub{net: n, addr: addr}}, nil
}

// resolve returns the live object at addr as a T.
func resolve[T any](n *Network, addr string) (T, error) {
	var zero T
	n.mu.RLock()
	obj, ok := n.objects[addr]
	offline := n.offline[addr]
	n.mu.RUnlock()

	if !ok {
		return zero, errors.Join(transport.ErrUnreachable, fmt.Errorf("nothing exported at %s", addr))
	}
	if offline {
		return zero, errors.Join(transport.ErrUnreachable, fmt.Errorf("%s is offline", addr))
	}
	v, ok := obj.(T)
	if !ok {
		return zero, errors.Join(transport.ErrWrongKind, fmt.Errorf("%s serves %T", addr, obj))
	}
	return v, nil
}

func (n *Network) registry(addr string) (registry.Registry, error) {
	n.mu.RLock()
	reg, ok := n.registries[addr]
	offline := n.offline[addr]
	n.mu.RUnlock()
	if !ok || offline {
		return nil, errors.Join(transport.ErrUnreachable, fmt.Errorf("no registry at %s", addr))
	}
	return reg, nil
}
