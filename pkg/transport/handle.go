package transport

import (
	"context"

	"github.com/google/uuid"

	"github.com/dmitrymomot/beacon/pkg/notification"
	"github.com/dmitrymomot/beacon/pkg/registry"
)

// SinkHandle receives notifications from sources.
type SinkHandle interface {
	Notify(ctx context.Context, env notification.Envelope) error
}

// SourceHandle accepts sink registrations.
type SourceHandle interface {
	// Register subscribes sink under id. uuid.Nil asks the source to mint a
	// fresh id. The id in effect is returned.
	Register(ctx context.Context, id uuid.UUID, sink SinkHandle) (uuid.UUID, error)
	// Unregister removes the subscriber. Unknown ids yield ErrNotRegistered.
	Unregister(ctx context.Context, id uuid.UUID) error
}

// DirectoryHandle is a source that also tracks which sources are running.
type DirectoryHandle interface {
	SourceHandle
	RegisterSource(ctx context.Context, name string, src SourceHandle) error
	UnregisterSource(ctx context.Context, name string) error
}

// Addresser is implemented by stubs that know the address of their remote object.
type Addresser interface {
	Address() string
}

// Transport dials remote objects and names local ones.
type Transport interface {
	// DialRegistry returns a client for the name service at host:port.
	// Dialing is lazy; the first call reveals whether it is reachable.
	DialRegistry(ctx context.Context, host string, port int) (registry.Registry, error)
	DialSource(addr string) (SourceHandle, error)
	DialSink(addr string) (SinkHandle, error)
	DialDirectory(addr string) (DirectoryHandle, error)
	// AddressOf returns the address other processes can dial handle at.
	AddressOf(handle any) (string, error)
}
