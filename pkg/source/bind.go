package source

import (
	"context"
	"errors"

	"github.com/dmitrymomot/beacon/pkg/logger"
	"github.com/dmitrymomot/beacon/pkg/lookup"
	"github.com/dmitrymomot/beacon/pkg/registry"
	"github.com/dmitrymomot/beacon/pkg/transport"
)

// State tells how a source is reachable.
type State int

const (
	Unbound State = iota
	// BoundViaDirectory: registered with the Directory, listed to sinks.
	BoundViaDirectory
	// BoundDirect: bound under its name in the bare registry only.
	BoundDirect
)

func (s State) String() string {
	switch s {
	case Unbound:
		return "unbound"
	case BoundViaDirectory:
		return "bound via directory"
	case BoundDirect:
		return "bound directly"
	default:
		return "unknown"
	}
}

// State reports how the source is bound.
func (s *Source[T]) State() State {
	s.bindMu.Lock()
	defer s.bindMu.Unlock()
	return s.state
}

// Bind makes the source reachable through the registry at host:port.
//
// The source registers with the Directory. If that fails and the registry is
// on this machine, the source rebinds its name directly in the registry.
// Against a remote registry the failure is returned as a
// *transport.ConnectFailure. There is no automatic re-bind when the
// Directory goes away later.
func (s *Source[T]) Bind(ctx context.Context, host string, port int) error {
	s.bindMu.Lock()
	defer s.bindMu.Unlock()

	if s.state != Unbound {
		return ErrAlreadyBound
	}
	if s.opts.transport == nil {
		return ErrNoTransport
	}

	c, err := lookup.Resolve(ctx, s.opts.transport, host, port, lookup.WithConnectTimeout(s.opts.connectTimeout))
	if err != nil {
		return err
	}
	s.resolved = c

	dirErr := s.bindViaDirectory(ctx, c)
	if dirErr == nil {
		s.state = BoundViaDirectory
		s.logger.InfoContext(ctx, "source bound via directory", logger.Address(c.Target()))
		return nil
	}

	if !c.IsLocal() {
		s.resolved = nil
		return asConnectFailure(lookup.DirectoryName, dirErr)
	}

	s.logger.WarnContext(ctx, "directory unavailable, binding directly",
		logger.Address(c.Target()),
		logger.Error(dirErr))

	addr, err := s.opts.transport.AddressOf(s)
	if err != nil {
		s.resolved = nil
		return &transport.ConnectFailure{Target: s.name, Err: err}
	}
	if err := c.Registry().Rebind(ctx, s.name, addr); err != nil {
		s.resolved = nil
		return asConnectFailure(c.Target(), err)
	}

	s.state = BoundDirect
	s.logger.InfoContext(ctx, "source bound directly", logger.Address(addr))
	return nil
}

func (s *Source[T]) bindViaDirectory(ctx context.Context, c *lookup.Client) error {
	dir, err := c.Directory(ctx)
	if err != nil {
		return err
	}
	if err := dir.RegisterSource(ctx, s.name, s); err != nil {
		return err
	}
	s.directory = dir
	return nil
}

// Unbind withdraws the source from the Directory, or removes its direct
// binding when the registry is local. Unbinding an unbound source is a no-op.
func (s *Source[T]) Unbind(ctx context.Context) error {
	s.bindMu.Lock()
	defer s.bindMu.Unlock()

	ctx, cancel := s.deadline(ctx)
	defer cancel()

	var err error
	switch s.state {
	case BoundViaDirectory:
		err = s.directory.UnregisterSource(ctx, s.name)
	case BoundDirect:
		if reg := s.registry(); reg != nil && s.resolved.IsLocal() {
			if uerr := reg.Unbind(ctx, s.name); uerr != nil && !errors.Is(uerr, registry.ErrNotBound) {
				err = uerr
			}
		}
	default:
		return nil
	}

	s.state = Unbound
	s.directory = nil
	s.resolved = nil
	if err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "source unbound")
	return nil
}

func asConnectFailure(target string, err error) error {
	var cf *transport.ConnectFailure
	if errors.As(err, &cf) {
		return err
	}
	if !errors.Is(err, transport.ErrUnreachable) && !errors.Is(err, transport.ErrNotFound) {
		err = errors.Join(transport.ErrRejected, err)
	}
	return &transport.ConnectFailure{Target: target, Err: err}
}
