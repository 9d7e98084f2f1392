package sink

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/dmitrymomot/beacon/pkg/logger"
	"github.com/dmitrymomot/beacon/pkg/lookup"
	"github.com/dmitrymomot/beacon/pkg/notification"
	"github.com/dmitrymomot/beacon/pkg/transport"
)

// Sink receives notifications and dispatches them to callbacks by origin.
type Sink struct {
	id     uuid.UUID
	opts   options
	logger *slog.Logger

	mu        sync.RWMutex
	callbacks map[string]Callback
	sources   map[string]transport.SourceHandle
	resolved  *lookup.Client
	directory transport.DirectoryHandle

	listing *listing
}

var _ transport.SinkHandle = (*Sink)(nil)

// New creates a sink. Without WithID a random id is minted.
func New(opts ...Option) *Sink {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.id == uuid.Nil {
		o.id = uuid.New()
	}

	return &Sink{
		id:        o.id,
		opts:      o,
		logger:    o.logger.With(logger.SubscriberID(o.id)),
		callbacks: make(map[string]Callback),
		sources:   make(map[string]transport.SourceHandle),
		listing:   newListing(),
	}
}

// ID returns the subscriber id used for every registration.
func (s *Sink) ID() uuid.UUID { return s.id }

// ConnectRegistry resolves the registry at host:port without touching the Directory.
// It is enough for ConnectSource by exact name.
func (s *Sink) ConnectRegistry(ctx context.Context, host string, port int) error {
	_, err := s.resolve(ctx, host, port)
	return err
}

// ConnectDirectory resolves the registry, registers with the Directory and
// starts tracking its source listing.
func (s *Sink) ConnectDirectory(ctx context.Context, host string, port int) error {
	c, err := s.resolve(ctx, host, port)
	if err != nil {
		return err
	}

	dir, err := c.Directory(ctx)
	if err != nil {
		return err
	}

	s.setCallback(lookup.DirectoryName, s.onListing)
	if _, err := dir.Register(ctx, s.id, s); err != nil {
		s.dropCallback(lookup.DirectoryName)
		return connectFailure(lookup.DirectoryName, err)
	}

	s.mu.Lock()
	s.directory = dir
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "connected to directory", logger.Address(c.Target()))
	return nil
}

// ConnectSource registers with the source bound under name and routes its
// notifications to cb. Connecting to an already connected source replaces cb.
func (s *Sink) ConnectSource(ctx context.Context, name string, cb Callback) error {
	if name == "" {
		return ErrEmptySourceName
	}
	if cb == nil {
		return ErrNilCallback
	}

	s.mu.RLock()
	c := s.resolved
	s.mu.RUnlock()
	if c == nil {
		return &transport.ConnectFailure{Target: name, Err: ErrNotResolved}
	}

	src, err := c.Source(ctx, name)
	if err != nil {
		return err
	}

	s.setCallback(name, cb)
	if _, err := src.Register(ctx, s.id, s); err != nil {
		s.dropCallback(name)
		return connectFailure(name, err)
	}

	s.mu.Lock()
	s.sources[name] = src
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "connected to source", logger.Source(name))
	return nil
}

// DisconnectSource unregisters from name and forgets its callback.
// Unknown names are ignored.
func (s *Sink) DisconnectSource(ctx context.Context, name string) error {
	s.mu.Lock()
	src, ok := s.sources[name]
	delete(s.sources, name)
	delete(s.callbacks, name)
	s.mu.Unlock()

	if !ok {
		return nil
	}
	if err := src.Unregister(ctx, s.id); err != nil && !errors.Is(err, transport.ErrNotRegistered) {
		s.logger.WarnContext(ctx, "failed to unregister from source", logger.Source(name), logger.Error(err))
		return fmt.Errorf("disconnect %s: %w", name, err)
	}
	s.logger.InfoContext(ctx, "disconnected from source", logger.Source(name))
	return nil
}

// DisconnectAll disconnects from every connected source.
func (s *Sink) DisconnectAll(ctx context.Context) error {
	var errs []error
	for _, name := range s.ConnectedSources() {
		if err := s.DisconnectSource(ctx, name); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// DisconnectDirectory unregisters from the Directory. The last listing is kept.
func (s *Sink) DisconnectDirectory(ctx context.Context) error {
	s.mu.Lock()
	dir := s.directory
	s.directory = nil
	delete(s.callbacks, lookup.DirectoryName)
	s.mu.Unlock()

	if dir == nil {
		return nil
	}
	if err := dir.Unregister(ctx, s.id); err != nil && !errors.Is(err, transport.ErrNotRegistered) {
		s.logger.WarnContext(ctx, "failed to unregister from directory", logger.Error(err))
		return fmt.Errorf("disconnect directory: %w", err)
	}
	s.logger.InfoContext(ctx, "disconnected from directory")
	return nil
}

// Notify routes env to the callback registered for its origin.
// It never fails: missing callbacks, callback errors and panics are logged.
func (s *Sink) Notify(ctx context.Context, env notification.Envelope) error {
	s.mu.RLock()
	cb, ok := s.callbacks[env.Origin()]
	s.mu.RUnlock()

	if !ok {
		cb = s.opts.defaultCallback
	}
	if cb == nil {
		s.logger.DebugContext(ctx, "no callback for origin, dropped", logger.Origin(env.Origin()))
		return nil
	}

	if err := invoke(ctx, cb, env); err != nil {
		s.logger.WarnContext(ctx, "callback failed",
			logger.Origin(env.Origin()),
			logger.Error(err))
	}
	return nil
}

// Sources returns the latest listing pushed by the Directory.
func (s *Sink) Sources() []lookup.Entry {
	return s.listing.get()
}

// Watch streams directory listings until ctx ends or the sink is closed.
// The current listing, if any, is delivered first.
func (s *Sink) Watch(ctx context.Context) <-chan []lookup.Entry {
	return s.listing.watch(ctx)
}

// IsConnectedDirectory reports whether the sink is registered with the Directory.
func (s *Sink) IsConnectedDirectory() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.directory != nil
}

// IsConnectedSource reports whether the sink is registered with name.
func (s *Sink) IsConnectedSource(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.sources[name]
	return ok
}

// ConnectedSources returns the names of connected sources in order.
func (s *Sink) ConnectedSources() []string {
	s.mu.RLock()
	names := make([]string, 0, len(s.sources))
	for name := range s.sources {
		names = append(names, name)
	}
	s.mu.RUnlock()
	slices.Sort(names)
	return names
}

// Close disconnects from every source and the Directory and ends all watches.
func (s *Sink) Close(ctx context.Context) error {
	err := errors.Join(s.DisconnectAll(ctx), s.DisconnectDirectory(ctx))
	s.listing.close()
	return err
}

func (s *Sink) resolve(ctx context.Context, host string, port int) (*lookup.Client, error) {
	if s.opts.transport == nil {
		return nil, ErrNoTransport
	}
	c, err := lookup.Resolve(ctx, s.opts.transport, host, port, lookup.WithConnectTimeout(s.opts.connectTimeout))
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.resolved = c
	s.mu.Unlock()
	return c, nil
}

func (s *Sink) onListing(ctx context.Context, env notification.Envelope) error {
	n, err := notification.Decode[[]lookup.Entry](env)
	if err != nil {
		return err
	}
	entries := n.Payload()
	if entries == nil {
		entries = []lookup.Entry{}
	}
	s.listing.set(entries)
	s.logger.InfoContext(ctx, "directory listing updated", slog.Any("sources", lookup.EntryNames(entries)))
	return nil
}

func (s *Sink) setCallback(name string, cb Callback) {
	s.mu.Lock()
	s.callbacks[name] = cb
	s.mu.Unlock()
}

func (s *Sink) dropCallback(name string) {
	s.mu.Lock()
	delete(s.callbacks, name)
	s.mu.Unlock()
}

func invoke(ctx context.Context, cb Callback, env notification.Envelope) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Join(ErrCallbackPanicked, fmt.Errorf("%v", r))
		}
	}()
	return cb(ctx, env)
}

func connectFailure(target string, err error) error {
	var cf *transport.ConnectFailure
	if errors.As(err, &cf) {
		return err
	}
	if !errors.Is(err, transport.ErrUnreachable) && !errors.Is(err, transport.ErrNotFound) {
		err = errors.Join(transport.ErrRejected, err)
	}
	return &transport.ConnectFailure{Target: target, Err: err}
}
