package directory

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/dmitrymomot/beacon/pkg/logger"
	"github.com/dmitrymomot/beacon/pkg/lookup"
	"github.com/dmitrymomot/beacon/pkg/notification"
	"github.com/dmitrymomot/beacon/pkg/registry"
	"github.com/dmitrymomot/beacon/pkg/source"
	"github.com/dmitrymomot/beacon/pkg/transport"
)

// Directory tracks running sources and publishes their list.
type Directory struct {
	*source.Source[[]lookup.Entry]

	reg    registry.Registry
	tr     transport.Transport
	logger *slog.Logger

	mu      sync.Mutex
	entries map[string]lookup.Entry
}

var _ transport.DirectoryHandle = (*Directory)(nil)

// New creates a Directory keeping its bindings in reg.
func New(reg registry.Registry, opts ...Option) (*Directory, error) {
	if reg == nil {
		return nil, ErrNilRegistry
	}
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.transport == nil {
		return nil, ErrNoTransport
	}

	src, err := source.New[[]lookup.Entry](lookup.DirectoryName,
		append([]source.Option{source.WithLogger(o.logger)}, o.sourceOpts...)...)
	if err != nil {
		return nil, err
	}

	return &Directory{
		Source:  src,
		reg:     reg,
		tr:      o.transport,
		logger:  o.logger.With(logger.Component("directory")),
		entries: make(map[string]lookup.Entry),
	}, nil
}

// Register subscribes sink and pushes the current list to it alone.
func (d *Directory) Register(ctx context.Context, id uuid.UUID, sink transport.SinkHandle) (uuid.UUID, error) {
	id, err := d.Source.Register(ctx, id, sink)
	if err != nil {
		return id, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	n, err := d.listing()
	if err != nil {
		return id, err
	}
	if err := d.SendTo(ctx, id, n); err != nil {
		d.logger.WarnContext(ctx, "failed to push listing to new sink", logger.SubscriberID(id), logger.Error(err))
	}
	return id, nil
}

// RegisterSource binds name to src in the registry and broadcasts the new list.
// Registering a known name replaces its handle.
func (d *Directory) RegisterSource(ctx context.Context, name string, src transport.SourceHandle) error {
	if name == "" || name == lookup.DirectoryName {
		return d.rejected(ErrInvalidName)
	}
	if src == nil {
		return d.rejected(ErrNilSource)
	}
	addr, err := d.tr.AddressOf(src)
	if err != nil {
		return d.rejected(err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.reg.Rebind(ctx, name, addr); err != nil {
		return d.rejected(err)
	}
	d.entries[name] = lookup.Entry{Name: name, Address: addr}
	d.logger.InfoContext(ctx, "source registered", logger.Source(name), logger.Address(addr))

	d.broadcast(ctx)
	return nil
}

// UnregisterSource removes name and broadcasts the new list. The registry
// binding is removed too; a missing binding is tolerated. Unknown names are ignored.
func (d *Directory) UnregisterSource(ctx context.Context, name string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.entries[name]; !ok {
		return nil
	}
	delete(d.entries, name)

	if err := d.reg.Unbind(ctx, name); err != nil && !errors.Is(err, registry.ErrNotBound) {
		d.logger.WarnContext(ctx, "failed to unbind source", logger.Source(name), logger.Error(err))
	}
	d.logger.InfoContext(ctx, "source unregistered", logger.Source(name))

	d.broadcast(ctx)
	return nil
}

// Adopt lists the registry and takes over every binding it does not know
// yet, then broadcasts once. It returns the adopted names.
func (d *Directory) Adopt(ctx context.Context) ([]string, error) {
	names, err := d.reg.List(ctx)
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	var adopted []string
	for _, name := range names {
		if name == lookup.DirectoryName {
			continue
		}
		if _, ok := d.entries[name]; ok {
			continue
		}
		addr, err := d.reg.Lookup(ctx, name)
		if err != nil {
			d.logger.WarnContext(ctx, "skipping binding", logger.Source(name), logger.Error(err))
			continue
		}
		d.entries[name] = lookup.Entry{Name: name, Address: addr}
		adopted = append(adopted, name)
	}

	if len(adopted) > 0 {
		d.logger.InfoContext(ctx, "adopted directly bound sources", slog.Any("sources", adopted))
		d.broadcast(ctx)
	}
	return adopted, nil
}

// Entries returns the committed list of sources ordered by name.
func (d *Directory) Entries() []lookup.Entry {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.snapshot()
}

// Bind publishes the Directory under lookup.DirectoryName, replacing a stale binding.
func (d *Directory) Bind(ctx context.Context) error {
	addr, err := d.tr.AddressOf(d)
	if err != nil {
		return err
	}
	if err := d.reg.Rebind(ctx, lookup.DirectoryName, addr); err != nil {
		return err
	}
	d.logger.InfoContext(ctx, "directory bound", logger.Address(addr))
	return nil
}

// Close removes the Directory binding and stops delivering listings.
// Source bindings stay in the registry so sinks can still reach them by name.
func (d *Directory) Close(ctx context.Context) error {
	if err := d.reg.Unbind(ctx, lookup.DirectoryName); err != nil && !errors.Is(err, registry.ErrNotBound) {
		d.logger.WarnContext(ctx, "failed to unbind directory", logger.Error(err))
	}
	return d.Source.Close(ctx)
}

// broadcast hands the current list to every sink. d.mu must be held.
func (d *Directory) broadcast(ctx context.Context) {
	n, err := d.listing()
	if err != nil {
		d.logger.ErrorContext(ctx, "failed to build listing", logger.Error(err))
		return
	}
	if err := d.SendNotification(ctx, n); err != nil {
		d.logger.WarnContext(ctx, "failed to broadcast listing", logger.Error(err))
	}
}

// listing builds the notification for the current list. d.mu must be held.
func (d *Directory) listing() (notification.Notification[[]lookup.Entry], error) {
	return notification.New(lookup.DirectoryName, d.snapshot())
}

func (d *Directory) snapshot() []lookup.Entry {
	entries := make([]lookup.Entry, 0, len(d.entries))
	for _, e := range d.entries {
		entries = append(entries, e)
	}
	lookup.SortEntries(entries)
	return entries
}

func (d *Directory) rejected(err error) error {
	return &transport.RegistrationFailure{Source: lookup.DirectoryName, Err: errors.Join(transport.ErrRejected, err)}
}
