package source_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/beacon/pkg/logger"
	"github.com/dmitrymomot/beacon/pkg/lookup"
	"github.com/dmitrymomot/beacon/pkg/registry"
	"github.com/dmitrymomot/beacon/pkg/source"
	"github.com/dmitrymomot/beacon/pkg/transport"
	"github.com/dmitrymomot/beacon/pkg/transport/memnet"
)

// fakeDirectory records source registrations.
type fakeDirectory struct {
	mu      sync.Mutex
	sources map[string]transport.SourceHandle
	reject  error
}

func (d *fakeDirectory) Register(context.Context, uuid.UUID, transport.SinkHandle) (uuid.UUID, error) {
	return uuid.New(), nil
}

func (d *fakeDirectory) Unregister(context.Context, uuid.UUID) error { return nil }

func (d *fakeDirectory) RegisterSource(_ context.Context, name string, src transport.SourceHandle) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.reject != nil {
		return d.reject
	}
	d.sources[name] = src
	return nil
}

func (d *fakeDirectory) UnregisterSource(_ context.Context, name string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.sources, name)
	return nil
}

func (d *fakeDirectory) has(name string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.sources[name]
	return ok
}

func newBindSource(t *testing.T, n *memnet.Network) *source.Source[string] {
	t.Helper()
	src, err := source.New[string]("Clock", source.WithTransport(n), source.WithLogger(logger.Nop()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = src.Close(context.Background()) })
	return src
}

func serveDirectory(t *testing.T, n *memnet.Network, reg registry.Registry, dir *fakeDirectory) {
	t.Helper()
	addr, err := n.Export(dir)
	require.NoError(t, err)
	require.NoError(t, reg.Bind(context.Background(), lookup.DirectoryName, addr))
}

func TestBind(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("via directory", func(t *testing.T) {
		t.Parallel()
		n := memnet.New()
		reg := registry.NewMemory()
		n.ServeRegistry("localhost", 1099, reg)
		dir := &fakeDirectory{sources: map[string]transport.SourceHandle{}}
		serveDirectory(t, n, reg, dir)

		src := newBindSource(t, n)
		require.NoError(t, src.Bind(ctx, "localhost", 1099))
		assert.Equal(t, source.BoundViaDirectory, src.State())
		assert.True(t, dir.has("Clock"))

		_, err := reg.Lookup(ctx, "Clock")
		assert.ErrorIs(t, err, registry.ErrNotBound, "directory owns the binding, not the source")

		assert.ErrorIs(t, src.Bind(ctx, "localhost", 1099), source.ErrAlreadyBound)

		require.NoError(t, src.Close(ctx))
		assert.False(t, dir.has("Clock"))
	})

	t.Run("direct fallback on local host", func(t *testing.T) {
		t.Parallel()
		n := memnet.New()
		reg := registry.NewMemory()
		n.ServeRegistry("127.0.0.1", 1099, reg)

		src := newBindSource(t, n)
		require.NoError(t, src.Bind(ctx, "127.0.0.1", 1099))
		assert.Equal(t, source.BoundDirect, src.State())

		addr, err := reg.Lookup(ctx, "Clock")
		require.NoError(t, err)
		self, err := n.AddressOf(src)
		require.NoError(t, err)
		assert.Equal(t, self, addr)

		require.NoError(t, src.Unbind(ctx))
		assert.Equal(t, source.Unbound, src.State())
		_, err = reg.Lookup(ctx, "Clock")
		assert.ErrorIs(t, err, registry.ErrNotBound)
	})

	t.Run("direct fallback when directory refuses", func(t *testing.T) {
		t.Parallel()
		n := memnet.New()
		reg := registry.NewMemory()
		n.ServeRegistry("localhost", 1099, reg)
		dir := &fakeDirectory{sources: map[string]transport.SourceHandle{}, reject: errors.New("full")}
		serveDirectory(t, n, reg, dir)

		src := newBindSource(t, n)
		require.NoError(t, src.Bind(ctx, "localhost", 1099))
		assert.Equal(t, source.BoundDirect, src.State())
	})

	t.Run("remote host without directory", func(t *testing.T) {
		t.Parallel()
		n := memnet.New()
		reg := registry.NewMemory()
		n.ServeRegistry("10.0.0.5", 1099, reg)

		src := newBindSource(t, n)
		err := src.Bind(ctx, "10.0.0.5", 1099)
		var cf *transport.ConnectFailure
		require.ErrorAs(t, err, &cf)
		assert.True(t, cf.NotFound())
		assert.Equal(t, source.Unbound, src.State())

		names, err := reg.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, names, "no direct bind against a remote registry")
	})

	t.Run("remote directory rejects", func(t *testing.T) {
		t.Parallel()
		n := memnet.New()
		reg := registry.NewMemory()
		n.ServeRegistry("10.0.0.6", 1099, reg)
		dir := &fakeDirectory{sources: map[string]transport.SourceHandle{}, reject: errors.New("full")}
		serveDirectory(t, n, reg, dir)

		src := newBindSource(t, n)
		err := src.Bind(ctx, "10.0.0.6", 1099)
		require.Error(t, err)
		assert.ErrorIs(t, err, transport.ErrRejected)
		assert.Contains(t, err.Error(), "rejected")
	})

	t.Run("registry unreachable", func(t *testing.T) {
		t.Parallel()
		src := newBindSource(t, memnet.New())
		err := src.Bind(ctx, "localhost", 1099)
		assert.True(t, transport.IsConnectFailure(err))
		assert.ErrorIs(t, err, transport.ErrUnreachable)
	})

	t.Run("no transport", func(t *testing.T) {
		t.Parallel()
		src, err := source.New[string]("Clock", source.WithLogger(logger.Nop()))
		require.NoError(t, err)
		t.Cleanup(func() { _ = src.Close(ctx) })
		assert.ErrorIs(t, src.Bind(ctx, "localhost", 1099), source.ErrNoTransport)
	})
}
