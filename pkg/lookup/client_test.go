package lookup_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/beacon/pkg/lookup"
	"github.com/dmitrymomot/beacon/pkg/registry"
	"github.com/dmitrymomot/beacon/pkg/transport"
	"github.com/dmitrymomot/beacon/pkg/transport/memnet"
)

func TestResolve(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("resolves directory and sources", func(t *testing.T) {
		t.Parallel()
		n := memnet.New()
		reg := registry.NewMemory()
		n.ServeRegistry("localhost", 1099, reg)

		c, err := lookup.Resolve(ctx, n, "localhost", 1099)
		require.NoError(t, err)
		assert.True(t, c.IsLocal())
		assert.Equal(t, "localhost:1099", c.Target())

		_, err = c.Directory(ctx)
		require.Error(t, err)
		var cf *transport.ConnectFailure
		require.ErrorAs(t, err, &cf)
		assert.True(t, cf.NotFound())
		assert.Equal(t, "Directory is not running", err.Error())

		require.NoError(t, reg.Bind(ctx, "Clock", "mem://42"))
		src, err := c.Source(ctx, "Clock")
		require.NoError(t, err)
		assert.Equal(t, "mem://42", src.(transport.Addresser).Address())

		names, err := c.Names(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"Clock"}, names)
	})

	t.Run("defaults host and port", func(t *testing.T) {
		t.Parallel()
		n := memnet.New()
		n.ServeRegistry("localhost", lookup.DefaultPort, registry.NewMemory())

		c, err := lookup.Resolve(ctx, n, "", 0)
		require.NoError(t, err)
		assert.Equal(t, "localhost", c.Host())
		assert.Equal(t, lookup.DefaultPort, c.Port())
	})

	t.Run("absent registry fails fast", func(t *testing.T) {
		t.Parallel()
		n := memnet.New()

		_, err := lookup.Resolve(ctx, n, "10.1.2.3", 1099)
		require.Error(t, err)
		assert.True(t, transport.IsConnectFailure(err))
		assert.ErrorIs(t, err, transport.ErrUnreachable)
		assert.False(t, transport.IsNotFound(err))
	})

	t.Run("probe bounded by connect timeout", func(t *testing.T) {
		t.Parallel()
		tr := &mockTransport{}
		tr.On("DialRegistry", mock.Anything, "slowhost", 1099).Return(slowRegistry{Memory: registry.NewMemory()}, nil)

		start := time.Now()
		_, err := lookup.Resolve(ctx, tr, "slowhost", 1099, lookup.WithConnectTimeout(20*time.Millisecond))
		require.Error(t, err)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Less(t, time.Since(start), time.Second)
		tr.AssertExpectations(t)
	})

	t.Run("dial error", func(t *testing.T) {
		t.Parallel()
		tr := &mockTransport{}
		tr.On("DialRegistry", mock.Anything, "badhost", 1099).Return(nil, errors.New("no route"))

		_, err := lookup.Resolve(ctx, tr, "badhost", 1099)
		assert.ErrorIs(t, err, transport.ErrUnreachable)
	})
}

func TestIsLocalHost(t *testing.T) {
	t.Parallel()

	for host, want := range map[string]bool{
		"localhost":    true,
		"LOCALHOST":    true,
		"":             true,
		"127.0.0.1":    true,
		"127.0.1.1":    true,
		"::1":          true,
		"[::1]":        true,
		"10.0.0.1":     false,
		"example.com":  false,
		"192.168.0.10": false,
	} {
		assert.Equal(t, want, lookup.IsLocalHost(host), host)
	}
}

type slowRegistry struct {
	*registry.Memory
}

func (slowRegistry) List(ctx context.Context) ([]string, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

type mockTransport struct {
	mock.Mock
}

func (m *mockTransport) DialRegistry(ctx context.Context, host string, port int) (registry.Registry, error) {
	args := m.Called(ctx, host, port)
	if r, ok := args.Get(0).(registry.Registry); ok {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockTransport) DialSource(addr string) (transport.SourceHandle, error) {
	return nil, transport.ErrWrongKind
}

func (m *mockTransport) DialSink(addr string) (transport.SinkHandle, error) {
	return nil, transport.ErrWrongKind
}

func (m *mockTransport) DialDirectory(addr string) (transport.DirectoryHandle, error) {
	return nil, transport.ErrWrongKind
}

func (m *mockTransport) AddressOf(any) (string, error) {
	return "", transport.ErrNotExported
}
