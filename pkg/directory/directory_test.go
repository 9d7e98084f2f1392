package directory_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/beacon/pkg/directory"
	"github.com/dmitrymomot/beacon/pkg/dispatch"
	"github.com/dmitrymomot/beacon/pkg/logger"
	"github.com/dmitrymomot/beacon/pkg/lookup"
	"github.com/dmitrymomot/beacon/pkg/notification"
	"github.com/dmitrymomot/beacon/pkg/registry"
	"github.com/dmitrymomot/beacon/pkg/sink"
	"github.com/dmitrymomot/beacon/pkg/source"
	"github.com/dmitrymomot/beacon/pkg/transport"
	"github.com/dmitrymomot/beacon/pkg/transport/memnet"
)

// listingSink records every listing it receives.
type listingSink struct {
	mu       sync.Mutex
	listings [][]string
}

func (s *listingSink) Notify(_ context.Context, env notification.Envelope) error {
	n, err := notification.Decode[[]lookup.Entry](env)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.listings = append(s.listings, lookup.EntryNames(n.Payload()))
	s.mu.Unlock()
	return nil
}

func (s *listingSink) received() [][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]string(nil), s.listings...)
}

type env struct {
	net *memnet.Network
	reg *registry.Memory
	dir *directory.Directory
}

func newEnv(t *testing.T) *env {
	t.Helper()
	e := &env{net: memnet.New(), reg: registry.NewMemory()}
	e.net.ServeRegistry("localhost", 1099, e.reg)

	dir, err := directory.New(e.reg, directory.WithTransport(e.net), directory.WithLogger(logger.Nop()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = dir.Close(context.Background()) })
	e.dir = dir
	return e
}

func (e *env) source(t *testing.T, name string) *source.Source[string] {
	t.Helper()
	src, err := source.New[string](name, source.WithTransport(e.net), source.WithLogger(logger.Nop()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = src.Close(context.Background()) })
	return src
}

func TestNew(t *testing.T) {
	t.Parallel()

	_, err := directory.New(nil)
	assert.ErrorIs(t, err, directory.ErrNilRegistry)

	_, err = directory.New(registry.NewMemory())
	assert.ErrorIs(t, err, directory.ErrNoTransport)

	e := newEnv(t)
	assert.Equal(t, lookup.DirectoryName, e.dir.Name())
	assert.Empty(t, e.dir.Entries())
}

func TestRegisterSource(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("late sink gets the full list", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t)
		require.NoError(t, e.dir.RegisterSource(ctx, "Clock", e.source(t, "Clock")))
		require.NoError(t, e.dir.RegisterSource(ctx, "Weather", e.source(t, "Weather")))

		s := &listingSink{}
		_, err := e.dir.Register(ctx, uuid.New(), s)
		require.NoError(t, err)

		require.Eventually(t, func() bool { return len(s.received()) == 1 }, time.Second, 5*time.Millisecond)
		assert.Equal(t, []string{"Clock", "Weather"}, s.received()[0])
		assert.Equal(t, []string{"Clock", "Weather"}, lookup.EntryNames(e.dir.Entries()))
	})

	t.Run("binds names in the registry", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t)
		clock := e.source(t, "Clock")
		require.NoError(t, e.dir.RegisterSource(ctx, "Clock", clock))

		addr, err := e.reg.Lookup(ctx, "Clock")
		require.NoError(t, err)
		want, err := e.net.AddressOf(clock)
		require.NoError(t, err)
		assert.Equal(t, want, addr)

		replacement := e.source(t, "Clock")
		require.NoError(t, e.dir.RegisterSource(ctx, "Clock", replacement))
		addr, err = e.reg.Lookup(ctx, "Clock")
		require.NoError(t, err)
		want, err = e.net.AddressOf(replacement)
		require.NoError(t, err)
		assert.Equal(t, want, addr, "a known name is rebound")
		assert.Len(t, e.dir.Entries(), 1)
	})

	t.Run("broadcasts in commit order", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t)
		s := &listingSink{}
		_, err := e.dir.Register(ctx, uuid.New(), s)
		require.NoError(t, err)

		require.NoError(t, e.dir.RegisterSource(ctx, "Clock", e.source(t, "Clock")))
		require.NoError(t, e.dir.RegisterSource(ctx, "Weather", e.source(t, "Weather")))
		require.NoError(t, e.dir.UnregisterSource(ctx, "Clock"))

		require.Eventually(t, func() bool { return len(s.received()) == 4 }, time.Second, 5*time.Millisecond)
		assert.Equal(t, [][]string{
			{},
			{"Clock"},
			{"Clock", "Weather"},
			{"Weather"},
		}, s.received())
	})

	t.Run("rejects invalid input", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t)
		clock := e.source(t, "Clock")

		err := e.dir.RegisterSource(ctx, "", clock)
		assert.ErrorIs(t, err, directory.ErrInvalidName)
		assert.ErrorIs(t, err, transport.ErrRejected)

		err = e.dir.RegisterSource(ctx, lookup.DirectoryName, clock)
		assert.ErrorIs(t, err, directory.ErrInvalidName)

		err = e.dir.RegisterSource(ctx, "Clock", nil)
		assert.ErrorIs(t, err, directory.ErrNilSource)

		var rf *transport.RegistrationFailure
		assert.ErrorAs(t, err, &rf)
	})
}

func TestConcurrentRegistrations(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	e := newEnv(t)

	pool := dispatch.New(dispatch.WithWorkers(8), dispatch.WithLogger(logger.Nop()))
	t.Cleanup(func() { _ = pool.Shutdown(context.Background()) })
	newSource := func(name string) *source.Source[string] {
		src, err := source.New[string](name,
			source.WithTransport(e.net),
			source.WithPool(pool),
			source.WithLogger(logger.Nop()))
		require.NoError(t, err)
		return src
	}

	s := &listingSink{}
	_, err := e.dir.Register(ctx, uuid.New(), s)
	require.NoError(t, err)

	var retired []string
	for i := range 20 {
		name := fmt.Sprintf("old-%02d", i)
		require.NoError(t, e.dir.RegisterSource(ctx, name, newSource(name)))
		retired = append(retired, name)
	}

	var fresh []string
	for i := range 40 {
		fresh = append(fresh, fmt.Sprintf("new-%02d", i))
	}
	sources := make([]*source.Source[string], len(fresh))
	for i, name := range fresh {
		sources[i] = newSource(name)
	}

	var wg sync.WaitGroup
	for i, name := range fresh {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, e.dir.RegisterSource(ctx, name, sources[i]))
		}()
	}
	for _, name := range retired {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, e.dir.UnregisterSource(ctx, name))
		}()
	}
	wg.Wait()

	assert.Equal(t, fresh, lookup.EntryNames(e.dir.Entries()))

	bound, err := e.reg.List(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, fresh, bound)

	total := 1 + len(retired) + len(fresh) + len(retired)
	require.Eventually(t, func() bool { return len(s.received()) == total }, 2*time.Second, 5*time.Millisecond)
	listings := s.received()
	assert.Equal(t, fresh, listings[len(listings)-1], "last broadcast reflects every committed change")
}

func TestUnregisterSource(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	e := newEnv(t)

	require.NoError(t, e.dir.RegisterSource(ctx, "Clock", e.source(t, "Clock")))
	require.NoError(t, e.dir.UnregisterSource(ctx, "Clock"))

	_, err := e.reg.Lookup(ctx, "Clock")
	assert.ErrorIs(t, err, registry.ErrNotBound)
	assert.Empty(t, e.dir.Entries())

	require.NoError(t, e.dir.UnregisterSource(ctx, "Clock"), "unknown names are ignored")

	require.NoError(t, e.dir.RegisterSource(ctx, "Weather", e.source(t, "Weather")))
	require.NoError(t, e.reg.Unbind(ctx, "Weather"))
	require.NoError(t, e.dir.UnregisterSource(ctx, "Weather"), "missing binding is tolerated")
	assert.Empty(t, e.dir.Entries())
}

func TestAdopt(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	e := newEnv(t)

	require.NoError(t, e.reg.Bind(ctx, "Clock", "mem://clock"))
	require.NoError(t, e.reg.Bind(ctx, "Stale", "mem://gone"))
	require.NoError(t, e.dir.Bind(ctx))

	adopted, err := e.dir.Adopt(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Clock", "Stale"}, adopted, "no liveness check")
	assert.Equal(t, []lookup.Entry{
		{Name: "Clock", Address: "mem://clock"},
		{Name: "Stale", Address: "mem://gone"},
	}, e.dir.Entries())

	adopted, err = e.dir.Adopt(ctx)
	require.NoError(t, err)
	assert.Empty(t, adopted)
}

func TestBindAndClose(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	e := newEnv(t)

	require.NoError(t, e.reg.Bind(ctx, lookup.DirectoryName, "mem://stale"))
	require.NoError(t, e.dir.Bind(ctx))

	addr, err := e.reg.Lookup(ctx, lookup.DirectoryName)
	require.NoError(t, err)
	want, err := e.net.AddressOf(e.dir)
	require.NoError(t, err)
	assert.Equal(t, want, addr, "a stale binding is replaced")

	require.NoError(t, e.dir.RegisterSource(ctx, "Clock", e.source(t, "Clock")))
	require.NoError(t, e.dir.Close(ctx))

	_, err = e.reg.Lookup(ctx, lookup.DirectoryName)
	assert.ErrorIs(t, err, registry.ErrNotBound)
	_, err = e.reg.Lookup(ctx, "Clock")
	assert.NoError(t, err, "source bindings survive the directory")
}

func TestFabric(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	e := newEnv(t)
	require.NoError(t, e.dir.Bind(ctx))

	clock := e.source(t, "Clock")
	require.NoError(t, clock.Bind(ctx, "localhost", 1099))
	assert.Equal(t, source.BoundViaDirectory, clock.State())

	s := sink.New(sink.WithTransport(e.net), sink.WithLogger(logger.Nop()))
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	require.NoError(t, s.ConnectDirectory(ctx, "localhost", 1099))

	require.Eventually(t, func() bool {
		return len(s.Sources()) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, "Clock", s.Sources()[0].Name)

	var (
		mu  sync.Mutex
		got []string
	)
	require.NoError(t, s.ConnectSource(ctx, "Clock", sink.Typed(func(_ context.Context, n notification.Notification[string]) error {
		mu.Lock()
		got = append(got, n.Payload())
		mu.Unlock()
		return nil
	})))
	require.NoError(t, clock.Send(ctx, "12:00"))
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 1
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, clock.Unbind(ctx))
	require.Eventually(t, func() bool {
		return len(s.Sources()) == 0
	}, time.Second, 5*time.Millisecond)
}
