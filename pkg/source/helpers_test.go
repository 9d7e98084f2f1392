package source_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/beacon/pkg/logger"
	"github.com/dmitrymomot/beacon/pkg/notification"
	"github.com/dmitrymomot/beacon/pkg/source"
	"github.com/dmitrymomot/beacon/pkg/transport"
	"github.com/dmitrymomot/beacon/pkg/transport/memnet"
)

// recordingSink collects string payloads in arrival order.
type recordingSink struct {
	mu       sync.Mutex
	payloads []string
	fail     error
	panics   bool
}

func (s *recordingSink) Notify(_ context.Context, env notification.Envelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.panics {
		panic("sink exploded")
	}
	if s.fail != nil {
		return s.fail
	}
	var p string
	if err := json.Unmarshal(env.Payload(), &p); err != nil {
		return err
	}
	s.payloads = append(s.payloads, p)
	return nil
}

func (s *recordingSink) received() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.payloads...)
}

func (s *recordingSink) setFail(err error) {
	s.mu.Lock()
	s.fail = err
	s.mu.Unlock()
}

func (s *recordingSink) setPanics(v bool) {
	s.mu.Lock()
	s.panics = v
	s.mu.Unlock()
}

// fixture is a source exported on an in-process network plus a stub of it.
type fixture struct {
	net  *memnet.Network
	src  *source.Source[string]
	stub transport.SourceHandle
}

func newFixture(t *testing.T, opts ...source.Option) *fixture {
	t.Helper()
	n := memnet.New()
	opts = append([]source.Option{
		source.WithTransport(n),
		source.WithLogger(logger.Nop()),
		source.WithDeliveryTimeout(200 * time.Millisecond),
	}, opts...)

	src, err := source.New[string]("S", opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = src.Close(context.Background()) })

	addr, err := n.Export(src)
	require.NoError(t, err)
	stub, err := n.DialSource(addr)
	require.NoError(t, err)

	return &fixture{net: n, src: src, stub: stub}
}

// register subscribes sink through the network so that it can be taken offline.
func (f *fixture) register(t *testing.T, id uuid.UUID, sink *recordingSink) (uuid.UUID, string) {
	t.Helper()
	got, err := f.stub.Register(context.Background(), id, sink)
	require.NoError(t, err)
	addr, err := f.net.AddressOf(sink)
	require.NoError(t, err)
	return got, addr
}

func waitPayloads(t *testing.T, sink *recordingSink, want ...string) {
	t.Helper()
	require.Eventually(t, func() bool {
		return len(sink.received()) >= len(want)
	}, 2*time.Second, 5*time.Millisecond, "sink did not receive %v", want)
	require.Equal(t, want, sink.received())
}

func waitPending(t *testing.T, src *source.Source[string], id uuid.UUID, n int) {
	t.Helper()
	require.Eventually(t, func() bool {
		got, ok := src.Pending(id)
		return ok && got == n
	}, 2*time.Second, 5*time.Millisecond, "retry queue never reached %d", n)
}

var errSinkDown = errors.New("sink down")
