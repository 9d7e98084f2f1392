package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/beacon/pkg/dispatch"
	"github.com/dmitrymomot/beacon/pkg/logger"
	"github.com/dmitrymomot/beacon/pkg/lookup"
	"github.com/dmitrymomot/beacon/pkg/notification"
	"github.com/dmitrymomot/beacon/pkg/registry"
	"github.com/dmitrymomot/beacon/pkg/transport"
)

// Source publishes notifications carrying T to registered sinks.
type Source[T any] struct {
	name     string
	opts     options
	pool     *dispatch.Pool
	ownsPool bool
	logger   *slog.Logger

	mu          sync.RWMutex
	subscribers map[uuid.UUID]*subscriber
	closed      bool

	bindMu    sync.Mutex
	state     State
	resolved  *lookup.Client
	directory transport.DirectoryHandle
}

var _ transport.SourceHandle = (*Source[any])(nil)

// New creates a source named name.
func New[T any](name string, opts ...Option) (*Source[T], error) {
	if name == "" {
		return nil, ErrEmptyName
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	s := &Source[T]{
		name:        name,
		opts:        o,
		pool:        o.pool,
		logger:      o.logger.With(logger.Source(name)),
		subscribers: make(map[uuid.UUID]*subscriber),
	}
	if s.pool == nil {
		s.pool = dispatch.New(dispatch.WithName("source"), dispatch.WithLogger(s.logger))
		s.ownsPool = true
	}
	return s, nil
}

// Name returns the name the source binds under.
func (s *Source[T]) Name() string { return s.name }

// Pool returns the pool deliveries run on.
func (s *Source[T]) Pool() *dispatch.Pool { return s.pool }

// Register subscribes sink. uuid.Nil mints an id not used by any current
// subscriber. A known id is treated as a reconnect: the handle is replaced
// and the subscriber's retry queue is flushed before Register returns.
func (s *Source[T]) Register(ctx context.Context, id uuid.UUID, sink transport.SinkHandle) (uuid.UUID, error) {
	if sink == nil {
		return uuid.Nil, &transport.RegistrationFailure{Source: s.name, Err: ErrNilSink}
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return uuid.Nil, &transport.RegistrationFailure{Source: s.name, Err: errors.Join(transport.ErrRejected, transport.ErrClosed)}
	}

	if id == uuid.Nil {
		for id == uuid.Nil || s.subscribers[id] != nil {
			id = uuid.New()
		}
	}

	sub, known := s.subscribers[id]
	if !known {
		s.subscribers[id] = newSubscriber(id, sink)
		s.mu.Unlock()
		s.logger.InfoContext(ctx, "sink registered", logger.SubscriberID(id))
		return id, nil
	}
	sub.replace(sink)
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "sink re-registered", logger.SubscriberID(id), logger.QueueLen(sub.pending()))

	sub.deliverMu.Lock()
	s.flush(sub)
	sub.deliverMu.Unlock()

	return id, nil
}

// Unregister removes the subscriber and its retry queue.
// It returns transport.ErrNotRegistered for unknown ids.
func (s *Source[T]) Unregister(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	sub, ok := s.subscribers[id]
	if !ok {
		s.mu.Unlock()
		return transport.ErrNotRegistered
	}
	delete(s.subscribers, id)
	s.mu.Unlock()

	dropped := sub.pending()
	sub.remove()
	s.logger.InfoContext(ctx, "sink unregistered", logger.SubscriberID(id), slog.Int("dropped", dropped))
	return nil
}

// UnregisterSink removes the subscriber registered with handle.
func (s *Source[T]) UnregisterSink(ctx context.Context, handle transport.SinkHandle) error {
	s.mu.RLock()
	var id uuid.UUID
	for sid, sub := range s.subscribers {
		if sub.matches(handle) {
			id = sid
			break
		}
	}
	s.mu.RUnlock()

	if id == uuid.Nil {
		return transport.ErrNotRegistered
	}
	return s.Unregister(ctx, id)
}

// Send wraps payload in a notification from this source and sends it.
func (s *Source[T]) Send(ctx context.Context, payload T, opts ...notification.Option) error {
	n, err := notification.New(s.name, payload, opts...)
	if err != nil {
		return err
	}
	return s.SendNotification(ctx, n)
}

// SendNotification hands n to every subscriber and returns without waiting
// for delivery. Only encoding errors and a closed source are reported.
func (s *Source[T]) SendNotification(ctx context.Context, n notification.Notification[T]) error {
	env, err := s.encode(n)
	if err != nil {
		return err
	}

	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return transport.ErrClosed
	}
	subs := make([]*subscriber, 0, len(s.subscribers))
	for _, sub := range s.subscribers {
		subs = append(subs, sub)
	}
	s.mu.RUnlock()

	for _, sub := range subs {
		s.enqueue(sub, env)
	}

	s.logger.DebugContext(ctx, "notification sent",
		logger.Priority(n.Priority()),
		slog.Int("subscribers", len(subs)))
	return nil
}

// SendTo delivers n to a single subscriber through the same ordered path.
func (s *Source[T]) SendTo(ctx context.Context, id uuid.UUID, n notification.Notification[T]) error {
	env, err := s.encode(n)
	if err != nil {
		return err
	}

	s.mu.RLock()
	sub, ok := s.subscribers[id]
	closed := s.closed
	s.mu.RUnlock()

	switch {
	case closed:
		return transport.ErrClosed
	case !ok:
		return transport.ErrNotRegistered
	}

	s.enqueue(sub, env)
	s.logger.DebugContext(ctx, "notification sent", logger.SubscriberID(id))
	return nil
}

// Subscribers returns the ids of current subscribers in ascending order.
func (s *Source[T]) Subscribers() []uuid.UUID {
	s.mu.RLock()
	ids := make([]uuid.UUID, 0, len(s.subscribers))
	for id := range s.subscribers {
		ids = append(ids, id)
	}
	s.mu.RUnlock()
	slices.SortFunc(ids, func(a, b uuid.UUID) int { return slices.Compare(a[:], b[:]) })
	return ids
}

// Pending returns the retry queue length of a subscriber.
func (s *Source[T]) Pending(id uuid.UUID) (int, bool) {
	s.mu.RLock()
	sub, ok := s.subscribers[id]
	s.mu.RUnlock()
	if !ok {
		return 0, false
	}
	return sub.pending(), true
}

// Close unbinds the source, best effort, and stops its private pool after
// in-flight deliveries finished. Later registrations and sends fail.
func (s *Source[T]) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	if err := s.Unbind(ctx); err != nil {
		s.logger.WarnContext(ctx, "failed to unbind on close", logger.Error(err))
	}

	if s.ownsPool {
		if err := s.pool.Shutdown(ctx); err != nil {
			return fmt.Errorf("source %s: %w", s.name, err)
		}
	}
	s.logger.InfoContext(ctx, "source closed")
	return nil
}

func (s *Source[T]) encode(n notification.Notification[T]) (notification.Envelope, error) {
	if n.IsZero() {
		return notification.Envelope{}, notification.ErrEmptyOrigin
	}
	return n.Encode()
}

func (s *Source[T]) enqueue(sub *subscriber, env notification.Envelope) {
	if !sub.push(env) {
		return
	}
	_ = s.pool.Submit(func(context.Context) error {
		s.drain(sub)
		return nil
	})
}

// drain delivers the outbox in order. Once a delivery or flush failed, the
// rest of this pass goes straight to the retry queue.
func (s *Source[T]) drain(sub *subscriber) {
	sub.deliverMu.Lock()
	defer sub.deliverMu.Unlock()

	failed := false
	for {
		env, ok := sub.next()
		if !ok {
			return
		}
		if failed || !s.flush(sub) {
			failed = true
			s.queue(sub, env)
			continue
		}
		if err := s.deliver(sub, env); err != nil {
			failed = true
			s.fail(sub, env, err)
		}
	}
}

// flush replays the retry queue oldest-first and stops at the first failure.
// It reports whether the queue is empty afterwards. deliverMu must be held.
func (s *Source[T]) flush(sub *subscriber) bool {
	flushed := 0
	for {
		env, ok := sub.peekRetry()
		if !ok {
			if flushed > 0 {
				s.logger.Info("retry queue flushed", logger.SubscriberID(sub.id), slog.Int("delivered", flushed))
			}
			return true
		}
		if err := s.deliver(sub, env); err != nil {
			s.logFailure(sub, "retry flush stopped", sub.pending(), err)
			s.scheduleRetry(sub)
			return false
		}
		sub.popRetry()
		flushed++
	}
}

func (s *Source[T]) fail(sub *subscriber, env notification.Envelope, err error) {
	n := sub.enqueueRetry(env)
	s.logFailure(sub, "delivery failed, queued for retry", n, err)
	s.scheduleRetry(sub)
}

// logFailure logs a failed delivery. A rejection blocks the subscriber's
// retry queue until the sink accepts the notification, so it is an error;
// anything else is a warning.
func (s *Source[T]) logFailure(sub *subscriber, msg string, queued int, err error) {
	level := slog.LevelWarn
	if errors.Is(err, transport.ErrRejected) {
		level = slog.LevelError
	}
	s.logger.Log(context.Background(), level, msg,
		logger.SubscriberID(sub.id),
		logger.QueueLen(queued),
		logger.Error(&transport.DeliveryFailure{Source: s.name, SubscriberID: sub.id, Err: err}))
}

func (s *Source[T]) queue(sub *subscriber, env notification.Envelope) {
	n := sub.enqueueRetry(env)
	s.logger.Debug("queued behind pending retries", logger.SubscriberID(sub.id), logger.QueueLen(n))
}

// deliver makes one Notify call bounded by the delivery timeout.
func (s *Source[T]) deliver(sub *subscriber, env notification.Envelope) (err error) {
	handle := sub.sink()
	if handle == nil {
		return transport.ErrUnreachable
	}

	defer func() {
		if r := recover(); r != nil {
			err = errors.Join(ErrDeliveryPanicked, fmt.Errorf("%v", r))
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), s.opts.deliveryTimeout)
	defer cancel()
	return handle.Notify(ctx, env)
}

// scheduleRetry arranges a flush attempt after the retry interval, if enabled.
func (s *Source[T]) scheduleRetry(sub *subscriber) {
	if s.opts.retryInterval <= 0 {
		return
	}

	sub.mu.Lock()
	defer sub.mu.Unlock()
	if sub.removed || (sub.retryTask != nil && sub.retryTask.State() == dispatch.StatePending) {
		return
	}

	task, err := s.pool.Schedule(func(context.Context) error {
		sub.mu.Lock()
		sub.retryTask = nil
		sub.mu.Unlock()

		sub.deliverMu.Lock()
		defer sub.deliverMu.Unlock()
		s.flush(sub)
		return nil
	}, s.opts.retryInterval)
	if err != nil {
		return
	}
	sub.retryTask = task
}

// registry returns the resolved registry after Bind.
func (s *Source[T]) registry() registry.Registry {
	if s.resolved == nil {
		return nil
	}
	return s.resolved.Registry()
}

// deadline is used for control-plane calls made on behalf of the source.
func (s *Source[T]) deadline(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, max(s.opts.connectTimeout, time.Second))
}
