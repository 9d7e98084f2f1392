package source

import (
	"reflect"
	"sync"

	"github.com/google/uuid"

	"github.com/dmitrymomot/beacon/pkg/dispatch"
	"github.com/dmitrymomot/beacon/pkg/notification"
	"github.com/dmitrymomot/beacon/pkg/transport"
)

// subscriber is a registered sink together with its retry queue.
type subscriber struct {
	id uuid.UUID

	// deliverMu serializes deliveries to this sink: drains, flushes on
	// re-registration and scheduled retries.
	deliverMu sync.Mutex

	mu        sync.Mutex
	handle    transport.SinkHandle
	outbox    []notification.Envelope
	retry     []notification.Envelope
	draining  bool
	removed   bool
	retryTask *dispatch.Scheduled
}

func newSubscriber(id uuid.UUID, handle transport.SinkHandle) *subscriber {
	return &subscriber{id: id, handle: handle}
}

func (sub *subscriber) sink() transport.SinkHandle {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	return sub.handle
}

func (sub *subscriber) replace(handle transport.SinkHandle) {
	sub.mu.Lock()
	sub.handle = handle
	sub.mu.Unlock()
}

// push appends env to the outbox and reports whether a drain must be started.
func (sub *subscriber) push(env notification.Envelope) bool {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	if sub.removed {
		return false
	}
	sub.outbox = append(sub.outbox, env)
	if sub.draining {
		return false
	}
	sub.draining = true
	return true
}

// next pops the oldest outbox entry. When the outbox is empty the drain ends.
func (sub *subscriber) next() (notification.Envelope, bool) {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	if sub.removed || len(sub.outbox) == 0 {
		sub.draining = false
		sub.outbox = nil
		return notification.Envelope{}, false
	}
	env := sub.outbox[0]
	sub.outbox = sub.outbox[1:]
	return env, true
}

func (sub *subscriber) enqueueRetry(env notification.Envelope) int {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	if sub.removed {
		return 0
	}
	sub.retry = append(sub.retry, env)
	return len(sub.retry)
}

// peekRetry returns the oldest queued notification.
func (sub *subscriber) peekRetry() (notification.Envelope, bool) {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	if sub.removed || len(sub.retry) == 0 {
		return notification.Envelope{}, false
	}
	return sub.retry[0], true
}

// popRetry drops the oldest queued notification after it was delivered.
// Only callers holding deliverMu modify the queue head, so the head is the
// entry returned by the preceding peekRetry.
func (sub *subscriber) popRetry() {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	if len(sub.retry) > 0 {
		sub.retry[0] = notification.Envelope{}
		sub.retry = sub.retry[1:]
	}
	if len(sub.retry) == 0 {
		sub.retry = nil
	}
}

func (sub *subscriber) pending() int {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	return len(sub.retry)
}

// remove drops the queue with the subscriber.
func (sub *subscriber) remove() {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	sub.removed = true
	sub.outbox = nil
	sub.retry = nil
	if sub.retryTask != nil {
		sub.retryTask.Cancel()
		sub.retryTask = nil
	}
}

// matches reports whether handle refers to the same sink as the registered one.
// Handles are equal when they are the same pointer or report the same
// address. Other handle values never match, since they may not be comparable.
func (sub *subscriber) matches(handle transport.SinkHandle) bool {
	current := sub.sink()
	if current == nil || handle == nil {
		return false
	}
	a, ok1 := current.(transport.Addresser)
	b, ok2 := handle.(transport.Addresser)
	if ok1 && ok2 && a.Address() == b.Address() {
		return true
	}
	t := reflect.TypeOf(current)
	return t == reflect.TypeOf(handle) && t.Kind() == reflect.Pointer && current == handle
}
