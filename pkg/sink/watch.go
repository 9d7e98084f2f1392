package sink

import (
	"context"
	"sync"

	"github.com/dmitrymomot/beacon/pkg/lookup"
)

// listing holds the latest directory listing and fans it out to watchers.
// Each watcher channel has room for one listing; a newer listing replaces
// an unread one.
type listing struct {
	mu       sync.RWMutex
	current  []lookup.Entry
	watchers map[chan []lookup.Entry]struct{}
	closed   bool
}

func newListing() *listing {
	return &listing{watchers: make(map[chan []lookup.Entry]struct{})}
}

func (l *listing) get() []lookup.Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]lookup.Entry(nil), l.current...)
}

func (l *listing) set(entries []lookup.Entry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	l.current = entries
	for ch := range l.watchers {
		replace(ch, append([]lookup.Entry(nil), entries...))
	}
}

// replace puts v into a one-slot channel, dropping an unread older value.
func replace(ch chan []lookup.Entry, v []lookup.Entry) {
	for {
		select {
		case ch <- v:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

func (l *listing) watch(ctx context.Context) <-chan []lookup.Entry {
	ch := make(chan []lookup.Entry, 1)

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		close(ch)
		return ch
	}
	l.watchers[ch] = struct{}{}
	if l.current != nil {
		ch <- append([]lookup.Entry(nil), l.current...)
	}

	if ctx.Done() != nil {
		go func() {
			<-ctx.Done()
			l.unwatch(ch)
		}()
	}
	return ch
}

func (l *listing) unwatch(ch chan []lookup.Entry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.watchers[ch]; ok {
		delete(l.watchers, ch)
		close(ch)
	}
}

func (l *listing) close() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.closed = true
	for ch := range l.watchers {
		close(ch)
	}
	clear(l.watchers)
	l.mu.Unlock()
}
