package httprpc

import (
	"container/list"
	"sync"
)

type stubEntry struct {
	addr string
	stub any
}

// stubCache keeps the most recently dialed stubs by address.
type stubCache struct {
	capacity int
	items    map[string]*list.Element
	order    *list.List
	mu       sync.Mutex
}

func newStubCache(capacity int) *stubCache {
	if capacity <= 0 {
		panic("httprpc: stub cache capacity must be positive")
	}
	return &stubCache{
		capacity: capacity,
		items:    make(map[string]*list.Element),
		order:    list.New(),
	}
}

// getOrCreate returns the cached stub for addr or stores the one built by create.
func (c *stubCache) getOrCreate(addr string, create func() any) any {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[addr]; ok {
		c.order.MoveToFront(elem)
		return elem.Value.(*stubEntry).stub
	}

	entry := &stubEntry{addr: addr, stub: create()}
	c.items[addr] = c.order.PushFront(entry)
	if c.order.Len() > c.capacity {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.items, oldest.Value.(*stubEntry).addr)
	}
	return entry.stub
}

func (c *stubCache) remove(addr string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if elem, ok := c.items[addr]; ok {
		c.order.Remove(elem)
		delete(c.items, addr)
	}
}

func (c *stubCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
