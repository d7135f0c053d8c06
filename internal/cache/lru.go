// Package cache provides the in-process LRU used by the provider decorators.
package cache

import "sync"

// LRU is a thread-safe least-recently-used cache with a fixed capacity.
type LRU[V any] struct {
	capacity int
	mu       sync.Mutex
	items    map[string]*node[V]
	newest   *node[V]
	oldest   *node[V]
}

type node[V any] struct {
	key        string
	value      V
	prev, next *node[V] // prev is newer, next is older
}

// NewLRU creates an LRU holding at most capacity entries. A non-positive
// capacity is treated as 1.
func NewLRU[V any](capacity int) *LRU[V] {
	if capacity < 1 {
		capacity = 1
	}
	return &LRU[V]{
		capacity: capacity,
		items:    make(map[string]*node[V]),
	}
}

// Get returns the cached value and promotes it to most recently used.
func (c *LRU[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	n, ok := c.items[key]
	if !ok {
		var zero V
		return zero, false
	}
	c.promote(n)
	return n.value, true
}

// Put inserts or replaces key, evicting the least recently used entry when
// the cache is full.
func (c *LRU[V]) Put(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if n, ok := c.items[key]; ok {
		n.value = value
		c.promote(n)
		return
	}

	n := &node[V]{key: key, value: value}
	c.items[key] = n
	c.pushNewest(n)

	if len(c.items) > c.capacity {
		c.evictOldest()
	}
}

// Len returns the number of cached entries.
func (c *LRU[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

func (c *LRU[V]) promote(n *node[V]) {
	if n == c.newest {
		return
	}
	c.unlink(n)
	c.pushNewest(n)
}

func (c *LRU[V]) pushNewest(n *node[V]) {
	n.prev = nil
	n.next = c.newest
	if c.newest != nil {
		c.newest.prev = n
	}
	c.newest = n
	if c.oldest == nil {
		c.oldest = n
	}
}

func (c *LRU[V]) unlink(n *node[V]) {
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		c.newest = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		c.oldest = n.prev
	}
	n.prev, n.next = nil, nil
}

func (c *LRU[V]) evictOldest() {
	victim := c.oldest
	if victim == nil {
		return
	}
	c.unlink(victim)
	delete(c.items, victim.key)
}
