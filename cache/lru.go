// Package cache provides a fixed-capacity LRU map used to memoize expensive
// kernel lookups, most prominently virtual-address translations.
//
// Entries live in a single contiguous slab and the recency list is threaded
// through prev/next slot indexes instead of per-entry list nodes. The slab
// grows once up to capacity and slots are recycled through an internal free
// list, so a warmed-up cache performs no allocation on Get, Put, or Remove.
//
// Concurrency: one embedded mutex guards every operation. Operations are
// short and O(1), so a single lock beats sharding at kernel cache sizes.
package cache

import "sync"

// nilSlot marks the absence of a slot index in the recency and free lists.
const nilSlot int32 = -1

// maxCapacity caps the slab at what int32 slot indexes can address.
const maxCapacity = 1<<31 - 1

// entry is one cache slot. prev/next are slab indexes forming the recency
// list; a recycled slot reuses next as its free-list link.
type entry[K comparable, V any] struct {
	key  K
	val  V
	prev int32
	next int32
}

// LRU is a fixed-capacity least-recently-used cache. The zero value is not
// usable; construct with New.
type LRU[K comparable, V any] struct {
	mu       sync.Mutex
	capacity int
	items    map[K]int32
	slab     []entry[K, V]
	head     int32 // most recently used
	tail     int32 // least recently used
	free     int32 // recycled slots, linked via next
}

// New creates an LRU cache holding at most capacity entries.
// A capacity of 0 disables caching: every Put evicts its own entry.
func New[K comparable, V any](capacity int) *LRU[K, V] {
	if capacity < 0 {
		capacity = 0
	}
	if capacity > maxCapacity {
		capacity = maxCapacity
	}
	return &LRU[K, V]{
		capacity: capacity,
		items:    make(map[K]int32, capacity),
		slab:     make([]entry[K, V], 0, capacity),
		head:     nilSlot,
		tail:     nilSlot,
		free:     nilSlot,
	}
}

// Get returns the value for key and promotes the entry to most recently
// used. A miss returns the zero value and false.
func (c *LRU[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	i, ok := c.items[key]
	if !ok {
		var zero V
		return zero, false
	}
	c.unlink(i)
	c.pushFront(i)
	return c.slab[i].val, true
}

// Peek returns the value for key without touching recency order.
func (c *LRU[K, V]) Peek(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if i, ok := c.items[key]; ok {
		return c.slab[i].val, true
	}
	var zero V
	return zero, false
}

// Put inserts or overwrites key and promotes it to most recently used.
// It reports whether an entry was evicted: true when the cache was already
// at capacity before a new insert (the least-recently-used entry goes), and
// always true at capacity zero, where the inserted entry is immediately its
// own eviction victim. Overwriting an existing key never evicts.
func (c *LRU[K, V]) Put(key K, val V) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.capacity == 0 {
		return true
	}

	if i, ok := c.items[key]; ok {
		c.slab[i].val = val
		c.unlink(i)
		c.pushFront(i)
		return false
	}

	evicted := false
	var i int32
	switch {
	case len(c.items) >= c.capacity:
		// Reuse the victim's slot for the new entry.
		i = c.tail
		c.unlink(i)
		delete(c.items, c.slab[i].key)
		evicted = true
	case c.free != nilSlot:
		i = c.free
		c.free = c.slab[i].next
	default:
		c.slab = append(c.slab, entry[K, V]{})
		i = int32(len(c.slab) - 1)
	}

	c.slab[i].key = key
	c.slab[i].val = val
	c.items[key] = i
	c.pushFront(i)
	return evicted
}

// Remove invalidates key and returns its value. The order of the remaining
// entries is unchanged. A miss returns the zero value and false.
func (c *LRU[K, V]) Remove(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	i, ok := c.items[key]
	if !ok {
		var zero V
		return zero, false
	}
	val := c.slab[i].val
	c.unlink(i)
	delete(c.items, key)
	// Zero the slot so the GC can reclaim what it referenced, then park it
	// on the free list.
	c.slab[i] = entry[K, V]{next: c.free}
	c.free = i
	return val, true
}

// Oldest returns the least-recently-used entry without promoting it.
func (c *LRU[K, V]) Oldest() (K, V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.tail == nilSlot {
		var zeroK K
		var zeroV V
		return zeroK, zeroV, false
	}
	e := &c.slab[c.tail]
	return e.key, e.val, true
}

// Len returns the current number of entries.
func (c *LRU[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Cap returns the configured capacity.
func (c *LRU[K, V]) Cap() int {
	return c.capacity
}

// Purge drops every entry. Capacity and the slab's backing storage are
// retained.
func (c *LRU[K, V]) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()

	clear(c.slab)
	c.slab = c.slab[:0]
	c.items = make(map[K]int32, c.capacity)
	c.head = nilSlot
	c.tail = nilSlot
	c.free = nilSlot
}

// unlink detaches slot i from the recency list.
func (c *LRU[K, V]) unlink(i int32) {
	e := &c.slab[i]
	if e.prev != nilSlot {
		c.slab[e.prev].next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nilSlot {
		c.slab[e.next].prev = e.prev
	} else {
		c.tail = e.prev
	}
}

// pushFront makes slot i the most recently used.
func (c *LRU[K, V]) pushFront(i int32) {
	e := &c.slab[i]
	e.prev = nilSlot
	e.next = c.head
	if c.head != nilSlot {
		c.slab[c.head].prev = i
	}
	c.head = i
	if c.tail == nilSlot {
		c.tail = i
	}
}
