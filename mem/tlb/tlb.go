// Package tlb provides the kernel's translation cache: a fixed-capacity
// LRU from virtual page addresses to physical frames.
//
// Entry cells are not Go objects. Each is a 24-byte block allocated from
// the kernel heap (key u64 | val u64 | prev Ref | next Ref), and the
// recency list is threaded through those cells by Ref. Only the key index
// and the list head/tail live in Go memory. At capacity the tail cell is
// rewritten in place for the new entry, so a warmed-up cache performs no
// heap traffic on Lookup or Insert.
package tlb

import (
	"fmt"
	"sync"

	"github.com/joshuapare/kernelkit/internal/layout"
	"github.com/joshuapare/kernelkit/mem/heap"
)

// Entry cell layout. 24 bytes rounds into the 32-byte size class.
const (
	cellSize  = 24
	cellAlign = layout.WordSize

	keyOff  = 0
	valOff  = 8
	prevOff = 16
	nextOff = 20
)

// Cache memoizes address translations. Construct with New; the zero value
// is not usable.
type Cache struct {
	mu       sync.Mutex
	heap     *heap.Allocator
	capacity int
	index    map[uint64]heap.Ref
	head     heap.Ref // most recently used
	tail     heap.Ref // least recently used
	stats    Stats
}

// Stats holds translation cache counters.
type Stats struct {
	Hits      uint64 // Lookups that found their key
	Misses    uint64 // Lookups that fell through
	Inserts   uint64 // Entries written, recycled or fresh
	Evictions uint64 // Tail cells recycled at capacity
}

// New builds a translation cache of the given capacity drawing its entry
// cells from a.
func New(a *heap.Allocator, capacity int) (*Cache, error) {
	if a == nil {
		return nil, fmt.Errorf("tlb: nil allocator")
	}
	if capacity < 0 {
		capacity = 0
	}
	return &Cache{
		heap:     a,
		capacity: capacity,
		index:    make(map[uint64]heap.Ref, capacity),
		head:     heap.NilRef,
		tail:     heap.NilRef,
	}, nil
}

// Lookup returns the translation for va and promotes it to most recently
// used. A miss returns false; the caller walks the page tables and Inserts
// the result.
func (c *Cache) Lookup(va uint64) (uint64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ref, ok := c.index[va]
	if !ok {
		c.stats.Misses++
		return 0, false
	}
	c.unlink(ref)
	c.pushFront(ref)
	c.stats.Hits++
	return cellVal(c.cell(ref)), true
}

// Insert records a translation. An existing key is overwritten and
// promoted. At capacity the least-recently-used cell is rewritten for the
// new entry; below capacity a fresh cell is allocated, and an exhausted
// heap surfaces as an error wrapping heap.ErrOutOfMemory. With capacity 0
// Insert does nothing.
func (c *Cache) Insert(va, pa uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.capacity == 0 {
		return nil
	}

	if ref, ok := c.index[va]; ok {
		setCellVal(c.cell(ref), pa)
		c.unlink(ref)
		c.pushFront(ref)
		c.stats.Inserts++
		return nil
	}

	var ref heap.Ref
	if len(c.index) >= c.capacity {
		// Recycle the tail cell in place.
		ref = c.tail
		c.unlink(ref)
		b := c.cell(ref)
		delete(c.index, cellKey(b))
		setCellKey(b, va)
		setCellVal(b, pa)
		c.stats.Evictions++
	} else {
		r, b, err := c.heap.Alloc(cellSize, cellAlign)
		if err != nil {
			return fmt.Errorf("tlb: allocating entry cell: %w", err)
		}
		ref = r
		setCellKey(b, va)
		setCellVal(b, pa)
	}

	c.index[va] = ref
	c.pushFront(ref)
	c.stats.Inserts++
	return nil
}

// Invalidate drops the translation for va, returning its cell to the heap.
// It reports whether an entry was present. Unmap and protection changes
// call this before the mapping goes away.
func (c *Cache) Invalidate(va uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	ref, ok := c.index[va]
	if !ok {
		return false
	}
	c.unlink(ref)
	delete(c.index, va)
	c.freeCell(ref)
	return true
}

// Flush drops every translation and returns all cells to the heap. Address
// space switches flush rather than invalidate page by page.
func (c *Cache) Flush() {
	c.mu.Lock()
	defer c.mu.Unlock()

	ref := c.head
	for ref != heap.NilRef {
		next := cellNext(c.cell(ref))
		c.freeCell(ref)
		ref = next
	}
	clear(c.index)
	c.head = heap.NilRef
	c.tail = heap.NilRef
}

// Close flushes the cache. The Cache must not be used afterwards.
func (c *Cache) Close() error {
	c.Flush()
	return nil
}

// Len returns the number of cached translations.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.index)
}

// Cap returns the configured capacity.
func (c *Cache) Cap() int {
	return c.capacity
}

// Stats returns a snapshot of the cache counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// cell returns the bytes of one entry cell. Refs held in the index are
// valid until freed here, so View cannot fail.
func (c *Cache) cell(ref heap.Ref) []byte {
	b, err := c.heap.View(ref, cellSize)
	if err != nil {
		panic(fmt.Sprintf("tlb: dangling cell ref 0x%X: %v", ref, err))
	}
	return b
}

// freeCell returns one cell to the heap.
func (c *Cache) freeCell(ref heap.Ref) {
	if err := c.heap.Free(ref, cellSize, cellAlign); err != nil {
		panic(fmt.Sprintf("tlb: freeing cell ref 0x%X: %v", ref, err))
	}
}

// unlink detaches a cell from the recency list.
func (c *Cache) unlink(ref heap.Ref) {
	b := c.cell(ref)
	prev, next := cellPrev(b), cellNext(b)
	if prev != heap.NilRef {
		setCellNext(c.cell(prev), next)
	} else {
		c.head = next
	}
	if next != heap.NilRef {
		setCellPrev(c.cell(next), prev)
	} else {
		c.tail = prev
	}
}

// pushFront makes a cell the most recently used.
func (c *Cache) pushFront(ref heap.Ref) {
	b := c.cell(ref)
	setCellPrev(b, heap.NilRef)
	setCellNext(b, c.head)
	if c.head != heap.NilRef {
		setCellPrev(c.cell(c.head), ref)
	}
	c.head = ref
	if c.tail == heap.NilRef {
		c.tail = ref
	}
}

func cellKey(b []byte) uint64 { return layout.ReadU64(b, keyOff) }

func cellVal(b []byte) uint64 { return layout.ReadU64(b, valOff) }

func cellPrev(b []byte) heap.Ref { return layout.ReadU32(b, prevOff) }

func cellNext(b []byte) heap.Ref { return layout.ReadU32(b, nextOff) }

func setCellKey(b []byte, v uint64) { layout.PutU64(b, keyOff, v) }

func setCellVal(b []byte, v uint64) { layout.PutU64(b, valOff, v) }

func setCellPrev(b []byte, r heap.Ref) { layout.PutU32(b, prevOff, r) }

func setCellNext(b []byte, r heap.Ref) { layout.PutU32(b, nextOff, r) }
