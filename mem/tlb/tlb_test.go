package tlb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/kernelkit/mem"
	"github.com/joshuapare/kernelkit/mem/heap"
)

// newTestCache builds a cache over a fresh heap so tests can watch the
// allocator's accounting alongside the cache's.
func newTestCache(t *testing.T, regionSize, capacity int) (*Cache, *heap.Allocator) {
	t.Helper()

	region, err := mem.NewRegion(regionSize)
	require.NoError(t, err, "failed to reserve test region")
	t.Cleanup(func() { _ = region.Release() })

	a, err := heap.New(region, heap.DefaultConfig)
	require.NoError(t, err, "failed to build allocator")

	c, err := New(a, capacity)
	require.NoError(t, err, "failed to build cache")
	return c, a
}

// Test_LookupMiss verifies a cold cache reports a miss, not an error.
func Test_LookupMiss(t *testing.T) {
	c, _ := newTestCache(t, 64*1024, 8)

	pa, ok := c.Lookup(0xFFFF800000001000)
	assert.False(t, ok)
	assert.Zero(t, pa)
	assert.Equal(t, uint64(1), c.Stats().Misses)
}

// Test_InsertAndLookup verifies the basic round trip and counters.
func Test_InsertAndLookup(t *testing.T) {
	c, _ := newTestCache(t, 64*1024, 8)

	require.NoError(t, c.Insert(0x1000, 0x0040_0000))

	pa, ok := c.Lookup(0x1000)
	require.True(t, ok)
	assert.Equal(t, uint64(0x0040_0000), pa)
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, 8, c.Cap())

	st := c.Stats()
	assert.Equal(t, uint64(1), st.Hits)
	assert.Equal(t, uint64(1), st.Inserts)
}

// Test_Insert_UpdateExisting verifies remaps overwrite in place.
func Test_Insert_UpdateExisting(t *testing.T) {
	c, a := newTestCache(t, 64*1024, 8)

	require.NoError(t, c.Insert(0x1000, 0x111000))
	allocated := a.Stats().BytesAllocated

	require.NoError(t, c.Insert(0x1000, 0x222000))
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, allocated, a.Stats().BytesAllocated, "update must not allocate")

	pa, ok := c.Lookup(0x1000)
	require.True(t, ok)
	assert.Equal(t, uint64(0x222000), pa)
	assert.Zero(t, c.Stats().Evictions)
}

// Test_EvictionRecyclesCells fills the cache and verifies the insert that
// evicts rewrites the tail cell instead of touching the heap.
func Test_EvictionRecyclesCells(t *testing.T) {
	c, a := newTestCache(t, 64*1024, 2)

	require.NoError(t, c.Insert(0xA000, 1))
	require.NoError(t, c.Insert(0xB000, 2))
	warm := a.Stats()
	assert.Equal(t, int64(64), warm.LiveBytes, "two cells in the 32-byte class")

	require.NoError(t, c.Insert(0xC000, 3))

	after := a.Stats()
	assert.Equal(t, warm.BytesAllocated, after.BytesAllocated, "eviction must not allocate")
	assert.Equal(t, warm.LiveBytes, after.LiveBytes)
	assert.Equal(t, uint64(1), c.Stats().Evictions)

	_, ok := c.Lookup(0xA000)
	assert.False(t, ok, "oldest entry should be evicted")
	_, ok = c.Lookup(0xB000)
	assert.True(t, ok)
	_, ok = c.Lookup(0xC000)
	assert.True(t, ok)
}

// Test_LookupPromotes verifies a hit reorders recency: after touching the
// older entry, the insert at capacity evicts the other one.
func Test_LookupPromotes(t *testing.T) {
	c, _ := newTestCache(t, 64*1024, 2)

	require.NoError(t, c.Insert(0xA000, 1))
	require.NoError(t, c.Insert(0xB000, 2))

	pa, ok := c.Lookup(0xA000)
	require.True(t, ok)
	require.Equal(t, uint64(1), pa)

	require.NoError(t, c.Insert(0xC000, 3))

	_, ok = c.Lookup(0xB000)
	assert.False(t, ok, "untouched entry should be the victim")
	pa, ok = c.Lookup(0xA000)
	assert.True(t, ok)
	assert.Equal(t, uint64(1), pa)
	pa, ok = c.Lookup(0xC000)
	assert.True(t, ok)
	assert.Equal(t, uint64(3), pa)
}

// Test_Invalidate verifies single-page invalidation frees the cell.
func Test_Invalidate(t *testing.T) {
	c, a := newTestCache(t, 64*1024, 8)

	require.NoError(t, c.Insert(0xA000, 1))
	require.NoError(t, c.Insert(0xB000, 2))
	require.Equal(t, int64(64), a.Stats().LiveBytes)

	assert.True(t, c.Invalidate(0xA000))
	assert.Equal(t, int64(32), a.Stats().LiveBytes, "invalidate returns the cell")
	assert.False(t, c.Invalidate(0xA000), "second invalidate is a no-op")

	_, ok := c.Lookup(0xA000)
	assert.False(t, ok)
	_, ok = c.Lookup(0xB000)
	assert.True(t, ok, "other entries unaffected")
}

// Test_Flush verifies a flush returns every cell and leaves the cache
// usable; the cells come back from the class free list on reuse.
func Test_Flush(t *testing.T) {
	c, a := newTestCache(t, 64*1024, 8)

	for i := 0; i < 5; i++ {
		require.NoError(t, c.Insert(uint64(i)<<12, uint64(i)))
	}
	require.Equal(t, int64(160), a.Stats().LiveBytes)

	c.Flush()
	assert.Equal(t, 0, c.Len())
	assert.Zero(t, a.Stats().LiveBytes, "flush must free every cell")

	require.NoError(t, c.Insert(0xD000, 9))
	pa, ok := c.Lookup(0xD000)
	require.True(t, ok)
	assert.Equal(t, uint64(9), pa)
	assert.Positive(t, a.Stats().ClassHits, "reinsert should reuse freed cells")

	require.NoError(t, c.Close())
	assert.Equal(t, 0, c.Len())
}

// Test_CapacityZero verifies a zero-capacity cache holds nothing and never
// touches the heap.
func Test_CapacityZero(t *testing.T) {
	c, a := newTestCache(t, 64*1024, 0)

	require.NoError(t, c.Insert(0x1000, 0x2000))
	assert.Equal(t, 0, c.Len())
	_, ok := c.Lookup(0x1000)
	assert.False(t, ok)
	assert.Zero(t, a.Stats().AllocCalls)
}

// Test_HeapExhaustion drives the backing heap dry during warm-up and
// verifies the error surfaces, then recovers by invalidating one entry.
func Test_HeapExhaustion(t *testing.T) {
	// 4096-byte region: a 24-byte gap plus 127 chunks of the 32-byte class.
	c, _ := newTestCache(t, 4096, 500)

	inserted := 0
	var insertErr error
	for i := 0; i < 500; i++ {
		insertErr = c.Insert(uint64(i+1)<<12, uint64(i))
		if insertErr != nil {
			break
		}
		inserted++
	}
	require.Error(t, insertErr)
	require.ErrorIs(t, insertErr, heap.ErrOutOfMemory)
	assert.Equal(t, 127, inserted)
	assert.Equal(t, 127, c.Len())

	// Freeing one cell makes room for exactly one more entry.
	require.True(t, c.Invalidate(1<<12))
	require.NoError(t, c.Insert(0xFFFF<<12, 0xF))
	require.ErrorIs(t, c.Insert(0xEEEE<<12, 0xE), heap.ErrOutOfMemory)
}

// Test_NewValidation covers constructor rejection.
func Test_NewValidation(t *testing.T) {
	_, err := New(nil, 8)
	require.Error(t, err)

	c, _ := newTestCache(t, 64*1024, -5)
	assert.Equal(t, 0, c.Cap(), "negative capacity clamps to zero")
}
