package heap

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/kernelkit/mem"
)

// ============================================================================
// Allocator Construction Utilities
// ============================================================================

// newTestAllocator reserves a fresh region of the given size and builds an
// allocator over it. The region is released when the test finishes.
func newTestAllocator(t testing.TB, regionSize int, cfg *Config) *Allocator {
	t.Helper()

	if cfg == nil {
		c := DefaultConfig
		cfg = &c
	}

	region, err := mem.NewRegion(regionSize)
	require.NoError(t, err, "failed to reserve test region")
	t.Cleanup(func() { _ = region.Release() })

	a, err := New(region, *cfg)
	require.NoError(t, err, "failed to build allocator")
	return a
}

// liveBlock records one outstanding allocation for overlap auditing.
type liveBlock struct {
	ref  Ref
	size int32
}

// requireNoOverlap asserts that no two live blocks share any byte.
// Quadratic, fine at test sizes.
func requireNoOverlap(t testing.TB, blocks []liveBlock) {
	t.Helper()
	for i := range blocks {
		for j := i + 1; j < len(blocks); j++ {
			a, b := blocks[i], blocks[j]
			aEnd := int64(a.ref) + int64(a.size)
			bEnd := int64(b.ref) + int64(b.size)
			overlap := int64(a.ref) < bEnd && int64(b.ref) < aEnd
			require.False(t, overlap,
				"blocks overlap: [0x%X,0x%X) and [0x%X,0x%X)", a.ref, aEnd, b.ref, bEnd)
		}
	}
}

// roundedSize returns the bytes a request actually consumes: the class size
// for class-served requests, the word-aligned size for oversize ones.
func roundedSize(a *Allocator, size, align int) int32 {
	sc := a.ClassFor(size, align)
	if sc < len(a.table.sizes) {
		return a.table.sizes[sc]
	}
	return int32((size + 7) &^ 7)
}
