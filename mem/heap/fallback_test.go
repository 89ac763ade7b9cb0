package heap

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// arena tests drive the fallback sub-allocator directly through a bare
// backing slice; offsets here are arena offsets, not allocator Refs.

func newTestArena(size int) *arena {
	data := make([]byte, size)
	ar := newArena(data, dataBase, int32(size))
	return &ar
}

// Test_ArenaBumpAndAlign verifies the bump path and that alignment gaps are
// kept as usable spans rather than leaked.
func Test_ArenaBumpAndAlign(t *testing.T) {
	ar := newTestArena(4096)

	off, err := ar.alloc(64, 8)
	require.NoError(t, err)
	require.Equal(t, int32(8), off)

	// 256-alignment forces a gap: [72, 256) should become a free span.
	off2, err := ar.alloc(256, 256)
	require.NoError(t, err)
	require.Equal(t, int32(256), off2)
	require.Equal(t, int32(184), ar.freeSum, "alignment gap must be listed")

	// A later word-aligned request is served from the gap, not the cursor.
	cursorBefore := ar.cursor
	off3, err := ar.alloc(64, 8)
	require.NoError(t, err)
	require.Equal(t, int32(72), off3, "gap span should be reused first fit")
	require.Equal(t, cursorBefore, ar.cursor)
}

// Test_ArenaCoalescing verifies forward, backward, and both-sided merges.
func Test_ArenaCoalescing(t *testing.T) {
	ar := newTestArena(8192)

	a, err := ar.alloc(256, 8)
	require.NoError(t, err)
	b, err := ar.alloc(256, 8)
	require.NoError(t, err)
	c, err := ar.alloc(256, 8)
	require.NoError(t, err)

	// Free a and c: two separate spans.
	_, _, err = ar.free(a, 256)
	require.NoError(t, err)
	fwd, back, err := ar.free(c, 256)
	require.NoError(t, err)
	require.False(t, fwd)
	require.False(t, back, "a and c are not adjacent to anything free")

	// Freeing b bridges them: merges with both neighbors.
	fwd, back, err = ar.free(b, 256)
	require.NoError(t, err)
	require.True(t, fwd, "should absorb c's span")
	require.True(t, back, "should extend a's span")
	require.Equal(t, int32(768), ar.freeSum)
	require.Equal(t, Ref(a), ar.freeHead, "single merged span at a")
	require.Equal(t, int32(768), ar.spanSize(a))
	require.Equal(t, NilRef, ar.spanNext(a))

	// The merged span serves a request no single piece could.
	off, err := ar.alloc(768, 8)
	require.NoError(t, err)
	require.Equal(t, a, off)
	require.Equal(t, int32(0), ar.freeSum)
}

// Test_ArenaSplitFromFront verifies first fit splits a larger span and keeps
// the remainder listed at the right position.
func Test_ArenaSplitFromFront(t *testing.T) {
	ar := newTestArena(8192)

	a, err := ar.alloc(512, 8)
	require.NoError(t, err)
	_, err = ar.alloc(64, 8) // pin so the span cannot merge upward
	require.NoError(t, err)

	_, _, err = ar.free(a, 512)
	require.NoError(t, err)

	off, err := ar.alloc(128, 8)
	require.NoError(t, err)
	require.Equal(t, a, off, "fit should come from the span's front")
	require.Equal(t, a+128, int32(ar.freeHead), "remainder stays listed")
	require.Equal(t, int32(384), ar.spanSize(a+128))
}

// Test_ArenaExhaustion verifies the no-fit path.
func Test_ArenaExhaustion(t *testing.T) {
	ar := newTestArena(4096)

	_, err := ar.alloc(4088, 8)
	require.NoError(t, err, "exactly the arena capacity must fit")

	_, err = ar.alloc(8, 8)
	require.ErrorIs(t, err, ErrOutOfMemory)
}

// Test_ArenaFreeValidation verifies bounds and overlap detection.
func Test_ArenaFreeValidation(t *testing.T) {
	ar := newTestArena(4096)

	off, err := ar.alloc(256, 8)
	require.NoError(t, err)

	_, _, err = ar.free(4, 8)
	require.ErrorIs(t, err, ErrBadRef, "below base")
	_, _, err = ar.free(off, 4096)
	require.ErrorIs(t, err, ErrBadRef, "beyond carved space")
	_, _, err = ar.free(off+1, 8)
	require.ErrorIs(t, err, ErrBadRef, "misaligned")

	_, _, err = ar.free(off, 256)
	require.NoError(t, err)
	_, _, err = ar.free(off, 256)
	require.ErrorIs(t, err, ErrBadRef, "double free overlaps the listed span")

	// Freeing memory inside a listed span is also an overlap.
	_, _, err = ar.free(off+64, 64)
	require.ErrorIs(t, err, ErrBadRef)
}
