package heap

import "github.com/joshuapare/kernelkit/internal/layout"

// Free-span layout inside the fallback arena. A span is a free region
// described entirely by bytes written into the region itself:
//
//	off+0  u32  span size in bytes (always a word multiple, >= 8)
//	off+4  u32  Ref of the next span, address-ordered; NilRef terminates
const (
	spanSizeOff = 0
	spanNextOff = layout.RefSize
	minSpan     = layout.WordSize
)

// arena is the fallback sub-allocator for requests above the largest size
// class, and the source size-class chunks are carved from. It bumps a cursor
// upward through its range and keeps freed spans on an address-ordered list
// threaded through the spans themselves, merging adjacent spans immediately.
type arena struct {
	data     []byte
	base     int32 // first usable offset
	end      int32 // exclusive upper bound
	cursor   int32 // bump position; [base, cursor) has been carved
	freeHead Ref   // address-ordered free span list, NilRef when empty
	freeSum  int32 // total bytes parked on the free list
}

func newArena(data []byte, base, end int32) arena {
	return arena{data: data, base: base, end: end, cursor: base, freeHead: NilRef}
}

func (ar *arena) spanSize(off int32) int32 {
	return int32(layout.ReadU32(ar.data, int(off)+spanSizeOff))
}

func (ar *arena) spanNext(off int32) Ref {
	return layout.ReadU32(ar.data, int(off)+spanNextOff)
}

func (ar *arena) setSpan(off, size int32, next Ref) {
	layout.PutU32(ar.data, int(off)+spanSizeOff, uint32(size))
	layout.PutU32(ar.data, int(off)+spanNextOff, next)
}

// relink points prev's next (or the list head) at target.
func (ar *arena) relink(prev, target Ref) {
	if prev == NilRef {
		ar.freeHead = target
	} else {
		layout.PutU32(ar.data, int(prev)+spanNextOff, target)
	}
}

// alloc returns a span of exactly need bytes aligned to align. need must be
// a word multiple; align below the word size is raised to it. The free list
// is searched first (first fit, split from the front); the bump cursor only
// advances when no span fits.
func (ar *arena) alloc(need, align int32) (int32, error) {
	if align < layout.WordSize {
		align = layout.WordSize
	}

	// First fit over the address-ordered free spans. Spans whose start does
	// not meet the alignment are skipped rather than carved mid-span; every
	// span is word-aligned, so the common align=8 case never skips.
	prev := NilRef
	cur := ar.freeHead
	for cur != NilRef {
		off := int32(cur)
		size := ar.spanSize(off)
		next := ar.spanNext(off)
		if size >= need && layout.IsAligned(int(off), int(align)) {
			// Sizes and need are word multiples, so a nonzero remainder is
			// always big enough to stand as a span of its own.
			if rem := size - need; rem >= minSpan {
				tail := off + need
				ar.setSpan(tail, rem, next)
				ar.relink(prev, Ref(tail))
			} else {
				ar.relink(prev, next)
			}
			ar.freeSum -= need
			return off, nil
		}
		prev = cur
		cur = next
	}

	// Bump path. Alignment gaps are word multiples and become free spans,
	// so they stay usable by later requests.
	aligned := int32(layout.AlignUp(int(ar.cursor), int(align)))
	if int(aligned)+int(need) > int(ar.end) {
		return 0, ErrOutOfMemory
	}
	gap := aligned - ar.cursor
	ar.cursor = aligned + need
	if gap > 0 {
		if _, _, err := ar.insertFree(aligned-gap, gap); err != nil {
			return 0, err
		}
	}
	return aligned, nil
}

// free returns a previously allocated span to the free list. Reports whether
// the span merged with its successor and predecessor.
func (ar *arena) free(off, size int32) (mergedFwd, mergedBack bool, err error) {
	if off < ar.base || !layout.IsAligned(int(off), layout.WordSize) {
		return false, false, ErrBadRef
	}
	if int(off)+int(size) > int(ar.cursor) {
		return false, false, ErrBadRef
	}
	return ar.insertFree(off, size)
}

// insertFree links a span into the address-ordered list, coalescing with the
// neighbor on either side when adjacent. Overlap with an existing span means
// the caller handed back memory that is already free.
func (ar *arena) insertFree(off, size int32) (mergedFwd, mergedBack bool, err error) {
	prev := NilRef
	cur := ar.freeHead
	for cur != NilRef && int32(cur) < off {
		prev = cur
		cur = ar.spanNext(int32(cur))
	}

	if prev != NilRef && int32(prev)+ar.spanSize(int32(prev)) > off {
		return false, false, ErrBadRef
	}
	if cur != NilRef && off+size > int32(cur) {
		return false, false, ErrBadRef
	}

	incoming := size
	next := cur
	if cur != NilRef && off+size == int32(cur) {
		// Merge forward: absorb the successor span.
		size += ar.spanSize(int32(cur))
		next = ar.spanNext(int32(cur))
		mergedFwd = true
	}

	if prev != NilRef && int32(prev)+ar.spanSize(int32(prev)) == off {
		// Merge backward: grow the predecessor in place.
		ar.setSpan(int32(prev), ar.spanSize(int32(prev))+size, next)
		mergedBack = true
	} else {
		ar.setSpan(off, size, next)
		ar.relink(prev, Ref(off))
	}

	// Absorbed neighbors were already counted; only the new bytes move the sum.
	ar.freeSum += incoming
	return mergedFwd, mergedBack, nil
}

// used returns how many bytes have been carved from the arena so far.
func (ar *arena) used() int32 { return ar.cursor - ar.base }

// available returns the bytes still reachable: untouched bump space plus
// freed spans.
func (ar *arena) available() int32 { return (ar.end - ar.cursor) + ar.freeSum }
