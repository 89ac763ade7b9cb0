package heap

import (
	"fmt"
	"sync"

	"github.com/joshuapare/kernelkit/internal/layout"
	"github.com/joshuapare/kernelkit/mem"
)

const (
	// dataBase reserves the region's first word so no block starts at
	// offset 0 and NilRef stays unambiguous in free-list links.
	dataBase = layout.WordSize

	// maxRegionSize caps the region at what int32 offsets can address.
	maxRegionSize = 0x7FFFFFF0
)

// Allocator serves all dynamic memory requests inside the kernel from a
// fixed Region. Small requests come from per-size-class free lists threaded
// through the freed blocks themselves; larger ones from the fallback arena.
//
// The allocator is constructed once per region and never torn down; blocks
// are allocated and freed for the lifetime of the kernel.
type Allocator struct {
	mu sync.Mutex

	data  []byte
	table *classTable

	// Per-class free-list heads and counts. Links live inside the region;
	// only the heads live here.
	heads  []Ref
	counts []int32

	// Fallback arena for oversize requests and class chunk carving.
	ar arena

	stats Stats
}

// New builds an allocator over region with the given size-class
// configuration. The region must hold at least one chunk of the largest
// class beyond the reserved base word.
func New(region *mem.Region, cfg Config) (*Allocator, error) {
	if region == nil || region.Bytes() == nil {
		return nil, fmt.Errorf("heap: nil or released region")
	}
	if region.Size() > maxRegionSize {
		return nil, fmt.Errorf("heap: region size %d exceeds int32 addressing limit", region.Size())
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	table := newClassTable(cfg)

	data := region.Bytes()
	size := int32(region.Size())
	if dataBase+table.maxClass() > size {
		return nil, ErrRegionTooSmall
	}

	a := &Allocator{
		data:   data,
		table:  table,
		heads:  make([]Ref, table.numClasses),
		counts: make([]int32, table.numClasses),
		ar:     newArena(data, dataBase, size),
	}
	a.stats.Config = cfg.Name
	return a, nil
}

// Alloc returns a block of at least size bytes aligned to align. Sizes at or
// below the largest class are rounded up to the smallest class that also
// covers align; larger requests go to the fallback arena. The returned slice
// views the block's bytes; its contents are unspecified.
func (a *Allocator) Alloc(size, align int) (Ref, []byte, error) {
	if size <= 0 {
		return NilRef, nil, ErrBadSize
	}
	if align <= 0 {
		align = 1
	}
	if !layout.IsPowerOfTwo(align) {
		return NilRef, nil, ErrBadAlign
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.stats.AllocCalls++
	if size > len(a.data) || align > len(a.data) {
		a.stats.FailedAllocs++
		return NilRef, nil, ErrOutOfMemory
	}

	effective := int32(size)
	if int32(align) > effective {
		effective = int32(align)
	}

	if sc := a.table.classFor(effective); sc < a.table.numClasses {
		ref, err := a.allocClass(sc)
		if err != nil {
			a.stats.FailedAllocs++
			return NilRef, nil, err
		}
		cls := a.table.sizes[sc]
		a.recordAlloc(int64(cls))
		return ref, a.block(ref, cls), nil
	}

	// Oversize: straight to the fallback arena.
	need := int32(layout.AlignWord(size))
	off, err := a.ar.alloc(need, int32(align))
	if err != nil {
		a.stats.FailedAllocs++
		return NilRef, nil, err
	}
	a.stats.OversizeAllocs++
	a.recordAlloc(int64(need))
	return Ref(off), a.block(Ref(off), need), nil
}

// allocClass pops the class free list, carving a fresh chunk from the
// fallback arena when the list is empty.
func (a *Allocator) allocClass(sc int) (Ref, error) {
	if ref := a.heads[sc]; ref != NilRef {
		a.heads[sc] = layout.ReadU32(a.data, int(ref))
		a.counts[sc]--
		a.stats.ClassHits++
		return ref, nil
	}
	off, err := a.ar.alloc(a.table.sizes[sc], a.table.aligns[sc])
	if err != nil {
		return NilRef, err
	}
	a.stats.ClassRefills++
	return Ref(off), nil
}

// Free returns a block to circulation. Size and align must be the values
// the block was allocated with; the original size class is recomputed from
// them. Out-of-range or misaligned refs return ErrBadRef. A double free of
// a class block is not detectable and corrupts that class's list; avoiding
// it is the caller's contract.
func (a *Allocator) Free(ref Ref, size, align int) error {
	if size <= 0 {
		return ErrBadSize
	}
	if align <= 0 {
		align = 1
	}
	if !layout.IsPowerOfTwo(align) {
		return ErrBadAlign
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.stats.FreeCalls++
	if size > len(a.data) || align > len(a.data) {
		return ErrBadRef
	}

	effective := int32(size)
	if int32(align) > effective {
		effective = int32(align)
	}
	off := int32(ref)

	if sc := a.table.classFor(effective); sc < a.table.numClasses {
		cls := a.table.sizes[sc]
		if off < dataBase || int(off)+int(cls) > int(a.ar.cursor) {
			return ErrBadRef
		}
		if !layout.IsAligned(int(off), int(a.table.aligns[sc])) {
			return ErrBadRef
		}
		// Push onto the class list; the link lives in the block itself.
		layout.PutU32(a.data, int(off), a.heads[sc])
		a.heads[sc] = ref
		a.counts[sc]++
		a.recordFree(int64(cls))
		return nil
	}

	need := int32(layout.AlignWord(size))
	mergedFwd, mergedBack, err := a.ar.free(off, need)
	if err != nil {
		return err
	}
	if mergedFwd {
		a.stats.CoalesceForward++
	}
	if mergedBack {
		a.stats.CoalesceBackward++
	}
	a.stats.OversizeFrees++
	a.recordFree(int64(need))
	return nil
}

// View returns the bytes of a block previously handed out by Alloc.
// Components that store Refs instead of slices use this to re-derive a view.
func (a *Allocator) View(ref Ref, size int) ([]byte, error) {
	off := int(ref)
	if off < dataBase || size <= 0 || off+size > len(a.data) {
		return nil, ErrBadRef
	}
	return a.data[off : off+size], nil
}

// block slices the region for a freshly allocated block. Bounds were
// established by the allocation path.
func (a *Allocator) block(ref Ref, size int32) []byte {
	return a.data[int(ref) : int(ref)+int(size)]
}

func (a *Allocator) recordAlloc(n int64) {
	a.stats.BytesAllocated += n
	a.stats.LiveBytes += n
	if a.stats.LiveBytes > a.stats.PeakLiveBytes {
		a.stats.PeakLiveBytes = a.stats.LiveBytes
	}
}

func (a *Allocator) recordFree(n int64) {
	a.stats.BytesFreed += n
	a.stats.LiveBytes -= n
}

// Classes returns the configured block sizes, ascending.
func (a *Allocator) Classes() []int32 {
	out := make([]int32, len(a.table.sizes))
	copy(out, a.table.sizes)
	return out
}

// ClassFor returns the class index a request of (size, align) would be
// served from, or the number of classes for fallback-arena requests.
func (a *Allocator) ClassFor(size, align int) int {
	effective := int32(size)
	if int32(align) > effective {
		effective = int32(align)
	}
	return a.table.classFor(effective)
}

// FreeCount returns how many blocks sit on the free list of class sc.
func (a *Allocator) FreeCount(sc int) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	if sc < 0 || sc >= len(a.counts) {
		return 0
	}
	return int(a.counts[sc])
}
