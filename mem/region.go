// Package mem owns the contiguous memory range the kernel core lives in.
// A Region is reserved once at boot and never resized; every structure above
// it (allocator free lists, cache entries, driver buffers) addresses it by
// offset rather than by retained pointer.
package mem

import (
	"fmt"

	"github.com/joshuapare/kernelkit/internal/layout"
	"github.com/joshuapare/kernelkit/internal/mapmem"
)

// MinRegionSize is the smallest region worth carving an allocator out of.
const MinRegionSize = layout.PageSize

// Region is the reserved heap range, backed by an anonymous mapping
// (unix) or a byte slice (others).
type Region struct {
	data    []byte
	size    int
	release func() error
}

// NewRegion reserves a zero-filled region of exactly size bytes. Size must
// be at least MinRegionSize and a multiple of the word size.
func NewRegion(size int) (*Region, error) {
	if size < MinRegionSize {
		return nil, fmt.Errorf("mem: region size %d below minimum %d", size, MinRegionSize)
	}
	if !layout.IsAligned(size, layout.WordSize) {
		return nil, fmt.Errorf("mem: region size %d not %d-byte aligned", size, layout.WordSize)
	}
	data, release, err := mapmem.Map(size)
	if err != nil {
		return nil, err
	}
	return &Region{data: data, size: size, release: release}, nil
}

// Bytes returns the backing bytes. The slice header must not be retained
// across Release; components hold offsets instead.
func (r *Region) Bytes() []byte { return r.data }

// Size returns the region length in bytes.
func (r *Region) Size() int { return r.size }

// Release returns the region to the operating system. Safe to call more
// than once; all offsets into the region are invalid afterwards.
func (r *Region) Release() error {
	if r.release == nil {
		return nil
	}
	rel := r.release
	r.release = nil
	r.data = nil
	return rel()
}
