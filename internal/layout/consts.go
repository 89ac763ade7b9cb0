// Package layout houses the low-level alignment and byte-encoding helpers
// shared by every component that addresses the managed heap region. The goal
// is to keep offset arithmetic in one place, allocation-free, and independent
// from the public API so higher-level packages can stay focused on semantics.
package layout

const (
	// WordSize is the machine word granularity the heap region is carved at.
	// Every allocation offset and every size-class block size is a multiple
	// of this.
	WordSize = 8

	// WordMask is the bitmask used for aligning to WordSize boundaries.
	WordMask = WordSize - 1

	// RefSize is the size of an arena offset reference (uint32). Free-list
	// links, cache entry links, and framebuffer handles are all stored in
	// this width.
	RefSize = 4

	// PageSize is the granularity the heap region itself is sized at. Mapped
	// regions are always a whole number of pages.
	PageSize = 4096

	// PageMask is the bitmask used for aligning to PageSize boundaries.
	PageMask = PageSize - 1
)
