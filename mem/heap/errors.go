package heap

import "errors"

var (
	// ErrOutOfMemory indicates that no free block and no fallback space can
	// satisfy the request. The allocator never retries internally.
	ErrOutOfMemory = errors.New("heap: out of memory")

	// ErrBadRef indicates an invalid, out-of-bounds, or misaligned block
	// reference passed to Free or View.
	ErrBadRef = errors.New("heap: bad block reference")

	// ErrBadSize indicates a non-positive allocation size.
	ErrBadSize = errors.New("heap: size must be positive")

	// ErrBadAlign indicates an alignment that is not a power of two.
	ErrBadAlign = errors.New("heap: alignment must be a power of two")

	// ErrBadConfig indicates an invalid size-class configuration.
	ErrBadConfig = errors.New("heap: invalid size class configuration")

	// ErrRegionTooSmall indicates the region cannot hold even one chunk of
	// the largest configured class.
	ErrRegionTooSmall = errors.New("heap: region too small for configuration")
)
