package layout

// Alignment utilities for the managed heap region. The allocator requires
// cell offsets and sizes to sit on word boundaries, and the region itself to
// sit on page boundaries.

// AlignWord returns n aligned up to the next 8-byte boundary.
// Used for block sizes and arena offsets.
//
// Example:
//
//	AlignWord(1)  = 8
//	AlignWord(8)  = 8
//	AlignWord(9)  = 16
//	AlignWord(16) = 16
func AlignWord(n int) int {
	return (n + WordMask) & ^WordMask
}

// AlignPage returns n aligned up to the next 4KB (4096-byte) boundary.
// Used for sizing the mapped heap region.
//
// Example:
//
//	AlignPage(1)    = 4096
//	AlignPage(4096) = 4096
//	AlignPage(4097) = 8192
func AlignPage(n int) int {
	return (n + PageMask) & ^PageMask
}

// AlignUp returns n aligned up to the next multiple of a. The alignment a
// must be a power of two; callers validate this at their own boundary.
func AlignUp(n, a int) int {
	return (n + a - 1) & ^(a - 1)
}

// IsAligned reports whether n is a multiple of a (a power of two).
func IsAligned(n, a int) bool {
	return n&(a-1) == 0
}

// IsPowerOfTwo reports whether n is a positive power of two.
func IsPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}
