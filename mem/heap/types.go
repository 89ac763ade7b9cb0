package heap

// Ref is a block reference - a uint32 offset from the start of the region.
// Refs are stable for the lifetime of the allocator; the region never moves.
type Ref = uint32

// NilRef is the zero Ref. The first word of the region is reserved so no
// block ever starts at offset 0, which lets free-list links use 0 as nil.
const NilRef Ref = 0
