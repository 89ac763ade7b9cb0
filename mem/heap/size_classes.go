package heap

import "github.com/joshuapare/kernelkit/internal/layout"

// Config defines the allocation size-class strategy. Classes are exact block
// sizes: every block on a class's free list has exactly that size, so a pop
// is a fit by construction.
type Config struct {
	// Name for this configuration (for benchmarking and stats dumps)
	Name string

	// Classes is the ascending list of block sizes served by dedicated free
	// lists. Each must be a multiple of the word size and at least one word
	// (the free-list link is threaded through the block's first four bytes).
	// Requests above the last class go to the fallback arena.
	Classes []int32
}

// Predefined configurations.
var (
	// Default: powers of two from one word to 2KB. Matches the small-object
	// profile of kernel workloads (task state, cache entries, driver rings).
	ConfigDefault = Config{
		Name:    "Default",
		Classes: []int32{8, 16, 32, 64, 128, 256, 512, 1024, 2048},
	}

	// FineGrained: linear 8-byte steps up to 128, then powers of two. Less
	// internal fragmentation for mixed small payloads at the cost of more
	// lists.
	ConfigFineGrained = Config{
		Name: "FineGrained",
		Classes: []int32{
			8, 16, 24, 32, 40, 48, 56, 64, 72, 80, 88, 96, 104, 112, 120, 128,
			256, 512, 1024, 2048,
		},
	}

	// Coarse: few buckets, faster scans and smaller tables, more internal
	// fragmentation.
	ConfigCoarse = Config{
		Name:    "Coarse",
		Classes: []int32{16, 64, 256, 1024},
	}

	// DefaultConfig is used when the caller does not specify one.
	DefaultConfig = ConfigDefault
)

// validate checks the class list invariants.
func (c Config) validate() error {
	if len(c.Classes) == 0 {
		return ErrBadConfig
	}
	prev := int32(0)
	for _, cls := range c.Classes {
		if cls < layout.WordSize || !layout.IsAligned(int(cls), layout.WordSize) {
			return ErrBadConfig
		}
		if cls <= prev {
			return ErrBadConfig
		}
		prev = cls
	}
	return nil
}

// classTable holds the computed size-class lookup state.
type classTable struct {
	config     Config
	sizes      []int32 // Exact block size for each class, ascending
	aligns     []int32 // Carve alignment per class (largest power of two <= size)
	numClasses int
}

// newClassTable computes the lookup table from config. Config must already
// be validated.
func newClassTable(config Config) *classTable {
	t := &classTable{
		config:     config,
		sizes:      config.Classes,
		aligns:     make([]int32, len(config.Classes)),
		numClasses: len(config.Classes),
	}
	for i, cls := range t.sizes {
		t.aligns[i] = prevPow2(cls)
	}
	return t
}

// classFor returns the class index for a given rounded request size.
// Returns t.numClasses for sizes above the largest class (fallback arena).
func (t *classTable) classFor(size int32) int {
	// Binary search for the smallest class >= size
	lo, hi := 0, t.numClasses-1
	for lo <= hi {
		mid := (lo + hi) / 2
		if size <= t.sizes[mid] {
			// Check if this is the smallest class that fits
			if mid == 0 || size > t.sizes[mid-1] {
				return mid
			}
			hi = mid - 1
		} else {
			lo = mid + 1
		}
	}

	// Size is larger than all classes -> fallback arena
	return t.numClasses
}

// maxClass returns the largest configured block size.
func (t *classTable) maxClass() int32 {
	return t.sizes[t.numClasses-1]
}

// String returns the configuration name.
func (t *classTable) String() string {
	return t.config.Name
}

// prevPow2 returns the largest power of two less than or equal to n (n >= 1).
func prevPow2(n int32) int32 {
	p := int32(1)
	for p<<1 <= n && p<<1 > 0 {
		p <<= 1
	}
	return p
}
