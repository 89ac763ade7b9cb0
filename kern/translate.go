package kern

import "github.com/pkg/errors"

// WalkFunc resolves a virtual page address to its physical frame when
// the translation cache misses. Successful results are memoized in the
// cache; errors pass through uncached.
type WalkFunc func(va uint64) (uint64, error)

// IdentityWalk maps every address to itself. It stands in for the page
// tables until a real walker is injected.
func IdentityWalk(va uint64) (uint64, error) {
	return va, nil
}

// Translate resolves va through the translation cache, walking on a
// miss and memoizing the result. A heap too full to cache the entry
// does not fail the translation; the walked result is returned
// uncached.
func (k *Kernel) Translate(va uint64) (uint64, error) {
	if pa, ok := k.tlb.Lookup(va); ok {
		return pa, nil
	}
	pa, err := k.walk(va)
	if err != nil {
		return 0, errors.Wrapf(err, "walking page tables for va=%x", va)
	}
	if err := k.tlb.Insert(va, pa); err != nil {
		k.log.Warn("translation left uncached", "va", va, "error", err)
	}
	return pa, nil
}
