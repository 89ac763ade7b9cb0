// Package heap provides block allocation and free-list management for the
// kernel's memory region.
//
// # Overview
//
// This package implements dynamic memory allocation over a fixed region using
// a segregated free-list design. Small requests are served from per-size-class
// free lists in O(1); requests above the largest class fall through to an
// address-ordered fallback arena carved from the same region.
//
// # Design
//
// The region is addressed exclusively by Ref values (uint32 offsets), never by
// retained pointers. Free blocks thread their list links through their own
// first four bytes, so a free list costs nothing beyond the per-class head.
//
//	Alloc(size, align): round up to the smallest class >= max(size, align);
//	                    pop that class's free list, or carve one class-sized,
//	                    class-aligned chunk from the fallback arena
//	Free(ref, size, align): recompute the class the same way and push the
//	                    block back; fallback blocks return to an address-
//	                    ordered free list with immediate coalescing
//
// Size-class free lists are LIFO and hold blocks of exactly one size, so a
// pop never needs a fit check. The fallback arena bumps a cursor upward and
// reuses freed spans first, merging adjacent spans on free.
//
// # Size Classes
//
// The class table is configurable. The default is powers of two from 8 bytes
// to 2 KiB:
//
//	8  16  32  64  128  256  512  1024  2048
//
// Every class chunk is carved aligned to the largest power of two not
// exceeding the class size, so a recycled block satisfies any alignment a
// request in that class can legally ask for.
//
// # Exhaustion
//
// When neither a free block nor fallback space satisfies a request, Alloc
// returns ErrOutOfMemory. The allocator never grows the region and never
// retries; recovery policy belongs to the caller.
//
// # Thread Safety
//
// A single mutex serializes the whole allocator. Operations are short and
// bounded, so the lock is safe to take from wake paths and driver callbacks.
//
// # Related Packages
//
//   - github.com/joshuapare/kernelkit/mem: the backing Region
//   - github.com/joshuapare/kernelkit/mem/tlb: translation cache allocating
//     its entry cells here
//   - github.com/joshuapare/kernelkit/internal/layout: offset arithmetic
package heap
