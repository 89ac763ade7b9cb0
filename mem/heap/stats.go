package heap

// Stats holds allocator counters for testing and instrumentation. Values are
// cumulative since construction except LiveBytes and the fallback gauges.
type Stats struct {
	Config string // Size-class configuration name

	AllocCalls     int // Total Alloc() calls
	FreeCalls      int // Total Free() calls
	FailedAllocs   int // Alloc() calls that returned an error
	ClassHits      int // Allocations served by popping a class free list
	ClassRefills   int // Class chunks carved from the fallback arena
	OversizeAllocs int // Allocations above the largest class
	OversizeFrees  int // Frees above the largest class

	BytesAllocated int64 // Total bytes handed out (after rounding)
	BytesFreed     int64 // Total bytes returned
	LiveBytes      int64 // Outstanding bytes right now
	PeakLiveBytes  int64 // High-water mark of LiveBytes

	CoalesceForward  int // Arena frees merged with their successor
	CoalesceBackward int // Arena frees merged with their predecessor

	FallbackBytesUsed int // Bytes carved from the arena (bump cursor advance)
	FallbackBytesFree int // Bytes parked on the arena free list
}

// Stats returns a snapshot of the allocator counters.
func (a *Allocator) Stats() Stats {
	a.mu.Lock()
	defer a.mu.Unlock()
	s := a.stats
	s.FallbackBytesUsed = int(a.ar.used())
	s.FallbackBytesFree = int(a.ar.freeSum)
	return s
}
