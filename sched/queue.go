package sched

import "sync/atomic"

// readyRing is a fixed-size multi-producer ring buffer of TaskIDs. Wakers
// push from any goroutine (interrupt handlers included); the run loop pops.
// Each slot carries a sequence counter so a producer publishes its ID only
// after the slot write is complete, without locking. No allocations after
// construction and no blocking on either side.
type readyRing struct {
	_     [0]func() // prevent accidental copying.
	mask  uint64
	slots []ringSlot
	enq   atomic.Uint64
	deq   atomic.Uint64
}

// ringSlot pairs an ID with its publication sequence. seq == pos means the
// slot is free for the producer at pos; seq == pos+1 means the ID at pos is
// ready for the consumer.
type ringSlot struct {
	seq atomic.Uint64
	id  TaskID
}

// newReadyRing builds a ring holding at least capacity IDs. Capacity is
// rounded up to the next power of two for mask indexing.
func newReadyRing(capacity int) *readyRing {
	n := uint64(1)
	for n < uint64(capacity) {
		n <<= 1
	}
	r := &readyRing{
		mask:  n - 1,
		slots: make([]ringSlot, n),
	}
	for i := range r.slots {
		r.slots[i].seq.Store(uint64(i))
	}
	return r
}

// tryPush claims a slot and publishes id, returning false if the ring is
// full.
func (r *readyRing) tryPush(id TaskID) bool {
	pos := r.enq.Load()
	for {
		slot := &r.slots[pos&r.mask]
		seq := slot.seq.Load()
		dif := int64(seq) - int64(pos)

		switch {
		case dif == 0:
			// Slot free at this position; race other producers for it.
			if r.enq.CompareAndSwap(pos, pos+1) {
				slot.id = id
				slot.seq.Store(pos + 1)
				return true
			}
			pos = r.enq.Load()
		case dif < 0:
			// Consumer has not freed this slot yet.
			return false
		default:
			// Another producer claimed pos; catch up.
			pos = r.enq.Load()
		}
	}
}

// tryPop dequeues one ID, returning false if the ring is empty.
func (r *readyRing) tryPop() (TaskID, bool) {
	pos := r.deq.Load()
	for {
		slot := &r.slots[pos&r.mask]
		seq := slot.seq.Load()
		dif := int64(seq) - int64(pos+1)

		switch {
		case dif == 0:
			if r.deq.CompareAndSwap(pos, pos+1) {
				id := slot.id
				// Free the slot for the producer one lap ahead.
				slot.seq.Store(pos + r.mask + 1)
				return id, true
			}
			pos = r.deq.Load()
		case dif < 0:
			return 0, false
		default:
			pos = r.deq.Load()
		}
	}
}

// canPop reports whether an ID is ready at the current dequeue position.
// The answer can go stale immediately; callers use it only for the parking
// re-check where a racing push also signals.
func (r *readyRing) canPop() bool {
	pos := r.deq.Load()
	return r.slots[pos&r.mask].seq.Load() == pos+1
}

// capacity returns the ring's slot count.
func (r *readyRing) capacity() int {
	return len(r.slots)
}
