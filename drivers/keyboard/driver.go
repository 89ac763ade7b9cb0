// Package keyboard turns raw PS/2 set-1 scancodes into a rune stream.
//
// The driver sits between two worlds. The interrupt side calls Push with
// each scancode; Push writes into a lock-free ring whose storage is a
// single heap cell, then fires the stream task's waker. The stream task,
// spawned on the kernel executor, drains the ring on each poll, runs the
// bytes through the layout decoder, and hands finished runes to the
// sink. A full ring drops the newest scancode rather than blocking the
// interrupt path.
//
// The ring is single-producer single-consumer: the platform serializes
// interrupt delivery, and the executor serializes polls. Push publishes
// the head index only after the slot byte is written, so the consumer
// never reads a half-delivered scancode.
package keyboard

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/hashicorp/go-hclog"

	"github.com/joshuapare/kernelkit/internal/layout"
	"github.com/joshuapare/kernelkit/klog"
	"github.com/joshuapare/kernelkit/mem/heap"
	"github.com/joshuapare/kernelkit/sched"
)

const defaultCapacity = 128

// Options configures a Driver. A nil *Options selects all defaults.
type Options struct {
	// Capacity is the scancode ring size in bytes, rounded up to a
	// power of two.
	// Default: 128.
	Capacity int

	// Sink receives each decoded rune from the stream task.
	// Default: discard.
	Sink func(rune)

	// Logger receives dropped-scancode warnings.
	// Default: klog.L.
	Logger hclog.Logger
}

func (o *Options) withDefaults() Options {
	var out Options
	if o != nil {
		out = *o
	}
	if out.Capacity <= 0 {
		out.Capacity = defaultCapacity
	}
	if out.Sink == nil {
		out.Sink = func(rune) {}
	}
	if out.Logger == nil {
		out.Logger = klog.L
	}
	return out
}

// Driver owns the scancode ring, the layout decoder, and the stream
// task that connects them. Construct with New; the zero value is not
// usable.
type Driver struct {
	heap *heap.Allocator
	log  hclog.Logger
	sink func(rune)

	ref     heap.Ref
	buf     []byte
	bufSize int
	mask    uint32

	// head is the producer cursor, tail the consumer cursor. Both only
	// grow; head-tail is the fill level.
	head atomic.Uint32
	tail atomic.Uint32

	waker  atomic.Pointer[sched.Waker]
	closed atomic.Bool

	// dec is touched only by the stream task's polls, which the
	// executor serializes.
	dec decoder

	scancodes atomic.Uint64
	keys      atomic.Uint64
	dropped   atomic.Uint64
}

// Stats is a snapshot of the driver counters.
type Stats struct {
	// Scancodes is the number of raw bytes Push has received, dropped
	// ones included.
	Scancodes uint64

	// Keys is the number of runes emitted to the sink.
	Keys uint64

	// Dropped counts scancodes rejected by a full ring.
	Dropped uint64
}

// New allocates the scancode ring from a and returns a driver. Spawn
// the stream task from Task before pushing scancodes.
func New(a *heap.Allocator, opts *Options) (*Driver, error) {
	if a == nil {
		return nil, errors.New("keyboard: nil allocator")
	}
	o := opts.withDefaults()

	size := 1
	for size < o.Capacity {
		size <<= 1
	}
	ref, buf, err := a.Alloc(size, layout.WordSize)
	if err != nil {
		return nil, fmt.Errorf("keyboard: allocating scancode ring: %w", err)
	}
	return &Driver{
		heap:    a,
		log:     o.Logger,
		sink:    o.Sink,
		ref:     ref,
		buf:     buf,
		bufSize: size,
		mask:    uint32(size - 1),
	}, nil
}

// Push hands one raw scancode to the driver and wakes the stream task.
// It reports whether the byte was queued; on a full ring the scancode is
// dropped and a warning logged, while earlier bytes stay queued. Push
// never blocks and never allocates, so it is safe from interrupt-style
// contexts. One producer at a time; pushes after Close are dropped.
func (d *Driver) Push(code byte) bool {
	if d.closed.Load() {
		return false
	}
	d.scancodes.Add(1)

	head := d.head.Load()
	ok := head-d.tail.Load() < uint32(len(d.buf))
	if ok {
		d.buf[head&d.mask] = code
		// Publish only after the slot write.
		d.head.Store(head + 1)
	} else {
		d.dropped.Add(1)
		d.log.Warn("scancode ring full, dropping", "code", fmt.Sprintf("%#02x", code))
	}
	if w := d.waker.Load(); w != nil {
		w.Wake()
	}
	return ok
}

// Task returns the stream task. Spawn it exactly once; its first poll
// registers the waker Push fires from then on. The task parks between
// bursts and retires after Close.
func (d *Driver) Task() sched.Task {
	return sched.TaskFunc(func(w *sched.Waker) sched.Poll {
		d.waker.Store(w)
		if d.closed.Load() {
			return sched.Done
		}
		d.drain()
		return sched.Pending
	})
}

// drain consumes every queued scancode, decoding and emitting as it
// goes. The waker is registered before drain runs, so a push that lands
// after the head load here still forces another poll.
func (d *Driver) drain() {
	tail := d.tail.Load()
	head := d.head.Load()
	for tail != head {
		code := d.buf[tail&d.mask]
		tail++
		d.tail.Store(tail)
		if r, ok := d.dec.step(code); ok {
			d.keys.Add(1)
			d.sink(r)
		}
	}
}

// Buffered returns the number of scancodes waiting in the ring.
func (d *Driver) Buffered() int {
	return int(d.head.Load() - d.tail.Load())
}

// Capacity returns the ring size in bytes.
func (d *Driver) Capacity() int {
	return d.bufSize
}

// Stats returns a snapshot of the driver counters.
func (d *Driver) Stats() Stats {
	return Stats{
		Scancodes: d.scancodes.Load(),
		Keys:      d.keys.Load(),
		Dropped:   d.dropped.Load(),
	}
}

// Close returns the ring cell to the heap and wakes the stream task so
// it can retire. The producer must have stopped and the executor must
// not be mid-poll; the kernel halts before closing its drivers. Close is
// idempotent.
func (d *Driver) Close() error {
	if !d.closed.CompareAndSwap(false, true) {
		return nil
	}
	if w := d.waker.Load(); w != nil {
		w.Wake()
	}
	err := d.heap.Free(d.ref, d.bufSize, layout.WordSize)
	d.buf = nil
	d.ref = heap.NilRef
	if err != nil {
		return fmt.Errorf("keyboard: freeing scancode ring: %w", err)
	}
	return nil
}
