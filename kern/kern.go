// Package kern boots the kernel core and owns its subsystems: the heap
// region and allocator, the translation cache, the console and keyboard
// drivers, and the task executor. Everything hangs off the Kernel value
// Boot returns; there are no package-level singletons, so tests and
// tools can run kernels side by side.
package kern

import (
	"context"
	"sync"

	"github.com/hashicorp/go-hclog"
	"github.com/pkg/errors"

	"github.com/joshuapare/kernelkit/drivers/console"
	"github.com/joshuapare/kernelkit/drivers/keyboard"
	"github.com/joshuapare/kernelkit/mem"
	"github.com/joshuapare/kernelkit/mem/heap"
	"github.com/joshuapare/kernelkit/mem/tlb"
	"github.com/joshuapare/kernelkit/sched"
)

// Kernel is the booted system. Construct with Boot; the zero value is
// not usable. The Kernel must not be used after Close.
type Kernel struct {
	log hclog.Logger

	region *mem.Region
	heap   *heap.Allocator
	tlb    *tlb.Cache
	cons   *console.Console
	kbd    *keyboard.Driver
	exec   *sched.Executor

	kbdTask sched.TaskID
	walk    WalkFunc

	mu     sync.Mutex
	closed bool
}

// Boot brings the subsystems up in dependency order: heap region,
// allocator, translation cache, console, keyboard driver, executor, and
// finally the keyboard stream task. A failed step releases the region
// and reports which step failed.
func Boot(cfg Config) (*Kernel, error) {
	cfg = cfg.withDefaults()

	region, err := mem.NewRegion(cfg.HeapSize)
	if err != nil {
		return nil, errors.Wrap(err, "reserving heap region")
	}
	// Every later step allocates from this region, so unwinding a
	// failed boot is one release.
	fail := func(step string, err error) (*Kernel, error) {
		_ = region.Release()
		return nil, errors.Wrap(err, step)
	}

	alloc, err := heap.New(region, cfg.HeapConfig)
	if err != nil {
		return fail("building allocator", err)
	}

	translations, err := tlb.New(alloc, cfg.TLBEntries)
	if err != nil {
		return fail("building translation cache", err)
	}

	cons, err := console.New(alloc, &console.Options{
		Width:  cfg.ConsoleWidth,
		Height: cfg.ConsoleHeight,
	})
	if err != nil {
		return fail("allocating console framebuffer", err)
	}

	kbd, err := keyboard.New(alloc, &keyboard.Options{
		Capacity: cfg.KeyboardBuffer,
		Sink:     func(r rune) { _ = cons.WriteRune(r) },
		Logger:   cfg.Logger,
	})
	if err != nil {
		return fail("allocating keyboard driver", err)
	}

	exec := sched.New(&sched.Options{
		QueueCapacity: cfg.QueueCapacity,
		Logger:        cfg.Logger,
	})

	id, err := exec.Spawn(kbd.Task())
	if err != nil {
		return fail("spawning keyboard stream task", err)
	}

	k := &Kernel{
		log:     cfg.Logger,
		region:  region,
		heap:    alloc,
		tlb:     translations,
		cons:    cons,
		kbd:     kbd,
		exec:    exec,
		kbdTask: id,
		walk:    cfg.Walk,
	}
	k.log.Info("kernel booted",
		"heap_bytes", region.Size(),
		"classes", cfg.HeapConfig.Name,
		"tlb_entries", translations.Cap(),
		"queue", exec.QueueCapacity())
	return k, nil
}

// Spawn hands a task to the executor.
func (k *Kernel) Spawn(t sched.Task) (sched.TaskID, error) {
	return k.exec.Spawn(t)
}

// Wake re-enqueues a parked task. It reports whether this wake claimed
// the queue slot.
func (k *Kernel) Wake(id sched.TaskID) bool {
	return k.exec.Wake(id)
}

// Drain polls ready tasks until the queue is empty and returns the
// number of polls.
func (k *Kernel) Drain() int {
	return k.exec.Drain()
}

// Run drives the executor until Halt or context cancellation.
func (k *Kernel) Run(ctx context.Context) error {
	return k.exec.Run(ctx)
}

// Halt stops the run loop after the current poll.
func (k *Kernel) Halt() {
	k.exec.Halt()
}

// PressKey feeds one raw scancode to the keyboard driver, standing in
// for the interrupt handler. It reports whether the scancode was
// queued.
func (k *Kernel) PressKey(code byte) bool {
	return k.kbd.Push(code)
}

// Type feeds the scancode sequence that types s, skipping runes the US
// layout cannot produce, and returns the number of scancodes queued.
// The stream task consumes them on the executor's next pass; long texts
// need draining along the way to keep the ring from overflowing.
func (k *Kernel) Type(s string) int {
	seq, _ := keyboard.EncodeString(s)
	queued := 0
	for _, code := range seq {
		if k.kbd.Push(code) {
			queued++
		}
	}
	return queued
}

// Heap returns the kernel allocator.
func (k *Kernel) Heap() *heap.Allocator { return k.heap }

// TLB returns the translation cache.
func (k *Kernel) TLB() *tlb.Cache { return k.tlb }

// Console returns the text screen.
func (k *Kernel) Console() *console.Console { return k.cons }

// Keyboard returns the keyboard driver.
func (k *Kernel) Keyboard() *keyboard.Driver { return k.kbd }

// Executor returns the task executor.
func (k *Kernel) Executor() *sched.Executor { return k.exec }

// Close halts the executor, closes the drivers and the translation
// cache so the allocator's books balance, then releases the region.
// Callers driving Run on another goroutine should wait for it to return
// first. Close is idempotent; the first error wins but teardown
// continues.
func (k *Kernel) Close() error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.closed {
		return nil
	}
	k.closed = true

	k.exec.Halt()

	var firstErr error
	step := func(name string, err error) {
		if err == nil {
			return
		}
		k.log.Error("close step failed", "step", name, "error", err)
		if firstErr == nil {
			firstErr = errors.Wrap(err, name)
		}
	}
	step("closing keyboard driver", k.kbd.Close())
	step("closing console", k.cons.Close())
	step("closing translation cache", k.tlb.Close())
	step("releasing heap region", k.region.Release())
	return firstErr
}
