package sched

import (
	"context"
	"sync"
	"sync/atomic"

	hclog "github.com/hashicorp/go-hclog"
)

// taskEntry is one row of the task table.
type taskEntry struct {
	id    TaskID
	task  Task
	waker Waker

	// queued is true exactly while the task's ID sits in the ready ring.
	// Wake enqueues only on a false-to-true transition; the run loop clears
	// it when it pops the ID, before polling, so a wake that lands during
	// the poll re-enqueues the task instead of being lost.
	queued  atomic.Bool
	running atomic.Bool
}

// Executor drives cooperatively scheduled tasks on a single run loop.
// Spawn and Wake are safe from any goroutine; polling happens on whichever
// goroutine calls Run or Drain, one task at a time.
type Executor struct {
	mu   sync.Mutex
	cond *sync.Cond

	ring  *readyRing
	tasks map[TaskID]*taskEntry // guarded by mu

	nextID atomic.Uint64
	halted atomic.Bool

	log     hclog.Logger
	onPanic func(id TaskID, v any)

	spawned   atomic.Uint64
	completed atomic.Uint64
	panicked  atomic.Uint64
	polls     atomic.Uint64
	wakes     atomic.Uint64
	strayPops atomic.Uint64
}

// New creates an executor. Use nil opts for defaults.
func New(opts *Options) *Executor {
	o := opts.withDefaults()
	e := &Executor{
		ring:  newReadyRing(o.QueueCapacity),
		tasks: make(map[TaskID]*taskEntry),
		log:   o.Logger,
	}
	e.cond = sync.NewCond(&e.mu)
	if o.OnPanic != nil {
		e.onPanic = o.OnPanic
	} else {
		e.onPanic = func(id TaskID, v any) {
			e.log.Error("task panicked", "task", id, "panic", v)
		}
	}
	return e
}

// Spawn registers a task and queues it for its first poll. It returns the
// task's ID, ErrNilTask for a nil task, ErrHalted after Halt, and
// ErrQueueFull when the ready queue has no room (the task is not
// registered in that case).
func (e *Executor) Spawn(t Task) (TaskID, error) {
	if t == nil {
		return 0, ErrNilTask
	}
	if e.halted.Load() {
		return 0, ErrHalted
	}

	id := TaskID(e.nextID.Add(1))
	en := &taskEntry{id: id, task: t}
	en.waker = Waker{exec: e, id: id}
	en.queued.Store(true)

	e.mu.Lock()
	e.tasks[id] = en
	e.mu.Unlock()

	if !e.ring.tryPush(id) {
		e.mu.Lock()
		delete(e.tasks, id)
		e.mu.Unlock()
		return 0, ErrQueueFull
	}

	e.spawned.Add(1)
	e.signal()
	return id, nil
}

// Wake marks a parked task ready. This is the entry point interrupt
// handlers and drivers call, from any goroutine. It reports whether the
// task was enqueued: false for unknown or retired IDs, for tasks already
// queued, and for a momentarily full ready queue.
func (e *Executor) Wake(id TaskID) bool {
	e.mu.Lock()
	en, ok := e.tasks[id]
	e.mu.Unlock()
	if !ok {
		return false
	}

	if !en.queued.CompareAndSwap(false, true) {
		return false
	}
	if !e.ring.tryPush(id) {
		en.queued.Store(false)
		e.log.Warn("ready queue full, wake dropped", "task", id)
		return false
	}

	e.wakes.Add(1)
	e.signal()
	return true
}

// signal nudges a parked run loop. Taking the mutex orders the signal
// after the ring push, which closes the lost-wakeup window against the
// loop's locked emptiness re-check.
func (e *Executor) signal() {
	e.mu.Lock()
	e.cond.Signal()
	e.mu.Unlock()
}

// step pops and polls one ready task, reporting false when the ring is
// empty.
func (e *Executor) step() bool {
	id, ok := e.ring.tryPop()
	if !ok {
		return false
	}

	e.mu.Lock()
	en, live := e.tasks[id]
	e.mu.Unlock()
	if !live {
		// A late wake raced the task's completion; nothing to poll.
		e.strayPops.Add(1)
		return true
	}

	en.queued.Store(false)
	en.running.Store(true)
	res, pv, panicked := e.poll(en)
	en.running.Store(false)

	if panicked {
		e.retire(id)
		e.panicked.Add(1)
		e.onPanic(id, pv)
		return true
	}
	if res == Done {
		e.retire(id)
		e.completed.Add(1)
	}
	return true
}

// poll runs one task segment with panic isolation.
func (e *Executor) poll(en *taskEntry) (res Poll, pv any, panicked bool) {
	defer func() {
		if v := recover(); v != nil {
			pv = v
			panicked = true
		}
	}()
	e.polls.Add(1)
	return en.task.Poll(&en.waker), nil, false
}

// retire removes a task from the table. Queue entries already holding its
// ID become stray pops.
func (e *Executor) retire(id TaskID) {
	e.mu.Lock()
	delete(e.tasks, id)
	e.mu.Unlock()
}

// Drain polls ready tasks until the queue is momentarily empty and returns
// the number of queue entries consumed. Tasks that re-wake themselves keep
// Drain going, part of the cooperative contract.
func (e *Executor) Drain() int {
	n := 0
	for e.step() {
		n++
	}
	return n
}

// Run drains ready tasks and parks until new wakes arrive. It returns nil
// after Halt and ctx.Err() after context cancellation; parked tasks stay
// in the table either way.
func (e *Executor) Run(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() {
		e.mu.Lock()
		e.cond.Broadcast()
		e.mu.Unlock()
	})
	defer stop()

	for {
		if e.halted.Load() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		for e.step() {
		}

		// Park. The re-check under the mutex pairs with signal(): a wake
		// published before we sleep is either visible to canPop or will
		// signal once we release the mutex in Wait.
		e.mu.Lock()
		for !e.ring.canPop() && !e.halted.Load() && ctx.Err() == nil {
			e.cond.Wait()
		}
		e.mu.Unlock()
	}
}

// Halt stops the run loop and rejects further spawns. Parked tasks remain
// in the table; Drain still works for orderly teardown.
func (e *Executor) Halt() {
	e.halted.Store(true)
	e.mu.Lock()
	e.cond.Broadcast()
	e.mu.Unlock()
}

// Len returns the number of live tasks (ready, running, or parked).
func (e *Executor) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.tasks)
}

// Parked returns how many live tasks are waiting on their waker.
func (e *Executor) Parked() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := 0
	for _, en := range e.tasks {
		if !en.queued.Load() && !en.running.Load() {
			n++
		}
	}
	return n
}

// State reports a task's current state, or false if the ID is unknown or
// retired.
func (e *Executor) State(id TaskID) (TaskState, bool) {
	e.mu.Lock()
	en, ok := e.tasks[id]
	e.mu.Unlock()
	if !ok {
		return 0, false
	}
	switch {
	case en.running.Load():
		return StateRunning, true
	case en.queued.Load():
		return StateReady, true
	default:
		return StateParked, true
	}
}

// QueueCapacity returns the ready queue's slot count.
func (e *Executor) QueueCapacity() int {
	return e.ring.capacity()
}
