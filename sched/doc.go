// Package sched provides the kernel's cooperative task executor.
//
// # Overview
//
// Tasks are poll-driven state machines: the executor calls Poll, the task
// runs one segment of its work and answers Done or Pending. Pending parks
// the task until some other party (a driver, a timer, an interrupt handler)
// fires its Waker, which puts the task back on the ready queue. There is no
// preemption; a task holds the loop until its poll returns.
//
// # Tasks and Wakers
//
// A task moves through three states:
//
//	Ready   sitting in the ready queue, will be polled in FIFO order
//	Running being polled right now
//	Parked  returned Pending, waits for its Waker
//
// Wakes deduplicate: however many times a Waker fires before the next poll,
// the task occupies at most one queue slot. A wake that lands while the
// task is mid-poll re-enqueues it for another pass, so readiness signaled
// during a poll is never lost. The state change that makes a task ready
// must be published with its own synchronization (an atomic flag, a mutex,
// a driver ring); the poll that follows a wake is then guaranteed to
// observe it.
//
// # The Ready Queue
//
// The queue is a fixed-capacity ring of task IDs with per-slot sequence
// counters. Producers (wakers, any goroutine) claim slots by compare-and-
// swap; the run loop consumes. Nothing blocks and nothing allocates on the
// wake path, which keeps it safe to call from interrupt-style contexts. A
// full ring rejects the wake rather than buffering it.
//
// # Idle and Shutdown
//
// Run drains the queue, then parks on a condition variable. The emptiness
// re-check happens under the executor mutex and every wake signals under
// the same mutex after its push, so a wake cannot slip between the check
// and the sleep. Halt stops the loop after the current poll; context
// cancellation does the same through Run's context.
//
// # Thread Safety
//
// Spawn, Wake, Halt, and the introspection methods are safe from any
// goroutine. Polling is single-threaded: exactly one goroutine may be in
// Run or Drain at a time.
//
// # Related Packages
//
//   - github.com/joshuapare/kernelkit/drivers/keyboard: a driver feeding a
//     decoder task through wakes
//   - github.com/joshuapare/kernelkit/kern: owns the kernel's executor
package sched
