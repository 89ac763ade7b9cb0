package sched

import "errors"

var (
	// ErrQueueFull means the bounded ready queue rejected an enqueue. The
	// spawn did not happen; nothing was registered.
	ErrQueueFull = errors.New("sched: ready queue full")

	// ErrHalted means the executor was halted and accepts no new tasks.
	ErrHalted = errors.New("sched: executor halted")

	// ErrNilTask means Spawn was handed a nil Task.
	ErrNilTask = errors.New("sched: nil task")
)
