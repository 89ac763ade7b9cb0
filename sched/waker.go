package sched

// Waker re-enqueues one parked task. Every task is handed its own Waker on
// each poll; drivers and interrupt handlers hold onto it to signal that the
// task can make progress.
//
// Wake is safe to call from any goroutine, any number of times. Duplicate
// wakes before the next poll collapse into a single queue entry, and wakes
// for a finished task are ignored.
type Waker struct {
	exec *Executor
	id   TaskID
}

// Wake marks the task ready and enqueues it for polling. It reports whether
// this call made the task runnable: false when the task is already queued,
// already finished, or the ready queue is momentarily full.
func (w *Waker) Wake() bool {
	return w.exec.Wake(w.id)
}

// TaskID returns the ID of the task this Waker belongs to.
func (w *Waker) TaskID() TaskID {
	return w.id
}
