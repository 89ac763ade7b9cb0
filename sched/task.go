package sched

// TaskID identifies a spawned task. IDs are issued monotonically starting
// at 1 and are never reused; 0 is never a valid ID.
type TaskID uint64

// Poll is the result of one task poll step.
type Poll uint8

const (
	// Pending means the task cannot make progress yet. It is parked until
	// its Waker fires; the executor will not poll it again on its own.
	Pending Poll = iota

	// Done means the task finished. It is removed from the task table and
	// its ID is retired.
	Done
)

// String returns the string representation of the Poll result.
func (p Poll) String() string {
	switch p {
	case Pending:
		return "Pending"
	case Done:
		return "Done"
	default:
		return "Unknown"
	}
}

// Task is a unit of cooperatively scheduled work. Poll runs one segment of
// the task's computation and returns Pending to park or Done to finish.
//
// A task returning Pending must arrange for w.Wake to be called when it can
// make progress again (hand the Waker to a driver, a timer, an interrupt
// path); a parked task that nobody wakes stays parked forever. Poll runs on
// the executor's loop goroutine, so it must not block.
type Task interface {
	Poll(w *Waker) Poll
}

// TaskFunc adapts a plain function to the Task interface.
type TaskFunc func(w *Waker) Poll

// Poll calls f.
func (f TaskFunc) Poll(w *Waker) Poll {
	return f(w)
}

// TaskState describes where a task currently sits, for introspection and
// debug output.
type TaskState uint8

const (
	// StateReady means the task sits in the ready queue awaiting its poll.
	StateReady TaskState = iota

	// StateRunning means the task is being polled right now.
	StateRunning

	// StateParked means the task returned Pending and waits for its Waker.
	StateParked
)

// String returns the string representation of the TaskState.
func (s TaskState) String() string {
	switch s {
	case StateReady:
		return "Ready"
	case StateRunning:
		return "Running"
	case StateParked:
		return "Parked"
	default:
		return "Unknown"
	}
}
