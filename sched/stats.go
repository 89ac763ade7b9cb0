package sched

// Stats holds executor counters for testing and instrumentation. Values
// are cumulative since construction except Live and Parked.
type Stats struct {
	Spawned   uint64 // Tasks accepted by Spawn
	Completed uint64 // Tasks whose poll returned Done
	Panicked  uint64 // Tasks removed because their poll panicked
	Polls     uint64 // Poll invocations, the panicking ones included
	Wakes     uint64 // Wakes that enqueued a parked task
	StrayPops uint64 // Queue entries popped for already-retired tasks
	Live      int    // Tasks currently in the table
	Parked    int    // Live tasks waiting on their waker
}

// Stats returns a snapshot of the executor counters.
func (e *Executor) Stats() Stats {
	s := Stats{
		Spawned:   e.spawned.Load(),
		Completed: e.completed.Load(),
		Panicked:  e.panicked.Load(),
		Polls:     e.polls.Load(),
		Wakes:     e.wakes.Load(),
		StrayPops: e.strayPops.Load(),
	}
	e.mu.Lock()
	s.Live = len(e.tasks)
	for _, en := range e.tasks {
		if !en.queued.Load() && !en.running.Load() {
			s.Parked++
		}
	}
	e.mu.Unlock()
	return s
}
