package sched

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test_SpawnAndDrain_ImmediateCompletion verifies a task that answers Done
// on its first poll is polled exactly once and removed.
func Test_SpawnAndDrain_ImmediateCompletion(t *testing.T) {
	e := New(nil)

	var polls atomic.Int32
	id, err := e.Spawn(TaskFunc(func(w *Waker) Poll {
		polls.Add(1)
		return Done
	}))
	require.NoError(t, err)
	require.Equal(t, TaskID(1), id, "IDs start at 1")
	require.Equal(t, 1, e.Len())

	require.Equal(t, 1, e.Drain())
	assert.Equal(t, int32(1), polls.Load())
	assert.Equal(t, 0, e.Len(), "completed task must leave the table")

	st := e.Stats()
	assert.Equal(t, uint64(1), st.Completed)
	assert.Equal(t, uint64(1), st.Polls)
}

// Test_Spawn_Validation covers the rejection paths.
func Test_Spawn_Validation(t *testing.T) {
	e := New(nil)

	_, err := e.Spawn(nil)
	require.ErrorIs(t, err, ErrNilTask)

	e.Halt()
	_, err = e.Spawn(TaskFunc(func(w *Waker) Poll { return Done }))
	require.ErrorIs(t, err, ErrHalted)
}

// Test_Spawn_QueueFull verifies a full ready queue rejects the spawn
// without registering the task.
func Test_Spawn_QueueFull(t *testing.T) {
	e := New(&Options{QueueCapacity: 2})
	idle := TaskFunc(func(w *Waker) Poll { return Pending })

	_, err := e.Spawn(idle)
	require.NoError(t, err)
	_, err = e.Spawn(idle)
	require.NoError(t, err)

	_, err = e.Spawn(idle)
	require.ErrorIs(t, err, ErrQueueFull)
	assert.Equal(t, 2, e.Len(), "rejected spawn must not stay registered")
}

// Test_ParkAndWake walks the canonical two-task flow: T1 parks on an
// external flag, T2 completes immediately. After one drain T2 is gone and
// T1 is parked; setting the flag and waking T1 completes it.
func Test_ParkAndWake(t *testing.T) {
	e := New(nil)

	var flag atomic.Bool
	t1, err := e.Spawn(TaskFunc(func(w *Waker) Poll {
		if !flag.Load() {
			return Pending
		}
		return Done
	}))
	require.NoError(t, err)
	t2, err := e.Spawn(TaskFunc(func(w *Waker) Poll { return Done }))
	require.NoError(t, err)

	require.Equal(t, 2, e.Drain())

	assert.Equal(t, 1, e.Len(), "T2 should be retired")
	assert.Equal(t, 1, e.Parked())
	state, ok := e.State(t1)
	require.True(t, ok)
	assert.Equal(t, StateParked, state)
	_, ok = e.State(t2)
	assert.False(t, ok, "completed task has no state")

	flag.Store(true)
	require.True(t, e.Wake(t1))
	require.Equal(t, 1, e.Drain())
	assert.Equal(t, 0, e.Len())
}

// Test_WakeDedup verifies that however many wakes land before the next
// poll, the task is polled once.
func Test_WakeDedup(t *testing.T) {
	e := New(nil)

	var polls atomic.Int32
	var finish atomic.Bool
	id, err := e.Spawn(TaskFunc(func(w *Waker) Poll {
		polls.Add(1)
		if finish.Load() {
			return Done
		}
		return Pending
	}))
	require.NoError(t, err)
	e.Drain()
	require.Equal(t, int32(1), polls.Load())

	assert.True(t, e.Wake(id), "first wake enqueues")
	assert.False(t, e.Wake(id), "second wake dedups")
	assert.False(t, e.Wake(id), "third wake dedups")

	require.Equal(t, 1, e.Drain(), "three wakes collapse into one queue entry")
	assert.Equal(t, int32(2), polls.Load())

	// The task parked again, so it can be woken again.
	finish.Store(true)
	assert.True(t, e.Wake(id))
	e.Drain()
	assert.Equal(t, 0, e.Len())
}

// Test_Wake_RetiredID verifies wakes for finished or unknown tasks are
// ignored.
func Test_Wake_RetiredID(t *testing.T) {
	e := New(nil)

	id, err := e.Spawn(TaskFunc(func(w *Waker) Poll { return Done }))
	require.NoError(t, err)
	e.Drain()

	assert.False(t, e.Wake(id), "wake of a retired ID is a no-op")
	assert.False(t, e.Wake(TaskID(9999)), "wake of an unknown ID is a no-op")
}

// Test_WakerCapturedByDriver exercises the usual driver pattern: the task
// hands its Waker out during a poll and an external party fires it later.
func Test_WakerCapturedByDriver(t *testing.T) {
	e := New(nil)

	var captured *Waker
	var ready atomic.Bool
	id, err := e.Spawn(TaskFunc(func(w *Waker) Poll {
		if !ready.Load() {
			captured = w
			return Pending
		}
		return Done
	}))
	require.NoError(t, err)
	e.Drain()

	require.NotNil(t, captured)
	assert.Equal(t, id, captured.TaskID())

	ready.Store(true)
	require.True(t, captured.Wake())
	e.Drain()
	assert.Equal(t, 0, e.Len())
}

// Test_SelfWakeDuringPoll verifies a wake that lands mid-poll re-enqueues
// the task instead of being lost.
func Test_SelfWakeDuringPoll(t *testing.T) {
	e := New(nil)

	var polls atomic.Int32
	_, err := e.Spawn(TaskFunc(func(w *Waker) Poll {
		n := polls.Add(1)
		if n < 3 {
			w.Wake() // readiness arrives while we are still being polled
			return Pending
		}
		return Done
	}))
	require.NoError(t, err)

	require.Equal(t, 3, e.Drain(), "each mid-poll wake earns another pass")
	assert.Equal(t, int32(3), polls.Load())
	assert.Equal(t, 0, e.Len())
}

// Test_PanicIsolation verifies a panicking task is removed and reported
// while the rest of the system keeps running.
func Test_PanicIsolation(t *testing.T) {
	var gotID TaskID
	var gotVal any
	e := New(&Options{OnPanic: func(id TaskID, v any) {
		gotID = id
		gotVal = v
	}})

	bad, err := e.Spawn(TaskFunc(func(w *Waker) Poll {
		panic("scancode buffer corrupt")
	}))
	require.NoError(t, err)
	_, err = e.Spawn(TaskFunc(func(w *Waker) Poll { return Done }))
	require.NoError(t, err)

	require.Equal(t, 2, e.Drain())

	assert.Equal(t, 0, e.Len(), "both tasks must be gone")
	assert.Equal(t, bad, gotID)
	assert.Equal(t, "scancode buffer corrupt", gotVal)

	st := e.Stats()
	assert.Equal(t, uint64(1), st.Panicked)
	assert.Equal(t, uint64(1), st.Completed)

	// The executor stays usable.
	_, err = e.Spawn(TaskFunc(func(w *Waker) Poll { return Done }))
	require.NoError(t, err)
	require.Equal(t, 1, e.Drain())
}

// Test_StrayPopAfterCompletion wakes a task on its final poll: the queue
// entry outlives the task and must be skipped, not polled.
func Test_StrayPopAfterCompletion(t *testing.T) {
	e := New(nil)

	_, err := e.Spawn(TaskFunc(func(w *Waker) Poll {
		w.Wake()
		return Done
	}))
	require.NoError(t, err)

	require.Equal(t, 2, e.Drain(), "the stray entry still counts as consumed")
	st := e.Stats()
	assert.Equal(t, uint64(1), st.StrayPops)
	assert.Equal(t, uint64(1), st.Completed)
	assert.Equal(t, uint64(1), st.Polls, "the stray entry must not be polled")
}

// Test_Run_WakesParkedLoop spawns a parked task, lets Run go idle, then
// wakes the task from another goroutine and watches it complete.
func Test_Run_WakesParkedLoop(t *testing.T) {
	e := New(nil)

	var flag atomic.Bool
	id, err := e.Spawn(TaskFunc(func(w *Waker) Poll {
		if !flag.Load() {
			return Pending
		}
		return Done
	}))
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- e.Run(context.Background()) }()

	// Let the loop process the first poll and park.
	require.Eventually(t, func() bool { return e.Parked() == 1 },
		2*time.Second, time.Millisecond)

	flag.Store(true)
	require.True(t, e.Wake(id))
	require.Eventually(t, func() bool { return e.Len() == 0 },
		2*time.Second, time.Millisecond)

	e.Halt()
	select {
	case err := <-done:
		require.NoError(t, err, "Run should return nil after Halt")
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after Halt")
	}
}

// Test_Run_ContextCancel verifies cancellation unblocks an idle loop.
func Test_Run_ContextCancel(t *testing.T) {
	e := New(nil)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- e.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}

// Test_Halt_KeepsParkedTasks verifies halting strands parked tasks in the
// table rather than dropping them.
func Test_Halt_KeepsParkedTasks(t *testing.T) {
	e := New(nil)

	_, err := e.Spawn(TaskFunc(func(w *Waker) Poll { return Pending }))
	require.NoError(t, err)
	e.Drain()

	e.Halt()
	assert.Equal(t, 1, e.Len())
	assert.Equal(t, 1, e.Parked())
}

// Test_StateIntrospection checks the Ready/Parked answers around a poll.
func Test_StateIntrospection(t *testing.T) {
	e := New(nil)

	id, err := e.Spawn(TaskFunc(func(w *Waker) Poll { return Pending }))
	require.NoError(t, err)

	state, ok := e.State(id)
	require.True(t, ok)
	assert.Equal(t, StateReady, state, "spawned but not yet polled")

	e.Drain()
	state, ok = e.State(id)
	require.True(t, ok)
	assert.Equal(t, StateParked, state)

	assert.Equal(t, "Parked", state.String())
	assert.Equal(t, "Pending", Pending.String())
	assert.Equal(t, "Done", Done.String())
}
