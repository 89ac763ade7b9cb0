package kern

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/kernelkit/mem/heap"
	"github.com/joshuapare/kernelkit/sched"
)

// bootTest boots a kernel and tears it down with the test.
func bootTest(t *testing.T, cfg Config) *Kernel {
	t.Helper()
	k, err := Boot(cfg)
	require.NoError(t, err, "boot failed")
	t.Cleanup(func() { _ = k.Close() })
	return k
}

// Test_Boot_Defaults verifies the zero config comes up with every
// subsystem at its documented size.
func Test_Boot_Defaults(t *testing.T) {
	k := bootTest(t, Config{})

	w, h := k.Console().Size()
	assert.Equal(t, 80, w)
	assert.Equal(t, 25, h)
	assert.Equal(t, 128, k.Keyboard().Capacity())
	assert.Equal(t, 128, k.Executor().QueueCapacity())
	assert.Equal(t, 64, k.TLB().Cap())

	// The framebuffer (4000 bytes) and the scancode ring (128) are the
	// only live allocations after boot.
	assert.Equal(t, int64(4128), k.Heap().Stats().LiveBytes)

	// The keyboard stream task is spawned and ready.
	assert.Equal(t, 1, k.Executor().Len())
	assert.Equal(t, uint64(1), k.Stats().Executor.Spawned)
}

// Test_Boot_ConsoleFailure verifies a framebuffer that cannot fit
// fails the boot with the step name and releases the region.
func Test_Boot_ConsoleFailure(t *testing.T) {
	_, err := Boot(Config{
		HeapSize:     8 * 1024,
		ConsoleWidth: 200,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, heap.ErrOutOfMemory)
	assert.Contains(t, err.Error(), "allocating console framebuffer")
}

// Test_Boot_KeyboardFailure verifies the keyboard step reports its own
// name on failure.
func Test_Boot_KeyboardFailure(t *testing.T) {
	_, err := Boot(Config{
		HeapSize:       8 * 1024,
		ConsoleWidth:   8,
		ConsoleHeight:  4,
		KeyboardBuffer: 16 * 1024,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, heap.ErrOutOfMemory)
	assert.Contains(t, err.Error(), "allocating keyboard driver")
}

// Test_TypeAndDrain verifies the full text path: encoded scancodes in,
// decoded runes on the console.
func Test_TypeAndDrain(t *testing.T) {
	k := bootTest(t, Config{})

	queued := k.Type("Hello!")
	assert.Equal(t, 16, queued, "four shifted and four plain key sequences")

	require.Equal(t, 1, k.Drain(), "one poll drains the whole burst")
	assert.Equal(t, "Hello!", k.Console().Row(0))

	st := k.Stats()
	assert.Equal(t, uint64(16), st.Keyboard.Scancodes)
	assert.Equal(t, uint64(6), st.Keyboard.Keys)
	assert.Zero(t, st.Keyboard.Dropped)
}

// Test_PressKey_FeedsDriver verifies the raw scancode entry point.
func Test_PressKey_FeedsDriver(t *testing.T) {
	k := bootTest(t, Config{})

	require.True(t, k.PressKey(0x23)) // h
	require.True(t, k.PressKey(0x17)) // i
	k.Drain()

	assert.Equal(t, "hi", k.Console().Row(0))
}

// Test_Run_DrivesKeyboard verifies the run loop wakes on pushes with no
// draining help from the test.
func Test_Run_DrivesKeyboard(t *testing.T) {
	k := bootTest(t, Config{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- k.Run(ctx) }()

	k.Type("ok\n")
	require.Eventually(t, func() bool { return k.Console().Row(0) == "ok" },
		2*time.Second, time.Millisecond)

	k.Halt()
	require.NoError(t, <-done)
}

// Test_SpawnAndWake_Delegation verifies user tasks ride the same
// executor as the drivers.
func Test_SpawnAndWake_Delegation(t *testing.T) {
	k := bootTest(t, Config{})

	polls := 0
	id, err := k.Spawn(sched.TaskFunc(func(w *sched.Waker) sched.Poll {
		polls++
		if polls == 2 {
			return sched.Done
		}
		return sched.Pending
	}))
	require.NoError(t, err)

	k.Drain()
	require.Equal(t, 1, polls)

	require.True(t, k.Wake(id))
	k.Drain()
	assert.Equal(t, 2, polls)

	_, ok := k.Executor().State(id)
	assert.False(t, ok, "completed task should be retired")
}

// Test_DebugDump_RendersStats verifies the spew dump carries the
// subsystem sections.
func Test_DebugDump_RendersStats(t *testing.T) {
	k := bootTest(t, Config{})

	k.Type("x")
	k.Drain()

	dump := k.DebugDump()
	assert.True(t, strings.Contains(dump, "Scancodes"), "dump should include keyboard counters")
	assert.True(t, strings.Contains(dump, "LiveBytes"), "dump should include heap counters")
}

// Test_Close_ReleasesEverything verifies teardown balances the
// allocator's books and later calls are inert.
func Test_Close_ReleasesEverything(t *testing.T) {
	k, err := Boot(Config{HeapSize: 64 * 1024})
	require.NoError(t, err)

	k.Type("bye\n")
	k.Drain()
	_, err = k.Translate(0x4000)
	require.NoError(t, err)
	require.Positive(t, k.TLB().Len())

	require.NoError(t, k.Close())

	st := k.Heap().Stats()
	assert.Zero(t, st.LiveBytes)
	assert.Equal(t, st.BytesAllocated, st.BytesFreed)

	assert.False(t, k.PressKey(0x1E), "pushes after close are dropped")
	assert.NoError(t, k.Close(), "close is idempotent")
}
