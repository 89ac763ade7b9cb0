package heap

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

// churnBlock tracks one outstanding allocation during fuzzing: the exact
// size and alignment it was requested with (Free needs them back) and the
// bytes it actually consumes.
type churnBlock struct {
	size     int
	align    int
	consumed int32
}

// Test_Fuzz_RandomAllocFree performs random alloc/free cycles and validates
// allocator invariants after every step: no two live blocks overlap, every
// ref stays inside the region, and the byte accounting balances.
func Test_Fuzz_RandomAllocFree(t *testing.T) {
	a := newTestAllocator(t, 256*1024, nil)

	rng := rand.New(rand.NewSource(42)) // Fixed seed for reproducibility
	live := make(map[Ref]churnBlock)

	aligns := []int{1, 8, 16, 64, 256}

	for i := 0; i < 200; i++ {
		op := rng.Intn(3) // 0,1=alloc, 2=free

		switch op {
		case 0, 1: // Allocate: small class sizes and the occasional oversize
			size := 1 + rng.Intn(300)
			if rng.Intn(8) == 0 {
				size = 2049 + rng.Intn(3000)
			}
			align := aligns[rng.Intn(len(aligns))]

			ref, buf, allocErr := a.Alloc(size, align)
			if allocErr != nil {
				require.ErrorIs(t, allocErr, ErrOutOfMemory, "Step %d: unexpected alloc failure", i)
				t.Logf("Step %d: Alloc(%d, %d) exhausted the region", i, size, align)
				continue
			}
			require.GreaterOrEqual(t, len(buf), size, "Step %d: short block", i)
			live[ref] = churnBlock{size: size, align: align, consumed: roundedSize(a, size, align)}
			t.Logf("Step %d: Allocated %d bytes (align %d) at 0x%X", i, size, align, ref)

		case 2: // Free a random live block
			for ref, blk := range live {
				require.NoError(t, a.Free(ref, blk.size, blk.align), "Step %d: Free failed", i)
				delete(live, ref)
				t.Logf("Step %d: Freed block at 0x%X", i, ref)
				break
			}
		}

		validateChurnInvariants(t, a, live, i)
	}

	// Drain the survivors; accounting must return to zero.
	for ref, blk := range live {
		require.NoError(t, a.Free(ref, blk.size, blk.align))
		delete(live, ref)
	}
	st := a.Stats()
	require.Zero(t, st.LiveBytes, "live bytes after draining all blocks")
	require.Equal(t, st.BytesAllocated, st.BytesFreed, "alloc/free byte totals diverged")

	t.Logf("200 random operations completed, all invariants held")
}

// validateChurnInvariants checks the live set against the allocator state.
func validateChurnInvariants(t *testing.T, a *Allocator, live map[Ref]churnBlock, step int) {
	t.Helper()

	blocks := make([]liveBlock, 0, len(live))
	var wantLive int64
	for ref, blk := range live {
		require.GreaterOrEqual(t, ref, Ref(dataBase),
			"Step %d: ref 0x%X below data base", step, ref)
		require.LessOrEqual(t, int(ref)+int(blk.consumed), len(a.data),
			"Step %d: block at 0x%X runs past the region", step, ref)
		blocks = append(blocks, liveBlock{ref: ref, size: blk.consumed})
		wantLive += int64(blk.consumed)
	}
	requireNoOverlap(t, blocks)

	st := a.Stats()
	require.Equal(t, wantLive, st.LiveBytes, "Step %d: live byte accounting drifted", step)
}

// Test_Fuzz_StressOversizeChurn hammers the fallback arena with rounds of
// identical oversize allocations freed in random order. Once the first round
// has claimed its spans, later rounds must be served entirely from the free
// list: fallback usage stays flat and every freed byte is recovered by
// coalescing.
func Test_Fuzz_StressOversizeChurn(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping stress test in short mode")
	}

	a := newTestAllocator(t, 256*1024, nil)
	rng := rand.New(rand.NewSource(12345))

	// One fixed request mix, replayed every round. All sizes sit above the
	// largest class so every request exercises the arena.
	sizes := make([]int, 40)
	for i := range sizes {
		sizes[i] = 2056 + 8*rng.Intn(256)
	}

	var usedAfterWarmup int
	for round := 0; round < 10; round++ {
		refs := make([]Ref, len(sizes))
		for i, size := range sizes {
			ref, _, allocErr := a.Alloc(size, 8)
			require.NoError(t, allocErr, "Round %d: Alloc(%d) failed", round, size)
			refs[i] = ref
		}

		rng.Shuffle(len(refs), func(i, j int) {
			refs[i], refs[j] = refs[j], refs[i]
			sizes[i], sizes[j] = sizes[j], sizes[i]
		})
		for i, ref := range refs {
			require.NoError(t, a.Free(ref, sizes[i], 8), "Round %d: Free failed", round)
		}

		st := a.Stats()
		require.Zero(t, st.LiveBytes, "Round %d: live bytes after free-all", round)
		require.Equal(t, st.FallbackBytesUsed, st.FallbackBytesFree,
			"Round %d: coalescing lost bytes", round)
		if round == 0 {
			usedAfterWarmup = st.FallbackBytesUsed
		} else {
			require.Equal(t, usedAfterWarmup, st.FallbackBytesUsed,
				"Round %d: fallback grew instead of recycling", round)
		}
	}

	t.Logf("Stress test: 10 rounds of %d oversize alloc/free cycles completed", len(sizes))
}
