package heap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test_ClassTableLookup verifies the binary search picks the smallest class
// covering each size, and routes oversize requests past the table.
func Test_ClassTableLookup(t *testing.T) {
	table := newClassTable(ConfigDefault)

	cases := []struct {
		size int32
		want int // class index, or numClasses for fallback
	}{
		{1, 0}, {8, 0},
		{9, 1}, {16, 1},
		{17, 2},
		{2048, 8},
		{2049, 9}, // past the table
		{100000, 9},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, table.classFor(c.size), "size=%d", c.size)
	}
}

// Test_ClassTableAligns verifies carve alignments are the largest power of
// two within each class size.
func Test_ClassTableAligns(t *testing.T) {
	table := newClassTable(Config{
		Name:    "Mixed",
		Classes: []int32{8, 24, 48, 64, 2048},
	})
	assert.Equal(t, []int32{8, 16, 32, 64, 2048}, table.aligns)
}

// Test_ConfigValidation exercises every rejection.
func Test_ConfigValidation(t *testing.T) {
	require.NoError(t, ConfigDefault.validate())
	require.NoError(t, ConfigFineGrained.validate())
	require.NoError(t, ConfigCoarse.validate())

	bad := []Config{
		{Name: "Empty"},
		{Name: "Small", Classes: []int32{4}},
		{Name: "Unaligned", Classes: []int32{8, 20}},
		{Name: "Duplicate", Classes: []int32{8, 8}},
		{Name: "Descending", Classes: []int32{64, 32}},
	}
	for _, cfg := range bad {
		assert.ErrorIs(t, cfg.validate(), ErrBadConfig, "config %q", cfg.Name)
	}
}

func Test_PrevPow2(t *testing.T) {
	cases := []struct{ in, want int32 }{
		{1, 1}, {2, 2}, {3, 2}, {8, 8}, {24, 16}, {48, 32}, {2048, 2048}, {4095, 2048},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, prevPow2(c.in), "prevPow2(%d)", c.in)
	}
}
