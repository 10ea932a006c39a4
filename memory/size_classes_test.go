package memory

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/SilentCathedral918/vytal-sub000/internal/buf"
)

func Test_SizeClasses_Known(t *testing.T) {
	if buf.PtrSize != 8 {
		t.Skip("expected tables assume 64-bit pointers")
	}
	tests := []struct {
		capacity int
		want     []int
	}{
		{0, nil},
		{-5, nil},
		{1, []int{1}},
		{7, []int{7}},
		{8, []int{8}},
		{9, []int{8, 9}},
		{64, []int{8, 16, 32, 56, 64}},
		{100, []int{8, 16, 32, 56, 96, 100}},
		{4096, []int{8, 16, 32, 56, 96, 160, 264, 432, 704, 1144, 1856, 3008, 4096}},
	}
	for _, tt := range tests {
		t.Run(strconv.Itoa(tt.capacity), func(t *testing.T) {
			assert.Equal(t, tt.want, ComputeSizeClasses(tt.capacity))
		})
	}
}

func Test_SizeClasses_Properties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		capacity := rapid.IntRange(1, 1<<30).Draw(t, "capacity")
		classes := ComputeSizeClasses(capacity)

		require.NotEmpty(t, classes)
		require.Equal(t, capacity, classes[len(classes)-1], "capacity closes the table")
		for i := 1; i < len(classes); i++ {
			require.Greater(t, classes[i], classes[i-1], "strictly ascending at %d", i)
		}
		for i := 0; i < len(classes)-1; i++ {
			require.Zero(t, classes[i]%buf.PtrSize, "class %d is pointer aligned", classes[i])
		}
		require.Equal(t, classes, ComputeSizeClasses(capacity), "deterministic")
	})
}

func Test_SizeClassTable_IndexFor(t *testing.T) {
	table := sizeClassTable{sizes: []int{8, 16, 32, 56, 64}}

	tests := []struct {
		size int
		want int
	}{
		{-1, -1},
		{0, -1},
		{1, 0},
		{8, 0},
		{9, 1},
		{16, 1},
		{20, 2},
		{33, 3},
		{56, 3},
		{57, 4},
		{64, 4},
		{65, -1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, table.indexFor(tt.size), "size %d", tt.size)
	}
}

func Test_SizeClassTable_SmallestFit(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		capacity := rapid.IntRange(1, 1<<20).Draw(t, "capacity")
		size := rapid.IntRange(1, capacity).Draw(t, "size")
		table := newSizeClassTable(capacity)

		idx := table.indexFor(size)
		require.GreaterOrEqual(t, idx, 0)
		require.GreaterOrEqual(t, table.sizes[idx], size)
		if idx > 0 {
			require.Less(t, table.sizes[idx-1], size)
		}
	})
}
