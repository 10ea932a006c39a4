package arena

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/SilentCathedral918/vytal-sub000/internal/buf"
	"github.com/SilentCathedral918/vytal-sub000/memory"
)

func newTestArena(t *testing.T, capacity int) *Arena {
	t.Helper()
	a, err := New(capacity)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Release() })
	return a
}

func TestNew_InvalidCapacity(t *testing.T) {
	_, err := New(0)
	require.ErrorIs(t, err, memory.ErrInvalidParam)
	_, err = New(-1)
	require.ErrorIs(t, err, memory.ErrInvalidParam)
}

func TestArena_AllocSequential(t *testing.T) {
	a := newTestArena(t, 256)

	b1 := a.Alloc(10)
	require.Len(t, b1, 10)
	assert.Equal(t, 10, a.Used())

	b2 := a.Alloc(8)
	require.Len(t, b2, 8)
	assert.Equal(t, 24, a.Used(), "second block is pointer aligned")
	assert.Equal(t, buf.Addr(b1)+16, buf.Addr(b2))
}

func TestArena_AllocAligned(t *testing.T) {
	a := newTestArena(t, 4096)
	a.Alloc(1)

	for _, align := range []int{1, 2, 8, 16, 64, 256} {
		b := a.AllocAligned(24, align)
		require.NotNil(t, b, "align %d", align)
		assert.Zero(t, buf.Addr(b)%uintptr(align), "align %d", align)
	}
}

func TestArena_AllocFailures(t *testing.T) {
	a := newTestArena(t, 64)

	assert.Nil(t, a.Alloc(0))
	assert.Nil(t, a.Alloc(-3))
	assert.Nil(t, a.AllocAligned(8, 3), "non power-of-two alignment")
	assert.Nil(t, a.AllocAligned(8, 0))
	assert.Nil(t, a.Alloc(65))

	require.NotNil(t, a.Alloc(60))
	used := a.Used()
	assert.Nil(t, a.Alloc(8), "block past capacity")
	assert.Equal(t, used, a.Used(), "failed allocation consumes nothing")
}

func TestArena_BlocksAreZeroed(t *testing.T) {
	a := newTestArena(t, 128)
	b := a.Alloc(32)
	for i := range b {
		b[i] = 0xAB
	}

	a.Clear()
	assert.Zero(t, a.Used())

	b = a.Alloc(32)
	for i, v := range b {
		require.Zero(t, v, "byte %d", i)
	}
}

func TestArena_Release(t *testing.T) {
	a, err := New(64)
	require.NoError(t, err)
	require.NoError(t, a.Release())
	require.NoError(t, a.Release())

	assert.True(t, a.Released())
	assert.Nil(t, a.Alloc(8))
	assert.Zero(t, a.Available())
	a.Clear()
}

func TestArena_Metrics(t *testing.T) {
	a := newTestArena(t, 100)
	a.Alloc(50)
	assert.Equal(t, 100, a.Capacity())
	assert.Equal(t, 50, a.Available())
	assert.InDelta(t, 0.5, a.Utilization(), 1e-9)
}

type vec3 struct {
	X, Y, Z float32
}

func TestMake(t *testing.T) {
	a := newTestArena(t, 64)

	v := Make[vec3](a)
	require.NotNil(t, v)
	assert.Equal(t, vec3{}, *v)
	v.X = 1.5

	s := MakeSlice[uint64](a, 4)
	require.Len(t, s, 4)
	assert.Zero(t, buf.Addr(unsafeBytes(s))%8)
	s[3] = 7
	assert.Equal(t, float32(1.5), v.X, "slice does not overlap the struct")

	assert.Nil(t, MakeSlice[uint64](a, 100))
	assert.Nil(t, MakeSlice[uint64](a, 0))
	assert.Nil(t, Make[struct{}](a), "zero-size types are rejected")
}

func TestArena_Property_UsedMonotonic(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		capacity := rapid.IntRange(1, 1<<14).Draw(t, "capacity")
		a, err := New(capacity)
		require.NoError(t, err)
		defer a.Release()

		var prevEnd uintptr
		for range rapid.IntRange(1, 50).Draw(t, "n") {
			size := rapid.IntRange(1, 512).Draw(t, "size")
			align := 1 << rapid.IntRange(0, 6).Draw(t, "alignShift")
			before := a.Used()

			b := a.AllocAligned(size, align)
			if b == nil {
				require.Equal(t, before, a.Used())
				continue
			}
			require.Len(t, b, size)
			require.Zero(t, buf.Addr(b)%uintptr(align))
			require.GreaterOrEqual(t, buf.Addr(b), prevEnd, "blocks never overlap")
			require.LessOrEqual(t, a.Used(), a.Capacity())
			prevEnd = buf.Addr(b) + uintptr(size)
		}
	})
}
