package array

import (
	"cmp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/SilentCathedral918/vytal-sub000/memory"
)

func newZone(t *testing.T, capacity int) *memory.Zone {
	t.Helper()
	z, err := memory.NewZone("Containers", capacity)
	require.NoError(t, err)
	t.Cleanup(func() { _ = z.Close() })
	return z
}

func newIntArray(t *testing.T, opts ...Option) *Array[int32] {
	t.Helper()
	a, err := New[int32](memory.NewHeap(), opts...)
	require.NoError(t, err)
	return a
}

func fill(t *testing.T, a *Array[int32], vals ...int32) {
	t.Helper()
	for _, v := range vals {
		require.NoError(t, a.Push(v))
	}
}

func TestNew_Validation(t *testing.T) {
	h := memory.NewHeap()

	_, err := New[int32](nil)
	require.ErrorIs(t, err, memory.ErrInvalidParam)
	_, err = New[struct{}](h)
	require.ErrorIs(t, err, memory.ErrInvalidParam)
	_, err = New[int32](h, WithCapacity(0))
	require.ErrorIs(t, err, memory.ErrInvalidParam)
	_, err = New[int32](h, WithGrowth(1))
	require.ErrorIs(t, err, memory.ErrInvalidParam)

	a, err := New[int32](h)
	require.NoError(t, err)
	assert.Equal(t, DefaultCapacity, a.Cap())
	assert.True(t, a.Empty())
	assert.False(t, a.Full())
}

func TestArray_PushElevenGrowsPastDefault(t *testing.T) {
	z := newZone(t, 4096)
	a, err := New[int32](z)
	require.NoError(t, err)

	for i := range int32(11) {
		require.NoError(t, a.Push(i))
	}
	assert.Equal(t, 11, a.Len())
	assert.Equal(t, 20, a.Cap(), "capacity doubled")

	v, err := a.At(10)
	require.NoError(t, err)
	assert.Equal(t, int32(10), *v)
	assert.Equal(t, 96, z.Used(), "only the 80-byte block (96-byte class) is live")
}

func TestArray_FailedGrowthKeepsData(t *testing.T) {
	z := newZone(t, 64)
	a, err := New[int32](z)
	require.NoError(t, err)
	fill(t, a, 0, 1, 2, 3, 4, 5, 6, 7, 8, 9)

	err = a.Push(10)
	require.ErrorIs(t, err, memory.ErrInsufficientMemory)
	assert.Equal(t, 10, a.Len())
	assert.Equal(t, 10, a.Cap())
	assert.Equal(t, []int32{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, a.Values())

	err = a.Insert(0, -1)
	require.ErrorIs(t, err, memory.ErrInsufficientMemory)
	assert.Equal(t, int32(0), a.Values()[0])
}

func TestArray_PushPop(t *testing.T) {
	a := newIntArray(t, WithCapacity(2))
	fill(t, a, 1, 2, 3)

	v, err := a.Pop()
	require.NoError(t, err)
	assert.Equal(t, int32(3), v)
	assert.Equal(t, []int32{1, 2}, a.Values())

	_, _ = a.Pop()
	_, _ = a.Pop()
	_, err = a.Pop()
	require.ErrorIs(t, err, memory.ErrEmptyData)
}

func TestArray_Insert(t *testing.T) {
	a := newIntArray(t, WithCapacity(3))
	fill(t, a, 1, 3)

	require.NoError(t, a.Insert(1, 2))
	require.NoError(t, a.Insert(0, 0))
	require.NoError(t, a.Insert(4, 4), "index == len appends")
	assert.Equal(t, []int32{0, 1, 2, 3, 4}, a.Values())

	require.ErrorIs(t, a.Insert(-1, 9), memory.ErrInvalidParam)
	require.ErrorIs(t, a.Insert(6, 9), memory.ErrInvalidParam)
}

func TestArray_RemoveAt(t *testing.T) {
	a := newIntArray(t)
	require.ErrorIs(t, a.RemoveAt(0), memory.ErrEmptyData)

	fill(t, a, 10, 20, 30)
	require.ErrorIs(t, a.RemoveAt(3), memory.ErrInvalidParam)
	require.NoError(t, a.RemoveAt(1))
	assert.Equal(t, []int32{10, 30}, a.Values())
}

func TestArray_Remove(t *testing.T) {
	a := newIntArray(t)
	_, err := a.Remove(1, false)
	require.ErrorIs(t, err, memory.ErrEmptyData)

	fill(t, a, 7, 1, 7, 7, 2, 7)

	n, err := a.Remove(7, false)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []int32{1, 7, 7, 2, 7}, a.Values())

	n, err = a.Remove(7, true)
	require.NoError(t, err)
	assert.Equal(t, 3, n, "adjacent matches are all removed")
	assert.Equal(t, []int32{1, 2}, a.Values())

	_, err = a.Remove(9, true)
	require.ErrorIs(t, err, memory.ErrKeyNotFound)
}

func TestArray_ClearSortAccessors(t *testing.T) {
	a := newIntArray(t, WithCapacity(4))
	fill(t, a, 4, 2, 3, 1)
	assert.True(t, a.Full())

	require.NoError(t, a.Sort(cmp.Compare[int32]))
	assert.Equal(t, []int32{1, 2, 3, 4}, a.Values())
	require.ErrorIs(t, a.Sort(nil), memory.ErrInvalidParam)

	require.NoError(t, a.Set(0, 9))
	v, err := a.Get(0)
	require.NoError(t, err)
	assert.Equal(t, int32(9), v)
	assert.Equal(t, 2, a.Index(3))
	assert.Equal(t, -1, a.Index(42))

	_, err = a.At(4)
	require.ErrorIs(t, err, memory.ErrInvalidParam)
	_, err = a.At(-1)
	require.ErrorIs(t, err, memory.ErrInvalidParam)

	require.NoError(t, a.Clear())
	assert.True(t, a.Empty())
	assert.Equal(t, 4, a.Cap(), "clear keeps the block")
}

func TestArray_Destroy(t *testing.T) {
	z := newZone(t, 1024)
	a, err := New[int64](z)
	require.NoError(t, err)
	require.NoError(t, a.Push(1))
	require.NoError(t, a.Destroy())
	assert.Zero(t, z.Used())

	require.ErrorIs(t, a.Destroy(), memory.ErrNotAllocated)
	require.ErrorIs(t, a.Push(1), memory.ErrNotAllocated)
	_, err = a.Pop()
	require.ErrorIs(t, err, memory.ErrNotAllocated)
	require.ErrorIs(t, a.Insert(0, 1), memory.ErrNotAllocated)
	require.ErrorIs(t, a.RemoveAt(0), memory.ErrNotAllocated)
	_, err = a.Remove(1, false)
	require.ErrorIs(t, err, memory.ErrNotAllocated)
	require.ErrorIs(t, a.Clear(), memory.ErrNotAllocated)
	require.ErrorIs(t, a.Sort(cmp.Compare[int64]), memory.ErrNotAllocated)
	_, err = a.At(0)
	require.ErrorIs(t, err, memory.ErrNotAllocated)
	assert.Nil(t, a.Values())
}

type vertex struct {
	X, Y, Z float32
	Color   uint32
}

func TestArray_StructElements(t *testing.T) {
	z := newZone(t, 1<<16)
	a, err := New[vertex](z, WithCapacity(1), WithGrowth(1.5))
	require.NoError(t, err)
	defer a.Destroy()

	for i := range 100 {
		require.NoError(t, a.Push(vertex{X: float32(i), Color: uint32(i)}))
	}
	for i, v := range a.Values() {
		require.Equal(t, uint32(i), v.Color)
	}
}

func TestArray_Property_PushPreservesOrder(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		vals := rapid.SliceOf(rapid.Int32()).Draw(t, "vals")
		a, err := New[int32](memory.NewHeap(), WithCapacity(rapid.IntRange(1, 16).Draw(t, "cap")))
		require.NoError(t, err)

		prevCap := a.Cap()
		for _, v := range vals {
			require.NoError(t, a.Push(v))
			require.GreaterOrEqual(t, a.Cap(), prevCap, "capacity never shrinks")
			prevCap = a.Cap()
		}
		require.Equal(t, len(vals), a.Len())
		for i, v := range vals {
			got, err := a.Get(i)
			require.NoError(t, err)
			require.Equal(t, v, got)
		}
	})
}

func TestArray_Property_InsertRemoveAtRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		vals := rapid.SliceOf(rapid.Int32()).Draw(t, "vals")
		a, err := New[int32](memory.NewHeap())
		require.NoError(t, err)
		for _, v := range vals {
			require.NoError(t, a.Push(v))
		}
		before := append([]int32(nil), a.Values()...)

		i := rapid.IntRange(0, len(vals)).Draw(t, "index")
		require.NoError(t, a.Insert(i, rapid.Int32().Draw(t, "x")))
		require.NoError(t, a.RemoveAt(i))

		require.Equal(t, before, append([]int32(nil), a.Values()...))
	})
}
