package container_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"langforge.dev/toolkit/pkg/container"
)

func TestVectorPushPreservesOrder(t *testing.T) {
	var v container.Vector[int]
	for i := 0; i < 100; i++ {
		v.Push(i)
	}
	require.Equal(t, 100, v.Len())
	for i := 0; i < 100; i++ {
		require.Equal(t, i, v.Get(i))
	}
}

func TestVectorPop(t *testing.T) {
	v := container.NewVector(1, 2, 3)

	last, ok := v.Pop()
	require.True(t, ok)
	require.Equal(t, 3, last)
	require.Equal(t, 2, v.Len())

	v.Pop()
	v.Pop()
	_, ok = v.Pop()
	require.False(t, ok)
}

func TestVectorSetAndClear(t *testing.T) {
	v := container.NewVector("a", "b")
	v.Set(1, "z")
	require.Equal(t, "z", v.Get(1))

	v.Clear()
	require.Equal(t, 0, v.Len())
}

func TestVectorResize(t *testing.T) {
	v := container.NewVector(1, 2, 3)
	v.Resize(5)
	require.Equal(t, 5, v.Len())
	require.Equal(t, 0, v.Get(4)) // grown slots are zero-filled
	require.Equal(t, 2, v.Get(1)) // existing elements survive

	v.Resize(2)
	require.Equal(t, 2, v.Len())
}

func TestVectorSortAndSearch(t *testing.T) {
	v := container.NewVector(3, 1, 2)
	v.Sort(func(a, b int) bool { return a < b })
	require.Equal(t, []int{1, 2, 3}, v.Slice())

	require.Equal(t, 1, v.Search(func(x int) bool { return x == 2 }))
	require.Equal(t, -1, v.Search(func(x int) bool { return x == 42 }))
}

func TestStackLIFO(t *testing.T) {
	var s container.Stack[string]
	_, ok := s.Pop()
	require.False(t, ok)

	s.Push("a")
	s.Push("b")

	top, ok := s.Top()
	require.True(t, ok)
	require.Equal(t, "b", top)
	require.Equal(t, 2, s.Len())

	popped, ok := s.Pop()
	require.True(t, ok)
	require.Equal(t, "b", popped)

	popped, _ = s.Pop()
	require.Equal(t, "a", popped)
	require.Equal(t, 0, s.Len())
}
