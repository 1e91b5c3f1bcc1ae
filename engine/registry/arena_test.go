package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArenaInsertGet(t *testing.T) {
	a := NewArena[string]()
	h := a.Insert("first")
	got, ok := a.Get(h)
	require.True(t, ok)
	assert.Equal(t, "first", got)
	assert.Equal(t, 1, a.Len())
}

func TestArenaZeroHandleIsStale(t *testing.T) {
	a := NewArena[int]()
	_, ok := a.Get(Handle{})
	assert.False(t, ok)
	a.Insert(42)
	_, ok = a.Get(Handle{})
	assert.False(t, ok)
}

func TestArenaGenerationInvalidatesRemoved(t *testing.T) {
	a := NewArena[int]()
	h := a.Insert(7)
	require.True(t, a.Remove(h))

	_, ok := a.Get(h)
	assert.False(t, ok, "removed handle must not resolve")

	// Reusing the slot bumps the generation, so the old handle stays dead.
	h2 := a.Insert(8)
	assert.Equal(t, h.Index, h2.Index, "slot should be reused")
	assert.NotEqual(t, h.Generation, h2.Generation)
	_, ok = a.Get(h)
	assert.False(t, ok)
	got, ok := a.Get(h2)
	require.True(t, ok)
	assert.Equal(t, 8, got)
}

func TestArenaRecyclesMostRecentlyFreed(t *testing.T) {
	a := NewArena[int]()
	h1 := a.Insert(1)
	h2 := a.Insert(2)
	a.Remove(h1)
	a.Remove(h2)

	// The free list is a stack: the last slot freed comes back first.
	assert.Equal(t, h2.Index, a.Insert(3).Index)
	assert.Equal(t, h1.Index, a.Insert(4).Index)
}

func TestArenaRemoveTwice(t *testing.T) {
	a := NewArena[int]()
	h := a.Insert(1)
	assert.True(t, a.Remove(h))
	assert.False(t, a.Remove(h))
}

func TestArenaHandlesAscendingOrder(t *testing.T) {
	a := NewArena[int]()
	h1 := a.Insert(1)
	h2 := a.Insert(2)
	h3 := a.Insert(3)
	a.Remove(h2)
	h4 := a.Insert(4)
	assert.Equal(t, h2.Index, h4.Index)

	handles := a.Handles()
	require.Len(t, handles, 3)
	// Iteration order is slot order regardless of insertion history, so
	// topology snapshots are stable across slot reuse.
	assert.Equal(t, []Handle{h1, h4, h3}, handles)
}

func TestArenaHandlesDeterministic(t *testing.T) {
	a := NewArena[int]()
	for i := 0; i < 32; i++ {
		a.Insert(i)
	}
	first := a.Handles()
	second := a.Handles()
	assert.Equal(t, first, second)
}
