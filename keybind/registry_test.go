package keybind

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryRegisterFind(t *testing.T) {
	r := NewRegistry()
	r.Register(Parse("shift+ctrl+a"), 2)

	id, ok := r.Find(Parse("ctrl+shift+a"))
	require.True(t, ok)
	assert.Equal(t, ID(2), id)

	r.Unregister(2)
	_, ok = r.Find(Parse("ctrl+shift+a"))
	assert.False(t, ok)
}

func TestRegistryUnregisterUnknown(t *testing.T) {
	r := NewRegistry()
	r.Register(Parse("alt+m"), 1)

	r.Unregister(99)

	id, ok := r.Find(Parse("alt+m"))
	require.True(t, ok)
	assert.Equal(t, ID(1), id)
	assert.Equal(t, 1, r.Len())
}

func TestRegistryUnregisterRemovesAll(t *testing.T) {
	r := NewRegistry()
	r.Register(Parse("alt+m"), 7)
	r.Register(Parse("ctrl+q"), 7)
	r.Register(Parse("ctrl+w"), 8)

	r.Unregister(7)

	_, ok := r.Find(Parse("alt+m"))
	assert.False(t, ok)
	_, ok = r.Find(Parse("ctrl+q"))
	assert.False(t, ok)
	assert.Equal(t, 1, r.Len())
}

func TestRegistryOverwrite(t *testing.T) {
	r := NewRegistry()
	r.Register(Parse("alt+m"), 1)
	r.Register(Parse("alt+m"), 2)

	id, ok := r.Find(Parse("alt+m"))
	require.True(t, ok)
	assert.Equal(t, ID(2), id)
}

func TestRegistrySnapshotOrdered(t *testing.T) {
	r := NewRegistry()
	r.Register(Parse("ctrl+b"), 2)
	r.Register(Parse("ctrl+a"), 2)
	r.Register(Parse("alt+z"), 1)

	got := r.Snapshot()
	require.Len(t, got, 3)
	assert.Equal(t, "alt+z", got[0].Identity.String())
	assert.Equal(t, "ctrl+a", got[1].Identity.String())
	assert.Equal(t, "ctrl+b", got[2].Identity.String())
}

func TestRegistryConcurrentAccess(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				r.Register(Identity{Ctrl: true, Key: string(rune('a' + i))}, ID(i))
				r.Unregister(ID(i))
			}
		}(i)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				r.Find(Identity{Ctrl: true, Key: "a"})
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 0, r.Len())
}
