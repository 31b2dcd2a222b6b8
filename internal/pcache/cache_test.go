package pcache

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCacheEvictsBeyondSize(t *testing.T) {
	c, err := NewCache(2)
	require.Nil(t, err)
	c.Put(1, "a")
	c.Put(2, "b")
	c.Put(3, "c")
	_, ok := c.Get(1)
	require.False(t, ok)
	v, ok := c.Get(3)
	require.True(t, ok)
	require.Equal(t, "c", v)
	require.Equal(t, 2, c.Len())
}

func TestCachePinExemptsFromEviction(t *testing.T) {
	c, err := NewCache(2)
	require.Nil(t, err)
	c.Put(1, "a")
	require.True(t, c.Pin(1))
	c.Put(2, "b")
	c.Put(3, "c")
	c.Put(4, "d")

	v, ok := c.Get(1)
	require.True(t, ok)
	require.Equal(t, "a", v)

	// unpinning returns the entry to the evictable pool
	c.Unpin(1)
	c.Put(5, "e")
	c.Put(6, "f")
	_, ok = c.Get(1)
	require.False(t, ok)
}

func TestCachePinMissing(t *testing.T) {
	c, err := NewCache(2)
	require.Nil(t, err)
	require.False(t, c.Pin(42))
}

func TestCachePutKeepsPinned(t *testing.T) {
	c, err := NewCache(2)
	require.Nil(t, err)
	c.Put(1, "a")
	require.True(t, c.Pin(1))
	c.Put(1, "a2")
	c.Put(2, "b")
	c.Put(3, "c")
	c.Put(4, "d")
	v, ok := c.Get(1)
	require.True(t, ok)
	require.Equal(t, "a2", v)
}

func TestCachePurgeDropsEverything(t *testing.T) {
	c, err := NewCache(4)
	require.Nil(t, err)
	c.Put(1, "a")
	c.Put(2, "b")
	require.True(t, c.Pin(1))
	c.Purge()
	require.Equal(t, 0, c.Len())
	_, ok := c.Get(1)
	require.False(t, ok)
}

func TestCacheRemove(t *testing.T) {
	c, err := NewCache(4)
	require.Nil(t, err)
	c.Put(1, "a")
	require.True(t, c.Pin(1))
	c.Remove(1)
	_, ok := c.Get(1)
	require.False(t, ok)
}

func TestCacheNamedLocks(t *testing.T) {
	c, err := NewCache(4)
	require.Nil(t, err)
	c.Lock(7)
	done := make(chan struct{})
	go func() {
		c.Lock(7)
		c.Unlock(7)
		close(done)
	}()
	c.Unlock(7)
	<-done
}
