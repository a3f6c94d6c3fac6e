package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLRU_Basic(t *testing.T) {
	c, err := NewLRU[int](2, nil)
	require.NoError(t, err)
	defer c.Close()

	c.Set("a", 1)
	c.Set("b", 2)

	got, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, got)

	// "b" is now least recently used and gets evicted
	c.Set("c", 3)
	_, ok = c.Get("b")
	assert.False(t, ok)
	assert.Equal(t, 2, c.Size())
}

func TestLRU_EvictCallback(t *testing.T) {
	var evicted []string
	c, err := NewLRU[int](1, func(key string, _ int) {
		evicted = append(evicted, key)
	})
	require.NoError(t, err)

	c.Set("a", 1)
	c.Set("b", 2)
	assert.Equal(t, []string{"a"}, evicted)
}

func TestLRU_InvalidSize(t *testing.T) {
	_, err := NewLRU[int](0, nil)
	assert.Error(t, err)
}

func TestTTL_ExpiresEntries(t *testing.T) {
	c := NewTTL[string](20*time.Millisecond, 0, nil)
	defer c.Close()

	c.Set("k", "v")
	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, "v", got)

	time.Sleep(30 * time.Millisecond)
	_, ok = c.Get("k")
	assert.False(t, ok)
}

func TestTTL_SetIfAbsent(t *testing.T) {
	c := NewTTL[int](20*time.Millisecond, 0, nil)
	defer c.Close()

	assert.True(t, c.SetIfAbsent("k", 1))
	assert.False(t, c.SetIfAbsent("k", 2))

	got, _ := c.Get("k")
	assert.Equal(t, 1, got)

	// Expired entries can be re-inserted
	time.Sleep(30 * time.Millisecond)
	assert.True(t, c.SetIfAbsent("k", 3))
}

func TestTTL_JanitorSweeps(t *testing.T) {
	var evicted []string
	c := NewTTL[int](10*time.Millisecond, 5*time.Millisecond, func(key string, _ int) {
		evicted = append(evicted, key)
	})
	defer c.Close()

	c.Set("k", 1)
	assert.Eventually(t, func() bool {
		return c.Size() == 0
	}, time.Second, 5*time.Millisecond)
}

func TestTTL_DeleteAndClear(t *testing.T) {
	c := NewTTL[int](time.Minute, 0, nil)
	defer c.Close()

	c.Set("a", 1)
	c.Set("b", 2)
	assert.True(t, c.Delete("a"))
	assert.False(t, c.Delete("a"))

	c.Clear()
	assert.Equal(t, 0, c.Size())
	assert.Empty(t, c.Keys())
}
