package lru

import (
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCache_GetPut(t *testing.T) {
	c := New[string, int](2)

	assert.False(t, c.Put("a", 1))
	assert.False(t, c.Put("b", 2))

	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	_, ok = c.Get("missing")
	assert.False(t, ok)
}

func TestCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c := New[int64, struct{}](2)

	c.Put(1, struct{}{})
	c.Put(2, struct{}{})
	c.Get(1) // 2 is now the oldest
	c.Put(3, struct{}{})

	assert.True(t, c.Contains(1))
	assert.False(t, c.Contains(2))
	assert.True(t, c.Contains(3))
	assert.Equal(t, 2, c.Len())
}

func TestCache_PutExistingUpdates(t *testing.T) {
	c := New[string, string](1)

	c.Put("k", "old")
	assert.True(t, c.Put("k", "new"))

	v, _ := c.Get("k")
	assert.Equal(t, "new", v)
	assert.Equal(t, 1, c.Len())
}

func TestCache_MinimumCapacity(t *testing.T) {
	c := New[string, int](0)
	c.Put("a", 1)
	c.Put("b", 2)
	assert.Equal(t, 1, c.Len())
	assert.True(t, c.Contains("b"))
}

func TestCache_ConcurrentAccess(t *testing.T) {
	c := New[string, int](50)

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for j := range 100 {
				key := strconv.Itoa(worker*1000 + j)
				c.Put(key, j)
				c.Get(key)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 50, c.Len())
}
