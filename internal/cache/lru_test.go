package cache

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLRU_BasicGetPut(t *testing.T) {
	c := NewLRU[string](3)

	c.Put("a", "A")
	c.Put("b", "B")

	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, "A", v)

	_, ok = c.Get("missing")
	assert.False(t, ok)
	assert.Equal(t, 2, c.Len())
}

func TestLRU_Eviction(t *testing.T) {
	c := NewLRU[int](2)

	c.Put("a", 1)
	c.Put("b", 2)
	c.Put("c", 3) // evicts "a"

	_, ok := c.Get("a")
	assert.False(t, ok, "a should have been evicted")

	v, ok := c.Get("b")
	assert.True(t, ok)
	assert.Equal(t, 2, v)

	v, ok = c.Get("c")
	assert.True(t, ok)
	assert.Equal(t, 3, v)
}

func TestLRU_AccessPromotesEntry(t *testing.T) {
	c := NewLRU[int](2)

	c.Put("a", 1)
	c.Put("b", 2)
	c.Get("a")
	c.Put("c", 3) // evicts "b", the least recently used

	_, ok := c.Get("a")
	assert.True(t, ok, "a was accessed recently, should not be evicted")

	_, ok = c.Get("b")
	assert.False(t, ok, "b should have been evicted")
}

func TestLRU_UpdateExisting(t *testing.T) {
	c := NewLRU[string](2)

	c.Put("a", "A1")
	c.Put("a", "A2")

	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, "A2", v)
	assert.Equal(t, 1, c.Len())
}

func TestLRU_CapacityOne(t *testing.T) {
	c := NewLRU[int](0)

	c.Put("a", 1)
	c.Put("b", 2)

	_, ok := c.Get("a")
	assert.False(t, ok)
	v, ok := c.Get("b")
	assert.True(t, ok)
	assert.Equal(t, 2, v)
}

func TestLRU_ConcurrentAccess(t *testing.T) {
	c := NewLRU[int](16)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				key := fmt.Sprintf("k%d", (g*i)%32)
				c.Put(key, i)
				c.Get(key)
			}
		}(g)
	}
	wg.Wait()

	assert.LessOrEqual(t, c.Len(), 16)
}
