package cache

import (
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/candyland/internal/application/port"
	"github.com/bnema/candyland/internal/domain/entity"
)

var _ port.Cache[string, *entity.Response] = (*LRU[string, *entity.Response])(nil)

func TestLRU_StoresResponseSnapshots(t *testing.T) {
	c := NewLRU[string, *entity.Response](4)

	key := entity.RequestKey(http.MethodGet, "http://localhost:3000/styles.css")
	c.Set(key, &entity.Response{Status: http.StatusOK, Body: []byte("body{}")})

	got, ok := c.Get(key)
	require.True(t, ok)
	assert.Equal(t, "body{}", string(got.Body))

	_, ok = c.Get(entity.RequestKey(http.MethodGet, "http://localhost:3000/missing"))
	assert.False(t, ok)
}

func TestLRU_EvictionCallsOnEvict(t *testing.T) {
	c := NewLRU[string, int](2)

	var evicted []string
	c.OnEvict(func(key string, _ int) { evicted = append(evicted, key) })

	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("c", 3)

	assert.Equal(t, []string{"a"}, evicted)
	_, ok := c.Get("a")
	assert.False(t, ok, "a should have been evicted")

	c.Remove("b")
	assert.Equal(t, []string{"a"}, evicted, "explicit removal is not an eviction")
}

func TestLRU_PeekDoesNotUpdateRecency(t *testing.T) {
	c := NewLRU[string, int](2)

	c.Set("a", 1)
	c.Set("b", 2)

	val, ok := c.Peek("a")
	require.True(t, ok)
	assert.Equal(t, 1, val)

	// "a" is still least recently used, so it goes first.
	c.Set("c", 3)
	_, ok = c.Peek("a")
	assert.False(t, ok)
}

func TestLRU_GetUpdatesRecency(t *testing.T) {
	c := NewLRU[string, int](2)

	c.Set("a", 1)
	c.Set("b", 2)
	c.Get("a")
	c.Set("c", 3)

	_, ok := c.Get("a")
	assert.True(t, ok, "a should still exist")
	_, ok = c.Get("b")
	assert.False(t, ok, "b should have been evicted")
}

func TestLRU_KeysMostRecentFirst(t *testing.T) {
	c := NewLRU[string, int](3)

	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("c", 3)
	c.Get("a")

	assert.Equal(t, []string{"a", "c", "b"}, c.Keys())
}

func TestLRU_SetAll(t *testing.T) {
	c := NewLRU[string, int](10)
	c.SetAll([]string{"x", "y", "z"}, []int{1, 2, 3})

	assert.Equal(t, 3, c.Len())
	v, ok := c.Get("y")
	require.True(t, ok)
	assert.Equal(t, 2, v)
}

func TestLRU_ZeroCapacityUsesOne(t *testing.T) {
	c := NewLRU[string, int](0)
	assert.Equal(t, 1, c.Capacity())

	c.Set("a", 1)
	c.Set("b", 2)
	assert.Equal(t, 1, c.Len())
}

func TestLRU_Clear(t *testing.T) {
	c := NewLRU[string, int](3)
	c.Set("a", 1)
	c.Set("b", 2)

	c.Clear()

	assert.Equal(t, 0, c.Len())
	assert.Empty(t, c.Keys())
}

func TestLRU_ConcurrentAccess(t *testing.T) {
	c := NewLRU[int, int](100)
	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(base int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.Set(base*100+j, j)
				c.Get(base*100 + j)
				c.Peek(base*100 + j)
			}
		}(i)
	}

	wg.Wait()
	assert.LessOrEqual(t, c.Len(), 100)
}
