package optimization

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize bounds the number of cached layout costs.
const DefaultCacheSize = 1 << 20

// Cache memoizes layout costs by layout string. It is safe for concurrent
// use. A nil *Cache is a disabled cache.
type Cache struct {
	entries *lru.Cache[string, float64]
}

// NewCache returns a cache holding at most size entries.
func NewCache(size int) (*Cache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	entries, err := lru.New[string, float64](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create cache: %w", err)
	}
	return &Cache{entries: entries}, nil
}

// Get returns the cached cost of key.
func (c *Cache) Get(key string) (float64, bool) {
	if c == nil {
		return 0, false
	}
	return c.entries.Get(key)
}

// Insert stores the cost of key.
func (c *Cache) Insert(key string, cost float64) {
	if c == nil {
		return
	}
	c.entries.Add(key, cost)
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	return c.entries.Len()
}
