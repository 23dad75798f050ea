package snippet

import "sync"

// queryKeyLen bounds the query part of the cache key.
const queryKeyLen = 50

// Cache memoizes extracted quotes by (source URI, query prefix). Entries are
// kept for process lifetime; keys are bounded by observed queries so growth
// is acceptable and invalidation is out of scope.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]string
}

// NewCache creates an empty snippet cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]string)}
}

func cacheKey(uri, query string) string {
	return uri + ":" + firstRunes(query, queryKeyLen)
}

// Get returns the cached value for (uri, query), if any.
func (c *Cache) Get(uri, query string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.entries[cacheKey(uri, query)]
	return v, ok
}

// Set stores a value for (uri, query).
func (c *Cache) Set(uri, query, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[cacheKey(uri, query)] = value
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
