package texture

import "sync"

// Cache size constants - proactive limits prevent GC spikes from bulk eviction
const (
	cacheMaxSize    = 512
	cacheTargetSize = 384 // Target after eviction (75% of max)
)

// CacheKey identifies one resolved texture.
type CacheKey struct {
	Key    string
	Width  int
	Height int
	Light  bool
	Mode   Mode
}

// Cache is a thread-safe store of resolved textures with FIFO eviction.
// Nil results are cached too so repeated misses stay cheap.
type Cache struct {
	cache      map[CacheKey]Texture
	mutex      sync.RWMutex
	cacheOrder []CacheKey
}

// NewCache creates an empty texture cache.
func NewCache() *Cache {
	return &Cache{
		cache:      make(map[CacheKey]Texture, cacheMaxSize),
		cacheOrder: make([]CacheKey, 0, cacheMaxSize),
	}
}

// GetOrCreate returns the cached texture for key or builds it with create.
func (c *Cache) GetOrCreate(key CacheKey, create func() Texture) Texture {
	// First attempt under the read lock
	c.mutex.RLock()
	if tex, exists := c.cache[key]; exists {
		c.mutex.RUnlock()
		return tex
	}
	c.mutex.RUnlock()

	tex := create()

	c.mutex.Lock()
	defer c.mutex.Unlock()

	// Check again in case another goroutine added it while we were creating
	if cached, exists := c.cache[key]; exists {
		return cached
	}

	if len(c.cache) >= cacheMaxSize {
		evictCount := len(c.cacheOrder) - cacheTargetSize
		if evictCount > 0 && evictCount <= len(c.cacheOrder) {
			for i := 0; i < evictCount; i++ {
				delete(c.cache, c.cacheOrder[i])
			}
			c.cacheOrder = c.cacheOrder[evictCount:]
		}
	}

	c.cache[key] = tex
	c.cacheOrder = append(c.cacheOrder, key)
	return tex
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.cache)
}

// Clear drops every cached texture.
func (c *Cache) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.cache = make(map[CacheKey]Texture, cacheMaxSize)
	c.cacheOrder = c.cacheOrder[:0]
}
