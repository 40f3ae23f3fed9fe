package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"
)

// entry holds a cached engine script with its creation timestamp.
type entry struct {
	source    string
	createdAt time.Time
}

// Cache is a small in-memory cache for downloaded engine scripts.
// It is safe for concurrent use.
type Cache struct {
	mu         sync.RWMutex
	store      map[string]*entry
	maxEntries int
	ttl        time.Duration
	now        func() time.Time
}

// New creates a new Cache holding at most maxEntries scripts, each fresh for ttl.
// Expired entries are dropped lazily on lookup.
func New(maxEntries int, ttl time.Duration) *Cache {
	return &Cache{
		store:      make(map[string]*entry),
		maxEntries: maxEntries,
		ttl:        ttl,
		now:        time.Now,
	}
}

// Key generates a cache key from a script location.
func Key(location string) string {
	h := sha256.Sum256([]byte(location))
	return hex.EncodeToString(h[:])
}

// Get retrieves a cached script if it exists and is younger than the TTL.
// Returns the script and whether it was a cache hit.
func (c *Cache) Get(key string) (string, bool) {
	c.mu.RLock()
	e, ok := c.store[key]
	c.mu.RUnlock()

	if !ok {
		return "", false
	}

	if c.now().Sub(e.createdAt) > c.ttl {
		c.mu.Lock()
		delete(c.store, key)
		c.mu.Unlock()
		return "", false
	}

	return e.source, true
}

// Set stores a script in the cache. If the cache is at capacity,
// a random entry is evicted to make room.
func (c *Cache) Set(key, source string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Evict one random entry if at capacity (map iteration is random in Go).
	if _, exists := c.store[key]; !exists && len(c.store) >= c.maxEntries {
		for k := range c.store {
			delete(c.store, k)
			break
		}
	}

	c.store[key] = &entry{
		source:    source,
		createdAt: c.now(),
	}
}

// Len returns the number of stored entries, fresh or not.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.store)
}
