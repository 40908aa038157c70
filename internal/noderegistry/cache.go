package noderegistry

import (
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// apiCacheEntry is one cached successful lookup, expiring at Expires.
type apiCacheEntry struct {
	Value   any
	Expires time.Time
}

// apiCache is a small TTL-evicting cache for registry and GitHub API
// responses, keyed by "<source>:<key>". Entries past their TTL are treated
// as misses and overwritten on the next successful lookup, rather than
// actively swept — the LRU's size bound is the only eviction pressure
// besides expiry.
type apiCache struct {
	mu    sync.Mutex
	cache *lru.Cache[string, apiCacheEntry]
	ttl   time.Duration
}

// newAPICache builds a cache holding up to size entries, each valid for
// ttl after being written.
func newAPICache(size int, ttl time.Duration) *apiCache {
	c, _ := lru.New[string, apiCacheEntry](size)
	return &apiCache{cache: c, ttl: ttl}
}

func (c *apiCache) get(source, key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.cache.Get(source + ":" + key)
	if !ok {
		return nil, false
	}
	if time.Now().After(entry.Expires) {
		c.cache.Remove(source + ":" + key)
		return nil, false
	}
	return entry.Value, true
}

func (c *apiCache) set(source, key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache.Add(source+":"+key, apiCacheEntry{Value: value, Expires: time.Now().Add(c.ttl)})
}
