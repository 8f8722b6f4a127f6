package client

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// DefaultCacheTTL is how long a fetched list is reused.
const DefaultCacheTTL = 5 * time.Minute

// Cache entity keys.
const (
	EntityUsers      = "users"
	EntityMicrosites = "microsites"
)

type cacheEntry struct {
	value     any
	fetchedAt time.Time
}

// TTLCache holds the last fetched list per entity type. Clients sharing a
// TTLCache see each other's fetches and invalidations.
type TTLCache struct {
	ttl     time.Duration
	now     func() time.Time
	entries *expirable.LRU[string, cacheEntry]
}

var (
	sharedOnce  sync.Once
	sharedCache *TTLCache
)

// SharedCache returns the process-wide cache used when no cache is configured.
func SharedCache() *TTLCache {
	sharedOnce.Do(func() { sharedCache = NewTTLCache(DefaultCacheTTL) })
	return sharedCache
}

// NewTTLCache returns an empty cache.
func NewTTLCache(ttl time.Duration) *TTLCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &TTLCache{
		ttl:     ttl,
		now:     time.Now,
		entries: expirable.NewLRU[string, cacheEntry](64, nil, ttl),
	}
}

// Get returns the cached value for entity when it is younger than the TTL.
func (c *TTLCache) Get(entity string) (any, bool) {
	e, ok := c.entries.Get(entity)
	if !ok {
		return nil, false
	}
	if c.now().Sub(e.fetchedAt) >= c.ttl {
		c.entries.Remove(entity)
		return nil, false
	}
	return e.value, true
}

// Set records value as freshly fetched.
func (c *TTLCache) Set(entity string, value any) {
	c.entries.Add(entity, cacheEntry{value: value, fetchedAt: c.now()})
}

// Invalidate drops the entry for entity.
func (c *TTLCache) Invalidate(entity string) {
	c.entries.Remove(entity)
}

// Clear drops every entry.
func (c *TTLCache) Clear() {
	c.entries.Purge()
}

// FetchedAt reports when entity was last stored.
func (c *TTLCache) FetchedAt(entity string) (time.Time, bool) {
	e, ok := c.entries.Peek(entity)
	return e.fetchedAt, ok
}
