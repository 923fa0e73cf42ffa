package stats

import (
	"context"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/slok/infostats/internal/model"
)

const allProvidersCacheKey = "*"

// CachedGatherer is a gatherer that caches the schema catalogs of the
// gatherer it wraps. Schemas are static for the life of a source so
// watching stats only needs to fetch them once per TTL. Results are never
// cached.
type CachedGatherer struct {
	Gatherer

	mu     sync.Mutex
	cache  *gocache.Cache
	hits   int64
	misses int64
}

// NewCachedGatherer returns a new schema caching gatherer.
func NewCachedGatherer(g Gatherer, ttl time.Duration) *CachedGatherer {
	return &CachedGatherer{
		Gatherer: g,
		cache:    gocache.New(ttl, 2*ttl),
	}
}

// GatherSchemas satisfies Gatherer.
func (c *CachedGatherer) GatherSchemas(ctx context.Context, provider *model.Provider) (*Catalog, error) {
	key := allProvidersCacheKey
	if provider != nil {
		key = string(*provider)
	}

	if v, ok := c.cache.Get(key); ok {
		c.mu.Lock()
		c.hits++
		c.mu.Unlock()
		return v.(*Catalog), nil
	}

	c.mu.Lock()
	c.misses++
	c.mu.Unlock()

	cat, err := c.Gatherer.GatherSchemas(ctx, provider)
	if err != nil {
		return nil, err
	}
	c.cache.Set(key, cat, gocache.DefaultExpiration)

	return cat, nil
}

// Stats returns cache statistics.
func (c *CachedGatherer) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := c.hits + c.misses
	hitRate := float64(0)
	if total > 0 {
		hitRate = float64(c.hits) / float64(total) * 100
	}

	return CacheStats{
		Hits:    c.hits,
		Misses:  c.misses,
		HitRate: hitRate,
		Size:    int64(c.cache.ItemCount()),
	}
}

// Clear removes all entries from cache.
func (c *CachedGatherer) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cache.Flush()
	c.hits = 0
	c.misses = 0
}

// CacheStats provides cache performance metrics.
type CacheStats struct {
	Hits    int64
	Misses  int64
	HitRate float64
	Size    int64
}
