package snapshot

import (
	"context"
	"log"
	"sync"
	"time"
)

// DefaultTTL keeps snapshots under one second old.
const DefaultTTL = 950 * time.Millisecond

type Fetcher interface {
	Fetch(ctx context.Context) (*Snapshot, error)
}

// CacheMetrics is optional; nil disables instrumentation.
type CacheMetrics interface {
	SnapshotFetchInc()
	SnapshotCacheHitInc()
}

// Cache is a single-slot TTL cache in front of a Fetcher. All callers in the
// process share one slot.
type Cache struct {
	src     Fetcher
	ttl     time.Duration
	metrics CacheMetrics
	now     func() time.Time
	logHits bool

	mu        sync.Mutex
	cur       *Snapshot
	expiresAt time.Time
}

func NewCache(src Fetcher, ttl time.Duration, m CacheMetrics) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{src: src, ttl: ttl, metrics: m, now: time.Now}
}

// LogHits enables a log line on each cache hit with the time left until expiry.
func (c *Cache) LogHits(on bool) {
	c.mu.Lock()
	c.logHits = on
	c.mu.Unlock()
}

// Get returns the cached snapshot while it is fresh and fetches a new one
// otherwise. Failed fetches are not cached.
func (c *Cache) Get(ctx context.Context) (*Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if c.cur != nil && !now.After(c.expiresAt) {
		if c.metrics != nil {
			c.metrics.SnapshotCacheHitInc()
		}
		if c.logHits {
			log.Printf("snapshot cache hit, time to expiration: %s", c.expiresAt.Sub(now))
		}
		return c.cur, nil
	}

	s, err := c.src.Fetch(ctx)
	if c.metrics != nil {
		c.metrics.SnapshotFetchInc()
	}
	if err != nil {
		return nil, err
	}
	c.cur = s
	c.expiresAt = now.Add(c.ttl)
	return s, nil
}

// Invalidate drops the cached slot so the next Get fetches.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.cur = nil
	c.expiresAt = time.Time{}
	c.mu.Unlock()
}
