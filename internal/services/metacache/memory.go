package metacache

import (
	"context"
	"sync"
	"time"

	"github.com/denisAlshanov/audiograb/internal/models"
	"github.com/denisAlshanov/audiograb/internal/utils"
)

type entry struct {
	value     *models.VideoMetadata
	createdAt time.Time
}

// MemoryCache is the in-process Cache. It has no capacity bound; the sweep
// on every Put keeps it from growing past two TTLs worth of entries.
type MemoryCache struct {
	entries map[string]entry
	mu      sync.RWMutex
	ttl     time.Duration
	now     func() time.Time
}

func NewMemoryCache(ttl time.Duration) *MemoryCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryCache{
		entries: make(map[string]entry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (c *MemoryCache) Get(ctx context.Context, url string) (*models.VideoMetadata, bool) {
	c.mu.RLock()
	e, ok := c.entries[url]
	c.mu.RUnlock()

	if !ok || c.now().Sub(e.createdAt) >= c.ttl {
		return nil, false
	}

	utils.LogDebug(ctx, "Using cached video info", utils.Fields{"url": url})
	return e.value, true
}

func (c *MemoryCache) Put(ctx context.Context, url string, metadata *models.VideoMetadata) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	c.entries[url] = entry{value: metadata, createdAt: now}

	for key, e := range c.entries {
		if now.Sub(e.createdAt) > 2*c.ttl {
			delete(c.entries, key)
		}
	}
}

// Len returns the number of physically stored entries, expired or not.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
