package cache

import (
	"context"
	"sync"
	"time"

	"github.com/riskwatch/risk-engine/pkg/apperrors"
	"github.com/riskwatch/risk-engine/pkg/models"
)

type memoryEntry struct {
	profile   *models.CompanyRiskProfile
	expiresAt time.Time
}

// MemoryCache is an in-process ProfileCache. It backs tests and deployments
// without a Redis host. Expiry is lazy-checked on read; no sweeper runs.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryCache creates an empty in-memory cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// Get implements ProfileCache. Expired entries read as misses and are
// evicted on the spot.
func (c *MemoryCache) Get(ctx context.Context, key string) (*models.CompanyRiskProfile, error) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		return nil, apperrors.ErrNotFound
	}

	if c.now().After(entry.expiresAt) {
		c.mu.Lock()
		// Re-check under the write lock; a concurrent Put may have
		// refreshed the entry.
		if cur, ok := c.entries[key]; ok && c.now().After(cur.expiresAt) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return nil, apperrors.ErrNotFound
	}

	// Hand out a copy: the stored snapshot must stay immutable, matching
	// the Redis backend's JSON round-trip semantics.
	return entry.profile.Clone(), nil
}

// Put implements ProfileCache with whole-entry replacement.
func (c *MemoryCache) Put(ctx context.Context, key string, profile *models.CompanyRiskProfile, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = memoryEntry{
		profile:   profile,
		expiresAt: c.now().Add(ttl),
	}
	return nil
}

// Len returns the number of stored entries, expired or not.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

var _ ProfileCache = (*MemoryCache)(nil)
