// Package cache holds the principal cache consulted on every authenticated
// request, so token verification does not read the user document each time.
package cache

import (
	"context"
	"sync"
	"time"

	"chatapi/domain/entities"
)

// InMemoryCache provides a simple in-memory user cache. Expired entries are
// dropped lazily on read.
type InMemoryCache struct {
	mu    sync.RWMutex
	items map[string]cacheItem
	ttl   time.Duration
	now   func() time.Time
}

type cacheItem struct {
	user      entities.User
	expiresAt time.Time
}

// NewInMemoryCache creates a new in-memory cache
func NewInMemoryCache(ttl time.Duration) *InMemoryCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &InMemoryCache{
		items: make(map[string]cacheItem),
		ttl:   ttl,
		now:   time.Now,
	}
}

// Get retrieves a user from cache
func (c *InMemoryCache) Get(ctx context.Context, userID string) (*entities.User, bool) {
	c.mu.RLock()
	item, exists := c.items[userID]
	c.mu.RUnlock()
	if !exists {
		return nil, false
	}

	if c.now().After(item.expiresAt) {
		c.mu.Lock()
		delete(c.items, userID)
		c.mu.Unlock()
		return nil, false
	}

	user := item.user
	return &user, true
}

// Set stores a copy of user until the TTL passes.
func (c *InMemoryCache) Set(ctx context.Context, user *entities.User) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[user.ID] = cacheItem{
		user:      *user,
		expiresAt: c.now().Add(c.ttl),
	}
	return nil
}

// Invalidate removes a user from cache
func (c *InMemoryCache) Invalidate(ctx context.Context, userID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.items, userID)
	return nil
}
