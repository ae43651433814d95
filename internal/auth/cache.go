// ABOUTME: Thread-safe TTL cache for successful token introspections
// ABOUTME: Bypassed entirely in development mode so claim changes show up immediately

package auth

import (
	"context"
	"sync"
	"time"
)

// IntrospectionTTL is how long a successful introspection stays valid in the
// cache. It is deliberately not configurable per call.
const IntrospectionTTL = 30 * time.Second

// TokenCache maps raw bearer tokens to previously validated Users. One cache
// is constructed per process and shared by every in-flight request, so
// implementations must be safe under concurrent Get/Put. A stale overwrite
// race between two validations of the same token is acceptable:
// last-writer-wins, since both writers validated the same token.
type TokenCache interface {
	// Get returns the cached User for token, or nil and false when the
	// token is unknown or its entry has expired.
	Get(ctx context.Context, token string) (*User, bool)

	// Put stores the User under token with the cache's TTL, overwriting
	// any existing entry.
	Put(ctx context.Context, token string, u *User)
}

// cacheEntry pairs a validated user with its expiry. Expired entries are
// logically absent; they are overwritten by the next successful validation
// rather than swept by a background goroutine.
type cacheEntry struct {
	user      User
	expiresAt time.Time
}

// MemoryCache is the default in-process TokenCache: a mutex-guarded map with
// lazy expiry. There is no eviction thread and no size bound; the live token
// set is bounded by token lifetime and process lifetime.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	ttl     time.Duration
	bypass  func() bool
	now     func() time.Time
}

// NewMemoryCache creates a cache with the given TTL. When bypass is non-nil
// and returns true, Get always misses and Put never stores; it is consulted
// once per call so operators can disable caching without code changes.
func NewMemoryCache(ttl time.Duration, bypass func() bool) *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		bypass:  bypass,
		now:     time.Now,
	}
}

// Get returns the cached User for token if present and unexpired.
func (c *MemoryCache) Get(_ context.Context, token string) (*User, bool) {
	if c.bypass != nil && c.bypass() {
		return nil, false
	}
	c.mu.RLock()
	entry, ok := c.entries[token]
	c.mu.RUnlock()
	if !ok || !c.now().Before(entry.expiresAt) {
		return nil, false
	}
	user := entry.user
	return &user, true
}

// Put stores u under token, overwriting any prior entry.
func (c *MemoryCache) Put(_ context.Context, token string, u *User) {
	if c.bypass != nil && c.bypass() {
		return
	}
	c.mu.Lock()
	c.entries[token] = cacheEntry{user: *u, expiresAt: c.now().Add(c.ttl)}
	c.mu.Unlock()
}

var _ TokenCache = (*MemoryCache)(nil)
