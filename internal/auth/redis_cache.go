// ABOUTME: Redis-backed TokenCache for deployments that share introspections
// ABOUTME: Same TTL and development-mode bypass semantics as the in-memory cache

package auth

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache stores validated users in Redis so multiple authgate instances
// can share one introspection cache. Redis failures degrade to cache misses;
// the validator then falls through to the authority, so a Redis outage never
// blocks authentication.
type RedisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	bypass func() bool
	logger *slog.Logger
}

// NewRedisCache creates a Redis-backed cache. bypass has the same contract as
// in NewMemoryCache.
func NewRedisCache(client *redis.Client, prefix string, ttl time.Duration, bypass func() bool) *RedisCache {
	if prefix == "" {
		prefix = "authgate:introspect:"
	}
	return &RedisCache{
		client: client,
		prefix: prefix,
		ttl:    ttl,
		bypass: bypass,
		logger: slog.Default().With("component", "redis-cache"),
	}
}

// Get returns the cached User for token if present and unexpired. Expiry is
// enforced by the Redis key TTL set on Put.
func (c *RedisCache) Get(ctx context.Context, token string) (*User, bool) {
	if c.bypass != nil && c.bypass() {
		return nil, false
	}
	data, err := c.client.Get(ctx, c.prefix+token).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Debug("cache get failed", "error", err)
		}
		return nil, false
	}
	var u User
	if err := json.Unmarshal(data, &u); err != nil {
		c.logger.Debug("cache entry corrupt, ignoring", "error", err)
		return nil, false
	}
	return &u, true
}

// Put stores u under token with the cache TTL. Errors are logged and dropped.
func (c *RedisCache) Put(ctx context.Context, token string, u *User) {
	if c.bypass != nil && c.bypass() {
		return
	}
	data, err := json.Marshal(u)
	if err != nil {
		c.logger.Debug("cache marshal failed", "error", err)
		return
	}
	if err := c.client.Set(ctx, c.prefix+token, data, c.ttl).Err(); err != nil {
		c.logger.Debug("cache put failed", "error", err)
	}
}

var _ TokenCache = (*RedisCache)(nil)
