// ABOUTME: Tests for the Redis-backed introspection cache
// ABOUTME: Pins the bypass short-circuit and the degrade-to-miss behavior on Redis failure

package auth

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestRedisCache_BypassShortCircuits(t *testing.T) {
	// The bypass check runs before any client call, so a nil client proves
	// Redis is never touched in development mode.
	cache := NewRedisCache(nil, "", IntrospectionTTL, func() bool { return true })
	ctx := context.Background()

	cache.Put(ctx, "t1", &User{Subject: "u1"})
	if _, ok := cache.Get(ctx, "t1"); ok {
		t.Error("bypassed cache must never hit")
	}
}

func TestRedisCache_UnreachableRedisDegradesToMiss(t *testing.T) {
	// Port 0 fails at dial time, so no Redis server is needed. An outage
	// must read as a miss, never as an error on the request path.
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:0",
		DialTimeout: 100 * time.Millisecond,
	})
	t.Cleanup(func() { client.Close() })
	cache := NewRedisCache(client, "", IntrospectionTTL, nil)
	ctx := context.Background()

	cache.Put(ctx, "t1", &User{Subject: "u1"})
	if _, ok := cache.Get(ctx, "t1"); ok {
		t.Error("unreachable Redis must degrade to a cache miss")
	}
}

func TestRedisCache_DefaultPrefix(t *testing.T) {
	cache := NewRedisCache(nil, "", IntrospectionTTL, nil)
	if cache.prefix != "authgate:introspect:" {
		t.Errorf("unexpected default prefix %q", cache.prefix)
	}
	cache = NewRedisCache(nil, "custom:", IntrospectionTTL, nil)
	if cache.prefix != "custom:" {
		t.Errorf("expected custom prefix to be kept, got %q", cache.prefix)
	}
}
