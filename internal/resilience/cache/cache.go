// Package cache implements the two-tier (process-local + Redis) cache
// used by the entity resolver, embedder, and LLM response cache (spec.md
// sections 4.2, 4.3, 4.4), grounded on the teacher's internal/cache
// manager.go (patrickmn/go-cache + disk) generalized to Redis as the
// shared tier.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

// Tiered is a generic two-tier cache: a process-local in-memory tier
// backed by go-cache, and a shared Redis tier. Reads check local first,
// then Redis (populating local on a remote hit); writes populate both.
type Tiered struct {
	local *gocache.Cache
	redis *redis.Client
	ttl   time.Duration
}

func NewTiered(redisClient *redis.Client, localTTL, ttl time.Duration) *Tiered {
	return &Tiered{
		local: gocache.New(localTTL, 2*localTTL),
		redis: redisClient,
		ttl:   ttl,
	}
}

// Get returns the cached bytes for key, and whether it was found.
func (t *Tiered) Get(ctx context.Context, key string) ([]byte, bool) {
	if v, ok := t.local.Get(key); ok {
		return v.([]byte), true
	}
	val, err := t.redis.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	t.local.SetDefault(key, val)
	return val, true
}

// GetJSON unmarshals the cached value for key into dest, returning
// whether it was found.
func (t *Tiered) GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	raw, ok := t.Get(ctx, key)
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, fmt.Errorf("cache: unmarshal %s: %w", key, err)
	}
	return true, nil
}

// Set writes value to both tiers with the cache's configured TTL.
func (t *Tiered) Set(ctx context.Context, key string, value []byte) error {
	t.local.Set(key, value, t.ttl)
	if err := t.redis.Set(ctx, key, value, t.ttl).Err(); err != nil {
		return fmt.Errorf("cache: redis set %s: %w", key, err)
	}
	return nil
}

// SetJSON marshals value and writes it to both tiers.
func (t *Tiered) SetJSON(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache: marshal %s: %w", key, err)
	}
	return t.Set(ctx, key, raw)
}

// Invalidate removes key from both tiers. Called on every entity
// create/update/delete for id-keyed, name-keyed, and alias-keyed
// variants (spec.md section 4.3's cache-invalidation invariant).
func (t *Tiered) Invalidate(ctx context.Context, keys ...string) error {
	for _, k := range keys {
		t.local.Delete(k)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := t.redis.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("cache: redis del: %w", err)
	}
	return nil
}

// SetNegative caches a tombstone marking key as a known miss, absorbing
// repeated misses per spec.md section 4.3.
func (t *Tiered) SetNegative(ctx context.Context, key string, ttl time.Duration) error {
	t.local.Set(key, []byte("__MISS__"), ttl)
	return t.redis.Set(ctx, key, "__MISS__", ttl).Err()
}

// IsNegative reports whether key is cached as a known miss.
func (t *Tiered) IsNegative(ctx context.Context, key string) bool {
	v, ok := t.Get(ctx, key)
	return ok && string(v) == "__MISS__"
}
