// Package cache is a read-through cache for single-entity reads.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "catalog:"

// Tombstone is the value Delete leaves behind. Get treats it as a miss and Set will not
// replace it until it expires.
const Tombstone = "\x00tombstone"

// TombstoneTTL bounds how long an invalidated key refuses read-through fills. A read that
// loaded its row before an invalidation and reaches Set later than this can still cache
// the old row, for at most the entry ttl.
const TombstoneTTL = 30 * time.Second

// Cache stores JSON-encoded values by key.
type Cache interface {
	// Get decodes the cached value into dst. It reports false on a miss.
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any) error
	Delete(ctx context.Context, keys ...string) error
}

// OrganizationKey is the cache key for GET /organizations/:id.
func OrganizationKey(id uuid.UUID) string { return keyPrefix + "organization:" + id.String() }

// EventKey is the cache key for GET /events/:id.
func EventKey(id uuid.UUID) string { return keyPrefix + "event:" + id.String() }

// TicketKey is the cache key for GET /tickets/:id.
func TicketKey(id uuid.UUID) string { return keyPrefix + "ticket:" + id.String() }

// Redis is a Cache backed by go-redis.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis creates a Redis cache. Entries expire after ttl.
func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl}
}

// Get implements Cache.
func (r *Redis) Get(ctx context.Context, key string, dst any) (bool, error) {
	raw, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache get %s: %w", key, err)
	}
	if string(raw) == Tombstone {
		return false, nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		// A value we cannot decode is as good as absent.
		_ = r.client.Del(ctx, key).Err()
		return false, nil
	}
	return true, nil
}

// Set implements Cache. It only fills an absent key, so a value loaded before a concurrent
// Delete cannot overwrite the tombstone and resurrect a removed or changed row.
func (r *Redis) Set(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("cache marshal %s: %w", key, err)
	}
	if err := r.client.SetNX(ctx, key, raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", key, err)
	}
	return nil
}

// Delete implements Cache by replacing each key with a Tombstone that lives for TombstoneTTL.
func (r *Redis) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, key := range keys {
			pipe.Set(ctx, key, Tombstone, TombstoneTTL)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("cache delete: %w", err)
	}
	return nil
}

// Nop never stores anything. It is used when Redis is disabled or unreachable.
type Nop struct{}

func (Nop) Get(context.Context, string, any) (bool, error) { return false, nil }
func (Nop) Set(context.Context, string, any) error         { return nil }
func (Nop) Delete(context.Context, ...string) error        { return nil }
