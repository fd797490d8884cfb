// Package recommend layers a redis read-through cache over the
// recommendation gateway so repeated topic lookups don't hammer the service.
package recommend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"bookchat/internal/gateway"
)

// Source yields the recommendable items for a topic slug. Satisfied by
// gateway.RecommendClient and by Cache itself.
type Source interface {
	Lookup(ctx context.Context, slug string) ([]gateway.Item, error)
}

const cacheKeyFmt = "rec:%s"

// Cache is a redis-backed read-through cache of per-slug item lists. Redis
// being down only costs the caching: lookups fall through to the source and
// the failure is logged, never surfaced.
type Cache struct {
	source Source
	rdb    *redis.Client
	ttl    time.Duration
}

// NewCache wraps source with a redis cache. A nil client disables caching.
func NewCache(source Source, rdb *redis.Client, ttl time.Duration) *Cache {
	return &Cache{source: source, rdb: rdb, ttl: ttl}
}

// Lookup returns the cached item list for slug, falling through to the
// source on a miss. Empty lists are cached too, so a topic with nothing to
// recommend doesn't get re-queried every turn.
func (c *Cache) Lookup(ctx context.Context, slug string) ([]gateway.Item, error) {
	key := fmt.Sprintf(cacheKeyFmt, slug)

	if c.rdb != nil {
		raw, err := c.rdb.Get(ctx, key).Result()
		if err == nil {
			var items []gateway.Item
			if jsonErr := json.Unmarshal([]byte(raw), &items); jsonErr == nil {
				return items, nil
			}
			log.Printf("[Recommend] corrupt cache entry for %q, refetching", slug)
		} else if !errors.Is(err, redis.Nil) {
			log.Printf("[Recommend] cache read for %q failed: %v", slug, err)
		}
	}

	items, err := c.source.Lookup(ctx, slug)
	if err != nil {
		return nil, err
	}

	if c.rdb != nil {
		if raw, jsonErr := json.Marshal(items); jsonErr == nil {
			if err := c.rdb.Set(ctx, key, raw, c.ttl).Err(); err != nil {
				log.Printf("[Recommend] cache write for %q failed: %v", slug, err)
			}
		}
	}
	return items, nil
}
