package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// SearchCache keeps recent search results in Redis. Entries expire quickly;
// stock levels drift with every posting so staleness has to stay bounded.
type SearchCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSearchCache constructs a SearchCache.
func NewSearchCache(client *redis.Client, ttl time.Duration) *SearchCache {
	return &SearchCache{client: client, ttl: ttl}
}

// Get returns the cached result list, or ok=false on miss or error.
func (c *SearchCache) Get(ctx context.Context, key string) ([]Product, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	payload, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	var products []Product
	if err := json.Unmarshal(payload, &products); err != nil {
		return nil, false
	}
	return products, true
}

// Set stores the result list under key. Failures are ignored; the cache is
// an optimisation, never an authority.
func (c *SearchCache) Set(ctx context.Context, key string, products []Product) {
	if c == nil || c.client == nil {
		return
	}
	payload, err := json.Marshal(products)
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, key, payload, c.ttl).Err()
}

// Invalidate drops all cached search results.
func (c *SearchCache) Invalidate(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	iter := c.client.Scan(ctx, 0, "balcao:catalog:search:*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	return nil
}
