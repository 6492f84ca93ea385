// Package cache provides the optional Redis-backed delivery cache used to
// acknowledge gateway redeliveries without a database round trip.
package cache

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// DefaultTTL bounds how long a reconciled delivery key is remembered. The
// gateway stops retrying well before this.
const DefaultTTL = 24 * time.Hour

const keyPrefix = "paycb:delivery:"

// NewClient builds a Redis client and verifies it with PING.
func NewClient(ctx context.Context, addr, password string, db int) (*goredis.Client, error) {
	if addr == "" {
		return nil, fmt.Errorf("redis addr is empty")
	}
	client := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// DeliveryCache remembers delivery keys in Redis with a TTL.
// It satisfies services.DeliveryCache.
type DeliveryCache struct {
	client *goredis.Client
	ttl    time.Duration
}

// NewDeliveryCache wraps client. A non-positive ttl uses DefaultTTL.
func NewDeliveryCache(client *goredis.Client, ttl time.Duration) *DeliveryCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &DeliveryCache{client: client, ttl: ttl}
}

// Seen reports whether key was marked and has not expired.
func (c *DeliveryCache) Seen(ctx context.Context, key string) (bool, error) {
	if c.client == nil {
		return false, fmt.Errorf("redis client is nil")
	}
	n, err := c.client.Exists(ctx, keyPrefix+key).Result()
	if err != nil {
		return false, fmt.Errorf("check delivery key: %w", err)
	}
	return n > 0, nil
}

// Mark records key for the cache TTL. Marking again refreshes the TTL.
func (c *DeliveryCache) Mark(ctx context.Context, key string) error {
	if c.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if err := c.client.Set(ctx, keyPrefix+key, 1, c.ttl).Err(); err != nil {
		return fmt.Errorf("mark delivery key: %w", err)
	}
	return nil
}
