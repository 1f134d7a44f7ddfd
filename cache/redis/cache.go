// Package redis adapts go-redis to the model.Cache contract.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/firelater/authcore/model"
)

// Cache is the ephemeral store backed by a redis client. Values carry a
// TTL and may vanish at any time; callers treat misses as normal.
type Cache struct {
	client *redis.Client
}

func New(client *redis.Client) *Cache {
	return &Cache{client: client}
}

var _ model.Cache = (*Cache)(nil)

func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrCacheMiss
		}
		return nil, fmt.Errorf("failed to get cache key: %w", err)
	}
	return data, nil
}

func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set cache key: %w", err)
	}
	return nil
}

// GetDel reads and removes the key in one server-side step. Of two
// concurrent consumers of the same key, exactly one receives the value.
func (c *Cache) GetDel(ctx context.Context, key string) ([]byte, error) {
	data, err := c.client.GetDel(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrCacheMiss
		}
		return nil, fmt.Errorf("failed to consume cache key: %w", err)
	}
	return data, nil
}

func (c *Cache) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to delete cache key: %w", err)
	}
	return nil
}
