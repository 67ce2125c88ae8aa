package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"ai-postgen-be/internal/repository/contract"

	"github.com/redis/go-redis/v9"
)

// Cache stores JSON-encoded values under a namespace prefix.
type Cache[T any] struct {
	rdb        redis.UniversalClient
	prefix     string
	defaultTTL time.Duration
}

var _ contract.Cache[string] = &Cache[string]{}

func NewCache[T any](rdb redis.UniversalClient, namespace string, defaultTTL time.Duration) *Cache[T] {
	return &Cache[T]{
		rdb:        rdb,
		prefix:     fmt.Sprintf("postgen:cache:%s:", namespace),
		defaultTTL: defaultTTL,
	}
}

func (c *Cache[T]) key(k string) string {
	return c.prefix + k
}

func (c *Cache[T]) Set(ctx context.Context, key string, value T, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}
	if err := c.rdb.Set(ctx, c.key(key), data, ttl).Err(); err != nil {
		return unavailable("set", err)
	}
	return nil
}

func (c *Cache[T]) Get(ctx context.Context, key string) (T, bool, error) {
	var zero T
	data, err := c.rdb.Get(ctx, c.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return zero, false, nil
	}
	if err != nil {
		return zero, false, unavailable("get", err)
	}

	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return zero, false, fmt.Errorf("decode cache entry %q: %w", key, err)
	}
	return v, true, nil
}

func (c *Cache[T]) Has(ctx context.Context, key string) (bool, error) {
	n, err := c.rdb.Exists(ctx, c.key(key)).Result()
	if err != nil {
		return false, unavailable("exists", err)
	}
	return n > 0, nil
}

func (c *Cache[T]) Delete(ctx context.Context, key string) (bool, error) {
	n, err := c.rdb.Del(ctx, c.key(key)).Result()
	if err != nil {
		return false, unavailable("delete", err)
	}
	return n > 0, nil
}

func (c *Cache[T]) Clear(ctx context.Context) error {
	keys, err := scanKeys(ctx, c.rdb, c.prefix+"*")
	if err != nil {
		return unavailable("scan", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		return unavailable("delete", err)
	}
	return nil
}

func (c *Cache[T]) Size(ctx context.Context) (int, error) {
	keys, err := scanKeys(ctx, c.rdb, c.prefix+"*")
	if err != nil {
		return 0, unavailable("scan", err)
	}
	return len(keys), nil
}
