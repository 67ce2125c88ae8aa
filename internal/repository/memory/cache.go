package memory

import (
	"context"
	"fmt"
	"time"

	"ai-postgen-be/internal/repository/contract"

	"github.com/patrickmn/go-cache"
)

// Cache is a typed wrapper over go-cache.
type Cache[T any] struct {
	cache *cache.Cache
}

func NewCache[T any](defaultTTL time.Duration) *Cache[T] {
	return &Cache[T]{cache: cache.New(defaultTTL, cleanupInterval)}
}

var _ contract.Cache[string] = &Cache[string]{}

func expiration(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return cache.DefaultExpiration
	}
	return ttl
}

func (c *Cache[T]) Set(ctx context.Context, key string, value T, ttl time.Duration) error {
	c.cache.Set(key, value, expiration(ttl))
	return nil
}

func (c *Cache[T]) Get(ctx context.Context, key string) (T, bool, error) {
	var zero T
	x, found := c.cache.Get(key)
	if !found {
		return zero, false, nil
	}
	v, ok := x.(T)
	if !ok {
		return zero, false, fmt.Errorf("cache entry %q has type %T", key, x)
	}
	return v, true, nil
}

func (c *Cache[T]) Has(ctx context.Context, key string) (bool, error) {
	_, found := c.cache.Get(key)
	return found, nil
}

func (c *Cache[T]) Delete(ctx context.Context, key string) (bool, error) {
	_, found := c.cache.Get(key)
	c.cache.Delete(key)
	return found, nil
}

func (c *Cache[T]) Clear(ctx context.Context) error {
	c.cache.Flush()
	return nil
}

// Size counts unexpired entries only.
func (c *Cache[T]) Size(ctx context.Context) (int, error) {
	return len(c.cache.Items()), nil
}
