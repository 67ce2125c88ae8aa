package contract

import (
	"context"
	"time"
)

// Cache is a keyed store with per-entry TTL. Expired entries are invisible
// to every operation. A ttl <= 0 uses the backend default.
type Cache[T any] interface {
	Set(ctx context.Context, key string, value T, ttl time.Duration) error
	Get(ctx context.Context, key string) (T, bool, error)
	Has(ctx context.Context, key string) (bool, error)
	Delete(ctx context.Context, key string) (bool, error)
	Clear(ctx context.Context) error
	Size(ctx context.Context) (int, error)
}
