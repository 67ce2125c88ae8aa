package contract

import (
	"context"

	"ai-postgen-be/pkg/store"
)

type ProductRepository interface {
	// FindByID returns (nil, nil) when the product does not exist.
	FindByID(ctx context.Context, id string) (*store.Product, error)
	Upsert(ctx context.Context, product *store.Product) error
}
