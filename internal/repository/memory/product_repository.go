package memory

import (
	"context"
	"sync"

	"ai-postgen-be/internal/repository/contract"
	"ai-postgen-be/pkg/store"
)

// ProductRepository serves a small catalog from memory when no database
// is configured.
type ProductRepository struct {
	mu       sync.RWMutex
	products map[string]store.Product
}

var _ contract.ProductRepository = &ProductRepository{}

func NewProductRepository(seed ...store.Product) *ProductRepository {
	r := &ProductRepository{products: make(map[string]store.Product, len(seed))}
	for _, p := range seed {
		r.products[p.ID] = p
	}
	return r
}

func (r *ProductRepository) FindByID(ctx context.Context, id string) (*store.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.products[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (r *ProductRepository) Upsert(ctx context.Context, product *store.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.products[product.ID] = *product
	return nil
}
