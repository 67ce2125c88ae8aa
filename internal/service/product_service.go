package service

import (
	"context"
	"time"

	"ai-postgen-be/internal/pkg/logger"
	"ai-postgen-be/internal/repository/contract"
	"ai-postgen-be/pkg/store"

	"golang.org/x/sync/singleflight"
)

const (
	productModule = "ProductService"

	// productLookupTimeout bounds a repository read shared by several callers.
	productLookupTimeout = 10 * time.Second
)

// CacheRecorder counts cache hits and misses.
type CacheRecorder interface {
	CacheLookup(cache string, hit bool)
}

type IProductService interface {
	Lookup(ctx context.Context, productID string) (*store.Product, error)
}

type productService struct {
	repo     contract.ProductRepository
	cache    contract.Cache[store.Product]
	ttl      time.Duration
	group    singleflight.Group
	recorder CacheRecorder
	logger   logger.ILogger
}

func NewProductService(repo contract.ProductRepository, cache contract.Cache[store.Product], ttl time.Duration, recorder CacheRecorder, log logger.ILogger) IProductService {
	return &productService{repo: repo, cache: cache, ttl: ttl, recorder: recorder, logger: log}
}

// Lookup reads through the cache. Concurrent misses for one product share
// a single repository call. Unknown products are not cached.
func (s *productService) Lookup(ctx context.Context, productID string) (*store.Product, error) {
	if cached, ok, err := s.cache.Get(ctx, productID); err != nil {
		s.logger.Warn(productModule, "Product cache unavailable, reading through", map[string]interface{}{
			"product_id": productID,
			"error":      err,
		})
	} else if ok {
		s.recordLookup(true)
		return &cached, nil
	}
	s.recordLookup(false)

	// The shared read must outlive any one caller giving up.
	ch := s.group.DoChan(productID, func() (interface{}, error) {
		readCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), productLookupTimeout)
		defer cancel()

		product, err := s.repo.FindByID(readCtx, productID)
		if err != nil || product == nil {
			return product, err
		}
		if err := s.cache.Set(readCtx, productID, *product, s.ttl); err != nil {
			s.logger.Warn(productModule, "Failed to cache product", map[string]interface{}{
				"product_id": productID,
				"error":      err,
			})
		}
		return product, nil
	})

	var v interface{}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		v = r.Val
	}

	product, _ := v.(*store.Product)
	if product == nil {
		return nil, nil
	}
	cp := *product
	return &cp, nil
}

func (s *productService) recordLookup(hit bool) {
	if s.recorder != nil {
		s.recorder.CacheLookup("product", hit)
	}
}
