package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"golang.org/x/sync/singleflight"
)

// sharedCallTimeout bounds an upstream call that no single caller owns.
const sharedCallTimeout = 2 * time.Minute

// VectorCache is the slice of the generic cache the embedding layer needs.
type VectorCache interface {
	Get(ctx context.Context, key string) ([]float32, bool, error)
	Set(ctx context.Context, key string, value []float32, ttl time.Duration) error
}

// CachedProvider memoises embeddings by content hash and collapses
// concurrent requests for the same text into one upstream call.
type CachedProvider struct {
	next  EmbeddingProvider
	cache VectorCache
	ttl   time.Duration
	sf    singleflight.Group
}

func NewCachedProvider(next EmbeddingProvider, cache VectorCache, ttl time.Duration) *CachedProvider {
	return &CachedProvider{next: next, cache: cache, ttl: ttl}
}

func cacheKey(text, taskType string) string {
	sum := sha256.Sum256([]byte(taskType + "\x00" + text))
	return "emb:" + hex.EncodeToString(sum[:])
}

func (p *CachedProvider) Generate(ctx context.Context, text string, taskType string) (*EmbeddingResponse, error) {
	key := cacheKey(text, taskType)

	// A broken cache must not take embeddings down with it.
	if values, ok, err := p.cache.Get(ctx, key); err == nil && ok {
		return &EmbeddingResponse{Embedding: EmbeddingResponseEmbedding{Values: values}}, nil
	}

	// Joined callers share one upstream call, so it runs detached from the
	// first caller's cancellation and each caller waits on its own ctx.
	ch := p.sf.DoChan(key, func() (interface{}, error) {
		callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedCallTimeout)
		defer cancel()

		res, err := p.next.Generate(callCtx, text, taskType)
		if err != nil {
			return nil, err
		}
		_ = p.cache.Set(callCtx, key, res.Embedding.Values, p.ttl)
		return res, nil
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
	res := v.(*EmbeddingResponse)
	values := make([]float32, len(res.Embedding.Values))
	copy(values, res.Embedding.Values)
	return &EmbeddingResponse{Embedding: EmbeddingResponseEmbedding{Values: values}}, nil
}
