package contract

import (
	"context"

	"ai-postgen-be/internal/entity"
	"ai-postgen-be/pkg/store"
)

type SearchOptions struct {
	Limit          int
	ScoreThreshold float64
	// Filter matches metadata keys exactly, e.g. {"productId": "p-1"}.
	Filter   map[string]string
	Category string
}

// VectorStore holds content embeddings for nearest-neighbour search.
// Records are never updated in place.
type VectorStore interface {
	Store(ctx context.Context, embedding *entity.ContentEmbedding) error
	// SearchSimilar returns hits with score >= ScoreThreshold, best first.
	SearchSimilar(ctx context.Context, vector []float32, opts SearchOptions) ([]store.SimilarityResult, error)
	// DeleteByResourceID removes every embedding whose post id or
	// resourceId metadata equals id, returning how many were removed.
	DeleteByResourceID(ctx context.Context, id string) (int64, error)
	CountByPostID(ctx context.Context, postID string) (int64, error)
}
