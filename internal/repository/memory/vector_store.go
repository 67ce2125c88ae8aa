package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"ai-postgen-be/internal/entity"
	"ai-postgen-be/internal/repository/contract"
	"ai-postgen-be/pkg/store"
)

// VectorStore is a brute-force cosine index for development and tests.
type VectorStore struct {
	mu      sync.RWMutex
	records []*entity.ContentEmbedding
	ids     map[string]struct{}
}

var _ contract.VectorStore = &VectorStore{}

func NewVectorStore() *VectorStore {
	return &VectorStore{ids: make(map[string]struct{})}
}

func (s *VectorStore) Store(ctx context.Context, e *entity.ContentEmbedding) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, dup := s.ids[e.Id]; dup {
		return fmt.Errorf("embedding %s already exists", e.Id)
	}
	cp := *e
	cp.Embedding = append([]float32(nil), e.Embedding...)
	cp.Metadata = copyMeta(e.Metadata)
	s.records = append(s.records, &cp)
	s.ids[e.Id] = struct{}{}
	return nil
}

func (s *VectorStore) SearchSimilar(ctx context.Context, vector []float32, opts contract.SearchOptions) ([]store.SimilarityResult, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 5
	}

	s.mu.RLock()
	hits := make([]store.SimilarityResult, 0)
	for _, r := range s.records {
		if opts.Category != "" && r.Category != opts.Category {
			continue
		}
		if !matches(r.Metadata, opts.Filter) {
			continue
		}
		score := cosine(vector, r.Embedding)
		if score < opts.ScoreThreshold {
			continue
		}
		hits = append(hits, store.SimilarityResult{
			PostID:   r.PostId,
			Content:  r.Content,
			Score:    score,
			Metadata: copyMeta(r.Metadata),
		})
	}
	s.mu.RUnlock()

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

func (s *VectorStore) DeleteByResourceID(ctx context.Context, id string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.records[:0]
	var removed int64
	for _, r := range s.records {
		if r.PostId == id || r.Metadata[store.MetaResourceID] == id {
			delete(s.ids, r.Id)
			removed++
			continue
		}
		kept = append(kept, r)
	}
	clear(s.records[len(kept):])
	s.records = kept
	return removed, nil
}

func (s *VectorStore) CountByPostID(ctx context.Context, postID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, r := range s.records {
		if r.PostId == postID {
			n++
		}
	}
	return n, nil
}

func matches(meta, filter map[string]string) bool {
	for k, v := range filter {
		if meta[k] != v {
			return false
		}
	}
	return true
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func copyMeta(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
