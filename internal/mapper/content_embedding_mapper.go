package mapper

import (
	"fmt"

	"ai-postgen-be/internal/entity"
	"ai-postgen-be/internal/model"
	"ai-postgen-be/pkg/store"

	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

type ContentEmbeddingMapper struct{}

func NewContentEmbeddingMapper() *ContentEmbeddingMapper {
	return &ContentEmbeddingMapper{}
}

func (m *ContentEmbeddingMapper) ToEntity(e *model.ContentEmbedding) *entity.ContentEmbedding {
	if e == nil {
		return nil
	}

	return &entity.ContentEmbedding{
		Id:        e.Id,
		PostId:    e.PostId,
		Content:   e.Content,
		Embedding: e.Embedding.Slice(),
		Metadata:  toStringMap(e.Metadata),
		Category:  e.Category,
		CreatedAt: e.CreatedAt,
	}
}

func (m *ContentEmbeddingMapper) ToModel(e *entity.ContentEmbedding) *model.ContentEmbedding {
	if e == nil {
		return nil
	}

	var meta datatypes.JSONMap
	if len(e.Metadata) > 0 {
		meta = make(datatypes.JSONMap, len(e.Metadata))
		for k, v := range e.Metadata {
			meta[k] = v
		}
	}

	return &model.ContentEmbedding{
		Id:        e.Id,
		PostId:    e.PostId,
		Content:   e.Content,
		Embedding: pgvector.NewVector(e.Embedding),
		Metadata:  meta,
		Category:  e.Category,
		CreatedAt: e.CreatedAt,
	}
}

// ToSimilarityResult builds a search hit from a stored row.
func (m *ContentEmbeddingMapper) ToSimilarityResult(e *model.ContentEmbedding, score float64) store.SimilarityResult {
	return store.SimilarityResult{
		PostID:   e.PostId,
		Content:  e.Content,
		Score:    score,
		Metadata: toStringMap(e.Metadata),
	}
}

func toStringMap(in datatypes.JSONMap) map[string]string {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		switch val := v.(type) {
		case string:
			out[k] = val
		case nil:
		default:
			out[k] = fmt.Sprint(val)
		}
	}
	return out
}
