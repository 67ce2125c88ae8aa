package implementation

import (
	"context"

	"ai-postgen-be/internal/entity"
	"ai-postgen-be/internal/mapper"
	"ai-postgen-be/internal/model"
	"ai-postgen-be/internal/repository/contract"
	"ai-postgen-be/internal/repository/specification"
	"ai-postgen-be/pkg/store"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

const defaultSearchLimit = 5

type ContentEmbeddingRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ContentEmbeddingMapper
}

func NewContentEmbeddingRepository(db *gorm.DB) contract.VectorStore {
	return &ContentEmbeddingRepositoryImpl{
		db:     db,
		mapper: mapper.NewContentEmbeddingMapper(),
	}
}

func (r *ContentEmbeddingRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *ContentEmbeddingRepositoryImpl) Store(ctx context.Context, embedding *entity.ContentEmbedding) error {
	m := r.mapper.ToModel(embedding)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*embedding = *r.mapper.ToEntity(m)
	return nil
}

// SearchSimilar ranks by cosine similarity. pgvector's <=> is cosine
// distance, so similarity = 1 - distance.
func (r *ContentEmbeddingRepositoryImpl) SearchSimilar(ctx context.Context, vector []float32, opts contract.SearchOptions) ([]store.SimilarityResult, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	type result struct {
		model.ContentEmbedding
		Similarity float64
	}
	var results []result

	queryVector := pgvector.NewVector(vector)

	specs := append([]specification.Specification{specification.ByCategory{Category: opts.Category}},
		specification.MetadataFilters(opts.Filter)...)

	query := r.db.WithContext(ctx).
		Table("content_embeddings").
		Select("content_embeddings.*, 1 - (embedding <=> ?) as similarity", queryVector)

	err := r.applySpecifications(query, specs...).
		Where("1 - (embedding <=> ?) >= ?", queryVector, opts.ScoreThreshold).
		Order("similarity DESC").
		Limit(limit).
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	hits := make([]store.SimilarityResult, len(results))
	for i := range results {
		hits[i] = r.mapper.ToSimilarityResult(&results[i].ContentEmbedding, results[i].Similarity)
	}
	return hits, nil
}

func (r *ContentEmbeddingRepositoryImpl) DeleteByResourceID(ctx context.Context, id string) (int64, error) {
	query := r.applySpecifications(r.db.WithContext(ctx), specification.ByResourceID{ID: id})
	res := query.Delete(&model.ContentEmbedding{})
	return res.RowsAffected, res.Error
}

func (r *ContentEmbeddingRepositoryImpl) CountByPostID(ctx context.Context, postID string) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx), specification.ByPostID{PostID: postID})
	err := query.Model(&model.ContentEmbedding{}).Count(&count).Error
	return count, err
}
