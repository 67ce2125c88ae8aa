package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"ai-postgen-be/internal/dto"
	"ai-postgen-be/internal/entity"
	"ai-postgen-be/internal/pkg/logger"
	"ai-postgen-be/internal/pkg/serverutils"
	"ai-postgen-be/internal/repository/contract"
	"ai-postgen-be/pkg/apperror"
	"ai-postgen-be/pkg/embedding"
	"ai-postgen-be/pkg/store"
	"ai-postgen-be/pkg/utils"

	"github.com/google/uuid"
)

const (
	similarityModule = "SimilarityService"

	DefaultSimilarityThreshold = 0.8
	DefaultSimilarityLimit     = 3
	DefaultPrefilterFactor     = 0.8
	previewRunes               = 200
)

type ISimilarityService interface {
	CheckSimilarity(ctx context.Context, req dto.CheckSimilarityRequest) (*dto.CheckSimilarityResponse, error)
	StoreEmbedding(ctx context.Context, req dto.StoreEmbeddingRequest) (*dto.StoreEmbeddingResponse, error)
	DeleteByResourceID(ctx context.Context, resourceID string) (int64, error)
}

// SimilarityRecorder counts similarity decisions.
type SimilarityRecorder interface {
	SimilarityChecked(outcome string)
}

type SimilarityConfig struct {
	Threshold float64
	Limit     int
	// PrefilterFactor scales the threshold used to fetch candidates, so
	// near misses are returned alongside real matches.
	PrefilterFactor float64
}

type similarityService struct {
	embedder embedding.EmbeddingProvider
	vectors  contract.VectorStore
	cfg      SimilarityConfig
	recorder SimilarityRecorder
	logger   logger.ILogger
	now      func() time.Time
}

func NewSimilarityService(
	embedder embedding.EmbeddingProvider,
	vectors contract.VectorStore,
	cfg SimilarityConfig,
	recorder SimilarityRecorder,
	log logger.ILogger,
) ISimilarityService {
	if cfg.Threshold <= 0 || cfg.Threshold > 1 {
		cfg.Threshold = DefaultSimilarityThreshold
	}
	if cfg.Limit <= 0 {
		cfg.Limit = DefaultSimilarityLimit
	}
	if cfg.PrefilterFactor <= 0 || cfg.PrefilterFactor > 1 {
		cfg.PrefilterFactor = DefaultPrefilterFactor
	}
	return &similarityService{
		embedder: embedder,
		vectors:  vectors,
		cfg:      cfg,
		recorder: recorder,
		logger:   log,
		now:      time.Now,
	}
}

// contentBlob joins title and content the same way for checks and storage.
func contentBlob(title, content string) string {
	return utils.JoinNonEmpty("\n\n", title, content)
}

func (s *similarityService) CheckSimilarity(ctx context.Context, req dto.CheckSimilarityRequest) (*dto.CheckSimilarityResponse, error) {
	if err := serverutils.ValidateRequest(req); err != nil {
		return nil, err
	}
	blob := contentBlob(req.Title, req.Content)
	if blob == "" {
		return nil, &apperror.ValidationError{Field: "content", Message: "must not be empty", Cause: apperror.ErrEmptyContent}
	}

	threshold := req.SimilarityThreshold
	if threshold == 0 {
		threshold = s.cfg.Threshold
	}
	limit := req.Limit
	if limit == 0 {
		limit = s.cfg.Limit
	}

	vector, err := embedding.Embed(ctx, s.embedder, blob, embedding.TaskSemanticSimilarity)
	if err != nil {
		s.record("error")
		return nil, apperror.External("embedding", err)
	}

	hits, err := s.vectors.SearchSimilar(ctx, vector, contract.SearchOptions{
		Limit:          limit,
		ScoreThreshold: threshold * s.cfg.PrefilterFactor,
		Filter:         req.Filter,
		Category:       req.Category,
	})
	if err != nil {
		s.record("error")
		return nil, apperror.External("vector_store", err)
	}

	res := &dto.CheckSimilarityResponse{SimilarContent: make([]store.SimilarityResult, 0, len(hits))}
	for _, hit := range hits {
		hit.Content = utils.TruncateRunes(hit.Content, previewRunes)
		res.SimilarContent = append(res.SimilarContent, hit)
		if hit.Score > res.MaxSimilarity {
			res.MaxSimilarity = hit.Score
		}
	}

	// the pre-filter only widens retrieval; the decision uses the caller's threshold
	res.IsSimilar = res.MaxSimilarity >= threshold
	if res.IsSimilar {
		res.Warning = fmt.Sprintf("Content is %d%% similar to existing content", int(math.Round(res.MaxSimilarity*100)))
		s.record("similar")
	} else {
		s.record("unique")
	}

	s.logger.Info(similarityModule, "Similarity checked", map[string]interface{}{
		"is_similar":     res.IsSimilar,
		"max_similarity": res.MaxSimilarity,
		"threshold":      threshold,
		"candidates":     len(res.SimilarContent),
	})
	return res, nil
}

func (s *similarityService) StoreEmbedding(ctx context.Context, req dto.StoreEmbeddingRequest) (*dto.StoreEmbeddingResponse, error) {
	req.PostId = strings.TrimSpace(req.PostId)
	if err := serverutils.ValidateRequest(req); err != nil {
		return nil, err
	}
	blob := contentBlob(req.Title, req.Content)
	if blob == "" {
		return nil, &apperror.ValidationError{Field: "content", Message: "must not be empty", Cause: apperror.ErrEmptyContent}
	}

	vector, err := embedding.Embed(ctx, s.embedder, blob, embedding.TaskRetrievalDocument)
	if err != nil {
		return nil, apperror.External("embedding", err)
	}

	metadata := make(map[string]string, len(req.Metadata)+1)
	for k, v := range req.Metadata {
		metadata[k] = v
	}
	if req.Title != "" {
		metadata[store.MetaTitle] = req.Title
	}

	content := strings.TrimSpace(req.Content)
	if content == "" {
		content = blob
	}

	now := s.now()
	record := &entity.ContentEmbedding{
		Id:        newEmbeddingID(req.PostId, now),
		PostId:    req.PostId,
		Content:   content,
		Embedding: vector,
		Metadata:  metadata,
		Category:  req.Category,
		CreatedAt: now,
	}
	if err := s.vectors.Store(ctx, record); err != nil {
		return nil, apperror.External("vector_store", err)
	}

	s.logger.Info(similarityModule, "Embedding stored", map[string]interface{}{
		"post_id":      req.PostId,
		"embedding_id": record.Id,
		"dimensions":   len(vector),
	})
	return &dto.StoreEmbeddingResponse{Success: true, EmbeddingId: record.Id}, nil
}

func (s *similarityService) DeleteByResourceID(ctx context.Context, resourceID string) (int64, error) {
	resourceID = strings.TrimSpace(resourceID)
	if resourceID == "" {
		return 0, apperror.NewValidationError("resourceId", "is required")
	}

	deleted, err := s.vectors.DeleteByResourceID(ctx, resourceID)
	if err != nil {
		return 0, apperror.External("vector_store", err)
	}
	s.logger.Info(similarityModule, "Embeddings deleted", map[string]interface{}{
		"resource_id": resourceID,
		"deleted":     deleted,
	})
	return deleted, nil
}

func (s *similarityService) record(outcome string) {
	if s.recorder != nil {
		s.recorder.SimilarityChecked(outcome)
	}
}

// newEmbeddingID is unique per call so every version of a post is kept.
func newEmbeddingID(postID string, at time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%s_%d_%s", postID, at.UnixMilli(), suffix)
}

// IsEmptyContent reports whether err was caused by empty input.
func IsEmptyContent(err error) bool {
	return errors.Is(err, apperror.ErrEmptyContent)
}
