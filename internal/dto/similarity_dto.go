package dto

import "ai-postgen-be/pkg/store"

type CheckSimilarityRequest struct {
	Content             string            `json:"content" validate:"max=20000"`
	Title               string            `json:"title" validate:"max=500"`
	SimilarityThreshold float64           `json:"similarityThreshold" validate:"omitempty,gt=0,lte=1"`
	Limit               int               `json:"limit" validate:"omitempty,min=1,max=20"`
	Filter              map[string]string `json:"filter"`
	Category            string            `json:"category" validate:"max=64"`
}

type CheckSimilarityResponse struct {
	IsSimilar      bool                     `json:"isSimilar"`
	MaxSimilarity  float64                  `json:"maxSimilarity"`
	SimilarContent []store.SimilarityResult `json:"similarContent"`
	Warning        string                   `json:"warning,omitempty"`
}

type StoreEmbeddingRequest struct {
	PostId   string            `json:"postId" validate:"required,max=128"`
	Content  string            `json:"content" validate:"max=20000"`
	Title    string            `json:"title" validate:"max=500"`
	Metadata map[string]string `json:"metadata"`
	Category string            `json:"category" validate:"max=64"`
}

type StoreEmbeddingResponse struct {
	Success     bool   `json:"success"`
	EmbeddingId string `json:"embeddingId"`
}

type DeleteEmbeddingsResponse struct {
	ResourceId string `json:"resourceId"`
	Deleted    int64  `json:"deleted"`
}
