package embedding

import (
	"context"
	"math"
)

// Task types understood by providers that distinguish query and document
// embeddings. Providers that do not are free to ignore them.
const (
	TaskRetrievalDocument  = "RETRIEVAL_DOCUMENT"
	TaskRetrievalQuery     = "RETRIEVAL_QUERY"
	TaskSemanticSimilarity = "SEMANTIC_SIMILARITY"
)

type EmbeddingResponseEmbedding struct {
	Values []float32 `json:"values"`
}

type EmbeddingResponse struct {
	Embedding EmbeddingResponseEmbedding `json:"embedding"`
}

// EmbeddingProvider defines the interface for generating text embeddings
type EmbeddingProvider interface {
	Generate(ctx context.Context, text string, taskType string) (*EmbeddingResponse, error)
}

// Embed is a convenience wrapper returning just the vector.
func Embed(ctx context.Context, p EmbeddingProvider, text, taskType string) ([]float32, error) {
	res, err := p.Generate(ctx, text, taskType)
	if err != nil {
		return nil, err
	}
	return res.Embedding.Values, nil
}

// normalizeVector normalizes a vector to unit length (magnitude = 1).
// pgvector cosine distance assumes unit vectors.
func normalizeVector(vec []float32) []float32 {
	var magnitude float64
	for _, v := range vec {
		magnitude += float64(v) * float64(v)
	}
	magnitude = math.Sqrt(magnitude)

	if magnitude == 0 {
		return vec
	}

	normalized := make([]float32, len(vec))
	for i, v := range vec {
		normalized[i] = float32(float64(v) / magnitude)
	}
	return normalized
}
