package store

// Metadata keys recognised on stored content.
const (
	MetaTitle      = "title"
	MetaPlatform   = "platform"
	MetaResourceID = "resourceId"
	MetaTopic      = "topic"
	MetaProductID  = "productId"
)

// SimilarityResult is one nearest-neighbour hit. Score is in [0,1], higher
// means more similar.
type SimilarityResult struct {
	PostID   string            `json:"postId"`
	Content  string            `json:"content"`
	Score    float64           `json:"score"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Product is the catalog view used to ground prompts.
type Product struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Unit        string  `json:"unit"`
	URL         string  `json:"url"`
}
