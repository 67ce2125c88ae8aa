package entity

import "time"

// ContentEmbedding is a stored vector for one version of a post.
type ContentEmbedding struct {
	Id        string
	PostId    string
	Content   string
	Embedding []float32
	Metadata  map[string]string
	Category  string
	CreatedAt time.Time
}
