package dto

import (
	"time"

	"ai-postgen-be/pkg/store"
)

// PublishEmbedContentMessage asks the consumer to store finished content
// in the vector store.
type PublishEmbedContentMessage struct {
	PostId   string            `json:"post_id"`
	Content  string            `json:"content"`
	Title    string            `json:"title"`
	Metadata map[string]string `json:"metadata"`
}

type MultiPassResponse struct {
	SessionId string                   `json:"sessionId"`
	Title     string                   `json:"title"`
	Content   string                   `json:"content"`
	Hashtags  string                   `json:"hashtags,omitempty"`
	Score     *int                     `json:"score,omitempty"`
	Session   *store.GenerationSession `json:"session"`
}

type SessionSummary struct {
	SessionId     string           `json:"sessionId"`
	Idea          string           `json:"idea,omitempty"`
	ProductId     string           `json:"productId,omitempty"`
	StartedAt     time.Time        `json:"startedAt"`
	LastUpdatedAt time.Time        `json:"lastUpdatedAt"`
	ExpiresAt     time.Time        `json:"expiresAt"`
	LastPass      store.PassName   `json:"lastPass,omitempty"`
	Completed     []store.PassName `json:"completed"`
}

// NewSessionSummary lists which passes a session has finished.
func NewSessionSummary(s *store.GenerationSession) SessionSummary {
	summary := SessionSummary{
		SessionId:     s.SessionID,
		Idea:          s.Metadata.Idea,
		ProductId:     s.Metadata.ProductID,
		StartedAt:     s.Metadata.StartedAt,
		LastUpdatedAt: s.Metadata.LastUpdatedAt,
		ExpiresAt:     s.ExpiresAt,
		Completed:     []store.PassName{},
	}
	for _, name := range store.PassOrder {
		if s.Completed(name) {
			summary.Completed = append(summary.Completed, name)
		}
	}
	if last, ok := s.LastCompleted(); ok {
		summary.LastPass = last
	}
	return summary
}
