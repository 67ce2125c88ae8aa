package pipeline

import (
	"strings"

	"ai-postgen-be/internal/pkg/serverutils"
	"ai-postgen-be/pkg/postgen/prompt"
	"ai-postgen-be/pkg/store"
)

// Request starts or resumes a multi-pass generation.
type Request struct {
	SessionID         string `json:"sessionId" validate:"omitempty,max=128"`
	Idea              string `json:"idea" validate:"required_without_all=Topic ProductID SessionID,max=2000"`
	Topic             string `json:"topic" validate:"max=500"`
	ProductID         string `json:"productId" validate:"max=64"`
	ProductURL        string `json:"productUrl" validate:"omitempty,url"`
	PlatformHint      string `json:"platformHint" validate:"omitempty,oneof=facebook instagram tiktok zalo youtube website"`
	DetailInstruction string `json:"detailInstruction" validate:"max=2000"`
	// PostID, when set, stores the finished content under that post for
	// later similarity checks.
	PostID string `json:"postId" validate:"max=128"`

	// Product is resolved from ProductID before the first pass.
	Product *store.Product `json:"-"`
}

func (r *Request) normalize() {
	r.SessionID = strings.TrimSpace(r.SessionID)
	r.Idea = strings.TrimSpace(r.Idea)
	r.Topic = strings.TrimSpace(r.Topic)
	r.ProductID = strings.TrimSpace(r.ProductID)
	r.ProductURL = strings.TrimSpace(r.ProductURL)
	r.PlatformHint = strings.ToLower(strings.TrimSpace(r.PlatformHint))
	r.DetailInstruction = strings.TrimSpace(r.DetailInstruction)
	r.PostID = strings.TrimSpace(r.PostID)
}

// Validate normalizes the request in place and checks it.
func (r *Request) Validate() error {
	r.normalize()
	return serverutils.ValidateRequest(r)
}

// Input is the prompt-facing view of the request.
func (r *Request) Input() prompt.Input {
	return prompt.Input{
		Idea:              r.Idea,
		Topic:             r.Topic,
		Product:           r.Product,
		ProductURL:        r.ProductURL,
		PlatformHint:      r.PlatformHint,
		DetailInstruction: r.DetailInstruction,
	}
}
