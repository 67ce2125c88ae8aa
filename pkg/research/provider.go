// Package research gathers background material on a topic before ideas
// are generated.
package research

import (
	"context"

	"ai-postgen-be/pkg/store"
)

// Result is raw research material plus the pages it came from.
type Result struct {
	Content   string
	Citations []store.Source
}

// Provider answers a research query.
type Provider interface {
	Search(ctx context.Context, query string) (*Result, error)
}
