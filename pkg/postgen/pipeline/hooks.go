package pipeline

import (
	"context"
	"time"

	"ai-postgen-be/pkg/store"
)

// ProductLookup resolves catalog details for a request. It returns
// (nil, nil) for unknown products.
type ProductLookup interface {
	Lookup(ctx context.Context, productID string) (*store.Product, error)
}

// Observer receives pass timings.
type Observer interface {
	PassStarted(pass store.PassName)
	PassCompleted(pass store.PassName, elapsed time.Duration)
	PassFailed(pass store.PassName, elapsed time.Duration, err error)
}

// CompletionHook runs after every pass of a generation has succeeded.
// Hook failures are logged and never fail the generation.
type CompletionHook interface {
	GenerationCompleted(ctx context.Context, req Request, session *store.GenerationSession) error
}

type nopObserver struct{}

func (nopObserver) PassStarted(store.PassName)                       {}
func (nopObserver) PassCompleted(store.PassName, time.Duration)      {}
func (nopObserver) PassFailed(store.PassName, time.Duration, error) {}
