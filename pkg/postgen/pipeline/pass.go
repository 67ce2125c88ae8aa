package pipeline

import (
	"context"

	"ai-postgen-be/pkg/store"
)

// Emit forwards a streamed fragment of pass output to the caller.
type Emit func(text string)

// Pass is one stage of the pipeline. Run only ever sees the passes that
// precede it and returns the result for its own field.
type Pass interface {
	Name() store.PassName
	Streaming() bool
	// Ready reports whether the pass has what it needs. Passes that are not
	// ready are skipped without events.
	Ready(req *Request, view *store.GenerationSession) bool
	Run(ctx context.Context, req *Request, view *store.GenerationSession, emit Emit) (store.PassResult, error)
}

// Descriptor adapts plain functions to Pass.
type Descriptor struct {
	PassName     store.PassName
	Stream       bool
	Precondition func(req *Request, view *store.GenerationSession) bool
	Execute      func(ctx context.Context, req *Request, view *store.GenerationSession, emit Emit) (store.PassResult, error)
}

var _ Pass = &Descriptor{}

func (d *Descriptor) Name() store.PassName { return d.PassName }

func (d *Descriptor) Streaming() bool { return d.Stream }

func (d *Descriptor) Ready(req *Request, view *store.GenerationSession) bool {
	if d.Precondition == nil {
		return true
	}
	return d.Precondition(req, view)
}

func (d *Descriptor) Run(ctx context.Context, req *Request, view *store.GenerationSession, emit Emit) (store.PassResult, error) {
	return d.Execute(ctx, req, view, emit)
}
