package passes

import (
	"context"

	"ai-postgen-be/pkg/postgen/pipeline"
	"ai-postgen-be/pkg/postgen/prompt"
	"ai-postgen-be/pkg/store"
)

func Idea(d Deps) *pipeline.Descriptor {
	return &pipeline.Descriptor{
		PassName: store.PassIdea,
		Execute: func(ctx context.Context, req *pipeline.Request, view *store.GenerationSession, _ pipeline.Emit) (store.PassResult, error) {
			raw, err := d.completeJSON(ctx, d.Prompts.Idea(req.Input(), view), 0.9)
			if err != nil {
				return nil, err
			}
			out, err := prompt.ParseIdeas(raw)
			if err != nil {
				return nil, err
			}
			out.Meta.UsedResearch = view.ResearchPass != nil && len(view.ResearchPass.Insights) > 0
			out.Meta.UsedRag = view.RAGPass != nil && view.RAGPass.RAGContext != ""
			return out, nil
		},
	}
}

func Angle(d Deps) *pipeline.Descriptor {
	return &pipeline.Descriptor{
		PassName: store.PassAngle,
		Execute: func(ctx context.Context, req *pipeline.Request, view *store.GenerationSession, _ pipeline.Emit) (store.PassResult, error) {
			raw, err := d.completeJSON(ctx, d.Prompts.Angle(req.Input(), view), 0.8)
			if err != nil {
				return nil, err
			}
			return prompt.ParseAngles(raw)
		},
	}
}

func Outline(d Deps) *pipeline.Descriptor {
	return &pipeline.Descriptor{
		PassName: store.PassOutline,
		Execute: func(ctx context.Context, req *pipeline.Request, view *store.GenerationSession, _ pipeline.Emit) (store.PassResult, error) {
			raw, err := d.completeJSON(ctx, d.Prompts.Outline(req.Input(), view), 0.7)
			if err != nil {
				return nil, err
			}
			return prompt.ParseOutline(raw)
		},
	}
}

func Draft(d Deps) *pipeline.Descriptor {
	return &pipeline.Descriptor{
		PassName: store.PassDraft,
		Stream:   true,
		Precondition: func(_ *pipeline.Request, view *store.GenerationSession) bool {
			return view.OutlinePass != nil
		},
		Execute: func(ctx context.Context, req *pipeline.Request, view *store.GenerationSession, emit pipeline.Emit) (store.PassResult, error) {
			text, err := d.stream(ctx, store.PassDraft, d.Prompts.Draft(req.Input(), view), 0.7, emit)
			if err != nil {
				return nil, err
			}
			return &store.DraftResult{Draft: text}, nil
		},
	}
}

func Enhance(d Deps) *pipeline.Descriptor {
	return &pipeline.Descriptor{
		PassName: store.PassEnhance,
		Stream:   true,
		Precondition: func(_ *pipeline.Request, view *store.GenerationSession) bool {
			return view.DraftPass != nil && view.DraftPass.Draft != ""
		},
		Execute: func(ctx context.Context, req *pipeline.Request, view *store.GenerationSession, emit pipeline.Emit) (store.PassResult, error) {
			text, err := d.stream(ctx, store.PassEnhance, d.Prompts.Enhance(req.Input(), view), 0.5, emit)
			if err != nil {
				return nil, err
			}
			return &store.EnhanceResult{Enhanced: text}, nil
		},
	}
}

func Scoring(d Deps) *pipeline.Descriptor {
	return &pipeline.Descriptor{
		PassName: store.PassScoring,
		Precondition: func(_ *pipeline.Request, view *store.GenerationSession) bool {
			return view.FinalContent() != ""
		},
		Execute: func(ctx context.Context, req *pipeline.Request, view *store.GenerationSession, _ pipeline.Emit) (store.PassResult, error) {
			raw, err := d.completeJSON(ctx, d.Prompts.Scoring(req.Input(), view.FinalContent()), 0.2)
			if err != nil {
				return nil, err
			}
			return prompt.ParseScoring(raw)
		},
	}
}
