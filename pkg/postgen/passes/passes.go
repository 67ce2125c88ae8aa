// Package passes implements the individual generation passes on top of the
// LLM, embedding, vector store and research collaborators.
package passes

import (
	"context"
	"fmt"
	"strings"

	"ai-postgen-be/internal/repository/contract"
	"ai-postgen-be/pkg/apperror"
	"ai-postgen-be/pkg/embedding"
	"ai-postgen-be/pkg/llm"
	"ai-postgen-be/pkg/postgen/pipeline"
	"ai-postgen-be/pkg/postgen/prompt"
	"ai-postgen-be/pkg/research"
	"ai-postgen-be/pkg/store"
)

// Optional lists the passes that may be enabled on top of outline and draft.
var Optional = []store.PassName{
	store.PassResearch,
	store.PassRAG,
	store.PassIdea,
	store.PassAngle,
	store.PassEnhance,
	store.PassScoring,
}

// Deps are the collaborators shared by all passes.
type Deps struct {
	LLM      llm.LLMProvider
	Prompts  *prompt.Builder
	Research research.Provider
	Embedder embedding.EmbeddingProvider
	Vectors  contract.VectorStore

	RAGLimit     int
	RAGThreshold float64
}

// Build returns outline and draft plus every enabled optional pass.
func Build(deps Deps, enabled []store.PassName) ([]pipeline.Pass, error) {
	if deps.LLM == nil || deps.Prompts == nil {
		return nil, fmt.Errorf("passes need an LLM provider and a prompt builder")
	}

	list := []pipeline.Pass{Outline(deps), Draft(deps)}
	for _, name := range enabled {
		switch name {
		case store.PassResearch:
			if deps.Research == nil {
				return nil, fmt.Errorf("research pass enabled without a research provider")
			}
			list = append(list, Research(deps))
		case store.PassRAG:
			if deps.Embedder == nil || deps.Vectors == nil {
				return nil, fmt.Errorf("rag pass enabled without embedder and vector store")
			}
			list = append(list, RAG(deps))
		case store.PassIdea:
			list = append(list, Idea(deps))
		case store.PassAngle:
			list = append(list, Angle(deps))
		case store.PassEnhance:
			list = append(list, Enhance(deps))
		case store.PassScoring:
			list = append(list, Scoring(deps))
		case store.PassOutline, store.PassDraft:
			// always present
		default:
			return nil, fmt.Errorf("unknown pass %q", name)
		}
	}
	return list, nil
}

// ParseNames converts configured names, ignoring blanks.
func ParseNames(names []string) ([]store.PassName, error) {
	out := make([]store.PassName, 0, len(names))
	for _, n := range names {
		n = strings.ToLower(strings.TrimSpace(n))
		if n == "" {
			continue
		}
		name := store.PassName(n)
		if !name.Valid() {
			return nil, fmt.Errorf("unknown pass %q", n)
		}
		out = append(out, name)
	}
	return out, nil
}

func (d Deps) complete(ctx context.Context, text string, opts ...llm.Option) (string, error) {
	opts = append([]llm.Option{llm.WithSystemPrompt(d.Prompts.System())}, opts...)
	res, err := d.LLM.Generate(ctx, text, opts...)
	if err != nil {
		return "", apperror.External("llm", err)
	}
	return res.Content, nil
}

func (d Deps) completeJSON(ctx context.Context, text string, temperature float64) (string, error) {
	return d.complete(ctx, text, llm.WithTemperature(temperature), llm.WithJSONFormat())
}

// stream forwards every chunk to emit and returns the assembled text.
func (d Deps) stream(ctx context.Context, pass store.PassName, text string, temperature float64, emit pipeline.Emit) (string, error) {
	chunks, err := d.LLM.Stream(ctx, text,
		llm.WithSystemPrompt(d.Prompts.System()),
		llm.WithTemperature(temperature),
	)
	if err != nil {
		return "", apperror.External("llm", err)
	}

	var body strings.Builder
	for chunk := range chunks {
		if chunk.Err != nil {
			return "", apperror.External("llm", chunk.Err)
		}
		body.WriteString(chunk.Text)
		emit(chunk.Text)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	out := strings.TrimSpace(body.String())
	if out == "" {
		return "", &apperror.MalformedResponseError{Pass: string(pass), Message: "model returned no text"}
	}
	return out, nil
}
