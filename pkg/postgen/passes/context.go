package passes

import (
	"context"
	"fmt"
	"strings"

	"ai-postgen-be/internal/repository/contract"
	"ai-postgen-be/pkg/apperror"
	"ai-postgen-be/pkg/embedding"
	"ai-postgen-be/pkg/postgen/pipeline"
	"ai-postgen-be/pkg/postgen/prompt"
	"ai-postgen-be/pkg/store"
	"ai-postgen-be/pkg/utils"
)

const (
	defaultRAGLimit     = 3
	defaultRAGThreshold = 0.5
	ragSnippetRunes     = 500
)

// Research asks the research provider about the subject and has the LLM
// distil the material. Citations come from the provider, never the model.
func Research(d Deps) *pipeline.Descriptor {
	return &pipeline.Descriptor{
		PassName: store.PassResearch,
		Execute: func(ctx context.Context, req *pipeline.Request, _ *store.GenerationSession, _ pipeline.Emit) (store.PassResult, error) {
			in := req.Input()
			found, err := d.Research.Search(ctx, d.Prompts.ResearchQuery(in))
			if err != nil {
				return nil, apperror.External("research", err)
			}
			if strings.TrimSpace(found.Content) == "" {
				return &store.ResearchResult{
					Insights:          []string{},
					Risks:             []string{},
					RecommendedAngles: []string{},
					Sources:           found.Citations,
				}, nil
			}

			raw, err := d.completeJSON(ctx, d.Prompts.Research(in, found.Content), 0.3)
			if err != nil {
				return nil, err
			}
			out, err := prompt.ParseResearch(raw)
			if err != nil {
				return nil, err
			}
			out.Sources = found.Citations
			return out, nil
		},
	}
}

// RAG retrieves related prior content for the subject.
func RAG(d Deps) *pipeline.Descriptor {
	limit := d.RAGLimit
	if limit <= 0 {
		limit = defaultRAGLimit
	}
	threshold := d.RAGThreshold
	if threshold <= 0 {
		threshold = defaultRAGThreshold
	}

	return &pipeline.Descriptor{
		PassName: store.PassRAG,
		Execute: func(ctx context.Context, req *pipeline.Request, _ *store.GenerationSession, _ pipeline.Emit) (store.PassResult, error) {
			query := utils.JoinNonEmpty("\n", req.Topic, req.Idea)
			if req.Product != nil {
				query = utils.JoinNonEmpty("\n", query, req.Product.Name)
			}

			vector, err := embedding.Embed(ctx, d.Embedder, query, embedding.TaskRetrievalQuery)
			if err != nil {
				return nil, apperror.External("embedding", err)
			}
			hits, err := d.Vectors.SearchSimilar(ctx, vector, contract.SearchOptions{
				Limit:          limit,
				ScoreThreshold: threshold,
			})
			if err != nil {
				return nil, apperror.External("vector_store", err)
			}
			return buildRAGResult(hits), nil
		},
	}
}

func buildRAGResult(hits []store.SimilarityResult) *store.RAGResult {
	out := &store.RAGResult{Sources: make([]store.RAGSource, 0, len(hits))}
	var ctxText strings.Builder
	for i, hit := range hits {
		title := hit.Metadata[store.MetaTitle]
		if title == "" {
			title = hit.PostID
		}
		out.Sources = append(out.Sources, store.RAGSource{
			PostID:     hit.PostID,
			Title:      title,
			Content:    hit.Content,
			Similarity: hit.Score,
		})
		fmt.Fprintf(&ctxText, "[%d] %s\n%s\n\n", i+1, title, utils.TruncateRunes(hit.Content, ragSnippetRunes))
	}
	out.RAGContext = strings.TrimSpace(ctxText.String())
	return out
}
