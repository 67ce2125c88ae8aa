package service

import (
	"context"
	"testing"
	"time"

	"ai-postgen-be/internal/dto"
	"ai-postgen-be/internal/pkg/logger"
	"ai-postgen-be/internal/repository/memory"
	"ai-postgen-be/pkg/llm"
	"ai-postgen-be/pkg/llm/mock"
	"ai-postgen-be/pkg/postgen/passes"
	"ai-postgen-be/pkg/postgen/pipeline"
	"ai-postgen-be/pkg/postgen/prompt"
	"ai-postgen-be/pkg/postgen/singlepass"
	"ai-postgen-be/pkg/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	crabOutline = `{"outline": "1. Cua vừa về\n2. Giao nhanh\n3. Gọi ngay", "title": "Cua tươi giao tận nhà", "hashtags": "#cua #haisan"}`
	crabDraft   = "Cua Cà Mau vừa về sáng nay! Chắc thịt, giao tận nhà trong 2 giờ. Gọi ngay để giữ phần. #cua #haisan"
)

type fixture struct {
	generation IGenerationService
	similarity ISimilarityService
	sessions   *memory.SessionRepository
	vectors    *memory.VectorStore
	events     *capturedPublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	provider := mock.New(func(_ string, opts llm.Options) (string, error) {
		if opts.JSON {
			return crabOutline, nil
		}
		return crabDraft, nil
	})
	prompts := prompt.NewBuilder(prompt.Brand{Name: "Hải Sản Tươi"})

	sessions := memory.NewSessionRepository(45 * time.Minute)
	vectors := memory.NewVectorStore()
	similarity := newSimilarity(vectors, nil)
	queue := &capturedPublisher{}
	notifier := NewContentEventService(queue, nil, nil, similarity, logger.NewNop(), logger.NewNop())

	list, err := passes.Build(passes.Deps{LLM: provider, Prompts: prompts}, nil)
	require.NoError(t, err)
	p, err := pipeline.New(sessions, list, pipeline.WithCompletionHook(notifier))
	require.NoError(t, err)
	single, err := singlepass.NewGenerator(provider, prompts, nil, nil)
	require.NoError(t, err)

	return &fixture{
		generation: NewGenerationService(single, p, sessions),
		similarity: similarity,
		sessions:   sessions,
		vectors:    vectors,
		events:     queue,
	}
}

func TestFreshCrabDeliveryEndToEnd(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	events, sessionID, err := f.generation.GenerateStream(ctx, pipeline.Request{
		Idea:         "Fresh crab delivery",
		PlatformHint: "facebook",
	})
	require.NoError(t, err)

	var passesSeen []store.PassName
	for ev := range events {
		require.NotEqual(t, pipeline.EventError, ev.Type, ev.Message)
		if ev.Type == pipeline.EventPassComplete {
			passesSeen = append(passesSeen, ev.Pass)
		}
	}
	assert.Equal(t, []store.PassName{store.PassOutline, store.PassDraft}, passesSeen)

	session, err := f.generation.GetSession(ctx, sessionID)
	require.NoError(t, err)
	assert.NotEmpty(t, session.OutlinePass.Title)
	assert.NotEmpty(t, session.DraftPass.Draft)

	check, err := f.similarity.CheckSimilarity(ctx, dto.CheckSimilarityRequest{Content: session.DraftPass.Draft})
	require.NoError(t, err)
	assert.False(t, check.IsSimilar)
	assert.Equal(t, 0.0, check.MaxSimilarity)
	assert.Empty(t, check.SimilarContent)

	// no post id, nothing queued for embedding
	assert.Empty(t, f.events.payloads)
}

func TestGenerateMultiPassQueuesEmbeddingForPost(t *testing.T) {
	f := newFixture(t)

	res, err := f.generation.GenerateMultiPass(context.Background(), pipeline.Request{Idea: "Fresh crab delivery", PostID: "post-42"})
	require.NoError(t, err)

	assert.Equal(t, "Cua tươi giao tận nhà", res.Title)
	assert.Equal(t, crabDraft, res.Content)
	assert.Equal(t, "#cua #haisan", res.Hashtags)
	assert.Nil(t, res.Score)
	assert.Len(t, f.events.payloads, 1)
}

func TestSessionsCanBeListedAndDeleted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.generation.GenerateMultiPass(ctx, pipeline.Request{Idea: "Fresh crab delivery"})
	require.NoError(t, err)

	list, err := f.generation.ListSessions(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, res.SessionId, list[0].SessionId)
	assert.Equal(t, []store.PassName{store.PassOutline, store.PassDraft}, list[0].Completed)
	assert.Equal(t, store.PassDraft, list[0].LastPass)

	deleted, err := f.generation.DeleteSession(ctx, res.SessionId)
	require.NoError(t, err)
	assert.True(t, deleted)

	_, err = f.generation.GetSession(ctx, res.SessionId)
	assert.Error(t, err)
}
