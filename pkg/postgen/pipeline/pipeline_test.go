package pipeline_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"ai-postgen-be/internal/repository/memory"
	"ai-postgen-be/pkg/apperror"
	"ai-postgen-be/pkg/llm"
	"ai-postgen-be/pkg/llm/mock"
	"ai-postgen-be/pkg/postgen/passes"
	"ai-postgen-be/pkg/postgen/pipeline"
	"ai-postgen-be/pkg/postgen/prompt"
	"ai-postgen-be/pkg/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	outlineJSON = `{"outline": "1. Hook: cua vừa cập bến\n2. Giao trong 2 giờ\n3. Gọi ngay", "title": "Cua tươi giao tận nhà", "hashtags": "#cua #haisan"}`
	draftText   = "Cua vừa cập bến sáng nay, chắc thịt và ngọt. Đặt trước 10 giờ, giao trong 2 giờ. #cua #haisan"
)

// scripted answers JSON prompts with the outline and free text with the draft.
func scripted() *mock.Provider {
	return mock.New(func(_ string, opts llm.Options) (string, error) {
		if opts.JSON {
			return outlineJSON, nil
		}
		return draftText, nil
	}).WithChunkSize(12)
}

func newPipeline(t *testing.T, provider llm.LLMProvider, sessions *memory.SessionRepository, opts ...pipeline.Option) *pipeline.Pipeline {
	t.Helper()
	list, err := passes.Build(passes.Deps{LLM: provider, Prompts: prompt.NewBuilder(prompt.Brand{Name: "Hải Sản Tươi"})}, nil)
	require.NoError(t, err)
	p, err := pipeline.New(sessions, list, opts...)
	require.NoError(t, err)
	return p
}

func drain(events <-chan pipeline.Event) []pipeline.Event {
	var out []pipeline.Event
	for ev := range events {
		out = append(out, ev)
	}
	return out
}

func TestGenerateStreamOrdersOutlineThenDraft(t *testing.T) {
	sessions := memory.NewSessionRepository(time.Hour)
	p := newPipeline(t, scripted(), sessions)

	events, sessionID, err := p.GenerateStream(context.Background(), pipeline.Request{
		Idea:         "Fresh crab delivery",
		PlatformHint: "facebook",
	})
	require.NoError(t, err)
	require.NotEmpty(t, sessionID)

	got := drain(events)
	require.GreaterOrEqual(t, len(got), 5)

	assert.Equal(t, pipeline.Event{Type: pipeline.EventPassStart, Pass: store.PassOutline}, got[0])
	assert.Equal(t, pipeline.EventPassComplete, got[1].Type)
	assert.Equal(t, store.PassOutline, got[1].Pass)
	assert.Equal(t, pipeline.Event{Type: pipeline.EventPassStart, Pass: store.PassDraft}, got[2])

	var streamed strings.Builder
	for _, ev := range got[3 : len(got)-1] {
		assert.Equal(t, pipeline.EventPassChunk, ev.Type)
		assert.Equal(t, store.PassDraft, ev.Pass)
		streamed.WriteString(ev.Text)
	}
	assert.Equal(t, draftText, streamed.String())

	last := got[len(got)-1]
	assert.Equal(t, pipeline.EventPassComplete, last.Type)
	assert.Equal(t, store.PassDraft, last.Pass)

	session, err := sessions.Get(context.Background(), sessionID)
	require.NoError(t, err)
	require.NotNil(t, session.OutlinePass)
	assert.Equal(t, "Cua tươi giao tận nhà", session.OutlinePass.Title)
	assert.Equal(t, draftText, session.DraftPass.Draft)
	assert.Equal(t, "Fresh crab delivery", session.Metadata.Idea)
}

func TestGenerateStreamRejectsInvalidRequestBeforeAnyCall(t *testing.T) {
	provider := scripted()
	p := newPipeline(t, provider, memory.NewSessionRepository(time.Hour))

	_, _, err := p.GenerateStream(context.Background(), pipeline.Request{Idea: "  ", PlatformHint: "myspace"})

	var validation *apperror.ValidationError
	require.True(t, errors.As(err, &validation))
	assert.Empty(t, provider.Calls())
}

func TestResumeRunsOnlyRemainingPasses(t *testing.T) {
	sessions := memory.NewSessionRepository(time.Hour)
	ctx := context.Background()

	failing := mock.New(func(_ string, opts llm.Options) (string, error) {
		if opts.JSON {
			return outlineJSON, nil
		}
		return "", errors.New("model overloaded")
	})
	events, sessionID, err := newPipeline(t, failing, sessions).GenerateStream(ctx, pipeline.Request{Idea: "Fresh crab delivery"})
	require.NoError(t, err)

	first := drain(events)
	last := first[len(first)-1]
	assert.Equal(t, pipeline.EventError, last.Type)
	assert.Contains(t, last.Message, "draft")
	assert.Contains(t, last.Message, sessionID)

	kept, err := sessions.Get(ctx, sessionID)
	require.NoError(t, err)
	assert.NotNil(t, kept.OutlinePass)
	assert.Nil(t, kept.DraftPass)

	provider := scripted()
	events, resumedID, err := newPipeline(t, provider, sessions).GenerateStream(ctx, pipeline.Request{SessionID: sessionID})
	require.NoError(t, err)
	assert.Equal(t, sessionID, resumedID)

	second := drain(events)
	assert.Equal(t, pipeline.Event{Type: pipeline.EventPassStart, Pass: store.PassDraft}, second[0])
	for _, ev := range second {
		assert.NotEqual(t, store.PassOutline, ev.Pass)
	}

	calls := provider.Calls()
	require.Len(t, calls, 1)
	assert.True(t, calls[0].Stream)
	assert.Contains(t, calls[0].Prompt, "Fresh crab delivery", "resumed request falls back to the stored idea")
}

func TestPassesSeeOnlyEarlierResults(t *testing.T) {
	sessions := memory.NewSessionRepository(time.Hour)
	var order []store.PassName

	record := func(name store.PassName, result store.PassResult) *pipeline.Descriptor {
		return &pipeline.Descriptor{
			PassName: name,
			Execute: func(_ context.Context, _ *pipeline.Request, view *store.GenerationSession, _ pipeline.Emit) (store.PassResult, error) {
				order = append(order, name)
				for _, later := range store.PassOrder[name.Index():] {
					assert.False(t, view.Completed(later), "%s saw %s", name, later)
				}
				return result, nil
			},
		}
	}

	p, err := pipeline.New(sessions, []pipeline.Pass{
		record(store.PassDraft, &store.DraftResult{Draft: "body"}),
		record(store.PassIdea, &store.IdeaResult{Ideas: []string{"a"}, SelectedIdea: "a"}),
		record(store.PassOutline, &store.OutlineResult{Title: "t", Outline: "o"}),
	})
	require.NoError(t, err)
	assert.Equal(t, []store.PassName{store.PassIdea, store.PassOutline, store.PassDraft}, p.Passes())

	session, err := p.Generate(context.Background(), pipeline.Request{Topic: "crab"}, nil)
	require.NoError(t, err)
	assert.Equal(t, []store.PassName{store.PassIdea, store.PassOutline, store.PassDraft}, order)
	assert.NotNil(t, session.IdeaPass)
	assert.Equal(t, "body", session.DraftPass.Draft)
}

func TestNewRejectsDuplicatePasses(t *testing.T) {
	d := &pipeline.Descriptor{PassName: store.PassDraft}
	_, err := pipeline.New(memory.NewSessionRepository(time.Hour), []pipeline.Pass{d, d})
	assert.Error(t, err)

	_, err = pipeline.New(memory.NewSessionRepository(time.Hour), []pipeline.Pass{&pipeline.Descriptor{PassName: "publish"}})
	assert.Error(t, err)
}

func TestPassTimeoutSurfacesAsExternalError(t *testing.T) {
	slow := &pipeline.Descriptor{
		PassName: store.PassOutline,
		Execute: func(ctx context.Context, _ *pipeline.Request, _ *store.GenerationSession, _ pipeline.Emit) (store.PassResult, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
	}
	p, err := pipeline.New(memory.NewSessionRepository(time.Hour), []pipeline.Pass{slow}, pipeline.WithPassTimeout(20*time.Millisecond))
	require.NoError(t, err)

	_, err = p.Generate(context.Background(), pipeline.Request{Idea: "crab"}, nil)

	var passErr *apperror.PassError
	require.True(t, errors.As(err, &passErr))
	assert.Equal(t, "outline", passErr.Pass)

	var external *apperror.ExternalServiceError
	require.True(t, errors.As(err, &external))
	assert.True(t, external.Timeout())
}

type recordingHook struct {
	mu       sync.Mutex
	sessions []*store.GenerationSession
}

func (h *recordingHook) GenerationCompleted(_ context.Context, _ pipeline.Request, s *store.GenerationSession) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sessions = append(h.sessions, s)
	return nil
}

func TestCompletionHookRunsOnceWhenWorkWasDone(t *testing.T) {
	sessions := memory.NewSessionRepository(time.Hour)
	hook := &recordingHook{}
	p := newPipeline(t, scripted(), sessions, pipeline.WithCompletionHook(hook))

	session, err := p.Generate(context.Background(), pipeline.Request{Idea: "Fresh crab delivery", PostID: "post-1"}, nil)
	require.NoError(t, err)
	require.Len(t, hook.sessions, 1)
	assert.Equal(t, draftText, hook.sessions[0].FinalContent())

	// nothing left to run on resume
	_, err = p.Generate(context.Background(), pipeline.Request{SessionID: session.SessionID}, nil)
	require.NoError(t, err)
	assert.Len(t, hook.sessions, 1)
}

func TestCancelledConsumerStopsFurtherCalls(t *testing.T) {
	provider := scripted()
	p := newPipeline(t, provider, memory.NewSessionRepository(time.Hour))

	ctx, cancel := context.WithCancel(context.Background())
	events, _, err := p.GenerateStream(ctx, pipeline.Request{Idea: "Fresh crab delivery"})
	require.NoError(t, err)

	first := <-events
	assert.Equal(t, pipeline.EventPassStart, first.Type)
	cancel()

	for range events {
	}
	assert.LessOrEqual(t, len(provider.Calls()), 1)
}

type productLookup map[string]*store.Product

func (l productLookup) Lookup(_ context.Context, id string) (*store.Product, error) {
	return l[id], nil
}

func TestProductDetailsReachPrompts(t *testing.T) {
	provider := scripted()
	p := newPipeline(t, provider, memory.NewSessionRepository(time.Hour), pipeline.WithProductLookup(productLookup{
		"crab-1": {ID: "crab-1", Name: "Cua Cà Mau", Price: 450000, Unit: "kg"},
	}))

	_, err := p.Generate(context.Background(), pipeline.Request{ProductID: "crab-1"}, nil)
	require.NoError(t, err)

	calls := provider.Calls()
	require.NotEmpty(t, calls)
	assert.Contains(t, calls[0].Prompt, "Cua Cà Mau")
	assert.Contains(t, calls[0].Prompt, "450000/kg")
}

type steppingClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *steppingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *steppingClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestSessionExpiringMidRunStartsFresh(t *testing.T) {
	clock := &steppingClock{now: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
	sessions := memory.NewSessionRepository(10*time.Minute, memory.WithClock(clock.Now))
	ctx := context.Background()

	slowDraft := mock.New(func(_ string, opts llm.Options) (string, error) {
		if opts.JSON {
			return outlineJSON, nil
		}
		// the draft outlives the session TTL
		clock.Advance(15 * time.Minute)
		return draftText, nil
	})
	p := newPipeline(t, slowDraft, sessions)

	events, sessionID, err := p.GenerateStream(ctx, pipeline.Request{Idea: "Fresh crab delivery"})
	require.NoError(t, err)

	for _, ev := range drain(events) {
		assert.NotEqual(t, pipeline.EventError, ev.Type, ev.Message)
	}

	session, err := sessions.Get(ctx, sessionID)
	require.NoError(t, err)
	require.NotNil(t, session.OutlinePass, "earlier results carry over")
	assert.Equal(t, "Cua tươi giao tận nhà", session.OutlinePass.Title)
	require.NotNil(t, session.DraftPass)
	assert.Equal(t, draftText, session.DraftPass.Draft)
	assert.Equal(t, "Fresh crab delivery", session.Metadata.Idea)
	assert.Equal(t, clock.Now(), session.Metadata.StartedAt)
}
