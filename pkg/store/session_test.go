package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSessionDerivesExpiry(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	s := NewSession("s-1", &SessionMetadata{Idea: "Fresh crab delivery"}, now, 30*time.Minute)

	assert.Equal(t, now, s.Metadata.StartedAt)
	assert.Equal(t, now, s.Metadata.LastUpdatedAt)
	assert.Equal(t, now.Add(30*time.Minute), s.ExpiresAt)
	assert.Equal(t, "Fresh crab delivery", s.Metadata.Idea)
	assert.False(t, s.Expired(now.Add(30*time.Minute-time.Nanosecond)))
	assert.True(t, s.Expired(now.Add(30*time.Minute)), "expired exactly at expiresAt")
}

func TestTouchNeverMovesBackwards(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	s := NewSession("s-1", nil, now, time.Hour)

	s.Touch(now.Add(5*time.Minute), time.Hour)
	assert.Equal(t, now.Add(5*time.Minute), s.Metadata.LastUpdatedAt)

	s.Touch(now.Add(time.Minute), time.Hour)
	assert.Equal(t, now.Add(5*time.Minute), s.Metadata.LastUpdatedAt)
	assert.Equal(t, now.Add(65*time.Minute), s.ExpiresAt)
}

func TestApplyOnlyTouchesProvidedFields(t *testing.T) {
	s := NewSession("s-1", nil, time.Now(), time.Hour)
	s.Apply(SessionUpdate{OutlinePass: &OutlineResult{Outline: "1. Hook", Title: "Crab"}})
	s.Apply(SessionUpdate{DraftPass: &DraftResult{Draft: "body"}})

	require.NotNil(t, s.OutlinePass)
	assert.Equal(t, "Crab", s.OutlinePass.Title)
	assert.Equal(t, "body", s.DraftPass.Draft)
}

func TestUpdateForCoversEveryPass(t *testing.T) {
	results := []PassResult{
		&ResearchResult{}, &RAGResult{}, &IdeaResult{}, &AngleResult{},
		&OutlineResult{}, &DraftResult{}, &EnhanceResult{}, &ScoringResult{},
	}
	require.Len(t, results, len(PassOrder))

	for i, r := range results {
		assert.Equal(t, PassOrder[i], r.Pass())

		u, err := UpdateFor(r)
		require.NoError(t, err)

		s := &GenerationSession{}
		s.Apply(u)
		got, ok := s.Result(r.Pass())
		assert.True(t, ok, "pass %s", r.Pass())
		assert.Same(t, r, got)
	}
}

func TestViewBeforeHidesLaterPasses(t *testing.T) {
	s := &GenerationSession{
		IdeaPass:    &IdeaResult{SelectedIdea: "idea"},
		OutlinePass: &OutlineResult{Title: "title"},
		DraftPass:   &DraftResult{Draft: "draft"},
	}

	view := s.ViewBefore(PassOutline)
	assert.NotNil(t, view.IdeaPass)
	assert.Nil(t, view.OutlinePass)
	assert.Nil(t, view.DraftPass)

	// original untouched
	assert.NotNil(t, s.DraftPass)
}

func TestCloneIsDeep(t *testing.T) {
	s := &GenerationSession{IdeaPass: &IdeaResult{Ideas: []string{"a", "b"}}}
	c := s.Clone()
	c.IdeaPass.Ideas[0] = "changed"
	c.IdeaPass.SelectedIdea = "x"

	assert.Equal(t, "a", s.IdeaPass.Ideas[0])
	assert.Empty(t, s.IdeaPass.SelectedIdea)
}

func TestLastCompletedAndFinalContent(t *testing.T) {
	s := &GenerationSession{}
	_, ok := s.LastCompleted()
	assert.False(t, ok)

	s.OutlinePass = &OutlineResult{Title: "t"}
	s.DraftPass = &DraftResult{Draft: "draft"}
	last, ok := s.LastCompleted()
	assert.True(t, ok)
	assert.Equal(t, PassDraft, last)
	assert.Equal(t, "draft", s.FinalContent())

	s.EnhancePass = &EnhanceResult{Enhanced: "better"}
	assert.Equal(t, "better", s.FinalContent())
}
