package prompt

import (
	"errors"
	"testing"

	"ai-postgen-be/pkg/apperror"
	"ai-postgen-be/pkg/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOutlineAcceptsListsAndFences(t *testing.T) {
	raw := "```json\n{\"outline\": [\"1. Hook\", \"2. Offer\"], \"title\": \" Cua tươi \", \"hashtags\": [\"#cua\", \"#haisan\"]}\n```"

	out, err := ParseOutline(raw)
	require.NoError(t, err)
	assert.Equal(t, "1. Hook\n2. Offer", out.Outline)
	assert.Equal(t, "Cua tươi", out.Title)
	assert.Equal(t, "#cua #haisan", out.Hashtags)
}

func TestParseOutlineRejectsMissingTitle(t *testing.T) {
	_, err := ParseOutline(`{"outline": "1. Hook"}`)

	var malformed *apperror.MalformedResponseError
	require.True(t, errors.As(err, &malformed))
	assert.Equal(t, "outline", malformed.Pass)
}

func TestParseIdeasFallsBackToFirstCandidate(t *testing.T) {
	out, err := ParseIdeas(`{"ideas": ["Crab morning catch", " ", "Weekend combo"], "selectedIdea": "something else"}`)
	require.NoError(t, err)
	assert.Equal(t, []string{"Crab morning catch", "Weekend combo"}, out.Ideas)
	assert.Equal(t, "Crab morning catch", out.SelectedIdea)

	_, err = ParseIdeas(`{"ideas": []}`)
	assert.Error(t, err)

	_, err = ParseIdeas(`not json`)
	var malformed *apperror.MalformedResponseError
	assert.True(t, errors.As(err, &malformed))
}

func TestParseScoringSumsClampedBreakdown(t *testing.T) {
	out, err := ParseScoring(`{"score": 99, "scoreBreakdown": {"clarity": 18, "engagement": 25, "brandVoice": 15, "platformFit": -3, "safety": 20}, "weaknesses": ["long intro"], "suggestedFixes": ["cut the first sentence"]}`)
	require.NoError(t, err)

	assert.Equal(t, 20, out.ScoreBreakdown.Engagement)
	assert.Equal(t, 0, out.ScoreBreakdown.PlatformFit)
	assert.Equal(t, 18+20+15+0+20, out.Score)
	assert.Equal(t, []string{"long intro"}, out.Weaknesses)

	_, err = ParseScoring(`{"weaknesses": []}`)
	assert.Error(t, err)
}

func TestParseScoringRoundsFractionalDimensions(t *testing.T) {
	out, err := ParseScoring(`{"scoreBreakdown": {"clarity": 17.5, "engagement": 16.2, "brandVoice": 19.9, "platformFit": 20.4, "safety": 18}}`)
	require.NoError(t, err)

	assert.Equal(t, 18, out.ScoreBreakdown.Clarity)
	assert.Equal(t, 16, out.ScoreBreakdown.Engagement)
	assert.Equal(t, 20, out.ScoreBreakdown.BrandVoice)
	assert.Equal(t, 20, out.ScoreBreakdown.PlatformFit)
	assert.Equal(t, 18+16+20+20+18, out.Score)
}

func TestBuilderIncludesPriorPasses(t *testing.T) {
	b := NewBuilder(Brand{Name: "Hải Sản Tươi", Hotline: "1900 1234", DefaultHashtags: "#haisan"})
	in := Input{Idea: "Fresh crab delivery", PlatformHint: "facebook"}
	view := &store.GenerationSession{
		IdeaPass:    &store.IdeaResult{SelectedIdea: "Crab from boat to door in 6 hours"},
		AnglePass:   &store.AngleResult{SelectedAngle: "freshness proof"},
		OutlinePass: &store.OutlineResult{Title: "Cua về!", Outline: "1. Hook"},
	}

	draft := b.Draft(in, view)
	assert.Contains(t, draft, "Crab from boat to door in 6 hours")
	assert.Contains(t, draft, "freshness proof")
	assert.Contains(t, draft, "Title: Cua về!")
	assert.Contains(t, draft, "1900 1234")
	assert.Contains(t, draft, "Platform: facebook")

	outline := b.Outline(in, &store.GenerationSession{})
	assert.Contains(t, outline, "<idea>\nFresh crab delivery\n</idea>")
	assert.Contains(t, outline, "#haisan")
	assert.NotContains(t, outline, "<angle>")

	assert.Contains(t, b.System(), "Hải Sản Tươi")
}
