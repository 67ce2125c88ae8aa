package prompt

import (
	"encoding/json"
	"math"
	"strings"

	"ai-postgen-be/pkg/apperror"
	"ai-postgen-be/pkg/llm"
	"ai-postgen-be/pkg/store"
)

// flexText accepts either a JSON string or an array of strings. Models
// regularly return outlines and hashtags as lists.
type flexText string

func (f *flexText) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexText(s)
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	*f = flexText(strings.Join(list, "\n"))
	return nil
}

func decode(pass store.PassName, raw string, v interface{}) error {
	cleaned := llm.CleanJSONBlock(raw)
	if cleaned == "" {
		return &apperror.MalformedResponseError{Pass: string(pass), Message: "empty response", Raw: raw}
	}
	if err := json.Unmarshal([]byte(cleaned), v); err != nil {
		return &apperror.MalformedResponseError{Pass: string(pass), Message: "invalid JSON", Raw: raw, Cause: err}
	}
	return nil
}

func malformed(pass store.PassName, raw, message string) error {
	return &apperror.MalformedResponseError{Pass: string(pass), Message: message, Raw: raw}
}

func ParseResearch(raw string) (*store.ResearchResult, error) {
	var out store.ResearchResult
	if err := decode(store.PassResearch, raw, &out); err != nil {
		return nil, err
	}
	out.Insights = compact(out.Insights)
	out.Risks = compact(out.Risks)
	out.RecommendedAngles = compact(out.RecommendedAngles)
	out.Sources = nil
	return &out, nil
}

// ParseIdeas requires at least one idea. A selection that is missing or
// not among the candidates falls back to the first idea.
func ParseIdeas(raw string) (*store.IdeaResult, error) {
	var out store.IdeaResult
	if err := decode(store.PassIdea, raw, &out); err != nil {
		return nil, err
	}
	out.Ideas = compact(out.Ideas)
	if len(out.Ideas) == 0 {
		return nil, malformed(store.PassIdea, raw, "no ideas returned")
	}
	out.SelectedIdea = pick(out.Ideas, out.SelectedIdea)
	out.Meta = store.IdeaMeta{}
	return &out, nil
}

func ParseAngles(raw string) (*store.AngleResult, error) {
	var out store.AngleResult
	if err := decode(store.PassAngle, raw, &out); err != nil {
		return nil, err
	}
	out.Angles = compact(out.Angles)
	if len(out.Angles) == 0 {
		return nil, malformed(store.PassAngle, raw, "no angles returned")
	}
	out.SelectedAngle = pick(out.Angles, out.SelectedAngle)
	return &out, nil
}

func ParseOutline(raw string) (*store.OutlineResult, error) {
	var payload struct {
		Outline  flexText `json:"outline"`
		Title    string   `json:"title"`
		Hashtags flexText `json:"hashtags"`
	}
	if err := decode(store.PassOutline, raw, &payload); err != nil {
		return nil, err
	}
	out := &store.OutlineResult{
		Outline:  strings.TrimSpace(string(payload.Outline)),
		Title:    strings.TrimSpace(payload.Title),
		Hashtags: strings.Join(strings.Fields(string(payload.Hashtags)), " "),
	}
	if out.Title == "" {
		return nil, malformed(store.PassOutline, raw, "title is empty")
	}
	if out.Outline == "" {
		return nil, malformed(store.PassOutline, raw, "outline is empty")
	}
	return out, nil
}

// scoreBreakdown is the wire form; models answer with fractional scores.
type scoreBreakdown struct {
	Clarity     float64 `json:"clarity"`
	Engagement  float64 `json:"engagement"`
	BrandVoice  float64 `json:"brandVoice"`
	PlatformFit float64 `json:"platformFit"`
	Safety      float64 `json:"safety"`
}

// ParseScoring rounds and clamps each dimension to 0-20 and recomputes the
// total, so the score is always the sum of its breakdown.
func ParseScoring(raw string) (*store.ScoringResult, error) {
	var payload struct {
		ScoreBreakdown *scoreBreakdown `json:"scoreBreakdown"`
		Weaknesses     []string        `json:"weaknesses"`
		SuggestedFixes []string        `json:"suggestedFixes"`
	}
	if err := decode(store.PassScoring, raw, &payload); err != nil {
		return nil, err
	}
	if payload.ScoreBreakdown == nil {
		return nil, malformed(store.PassScoring, raw, "scoreBreakdown missing")
	}
	w := payload.ScoreBreakdown
	b := store.ScoreBreakdown{
		Clarity:     clamp(w.Clarity),
		Engagement:  clamp(w.Engagement),
		BrandVoice:  clamp(w.BrandVoice),
		PlatformFit: clamp(w.PlatformFit),
		Safety:      clamp(w.Safety),
	}

	return &store.ScoringResult{
		Score:          b.Total(),
		ScoreBreakdown: b,
		Weaknesses:     compact(payload.Weaknesses),
		SuggestedFixes: compact(payload.SuggestedFixes),
	}, nil
}

func compact(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func pick(candidates []string, selected string) string {
	selected = strings.TrimSpace(selected)
	for _, c := range candidates {
		if strings.EqualFold(c, selected) {
			return c
		}
	}
	return candidates[0]
}

func clamp(v float64) int {
	return max(0, min(20, int(math.Round(v))))
}
