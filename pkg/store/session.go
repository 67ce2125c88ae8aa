package store

import (
	"fmt"
	"time"
)

// PassName identifies one stage of the generation pipeline.
type PassName string

const (
	PassResearch PassName = "research"
	PassRAG      PassName = "rag"
	PassIdea     PassName = "idea"
	PassAngle    PassName = "angle"
	PassOutline  PassName = "outline"
	PassDraft    PassName = "draft"
	PassEnhance  PassName = "enhance"
	PassScoring  PassName = "scoring"
)

// PassOrder is the declared causal order of passes. Research and RAG share
// the first rank in the domain model but are sequenced research first.
var PassOrder = []PassName{
	PassResearch,
	PassRAG,
	PassIdea,
	PassAngle,
	PassOutline,
	PassDraft,
	PassEnhance,
	PassScoring,
}

// Index returns the position of the pass in PassOrder, or -1.
func (p PassName) Index() int {
	for i, name := range PassOrder {
		if name == p {
			return i
		}
	}
	return -1
}

// Valid reports whether p is a known pass.
func (p PassName) Valid() bool {
	return p.Index() >= 0
}

// SessionMetadata describes the request a session was created for.
type SessionMetadata struct {
	Idea          string    `json:"idea,omitempty"`
	ProductID     string    `json:"productId,omitempty"`
	StartedAt     time.Time `json:"startedAt"`
	LastUpdatedAt time.Time `json:"lastUpdatedAt"`
}

// GenerationSession is the in-progress state of one post generation.
// Each pass field stays nil until that pass has completed.
type GenerationSession struct {
	SessionID string          `json:"sessionId"`
	Metadata  SessionMetadata `json:"metadata"`
	ExpiresAt time.Time       `json:"expiresAt"`

	ResearchPass *ResearchResult `json:"researchPass,omitempty"`
	RAGPass      *RAGResult      `json:"ragPass,omitempty"`
	IdeaPass     *IdeaResult     `json:"ideaPass,omitempty"`
	AnglePass    *AngleResult    `json:"anglePass,omitempty"`
	OutlinePass  *OutlineResult  `json:"outlinePass,omitempty"`
	DraftPass    *DraftResult    `json:"draftPass,omitempty"`
	EnhancePass  *EnhanceResult  `json:"enhancePass,omitempty"`
	ScoringPass  *ScoringResult  `json:"scoringPass,omitempty"`
}

// SessionUpdate is a partial update. Non-nil fields replace the matching
// pass field; nil fields leave the session untouched.
type SessionUpdate struct {
	ResearchPass *ResearchResult
	RAGPass      *RAGResult
	IdeaPass     *IdeaResult
	AnglePass    *AngleResult
	OutlinePass  *OutlineResult
	DraftPass    *DraftResult
	EnhancePass  *EnhanceResult
	ScoringPass  *ScoringResult
}

// NewSession creates an empty session starting at now.
func NewSession(id string, meta *SessionMetadata, now time.Time, ttl time.Duration) *GenerationSession {
	s := &GenerationSession{SessionID: id}
	if meta != nil {
		s.Metadata.Idea = meta.Idea
		s.Metadata.ProductID = meta.ProductID
	}
	s.Metadata.StartedAt = now
	s.Metadata.LastUpdatedAt = now
	s.ExpiresAt = now.Add(ttl)
	return s
}

// Touch bumps LastUpdatedAt to now and recomputes ExpiresAt. LastUpdatedAt
// never moves backwards.
func (s *GenerationSession) Touch(now time.Time, ttl time.Duration) {
	if now.After(s.Metadata.LastUpdatedAt) {
		s.Metadata.LastUpdatedAt = now
	}
	s.ExpiresAt = s.Metadata.LastUpdatedAt.Add(ttl)
}

// Expired reports whether the session is past its TTL at now. A session
// is live only while ExpiresAt is strictly after now.
func (s *GenerationSession) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}

// Apply merges u onto the session, one pass field at a time.
func (s *GenerationSession) Apply(u SessionUpdate) {
	if u.ResearchPass != nil {
		s.ResearchPass = u.ResearchPass
	}
	if u.RAGPass != nil {
		s.RAGPass = u.RAGPass
	}
	if u.IdeaPass != nil {
		s.IdeaPass = u.IdeaPass
	}
	if u.AnglePass != nil {
		s.AnglePass = u.AnglePass
	}
	if u.OutlinePass != nil {
		s.OutlinePass = u.OutlinePass
	}
	if u.DraftPass != nil {
		s.DraftPass = u.DraftPass
	}
	if u.EnhancePass != nil {
		s.EnhancePass = u.EnhancePass
	}
	if u.ScoringPass != nil {
		s.ScoringPass = u.ScoringPass
	}
}

// Result returns the stored result for a pass.
func (s *GenerationSession) Result(name PassName) (PassResult, bool) {
	switch name {
	case PassResearch:
		return s.ResearchPass, s.ResearchPass != nil
	case PassRAG:
		return s.RAGPass, s.RAGPass != nil
	case PassIdea:
		return s.IdeaPass, s.IdeaPass != nil
	case PassAngle:
		return s.AnglePass, s.AnglePass != nil
	case PassOutline:
		return s.OutlinePass, s.OutlinePass != nil
	case PassDraft:
		return s.DraftPass, s.DraftPass != nil
	case PassEnhance:
		return s.EnhancePass, s.EnhancePass != nil
	case PassScoring:
		return s.ScoringPass, s.ScoringPass != nil
	default:
		return nil, false
	}
}

// Completed reports whether the pass has a stored result.
func (s *GenerationSession) Completed(name PassName) bool {
	_, ok := s.Result(name)
	return ok
}

// LastCompleted returns the latest pass in PassOrder that has a result.
func (s *GenerationSession) LastCompleted() (PassName, bool) {
	for i := len(PassOrder) - 1; i >= 0; i-- {
		if s.Completed(PassOrder[i]) {
			return PassOrder[i], true
		}
	}
	return "", false
}

// ViewBefore returns a copy holding only passes that precede name.
func (s *GenerationSession) ViewBefore(name PassName) *GenerationSession {
	view := s.Clone()
	idx := name.Index()
	if idx < 0 {
		return view
	}
	for _, later := range PassOrder[idx:] {
		switch later {
		case PassResearch:
			view.ResearchPass = nil
		case PassRAG:
			view.RAGPass = nil
		case PassIdea:
			view.IdeaPass = nil
		case PassAngle:
			view.AnglePass = nil
		case PassOutline:
			view.OutlinePass = nil
		case PassDraft:
			view.DraftPass = nil
		case PassEnhance:
			view.EnhancePass = nil
		case PassScoring:
			view.ScoringPass = nil
		}
	}
	return view
}

// FinalContent returns the most refined body available.
func (s *GenerationSession) FinalContent() string {
	if s.EnhancePass != nil && s.EnhancePass.Enhanced != "" {
		return s.EnhancePass.Enhanced
	}
	if s.DraftPass != nil {
		return s.DraftPass.Draft
	}
	return ""
}

// Clone deep-copies the session so callers never share cache state.
func (s *GenerationSession) Clone() *GenerationSession {
	if s == nil {
		return nil
	}
	c := *s
	if s.ResearchPass != nil {
		r := *s.ResearchPass
		r.Insights = cloneStrings(r.Insights)
		r.Risks = cloneStrings(r.Risks)
		r.RecommendedAngles = cloneStrings(r.RecommendedAngles)
		r.Sources = append([]Source(nil), r.Sources...)
		c.ResearchPass = &r
	}
	if s.RAGPass != nil {
		r := *s.RAGPass
		r.Sources = append([]RAGSource(nil), r.Sources...)
		c.RAGPass = &r
	}
	if s.IdeaPass != nil {
		r := *s.IdeaPass
		r.Ideas = cloneStrings(r.Ideas)
		c.IdeaPass = &r
	}
	if s.AnglePass != nil {
		r := *s.AnglePass
		r.Angles = cloneStrings(r.Angles)
		c.AnglePass = &r
	}
	if s.OutlinePass != nil {
		r := *s.OutlinePass
		c.OutlinePass = &r
	}
	if s.DraftPass != nil {
		r := *s.DraftPass
		c.DraftPass = &r
	}
	if s.EnhancePass != nil {
		r := *s.EnhancePass
		c.EnhancePass = &r
	}
	if s.ScoringPass != nil {
		r := *s.ScoringPass
		r.Weaknesses = cloneStrings(r.Weaknesses)
		r.SuggestedFixes = cloneStrings(r.SuggestedFixes)
		c.ScoringPass = &r
	}
	return &c
}

// Snapshot returns an update that writes every completed pass of s.
func (s *GenerationSession) Snapshot() SessionUpdate {
	c := s.Clone()
	return SessionUpdate{
		ResearchPass: c.ResearchPass,
		RAGPass:      c.RAGPass,
		IdeaPass:     c.IdeaPass,
		AnglePass:    c.AnglePass,
		OutlinePass:  c.OutlinePass,
		DraftPass:    c.DraftPass,
		EnhancePass:  c.EnhancePass,
		ScoringPass:  c.ScoringPass,
	}
}

// UpdateFor converts a pass result into the update that writes exactly its field.
func UpdateFor(result PassResult) (SessionUpdate, error) {
	var u SessionUpdate
	switch r := result.(type) {
	case *ResearchResult:
		u.ResearchPass = r
	case *RAGResult:
		u.RAGPass = r
	case *IdeaResult:
		u.IdeaPass = r
	case *AngleResult:
		u.AnglePass = r
	case *OutlineResult:
		u.OutlinePass = r
	case *DraftResult:
		u.DraftPass = r
	case *EnhanceResult:
		u.EnhancePass = r
	case *ScoringResult:
		u.ScoringPass = r
	default:
		return u, fmt.Errorf("unsupported pass result %T", result)
	}
	return u, nil
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
