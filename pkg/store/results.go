package store

// PassResult is the sum type of everything a pass can write to a session.
// Only the result types in this file implement it.
type PassResult interface {
	Pass() PassName
	isPassResult()
}

// Source is a cited web page.
type Source struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

type ResearchResult struct {
	Insights          []string `json:"insights"`
	Risks             []string `json:"risks"`
	RecommendedAngles []string `json:"recommendedAngles"`
	Sources           []Source `json:"sources"`
}

// RAGSource is prior content retrieved as generation context.
type RAGSource struct {
	PostID     string  `json:"postId"`
	Title      string  `json:"title"`
	Content    string  `json:"content"`
	Similarity float64 `json:"similarity"`
}

type RAGResult struct {
	RAGContext string      `json:"ragContext"`
	Sources    []RAGSource `json:"sources"`
}

type IdeaMeta struct {
	UsedResearch bool `json:"usedResearch"`
	UsedRag      bool `json:"usedRag"`
}

type IdeaResult struct {
	Ideas        []string `json:"ideas"`
	SelectedIdea string   `json:"selectedIdea"`
	Meta         IdeaMeta `json:"meta"`
}

type AngleResult struct {
	Angles        []string `json:"angles"`
	SelectedAngle string   `json:"selectedAngle"`
}

type OutlineResult struct {
	Outline  string `json:"outline"`
	Title    string `json:"title"`
	Hashtags string `json:"hashtags,omitempty"`
}

type DraftResult struct {
	Draft string `json:"draft"`
}

type EnhanceResult struct {
	Enhanced string `json:"enhanced"`
}

// ScoreBreakdown holds the five scoring dimensions, each 0-20.
type ScoreBreakdown struct {
	Clarity     int `json:"clarity"`
	Engagement  int `json:"engagement"`
	BrandVoice  int `json:"brandVoice"`
	PlatformFit int `json:"platformFit"`
	Safety      int `json:"safety"`
}

// Total sums the dimensions.
func (b ScoreBreakdown) Total() int {
	return b.Clarity + b.Engagement + b.BrandVoice + b.PlatformFit + b.Safety
}

type ScoringResult struct {
	Score          int            `json:"score"`
	ScoreBreakdown ScoreBreakdown `json:"scoreBreakdown"`
	Weaknesses     []string       `json:"weaknesses"`
	SuggestedFixes []string       `json:"suggestedFixes"`
}

func (*ResearchResult) Pass() PassName { return PassResearch }
func (*RAGResult) Pass() PassName      { return PassRAG }
func (*IdeaResult) Pass() PassName     { return PassIdea }
func (*AngleResult) Pass() PassName    { return PassAngle }
func (*OutlineResult) Pass() PassName  { return PassOutline }
func (*DraftResult) Pass() PassName    { return PassDraft }
func (*EnhanceResult) Pass() PassName  { return PassEnhance }
func (*ScoringResult) Pass() PassName  { return PassScoring }

func (*ResearchResult) isPassResult() {}
func (*RAGResult) isPassResult()      {}
func (*IdeaResult) isPassResult()     {}
func (*AngleResult) isPassResult()    {}
func (*OutlineResult) isPassResult()  {}
func (*DraftResult) isPassResult()    {}
func (*EnhanceResult) isPassResult()  {}
func (*ScoringResult) isPassResult()  {}
