package research

import (
	"context"
	"fmt"
	"strings"

	"ai-postgen-be/pkg/llm"
)

const researchSystemPrompt = `You are a market researcher for a seafood retailer.
Summarise what a social media marketer should know about the topic: customer
interests, seasonal factors, common concerns and claims to avoid.
Answer in short bullet points. Do not invent statistics.`

// LLMProvider researches from the model's own knowledge. It never returns
// citations.
type LLMProvider struct {
	llm llm.LLMProvider
}

func NewLLMProvider(provider llm.LLMProvider) *LLMProvider {
	return &LLMProvider{llm: provider}
}

func (p *LLMProvider) Search(ctx context.Context, query string) (*Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("research query is empty")
	}

	res, err := p.llm.Generate(ctx,
		fmt.Sprintf("Topic: %s", query),
		llm.WithSystemPrompt(researchSystemPrompt),
		llm.WithTemperature(0.3),
		llm.WithMaxTokens(800),
	)
	if err != nil {
		return nil, fmt.Errorf("research completion: %w", err)
	}

	return &Result{Content: strings.TrimSpace(res.Content)}, nil
}
