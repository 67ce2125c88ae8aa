// Package mock provides a scripted llm.LLMProvider for tests and offline runs.
package mock

import (
	"context"
	"strings"
	"sync"

	"ai-postgen-be/pkg/llm"
)

// Responder picks the answer for a prompt. Returning an error fails the call.
type Responder func(prompt string, opts llm.Options) (string, error)

// Call records one invocation.
type Call struct {
	Prompt  string
	Options llm.Options
	Stream  bool
}

// Provider answers from a Responder and records every call.
type Provider struct {
	respond   Responder
	chunkSize int

	mu    sync.Mutex
	calls []Call
}

var _ llm.LLMProvider = &Provider{}

func New(respond Responder) *Provider {
	return &Provider{respond: respond, chunkSize: 16}
}

// Static always answers with text.
func Static(text string) *Provider {
	return New(func(string, llm.Options) (string, error) { return text, nil })
}

// WithChunkSize controls how streamed answers are split.
func (p *Provider) WithChunkSize(n int) *Provider {
	if n > 0 {
		p.chunkSize = n
	}
	return p
}

func (p *Provider) Calls() []Call {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Call, len(p.calls))
	copy(out, p.calls)
	return out
}

func (p *Provider) answer(ctx context.Context, prompt string, stream bool, options []llm.Option) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	opts := llm.ApplyOptions(llm.Options{Model: "mock"}, options...)

	p.mu.Lock()
	p.calls = append(p.calls, Call{Prompt: prompt, Options: opts, Stream: stream})
	p.mu.Unlock()

	return p.respond(prompt, opts)
}

func (p *Provider) Generate(ctx context.Context, prompt string, options ...llm.Option) (*llm.Completion, error) {
	text, err := p.answer(ctx, prompt, false, options)
	if err != nil {
		return nil, err
	}
	return &llm.Completion{
		Content: text,
		Model:   "mock",
		Usage:   llm.Usage{InputTokens: len(strings.Fields(prompt)), OutputTokens: len(strings.Fields(text))},
	}, nil
}

func (p *Provider) Stream(ctx context.Context, prompt string, options ...llm.Option) (<-chan llm.Chunk, error) {
	text, err := p.answer(ctx, prompt, true, options)
	if err != nil {
		return nil, err
	}

	runes := []rune(text)
	out := make(chan llm.Chunk)
	go func() {
		defer close(out)
		for start := 0; start < len(runes); start += p.chunkSize {
			end := min(start+p.chunkSize, len(runes))
			select {
			case out <- llm.Chunk{Text: string(runes[start:end])}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}
