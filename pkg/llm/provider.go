package llm

import (
	"context"
)

// Message represents a chat message in a provider-agnostic format
type Message struct {
	Role    string // "user", "assistant", "system"
	Content string
}

// Option allows for optional parameters like Temperature, MaxTokens, etc.
type Option func(*Options)

type Options struct {
	Temperature  float64
	MaxTokens    int
	Model        string // Override default model
	SystemPrompt string
	JSON         bool // Ask the backend for strict JSON output
}

func WithTemperature(temp float64) Option {
	return func(o *Options) {
		o.Temperature = temp
	}
}

func WithModel(model string) Option {
	return func(o *Options) {
		o.Model = model
	}
}

func WithMaxTokens(n int) Option {
	return func(o *Options) {
		o.MaxTokens = n
	}
}

func WithSystemPrompt(prompt string) Option {
	return func(o *Options) {
		o.SystemPrompt = prompt
	}
}

func WithJSONFormat() Option {
	return func(o *Options) {
		o.JSON = true
	}
}

// ApplyOptions resolves opts on top of the provider defaults.
func ApplyOptions(defaults Options, opts ...Option) Options {
	o := defaults
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Usage reports token accounting for one completion.
type Usage struct {
	InputTokens  int `json:"inputTokens"`
	OutputTokens int `json:"outputTokens"`
}

// Completion is the result of a blocking call.
type Completion struct {
	Content string
	Usage   Usage
	Model   string
}

// Chunk is one piece of a streamed completion. A chunk carrying Err is the
// last value sent before the channel closes.
type Chunk struct {
	Text string
	Err  error
}

// LLMProvider defines the contract for any LLM backend
type LLMProvider interface {
	// Generate sends a single prompt to the model and waits for the full answer
	Generate(ctx context.Context, prompt string, options ...Option) (*Completion, error)

	// Stream sends a single prompt and delivers the answer as it is produced.
	// The channel is closed when the model finishes, fails, or ctx is done.
	Stream(ctx context.Context, prompt string, options ...Option) (<-chan Chunk, error)
}

// BuildMessages turns a prompt and optional system prompt into a chat history.
func BuildMessages(prompt string, o Options) []Message {
	history := make([]Message, 0, 2)
	if o.SystemPrompt != "" {
		history = append(history, Message{Role: "system", Content: o.SystemPrompt})
	}
	return append(history, Message{Role: "user", Content: prompt})
}
