package factory

import (
	"context"
	"testing"

	"ai-postgen-be/pkg/llm/huggingface"
	"ai-postgen-be/pkg/llm/ollama"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLLMProvider(t *testing.T) {
	p, err := NewLLMProvider(context.Background(), Config{Provider: "ollama", Model: "qwen2.5"})
	require.NoError(t, err)
	assert.IsType(t, &ollama.OllamaProvider{}, p)

	p, err = NewLLMProvider(context.Background(), Config{Provider: "openai", Model: "gpt"})
	require.NoError(t, err)
	assert.IsType(t, &huggingface.HuggingFaceProvider{}, p)

	_, err = NewLLMProvider(context.Background(), Config{Provider: "gemini"})
	assert.Error(t, err, "gemini needs an api key")

	_, err = NewLLMProvider(context.Background(), Config{Provider: "bard"})
	assert.Error(t, err)
}
