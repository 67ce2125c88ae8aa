package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, 45*time.Minute, cfg.Generation.SessionTTL)
	assert.Equal(t, 0.8, cfg.Generation.SimilarityThreshold)
	assert.Equal(t, 0.8, cfg.Generation.PrefilterFactor)
	assert.Equal(t, 3, cfg.Generation.SimilarityLimit)
	assert.Equal(t, "memory", cfg.Generation.CacheBackend)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SESSION_TTL", "30m")
	t.Setenv("SIMILARITY_PREFILTER_FACTOR", "1")
	t.Setenv("GENERATION_OPTIONAL_PASSES", " Research, rag ,,scoring")
	t.Setenv("OTEL_ENABLED", "true")
	t.Setenv("RAG_LIMIT", "not-a-number")

	cfg := Load()

	assert.Equal(t, 30*time.Minute, cfg.Generation.SessionTTL)
	assert.Equal(t, 1.0, cfg.Generation.PrefilterFactor)
	assert.Equal(t, []string{"research", "rag", "scoring"}, cfg.Generation.OptionalPasses)
	assert.True(t, cfg.App.OtelEnabled)
	assert.Equal(t, 3, cfg.Generation.RAGLimit)
}
