package embedding

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func magnitude(v []float32) float64 {
	var m float64
	for _, x := range v {
		m += float64(x) * float64(x)
	}
	return math.Sqrt(m)
}

func TestOllamaProviderNormalizes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embeddings", r.URL.Path)
		var req ollamaEmbeddingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "nomic-embed-text", req.Model)
		fmt.Fprint(w, `{"embedding":[3,4]}`)
	}))
	defer srv.Close()

	res, err := NewOllamaProvider(srv.URL, "").Generate(context.Background(), "ghẹ", TaskRetrievalDocument)
	require.NoError(t, err)
	assert.InDelta(t, 0.6, res.Embedding.Values[0], 1e-6)
	assert.InDelta(t, 0.8, res.Embedding.Values[1], 1e-6)
}

func TestGeminiProviderSendsTaskType(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/text-embedding-004:embedContent", r.URL.Path)
		assert.Equal(t, "key", r.Header.Get("x-goog-api-key"))
		var req EmbeddingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, TaskRetrievalQuery, req.TaskType)
		fmt.Fprint(w, `{"embedding":{"values":[0.5,0.5]}}`)
	}))
	defer srv.Close()

	p := NewGeminiProvider("key")
	p.Endpoint = srv.URL
	values, err := Embed(context.Background(), p, "mực", TaskRetrievalQuery)
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, 0.5}, values)
}

func TestHashProviderIsDeterministic(t *testing.T) {
	p := NewHashProvider(64)
	a, err := Embed(context.Background(), p, "Fresh crab delivery", "")
	require.NoError(t, err)
	b, err := Embed(context.Background(), p, "fresh CRAB delivery!", "")
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.InDelta(t, 1.0, magnitude(a), 1e-6)
}

type flakyProvider struct {
	calls    atomic.Int32
	failures int32
	err      error
}

func (f *flakyProvider) Generate(ctx context.Context, text, taskType string) (*EmbeddingResponse, error) {
	if f.calls.Add(1) <= f.failures {
		return nil, f.err
	}
	return &EmbeddingResponse{Embedding: EmbeddingResponseEmbedding{Values: []float32{1}}}, nil
}

func TestRetryingProvider(t *testing.T) {
	cfg := RetryConfig{MaxTries: 3, InitialInterval: time.Millisecond}

	t.Run("retries transient failures", func(t *testing.T) {
		inner := &flakyProvider{failures: 2, err: &StatusError{Provider: "x", Code: 503}}
		_, err := NewRetryingProvider(inner, cfg).Generate(context.Background(), "t", "")
		require.NoError(t, err)
		assert.EqualValues(t, 3, inner.calls.Load())
	})

	t.Run("client errors are permanent", func(t *testing.T) {
		inner := &flakyProvider{failures: 5, err: &StatusError{Provider: "x", Code: 400}}
		_, err := NewRetryingProvider(inner, cfg).Generate(context.Background(), "t", "")
		var statusErr *StatusError
		require.True(t, errors.As(err, &statusErr))
		assert.EqualValues(t, 1, inner.calls.Load())
	})

	t.Run("gives up after max tries", func(t *testing.T) {
		inner := &flakyProvider{failures: 10, err: errors.New("connection refused")}
		_, err := NewRetryingProvider(inner, cfg).Generate(context.Background(), "t", "")
		require.Error(t, err)
		assert.EqualValues(t, 3, inner.calls.Load())
	})
}

type mapCache struct {
	mu sync.Mutex
	m  map[string][]float32
}

func (c *mapCache) Get(_ context.Context, key string) ([]float32, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.m[key]
	return v, ok, nil
}

func (c *mapCache) Set(_ context.Context, key string, value []float32, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[key] = value
	return nil
}

func TestCachedProviderMemoises(t *testing.T) {
	inner := &flakyProvider{}
	p := NewCachedProvider(inner, &mapCache{m: map[string][]float32{}}, time.Minute)

	for i := 0; i < 3; i++ {
		_, err := p.Generate(context.Background(), "tôm hùm", TaskRetrievalDocument)
		require.NoError(t, err)
	}
	assert.EqualValues(t, 1, inner.calls.Load())

	_, err := p.Generate(context.Background(), "tôm hùm", TaskRetrievalQuery)
	require.NoError(t, err)
	assert.EqualValues(t, 2, inner.calls.Load(), "task type is part of the key")
}

type gatedProvider struct {
	started chan struct{}
	release chan struct{}
}

func (g *gatedProvider) Generate(ctx context.Context, text string, taskType string) (*EmbeddingResponse, error) {
	select {
	case g.started <- struct{}{}:
	default:
	}
	select {
	case <-g.release:
		return &EmbeddingResponse{Embedding: EmbeddingResponseEmbedding{Values: []float32{0.6, 0.8}}}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func TestCachedProviderCancelledCallerDoesNotFailOthers(t *testing.T) {
	inner := &gatedProvider{started: make(chan struct{}, 1), release: make(chan struct{})}
	p := NewCachedProvider(inner, &mapCache{m: map[string][]float32{}}, time.Minute)

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := p.Generate(firstCtx, "cua gạch", TaskRetrievalQuery)
		firstErr <- err
	}()
	<-inner.started

	type result struct {
		res *EmbeddingResponse
		err error
	}
	second := make(chan result, 1)
	go func() {
		res, err := p.Generate(context.Background(), "cua gạch", TaskRetrievalQuery)
		second <- result{res, err}
	}()
	time.Sleep(20 * time.Millisecond)

	cancelFirst()
	assert.ErrorIs(t, <-firstErr, context.Canceled)

	close(inner.release)
	got := <-second
	require.NoError(t, got.err)
	assert.Equal(t, []float32{0.6, 0.8}, got.res.Embedding.Values)
}
