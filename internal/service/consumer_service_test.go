package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"ai-postgen-be/internal/dto"
	"ai-postgen-be/internal/pkg/logger"
	"ai-postgen-be/internal/repository/memory"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type resultCounter struct {
	mu     sync.Mutex
	counts map[string]int
}

func (r *resultCounter) EmbedProcessed(result string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counts[result]++
}

func (r *resultCounter) get(result string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counts[result]
}

// flakySimilarity fails StoreEmbedding a fixed number of times.
type flakySimilarity struct {
	ISimilarityService
	mu       sync.Mutex
	failures int
	calls    int
}

func (f *flakySimilarity) StoreEmbedding(_ context.Context, _ dto.StoreEmbeddingRequest) (*dto.StoreEmbeddingResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.calls <= f.failures {
		return nil, errors.New("embedding service unavailable")
	}
	return &dto.StoreEmbeddingResponse{Success: true, EmbeddingId: "id"}, nil
}

func (f *flakySimilarity) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func newPubSub() *gochannel.GoChannel {
	return gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
}

func publishEmbed(t *testing.T, pub IPublisherService, msg dto.PublishEmbedContentMessage) {
	t.Helper()
	payload, err := json.Marshal(msg)
	require.NoError(t, err)
	require.NoError(t, pub.Publish(context.Background(), payload))
}

func TestConsumerStoresPublishedContent(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pubSub := newPubSub()
	defer pubSub.Close()
	vectors := memory.NewVectorStore()
	counter := &resultCounter{counts: map[string]int{}}

	consumer := NewConsumerService(pubSub, "embed", newSimilarity(vectors, nil), counter, logger.NewNop())
	require.NoError(t, consumer.Consume(ctx))

	publishEmbed(t, NewPublisherService("embed", pubSub), dto.PublishEmbedContentMessage{PostId: "post-1", Content: "Cua tươi", Title: "Cua"})

	assert.Eventually(t, func() bool {
		n, _ := vectors.CountByPostID(ctx, "post-1")
		return n == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, counter.get("stored"))
}

func TestConsumerRetriesThenGivesUp(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pubSub := newPubSub()
	defer pubSub.Close()
	flaky := &flakySimilarity{failures: 10}
	counter := &resultCounter{counts: map[string]int{}}

	consumer := NewConsumerService(pubSub, "embed", flaky, counter, logger.NewNop())
	require.NoError(t, consumer.Consume(ctx))

	publishEmbed(t, NewPublisherService("embed", pubSub), dto.PublishEmbedContentMessage{PostId: "post-1", Content: "x"})

	assert.Eventually(t, func() bool { return counter.get("failed") == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, maxEmbedAttempt, flaky.callCount())
	assert.Equal(t, maxEmbedAttempt-1, counter.get("retry"))
}

func TestConsumerAcksInvalidPayloads(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pubSub := newPubSub()
	defer pubSub.Close()
	counter := &resultCounter{counts: map[string]int{}}

	consumer := NewConsumerService(pubSub, "embed", newSimilarity(memory.NewVectorStore(), nil), counter, logger.NewNop())
	require.NoError(t, consumer.Consume(ctx))

	pub := NewPublisherService("embed", pubSub)
	require.NoError(t, pub.Publish(ctx, []byte("{broken")))
	publishEmbed(t, pub, dto.PublishEmbedContentMessage{PostId: "post-1"})

	assert.Eventually(t, func() bool { return counter.get("invalid") == 2 }, 2*time.Second, 10*time.Millisecond)
}
