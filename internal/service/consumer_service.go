package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"ai-postgen-be/internal/dto"
	"ai-postgen-be/internal/pkg/logger"
	"ai-postgen-be/pkg/apperror"

	"github.com/ThreeDotsLabs/watermill/message"
)

const (
	consumerModule  = "ConsumerService"
	maxEmbedAttempt = 3
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// EmbedRecorder counts processed embed messages.
type EmbedRecorder interface {
	EmbedProcessed(result string)
}

type consumerService struct {
	subscriber        message.Subscriber
	topicName         string
	similarityService ISimilarityService
	recorder          EmbedRecorder
	logger            logger.ILogger

	mu       sync.Mutex
	attempts map[string]int
}

func NewConsumerService(
	subscriber message.Subscriber,
	topicName string,
	similarityService ISimilarityService,
	recorder EmbedRecorder,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		subscriber:        subscriber,
		topicName:         topicName,
		similarityService: similarityService,
		recorder:          recorder,
		logger:            log,
		attempts:          make(map[string]int),
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.subscriber.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.PublishEmbedContentMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.logger.Error(consumerModule, "Failed to unmarshal message", map[string]interface{}{"error": err, "message_id": msg.UUID})
		cs.done(msg, "invalid")
		return
	}

	res, err := cs.similarityService.StoreEmbedding(ctx, dto.StoreEmbeddingRequest{
		PostId:   payload.PostId,
		Content:  payload.Content,
		Title:    payload.Title,
		Metadata: payload.Metadata,
	})
	if err != nil {
		var validation *apperror.ValidationError
		if errors.As(err, &validation) {
			// retrying cannot fix bad input
			cs.logger.Warn(consumerModule, "Dropping invalid embed request", map[string]interface{}{"post_id": payload.PostId, "error": err})
			cs.done(msg, "invalid")
			return
		}
		if cs.retry(msg) {
			cs.logger.Warn(consumerModule, "Embedding failed, will retry", map[string]interface{}{"post_id": payload.PostId, "error": err})
			cs.recordResult("retry")
			msg.Nack()
			return
		}
		cs.logger.Error(consumerModule, "Embedding failed, giving up", map[string]interface{}{"post_id": payload.PostId, "error": err})
		cs.done(msg, "failed")
		return
	}

	cs.logger.Info(consumerModule, "Content embedded", map[string]interface{}{
		"post_id":      payload.PostId,
		"embedding_id": res.EmbeddingId,
	})
	cs.done(msg, "stored")
}

// retry counts a failed delivery and reports whether another is allowed.
func (cs *consumerService) retry(msg *message.Message) bool {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.attempts[msg.UUID]++
	return cs.attempts[msg.UUID] < maxEmbedAttempt
}

func (cs *consumerService) done(msg *message.Message, result string) {
	cs.mu.Lock()
	delete(cs.attempts, msg.UUID)
	cs.mu.Unlock()
	cs.recordResult(result)
	msg.Ack()
}

func (cs *consumerService) recordResult(result string) {
	if cs.recorder != nil {
		cs.recorder.EmbedProcessed(result)
	}
}
