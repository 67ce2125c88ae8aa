package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ai-postgen-be/internal/dto"
	"ai-postgen-be/internal/pkg/logger"
	"ai-postgen-be/pkg/events"
	pktNats "ai-postgen-be/pkg/nats"
	"ai-postgen-be/pkg/postgen/pipeline"
	"ai-postgen-be/pkg/store"
)

const contentEventModule = "ContentEventService"

// EventPublisher is implemented by the NATS publisher.
type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

// EventSubscriber is implemented by the NATS subscriber.
type EventSubscriber interface {
	Subscribe(subject string, durableName string, handler pktNats.EventHandler) error
}

// ContentEventService connects generation to the rest of the system: it
// queues finished posts for embedding, announces them on the event bus and
// removes embeddings when their content is deleted elsewhere.
type ContentEventService struct {
	publisher  IPublisherService
	events     EventPublisher
	subscriber EventSubscriber
	similarity ISimilarityService
	audit      logger.ILogger
	logger     logger.ILogger
	now        func() time.Time
}

var _ pipeline.CompletionHook = &ContentEventService{}

func NewContentEventService(
	publisher IPublisherService,
	eventPublisher EventPublisher,
	subscriber EventSubscriber,
	similarity ISimilarityService,
	audit logger.ILogger,
	log logger.ILogger,
) *ContentEventService {
	return &ContentEventService{
		publisher:  publisher,
		events:     eventPublisher,
		subscriber: subscriber,
		similarity: similarity,
		audit:      audit,
		logger:     log,
		now:        time.Now,
	}
}

// GenerationCompleted queues the final content for embedding when the
// request names a post, then publishes CONTENT_GENERATED.
func (s *ContentEventService) GenerationCompleted(ctx context.Context, req pipeline.Request, session *store.GenerationSession) error {
	content := session.FinalContent()
	title := ""
	if session.OutlinePass != nil {
		title = session.OutlinePass.Title
	}
	score := 0
	if session.ScoringPass != nil {
		score = session.ScoringPass.Score
	}

	s.audit.Info(contentEventModule, "Generation completed", map[string]interface{}{
		"session_id":  session.SessionID,
		"post_id":     req.PostID,
		"idea":        session.Metadata.Idea,
		"title":       title,
		"content_len": len([]rune(content)),
		"score":       score,
	})

	if req.PostID != "" && content != "" && s.publisher != nil {
		metadata := map[string]string{}
		if req.PlatformHint != "" {
			metadata[store.MetaPlatform] = req.PlatformHint
		}
		if req.Topic != "" {
			metadata[store.MetaTopic] = req.Topic
		}
		if req.ProductID != "" {
			metadata[store.MetaProductID] = req.ProductID
		}

		payload, err := json.Marshal(dto.PublishEmbedContentMessage{
			PostId:   req.PostID,
			Content:  content,
			Title:    title,
			Metadata: metadata,
		})
		if err != nil {
			return err
		}
		if err := s.publisher.Publish(ctx, payload); err != nil {
			return fmt.Errorf("queue embedding for post %s: %w", req.PostID, err)
		}
	}

	if s.events != nil {
		evt := events.NewContentGenerated(session.SessionID, req.PostID, title, score, s.now())
		// the event is auxiliary; a bus outage must not fail the generation
		if err := s.events.Publish(ctx, evt); err != nil {
			s.logger.Warn(contentEventModule, "Failed to publish CONTENT_GENERATED", map[string]interface{}{
				"session_id": session.SessionID,
				"error":      err,
			})
		}
	}
	return nil
}

// Start listens for CONTENT_DELETED events.
func (s *ContentEventService) Start() {
	if s.subscriber == nil {
		s.logger.Warn(contentEventModule, "No event subscriber configured, cascade delete disabled", nil)
		return
	}
	err := s.subscriber.Subscribe(pktNats.Subject(events.ContentDeleted), "postgen-content-deleted", s.handleContentDeleted)
	if err != nil {
		s.logger.Error(contentEventModule, "Failed to start content event subscriber", map[string]interface{}{"error": err})
		return
	}
	s.logger.Info(contentEventModule, "Listening for content deletions", nil)
}

func (s *ContentEventService) handleContentDeleted(ctx context.Context, event events.Event) error {
	resourceID := events.StringField(event, "resource_id")
	if resourceID == "" {
		resourceID = events.StringField(event, "post_id")
	}
	if resourceID == "" {
		s.logger.Warn(contentEventModule, "CONTENT_DELETED without resource id", map[string]interface{}{"payload": event.Payload()})
		return nil
	}

	deleted, err := s.similarity.DeleteByResourceID(ctx, resourceID)
	if err != nil {
		return err
	}
	s.audit.Info(contentEventModule, "Embeddings removed for deleted content", map[string]interface{}{
		"resource_id": resourceID,
		"deleted":     deleted,
	})
	return nil
}
