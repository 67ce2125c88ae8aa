package events

import "time"

// Event types published by the generation service.
const (
	ContentGenerated = "CONTENT_GENERATED"
	ContentDeleted   = "CONTENT_DELETED"
)

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "CONTENT_GENERATED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// NewContentGenerated announces a finished generation.
func NewContentGenerated(sessionID, postID, title string, score int, at time.Time) BaseEvent {
	return BaseEvent{
		Type: ContentGenerated,
		Data: map[string]interface{}{
			"session_id": sessionID,
			"post_id":    postID,
			"title":      title,
			"score":      score,
		},
		OccurredAt: at,
	}
}

// StringField reads a string payload value, "" when missing.
func StringField(e Event, key string) string {
	v, _ := e.Payload()[key].(string)
	return v
}
