package nats

import (
	"testing"
	"time"

	"ai-postgen-be/pkg/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeRestoresTypeAndTimestamp(t *testing.T) {
	evt, err := Decode("events.CONTENT_DELETED", []byte(`{"resource_id": "post-9", "occurred_at": "2026-03-01T09:00:00Z"}`))
	require.NoError(t, err)

	assert.Equal(t, events.ContentDeleted, evt.EventType())
	assert.Equal(t, "post-9", events.StringField(evt, "resource_id"))
	assert.Equal(t, time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC), evt.Timestamp())
	assert.NotContains(t, evt.Payload(), "occurred_at")
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := Decode("events.CONTENT_DELETED", []byte("not json"))
	assert.Error(t, err)
}

func TestSubject(t *testing.T) {
	assert.Equal(t, "events.CONTENT_GENERATED", Subject(events.ContentGenerated))
}
