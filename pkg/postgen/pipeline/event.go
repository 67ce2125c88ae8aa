package pipeline

import "ai-postgen-be/pkg/store"

type EventType string

const (
	EventPassStart    EventType = "pass-start"
	EventPassChunk    EventType = "pass-chunk"
	EventPassComplete EventType = "pass-complete"
	EventError        EventType = "error"
)

// Event is one element of a generation stream. Which fields are set
// depends on Type.
type Event struct {
	Type    EventType        `json:"type"`
	Pass    store.PassName   `json:"pass,omitempty"`
	Text    string           `json:"text,omitempty"`
	Result  store.PassResult `json:"result,omitempty"`
	Message string           `json:"message,omitempty"`
}

func passStart(name store.PassName) Event {
	return Event{Type: EventPassStart, Pass: name}
}

func passChunk(name store.PassName, text string) Event {
	return Event{Type: EventPassChunk, Pass: name, Text: text}
}

func passComplete(result store.PassResult) Event {
	return Event{Type: EventPassComplete, Pass: result.Pass(), Result: result}
}

func errorEvent(err error) Event {
	return Event{Type: EventError, Message: err.Error()}
}
