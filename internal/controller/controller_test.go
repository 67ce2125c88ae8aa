package controller

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"ai-postgen-be/internal/dto"
	"ai-postgen-be/internal/pkg/logger"
	"ai-postgen-be/internal/pkg/serverutils"
	"ai-postgen-be/pkg/apperror"
	"ai-postgen-be/pkg/postgen/pipeline"
	"ai-postgen-be/pkg/postgen/singlepass"
	"ai-postgen-be/pkg/store"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGeneration struct {
	events    []pipeline.Event
	streamErr error
	sessions  map[string]*store.GenerationSession
	lastReq   pipeline.Request
}

func (f *fakeGeneration) Generate(ctx context.Context, req singlepass.Request) (*singlepass.Result, error) {
	if err := serverutils.ValidateRequest(req); err != nil {
		return nil, err
	}
	return &singlepass.Result{}, nil
}

func (f *fakeGeneration) GenerateStream(ctx context.Context, req pipeline.Request) (<-chan pipeline.Event, string, error) {
	f.lastReq = req
	if f.streamErr != nil {
		return nil, "", f.streamErr
	}
	ch := make(chan pipeline.Event)
	go func() {
		defer close(ch)
		for _, ev := range f.events {
			select {
			case ch <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch, "sess-1", nil
}

func (f *fakeGeneration) GenerateMultiPass(ctx context.Context, req pipeline.Request) (*dto.MultiPassResponse, error) {
	return &dto.MultiPassResponse{SessionId: "sess-1", Title: "Cua Cà Mau", Content: "Cua gạch son"}, nil
}

func (f *fakeGeneration) GetSession(ctx context.Context, sessionID string) (*store.GenerationSession, error) {
	s, ok := f.sessions[sessionID]
	if !ok {
		return nil, apperror.ErrSessionNotFound
	}
	return s, nil
}

func (f *fakeGeneration) ListSessions(ctx context.Context) ([]dto.SessionSummary, error) {
	return []dto.SessionSummary{}, nil
}

func (f *fakeGeneration) DeleteSession(ctx context.Context, sessionID string) (bool, error) {
	_, ok := f.sessions[sessionID]
	delete(f.sessions, sessionID)
	return ok, nil
}

type recordingFanout struct {
	mu     sync.Mutex
	events []interface{}
}

func (r *recordingFanout) Send(sessionID string, event interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recordingFanout) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func newApp(register ...func(fiber.Router)) *fiber.App {
	app := fiber.New()
	app.Use(serverutils.ErrorHandlerMiddleware())
	api := app.Group("/api/content/v1")
	for _, r := range register {
		r(api)
	}
	return app
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func readSSE(t *testing.T, body io.Reader) []pipeline.Event {
	t.Helper()
	var events []pipeline.Event
	scanner := bufio.NewScanner(body)
	for scanner.Scan() {
		line, ok := strings.CutPrefix(scanner.Text(), "data: ")
		if !ok {
			continue
		}
		var raw map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(line), &raw))
		ev := pipeline.Event{Type: pipeline.EventType(raw["type"].(string))}
		if p, ok := raw["pass"].(string); ok {
			ev.Pass = store.PassName(p)
		}
		if text, ok := raw["text"].(string); ok {
			ev.Text = text
		}
		if msg, ok := raw["message"].(string); ok {
			ev.Message = msg
		}
		events = append(events, ev)
	}
	return events
}

func TestGenerateStreamWritesServerSentEvents(t *testing.T) {
	svc := &fakeGeneration{events: []pipeline.Event{
		{Type: pipeline.EventPassStart, Pass: store.PassOutline},
		{Type: pipeline.EventPassComplete, Pass: store.PassOutline, Result: &store.OutlineResult{Title: "Cua", Outline: "1. Intro"}},
		{Type: pipeline.EventPassStart, Pass: store.PassDraft},
		{Type: pipeline.EventPassChunk, Pass: store.PassDraft, Text: "Cua tươi"},
		{Type: pipeline.EventPassComplete, Pass: store.PassDraft, Result: &store.DraftResult{Draft: "Cua tươi"}},
	}}
	fanout := &recordingFanout{}
	ctl := NewGenerationController(svc, fanout, logger.NewNop())
	app := newApp(ctl.RegisterRoutes)

	resp, err := app.Test(jsonRequest("POST", "/api/content/v1/generate/stream", `{"idea":"Fresh crab delivery"}`), -1)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
	assert.Equal(t, "sess-1", resp.Header.Get(SessionHeader))

	events := readSSE(t, resp.Body)
	require.Len(t, events, 5)
	assert.Equal(t, pipeline.EventPassStart, events[0].Type)
	assert.Equal(t, store.PassOutline, events[0].Pass)
	assert.Equal(t, "Cua tươi", events[3].Text)
	assert.Equal(t, pipeline.EventPassComplete, events[4].Type)
	assert.Equal(t, "Fresh crab delivery", svc.lastReq.Idea)
	assert.Equal(t, 5, fanout.count())
}

func TestGenerateStreamReportsErrorsBeforeStreaming(t *testing.T) {
	svc := &fakeGeneration{streamErr: apperror.NewValidationError("idea", "is required when no alternative is given")}
	ctl := NewGenerationController(svc, &recordingFanout{}, logger.NewNop())
	app := newApp(ctl.RegisterRoutes)

	resp, err := app.Test(jsonRequest("POST", "/api/content/v1/generate/stream", `{}`), -1)
	require.NoError(t, err)
	assert.Equal(t, 400, resp.StatusCode)
	assert.Empty(t, resp.Header.Get(SessionHeader))

	svc.streamErr = &apperror.CacheUnavailableError{Op: "get", Cause: io.EOF}
	resp, err = app.Test(jsonRequest("POST", "/api/content/v1/generate/stream", `{"idea":"x"}`), -1)
	require.NoError(t, err)
	assert.Equal(t, 503, resp.StatusCode)
}

func TestGenerateRejectsInvalidJSON(t *testing.T) {
	ctl := NewGenerationController(&fakeGeneration{}, &recordingFanout{}, logger.NewNop())
	app := newApp(ctl.RegisterRoutes)

	resp, err := app.Test(jsonRequest("POST", "/api/content/v1/generate", `{"topic":`))
	require.NoError(t, err)
	assert.Equal(t, 400, resp.StatusCode)

	resp, err = app.Test(jsonRequest("POST", "/api/content/v1/generate", `{}`))
	require.NoError(t, err)
	assert.Equal(t, 400, resp.StatusCode)
}

func TestGenerateMultiPassWrapsResponse(t *testing.T) {
	ctl := NewGenerationController(&fakeGeneration{}, &recordingFanout{}, logger.NewNop())
	app := newApp(ctl.RegisterRoutes)

	resp, err := app.Test(jsonRequest("POST", "/api/content/v1/generate/multipass", `{"idea":"crab"}`))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var out struct {
		Success bool                  `json:"success"`
		Data    dto.MultiPassResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.True(t, out.Success)
	assert.Equal(t, "Cua Cà Mau", out.Data.Title)
}

func TestGenerateSocketRequiresUpgrade(t *testing.T) {
	ctl := NewGenerationController(&fakeGeneration{}, &recordingFanout{}, logger.NewNop())
	app := newApp(ctl.RegisterRoutes)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/content/v1/generate/ws", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUpgradeRequired, resp.StatusCode)
}

func TestSessionRoutes(t *testing.T) {
	session := store.NewSession("s1", &store.SessionMetadata{Idea: "crab"}, time.Now(), time.Hour)
	svc := &fakeGeneration{sessions: map[string]*store.GenerationSession{"s1": session}}
	ctl := NewSessionController(svc)
	app := newApp(ctl.RegisterRoutes)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/content/v1/sessions/s1", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/api/content/v1/sessions/missing", nil))
	require.NoError(t, err)
	assert.Equal(t, 404, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("DELETE", "/api/content/v1/sessions/s1", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("DELETE", "/api/content/v1/sessions/s1", nil))
	require.NoError(t, err)
	assert.Equal(t, 404, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/api/content/v1/sessions", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
}
