package controller

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"

	"ai-postgen-be/internal/pkg/logger"
	"ai-postgen-be/internal/pkg/serverutils"
	"ai-postgen-be/internal/service"
	"ai-postgen-be/pkg/postgen/pipeline"
	"ai-postgen-be/pkg/postgen/singlepass"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// SessionHeader carries the session id of a streamed run.
const SessionHeader = "X-Session-Id"

// EventFanout mirrors stream events to other listeners of a session.
type EventFanout interface {
	Send(sessionID string, event interface{})
}

type IGenerationController interface {
	RegisterRoutes(r fiber.Router)
	Generate(ctx *fiber.Ctx) error
	GenerateMultiPass(ctx *fiber.Ctx) error
	GenerateStream(ctx *fiber.Ctx) error
	GenerateSocket(conn *websocket.Conn)
}

type generationController struct {
	generationService service.IGenerationService
	fanout            EventFanout
	logger            logger.ILogger
}

func NewGenerationController(generationService service.IGenerationService, fanout EventFanout, log logger.ILogger) IGenerationController {
	return &generationController{
		generationService: generationService,
		fanout:            fanout,
		logger:            log,
	}
}

func (c *generationController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/generate")
	h.Post("", c.Generate)
	h.Post("multipass", c.GenerateMultiPass)
	h.Post("stream", c.GenerateStream)
	h.Get("ws", upgradeOnly, websocket.New(c.GenerateSocket))
}

func (c *generationController) Generate(ctx *fiber.Ctx) error {
	var req singlepass.Request
	if err := parseBody(ctx, &req); err != nil {
		return err
	}

	res, err := c.generationService.Generate(ctx.UserContext(), req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success generate content", res))
}

func (c *generationController) GenerateMultiPass(ctx *fiber.Ctx) error {
	var req pipeline.Request
	if err := parseBody(ctx, &req); err != nil {
		return err
	}

	res, err := c.generationService.GenerateMultiPass(ctx.UserContext(), req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success generate content", res))
}

// GenerateStream answers with server-sent events. Request and cache errors
// are reported as ordinary JSON errors before the stream starts.
func (c *generationController) GenerateStream(ctx *fiber.Ctx) error {
	var req pipeline.Request
	if err := parseBody(ctx, &req); err != nil {
		return err
	}

	// The body writer outlives this handler, so the run cannot use the request context.
	streamCtx, cancel := context.WithCancel(context.Background())
	events, sessionID, err := c.generationService.GenerateStream(streamCtx, req)
	if err != nil {
		cancel()
		return err
	}

	ctx.Set(fiber.HeaderContentType, "text/event-stream")
	ctx.Set(fiber.HeaderCacheControl, "no-cache")
	ctx.Set(fiber.HeaderConnection, "keep-alive")
	ctx.Set(SessionHeader, sessionID)

	ctx.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer cancel()
		for ev := range events {
			c.fanout.Send(sessionID, ev)
			if err := writeEvent(w, ev); err != nil {
				c.logger.Warn("GenerationController", "Stream client went away", map[string]interface{}{
					"session_id": sessionID,
					"error":      err.Error(),
				})
				return
			}
		}
	})
	return nil
}

type socketMessage struct {
	SessionId string         `json:"sessionId"`
	Event     pipeline.Event `json:"event"`
}

// GenerateSocket reads one request and streams the run's events back.
func (c *generationController) GenerateSocket(conn *websocket.Conn) {
	defer conn.Close()

	var req pipeline.Request
	if err := conn.ReadJSON(&req); err != nil {
		conn.WriteJSON(socketMessage{Event: pipeline.Event{Type: pipeline.EventError, Message: "request must be a JSON object"}})
		return
	}

	runCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, sessionID, err := c.generationService.GenerateStream(runCtx, req)
	if err != nil {
		conn.WriteJSON(socketMessage{SessionId: req.SessionID, Event: pipeline.Event{Type: pipeline.EventError, Message: err.Error()}})
		return
	}

	for ev := range events {
		c.fanout.Send(sessionID, ev)
		if err := conn.WriteJSON(socketMessage{SessionId: sessionID, Event: ev}); err != nil {
			c.logger.Warn("GenerationController", "Socket client went away", map[string]interface{}{
				"session_id": sessionID,
				"error":      err.Error(),
			})
			return
		}
	}
}

func writeEvent(w *bufio.Writer, ev pipeline.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
		return err
	}
	return w.Flush()
}

func upgradeOnly(ctx *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(ctx) {
		return ctx.Next()
	}
	return fiber.ErrUpgradeRequired
}
