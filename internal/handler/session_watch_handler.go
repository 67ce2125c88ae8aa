package handler

import (
	"ai-postgen-be/internal/pkg/logger"
	"ai-postgen-be/internal/repository/contract"
	internalWS "ai-postgen-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// SessionWatchHandler lets clients follow a generation session started
// elsewhere, on this or another instance.
type SessionWatchHandler struct {
	sessions contract.SessionRepository
	hub      *internalWS.Hub
	logger   logger.ILogger
}

func NewSessionWatchHandler(sessions contract.SessionRepository, hub *internalWS.Hub, log logger.ILogger) *SessionWatchHandler {
	return &SessionWatchHandler{
		sessions: sessions,
		hub:      hub,
		logger:   log,
	}
}

func (h *SessionWatchHandler) RegisterRoutes(r fiber.Router) {
	r.Get("/sessions/:id/watch", h.ServeWs)
}

// ServeWs checks the session exists and then upgrades the connection.
func (h *SessionWatchHandler) ServeWs(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	sessionID := c.Params("id")
	if _, err := h.sessions.Get(c.UserContext(), sessionID); err != nil {
		return err
	}

	return websocket.New(func(conn *websocket.Conn) {
		h.logger.Info("SessionWatchHandler", "Watcher connected", map[string]interface{}{"session_id": sessionID})
		internalWS.ServeWs(h.hub, conn, sessionID)
		h.logger.Info("SessionWatchHandler", "Watcher disconnected", map[string]interface{}{"session_id": sessionID})
	})(c)
}
