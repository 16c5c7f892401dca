package v1

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/yxzhu16/helpdesk/internal/domain"
	"github.com/yxzhu16/helpdesk/internal/graph"
	"github.com/yxzhu16/helpdesk/internal/service"
)

type chatRunner func(ctx context.Context, sessionID, turnID, message string, emit graph.EmitFunc) (*service.ChatResult, error)

// Chat handles a plain chat turn (history plus completion, no orchestration).
// POST /v1/ai/chat
func (h *Handler) Chat(c echo.Context) error {
	return h.runChat(c, h.service.PlainChat)
}

// ChatRAG handles an orchestrated chat turn through the supervisor graph.
// POST /v1/ai/chat/rag
func (h *Handler) ChatRAG(c echo.Context) error {
	return h.runChat(c, h.service.Chat)
}

// runChat binds the request, streams the answer as chunked plain text and
// finalizes the turn. The response carries the session id and the request id
// (the turn id) as headers so the client can correlate before the first byte
// of the answer arrives.
func (h *Handler) runChat(c echo.Context, run chatRunner) error {
	var req domain.ChatRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if strings.TrimSpace(req.Message) == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "message is required"})
	}
	if len(req.Message) > domain.MaxChatMessageLen {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "message too long"})
	}

	ctx := c.Request().Context()
	turnID := c.Response().Header().Get(echo.HeaderXRequestID)

	// The session may be created inside the service; resolve it first so the
	// header is correct even for a fresh conversation.
	sessionID, err := h.service.EnsureSession(ctx, req.SessionID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	resp := c.Response()
	resp.Header().Set(echo.HeaderContentType, "text/plain; charset=utf-8")
	resp.Header().Set("X-Session-Id", sessionID)
	resp.WriteHeader(http.StatusOK)

	emit := func(delta string) error {
		if _, err := resp.Write([]byte(delta)); err != nil {
			return err
		}
		resp.Flush()
		return nil
	}

	if _, err := run(ctx, sessionID, turnID, req.Message, emit); err != nil {
		// Headers are already out; the client sees a truncated body and the
		// assistant row stays incomplete.
		c.Logger().Errorf("chat turn %s failed: %v", turnID, err)
		return nil
	}
	return nil
}

// NewChat allocates a fresh session.
// POST /v1/ai/chat/new
func (h *Handler) NewChat(c echo.Context) error {
	sessionID, err := h.service.NewSession(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	c.Response().Header().Set("X-Session-Id", sessionID)
	return c.JSON(http.StatusOK, domain.NewChatResponse{SessionID: sessionID})
}
