// Package v1 provides the v1 HTTP handlers for the helpdesk orchestrator.
package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/yxzhu16/helpdesk/internal/service"
)

// Handler handles HTTP requests.
type Handler struct {
	service *service.Service
}

// NewHandler creates a new handler.
func NewHandler(service *service.Service) *Handler {
	return &Handler{
		service: service,
	}
}

// RegisterRoutes registers routes with the echo server.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	// Chat API
	e.POST("/v1/ai/chat", h.Chat)
	e.POST("/v1/ai/chat/rag", h.ChatRAG)
	e.POST("/v1/ai/chat/new", h.NewChat)

	// Knowledge base API
	e.POST("/v1/ai/retrieval", h.Retrieve)
	e.POST("/v1/ai/faqs/embed", h.EmbedFAQs)

	// Session API
	e.GET("/v1/sessions/:session_id/messages", h.GetSessionMessages)

	e.GET("/health", h.Health)
}

// Health returns health status.
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": "0.1.0",
	})
}
