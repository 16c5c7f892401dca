package v1

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/yxzhu16/helpdesk/internal/domain"
)

// Retrieve runs the retrieval engine directly, outside any chat turn. Meant
// for tuning thresholds and inspecting what the knowledge node would see.
// POST /v1/ai/retrieval
func (h *Handler) Retrieve(c echo.Context) error {
	var req domain.RetrievalRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if strings.TrimSpace(req.Query) == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "query is required"})
	}

	resp, err := h.service.Retrieve(c.Request().Context(), req)
	if err != nil {
		if strings.Contains(err.Error(), "unknown retrieval mode") {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, resp)
}

// EmbedFAQs embeds every pending FAQ row.
// POST /v1/ai/faqs/embed
func (h *Handler) EmbedFAQs(c echo.Context) error {
	embedded, pending, err := h.service.EmbedPendingFAQs(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, domain.EmbedCorpusResponse{
		Embedded: embedded,
		Pending:  pending,
	})
}
