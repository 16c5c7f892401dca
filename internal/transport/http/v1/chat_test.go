package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/yxzhu16/helpdesk/internal/domain"
)

func postJSON(e *echo.Echo, path string, body interface{}) (echo.Context, *httptest.ResponseRecorder) {
	data, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestNewChat(t *testing.T) {
	e := echo.New()
	h, db := newTestHandler(t)

	c, rec := postJSON(e, "/v1/ai/chat/new", domain.NewChatRequest{})
	err := h.NewChat(c)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp domain.NewChatResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.SessionID)

	session, err := db.GetSession(context.Background(), resp.SessionID)
	assert.NoError(t, err)
	assert.NotNil(t, session)
}

func TestChatStreamsAnswer(t *testing.T) {
	e := echo.New()
	h, db := newTestHandler(t)

	c, rec := postJSON(e, "/v1/ai/chat", domain.ChatRequest{Message: "hello"})
	c.Response().Header().Set(echo.HeaderXRequestID, "req-1")

	err := h.Chat(c)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Body.String())

	sessionID := rec.Header().Get("X-Session-Id")
	assert.NotEmpty(t, sessionID)

	msgs, err := db.GetRecentMessages(context.Background(), sessionID, 10)
	assert.NoError(t, err)
	assert.Len(t, msgs, 2)
	for _, m := range msgs {
		assert.True(t, m.IsCompleted)
		assert.Equal(t, "req-1", m.TurnID)
	}
}

func TestChatRAGStreamsAnswer(t *testing.T) {
	e := echo.New()
	h, db := newTestHandler(t)

	c, rec := postJSON(e, "/v1/ai/chat/rag", domain.ChatRequest{Message: "how do I reset my password"})
	c.Response().Header().Set(echo.HeaderXRequestID, "req-2")

	err := h.ChatRAG(c)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Body.String())

	sessionID := rec.Header().Get("X-Session-Id")
	msgs, err := db.GetRecentMessages(context.Background(), sessionID, 10)
	assert.NoError(t, err)
	assert.Len(t, msgs, 2)
}

func TestChatReusesSession(t *testing.T) {
	e := echo.New()
	h, _ := newTestHandler(t)

	c, rec := postJSON(e, "/v1/ai/chat", domain.ChatRequest{Message: "first"})
	assert.NoError(t, h.Chat(c))
	sessionID := rec.Header().Get("X-Session-Id")

	c2, rec2 := postJSON(e, "/v1/ai/chat", domain.ChatRequest{SessionID: sessionID, Message: "second"})
	assert.NoError(t, h.Chat(c2))
	assert.Equal(t, sessionID, rec2.Header().Get("X-Session-Id"))
}

func TestChatValidation(t *testing.T) {
	e := echo.New()
	h, _ := newTestHandler(t)

	t.Run("empty message", func(t *testing.T) {
		c, rec := postJSON(e, "/v1/ai/chat", domain.ChatRequest{Message: "   "})
		assert.NoError(t, h.Chat(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("oversized message", func(t *testing.T) {
		c, rec := postJSON(e, "/v1/ai/chat", domain.ChatRequest{Message: strings.Repeat("x", domain.MaxChatMessageLen+1)})
		assert.NoError(t, h.Chat(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/v1/ai/chat", strings.NewReader("{not json"))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		assert.NoError(t, h.Chat(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHealth(t *testing.T) {
	e := echo.New()
	h, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	assert.NoError(t, h.Health(c))
	assert.Equal(t, http.StatusOK, rec.Code)
}
