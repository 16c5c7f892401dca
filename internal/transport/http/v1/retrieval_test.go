package v1

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/yxzhu16/helpdesk/internal/domain"
)

func TestRetrieveEndpoint(t *testing.T) {
	e := echo.New()
	h, db := newTestHandler(t)
	ctx := context.Background()

	faq := &domain.FAQ{Question: "How do I reset my password?", Answer: "Use the reset link."}
	assert.NoError(t, db.CreateFAQ(ctx, faq))

	// Embed the corpus first.
	c, rec := postJSON(e, "/v1/ai/faqs/embed", nil)
	assert.NoError(t, h.EmbedFAQs(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var embedResp domain.EmbedCorpusResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &embedResp))
	assert.Equal(t, 1, embedResp.Embedded)
	assert.Equal(t, 0, embedResp.Pending)

	// The mock gateway embeds equal texts equally; query with the exact
	// corpus text to get a guaranteed hit.
	c, rec = postJSON(e, "/v1/ai/retrieval", domain.RetrievalRequest{
		Query: "Q: How do I reset my password?\n\nA: Use the reset link.",
	})
	assert.NoError(t, h.Retrieve(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp domain.RetrievalResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, domain.RetrievalModeVector, resp.Mode)
	assert.Equal(t, 1, resp.Count)
}

func TestRetrieveEndpointValidation(t *testing.T) {
	e := echo.New()
	h, _ := newTestHandler(t)

	t.Run("missing query", func(t *testing.T) {
		c, rec := postJSON(e, "/v1/ai/retrieval", domain.RetrievalRequest{})
		assert.NoError(t, h.Retrieve(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown mode", func(t *testing.T) {
		c, rec := postJSON(e, "/v1/ai/retrieval", domain.RetrievalRequest{Query: "q", Mode: "fulltext"})
		assert.NoError(t, h.Retrieve(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("stub mode returns empty", func(t *testing.T) {
		c, rec := postJSON(e, "/v1/ai/retrieval", domain.RetrievalRequest{Query: "q", Mode: "bm25"})
		assert.NoError(t, h.Retrieve(c))
		assert.Equal(t, http.StatusOK, rec.Code)

		var resp domain.RetrievalResponse
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, 0, resp.Count)
	})
}

func TestGetSessionMessages(t *testing.T) {
	e := echo.New()
	h, db := newTestHandler(t)
	ctx := context.Background()

	sid, err := db.EnsureSession(ctx, "")
	assert.NoError(t, err)
	_, err = db.BeginTurn(ctx, sid, "t1", "hello")
	assert.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/v1/sessions/"+sid+"/messages", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("session_id")
	c.SetParamValues(sid)

	assert.NoError(t, h.GetSessionMessages(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Messages []domain.Message `json:"messages"`
		HasMore  bool             `json:"has_more"`
	}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Messages, 2)
	assert.False(t, resp.HasMore)
}

func TestGetSessionMessagesNonPositiveLimit(t *testing.T) {
	e := echo.New()
	h, db := newTestHandler(t)
	ctx := context.Background()

	sid, err := db.EnsureSession(ctx, "")
	assert.NoError(t, err)
	// 26 turns = 52 rows, past the default page of 50.
	for i := 0; i < 26; i++ {
		_, err = db.BeginTurn(ctx, sid, fmt.Sprintf("t%d", i), "hello")
		assert.NoError(t, err)
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/sessions/"+sid+"/messages?limit=-3", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("session_id")
	c.SetParamValues(sid)

	assert.NoError(t, h.GetSessionMessages(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Messages []domain.Message `json:"messages"`
		HasMore  bool             `json:"has_more"`
	}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	// A negative limit falls back to the default page instead of dumping
	// the whole session.
	assert.Len(t, resp.Messages, 50)
	assert.True(t, resp.HasMore)
}
