package v1

import (
	"context"
	"testing"
	"time"

	"github.com/yxzhu16/helpdesk/internal/config"
	"github.com/yxzhu16/helpdesk/internal/llm"
	"github.com/yxzhu16/helpdesk/internal/policy"
	"github.com/yxzhu16/helpdesk/internal/prompts"
	"github.com/yxzhu16/helpdesk/internal/retrieval"
	"github.com/yxzhu16/helpdesk/internal/service"
	"github.com/yxzhu16/helpdesk/internal/store"
	"github.com/yxzhu16/helpdesk/internal/tools"
)

func newTestHandler(t *testing.T) (*Handler, *store.SQLiteStore) {
	t.Helper()

	db, err := store.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	cfg := &config.Config{
		LLMModel:           "test-model",
		LLMTimeout:         5 * time.Second,
		EmbeddingModel:     "test-embedding",
		EmbedDim:           8,
		HistoryMaxMessages: 50,
		HistoryMaxRounds:   5,
		RetrievalTopK:      5,
		RetrievalThreshold: 0.6,
	}

	gateway := llm.NewMockClient()
	engine := retrieval.NewEngine(db, gateway, cfg.EmbeddingModel, cfg.EmbedDim)
	registry := tools.NewTicketRegistry(db)

	pol, err := policy.NewEngine(context.Background(), policy.DefaultPolicy)
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}

	svc := service.New(cfg, db, gateway, prompts.Defaults(), engine, registry, pol)
	return NewHandler(svc), db
}
