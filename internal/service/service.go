// Package service wires storage, the completion gateway, retrieval and the
// orchestration graph into the operations the HTTP layer exposes.
package service

import (
	"context"

	"github.com/yxzhu16/helpdesk/internal/config"
	"github.com/yxzhu16/helpdesk/internal/domain"
	"github.com/yxzhu16/helpdesk/internal/llm"
	"github.com/yxzhu16/helpdesk/internal/policy"
	"github.com/yxzhu16/helpdesk/internal/prompts"
	"github.com/yxzhu16/helpdesk/internal/retrieval"
	"github.com/yxzhu16/helpdesk/internal/store"
	"github.com/yxzhu16/helpdesk/internal/tools"
)

// Service is the application core behind the HTTP handlers.
type Service struct {
	cfg      *config.Config
	store    store.Store
	gateway  llm.Gateway
	prompts  *prompts.Prompts
	engine   *retrieval.Engine
	registry *tools.Registry
	policy   *policy.Engine
}

// New assembles the service.
func New(cfg *config.Config, st store.Store, gateway llm.Gateway, p *prompts.Prompts, engine *retrieval.Engine, registry *tools.Registry, pol *policy.Engine) *Service {
	return &Service{
		cfg:      cfg,
		store:    st,
		gateway:  gateway,
		prompts:  p,
		engine:   engine,
		registry: registry,
		policy:   pol,
	}
}

// NewSession allocates a fresh session id.
func (s *Service) NewSession(ctx context.Context) (string, error) {
	return s.store.EnsureSession(ctx, "")
}

// EnsureSession resolves the effective session id: a provided id is accepted
// as-is, an empty one allocates a new session.
func (s *Service) EnsureSession(ctx context.Context, sessionID string) (string, error) {
	return s.store.EnsureSession(ctx, sessionID)
}

// ListMessages returns session messages in ascending creation order, with
// optional before-id paging.
func (s *Service) ListMessages(ctx context.Context, sessionID string, limit int, before string) ([]domain.Message, error) {
	return s.store.GetMessages(ctx, sessionID, limit, before)
}
