// Package store provides the SQLite persistence layer: sessions, turn
// messages, the FAQ corpus and the ticket tables used by action capabilities.
package store

import (
	"context"

	"github.com/yxzhu16/helpdesk/internal/domain"
)

// Store is the persistence interface the services depend on.
type Store interface {
	Close() error

	// Sessions and turns
	EnsureSession(ctx context.Context, sessionID string) (string, error)
	GetSession(ctx context.Context, sessionID string) (*domain.Session, error)
	BeginTurn(ctx context.Context, sessionID, turnID, userText string) (string, error)
	FinishTurn(ctx context.Context, assistantMessageID, finalText string, knowledgeRefs []byte) error
	GetRecentMessages(ctx context.Context, sessionID string, limit int) ([]domain.Message, error)
	GetMessages(ctx context.Context, sessionID string, limit int, before string) ([]domain.Message, error)

	// FAQ corpus
	ListEmbeddedFAQs(ctx context.Context) ([]domain.FAQ, error)
	ListPendingFAQs(ctx context.Context, limit int) ([]domain.FAQ, error)
	CountPendingFAQs(ctx context.Context) (int, error)
	CreateFAQ(ctx context.Context, faq *domain.FAQ) error
	SetFAQEmbedding(ctx context.Context, id int64, embedding []byte) error

	// Tickets
	CreateTicket(ctx context.Context, t *domain.Ticket) error
	GetTicket(ctx context.Context, id string) (*domain.Ticket, error)
	ListTickets(ctx context.Context, f TicketFilter) ([]domain.Ticket, error)
	UpdateTicket(ctx context.Context, id string, patch TicketPatch) (bool, error)
}

// TicketFilter selects tickets for ListTickets. Zero fields are ignored.
type TicketFilter struct {
	UserID      int64
	Status      domain.TicketStatus
	Category    string
	SubjectLike string
	ContentLike string
	Limit       int
	Offset      int
}

// TicketPatch carries the fields UpdateTicket may change. Nil fields are
// left untouched.
type TicketPatch struct {
	Status   *domain.TicketStatus
	Subject  *string
	Content  *string
	Category *string
}

// Empty reports whether the patch changes nothing.
func (p TicketPatch) Empty() bool {
	return p.Status == nil && p.Subject == nil && p.Content == nil && p.Category == nil
}
