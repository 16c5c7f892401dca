package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/yxzhu16/helpdesk/internal/domain"
)

// CreateTicket inserts a new ticket.
func (s *SQLiteStore) CreateTicket(ctx context.Context, t *domain.Ticket) error {
	ts := nowMs()
	t.CreatedAt = ts
	t.UpdatedAt = ts
	if t.Status == "" {
		t.Status = domain.TicketStatusOpen
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tickets (id, user_id, status, subject, content, category, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.UserID, t.Status, t.Subject, t.Content, t.Category, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create ticket: %w", err)
	}
	return nil
}

// GetTicket retrieves a ticket by id.
func (s *SQLiteStore) GetTicket(ctx context.Context, id string) (*domain.Ticket, error) {
	var t domain.Ticket
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, status, subject, content, category, created_at, updated_at FROM tickets WHERE id = ?`,
		id).Scan(&t.ID, &t.UserID, &t.Status, &t.Subject, &t.Content, &t.Category, &t.CreatedAt, &t.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ListTickets retrieves tickets matching the filter.
func (s *SQLiteStore) ListTickets(ctx context.Context, f TicketFilter) ([]domain.Ticket, error) {
	var wheres []string
	var args []interface{}

	if f.UserID != 0 {
		wheres = append(wheres, "user_id = ?")
		args = append(args, f.UserID)
	}
	if f.Status != "" {
		wheres = append(wheres, "status = ?")
		args = append(args, f.Status)
	}
	if f.Category != "" {
		wheres = append(wheres, "category = ?")
		args = append(args, f.Category)
	}
	if f.SubjectLike != "" {
		wheres = append(wheres, "subject LIKE ?")
		args = append(args, "%"+f.SubjectLike+"%")
	}
	if f.ContentLike != "" {
		wheres = append(wheres, "content LIKE ?")
		args = append(args, "%"+f.ContentLike+"%")
	}

	query := `SELECT id, user_id, status, subject, content, category, created_at, updated_at FROM tickets`
	if len(wheres) > 0 {
		query += " WHERE " + strings.Join(wheres, " AND ")
	}
	query += " ORDER BY created_at DESC"

	limit := f.Limit
	if limit <= 0 {
		limit = 20
	}
	query += fmt.Sprintf(" LIMIT %d", limit)
	if f.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", f.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tickets []domain.Ticket
	for rows.Next() {
		var t domain.Ticket
		if err := rows.Scan(&t.ID, &t.UserID, &t.Status, &t.Subject, &t.Content, &t.Category, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		tickets = append(tickets, t)
	}
	return tickets, rows.Err()
}

// UpdateTicket applies the patch to the ticket. It reports whether a row was
// updated.
func (s *SQLiteStore) UpdateTicket(ctx context.Context, id string, patch TicketPatch) (bool, error) {
	if patch.Empty() {
		return false, fmt.Errorf("no fields to update")
	}

	var sets []string
	var args []interface{}
	if patch.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, *patch.Status)
	}
	if patch.Subject != nil {
		sets = append(sets, "subject = ?")
		args = append(args, *patch.Subject)
	}
	if patch.Content != nil {
		sets = append(sets, "content = ?")
		args = append(args, *patch.Content)
	}
	if patch.Category != nil {
		sets = append(sets, "category = ?")
		args = append(args, *patch.Category)
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, nowMs())
	args = append(args, id)

	res, err := s.db.ExecContext(ctx,
		`UPDATE tickets SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return false, fmt.Errorf("failed to update ticket: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}
