package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/yxzhu16/helpdesk/internal/domain"
)

// BeginTurn records the complete user message and the empty, incomplete
// assistant placeholder for one turn in a single transaction, and returns the
// placeholder's id so the caller can finalize it after streaming.
func (s *SQLiteStore) BeginTurn(ctx context.Context, sessionID, turnID, userText string) (string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin turn: %w", err)
	}
	defer tx.Rollback()

	ts := nowMs()
	userID := uuid.New().String()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO messages (id, session_id, turn_id, role, content, is_completed, knowledge_references, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, 1, NULL, ?, ?)`,
		userID, sessionID, turnID, domain.RoleUser, userText, ts, ts); err != nil {
		return "", fmt.Errorf("failed to insert user message: %w", err)
	}

	assistantID := uuid.New().String()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO messages (id, session_id, turn_id, role, content, is_completed, knowledge_references, created_at, updated_at)
		 VALUES (?, ?, ?, ?, '', 0, NULL, ?, ?)`,
		assistantID, sessionID, turnID, domain.RoleAssistant, ts, ts); err != nil {
		return "", fmt.Errorf("failed to insert assistant placeholder: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit turn: %w", err)
	}
	return assistantID, nil
}

// FinishTurn performs the single mutation of the assistant placeholder: set
// the final text, mark it complete and refresh updated_at. Last write wins;
// callers are expected to invoke it once per turn.
func (s *SQLiteStore) FinishTurn(ctx context.Context, assistantMessageID, finalText string, knowledgeRefs []byte) error {
	var refs sql.NullString
	if len(knowledgeRefs) > 0 {
		refs = sql.NullString{String: string(knowledgeRefs), Valid: true}
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE messages SET content = ?, is_completed = 1, knowledge_references = ?, updated_at = ? WHERE id = ?`,
		finalText, refs, nowMs(), assistantMessageID)
	if err != nil {
		return fmt.Errorf("failed to finish turn: %w", err)
	}
	return nil
}

// GetRecentMessages loads up to limit most-recent messages for a session,
// newest first by creation time. The history assembler consumes this.
func (s *SQLiteStore) GetRecentMessages(ctx context.Context, sessionID string, limit int) ([]domain.Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, turn_id, role, content, is_completed, knowledge_references, created_at, updated_at
		 FROM messages WHERE session_id = ?
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`,
		sessionID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMessages(rows)
}

// GetMessages retrieves messages for a session in ascending creation order,
// optionally before a given message id, for the session messages API.
func (s *SQLiteStore) GetMessages(ctx context.Context, sessionID string, limit int, before string) ([]domain.Message, error) {
	query := `SELECT id, session_id, turn_id, role, content, is_completed, knowledge_references, created_at, updated_at
		 FROM messages WHERE session_id = ?`
	args := []interface{}{sessionID}

	if before != "" {
		query += ` AND id < ?`
		args = append(args, before)
	}

	query += ` ORDER BY created_at ASC`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMessages(rows)
}

func scanMessages(rows *sql.Rows) ([]domain.Message, error) {
	var messages []domain.Message
	for rows.Next() {
		var msg domain.Message
		var completed int
		var refs sql.NullString
		if err := rows.Scan(&msg.ID, &msg.SessionID, &msg.TurnID, &msg.Role, &msg.Content, &completed, &refs, &msg.CreatedAt, &msg.UpdatedAt); err != nil {
			return nil, err
		}
		msg.IsCompleted = completed != 0
		if refs.Valid {
			msg.KnowledgeRefs = []byte(refs.String)
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}
