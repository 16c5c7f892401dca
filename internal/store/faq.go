package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/yxzhu16/helpdesk/internal/domain"
)

// ListEmbeddedFAQs loads every FAQ row with a non-null embedding blob, in
// insertion order. Retrieval scores candidates from this snapshot.
func (s *SQLiteStore) ListEmbeddedFAQs(ctx context.Context) ([]domain.FAQ, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, question, answer, tags, embedding FROM faqs
		 WHERE embedded = 1 AND embedding IS NOT NULL
		 ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var faqs []domain.FAQ
	for rows.Next() {
		var f domain.FAQ
		var tags sql.NullString
		if err := rows.Scan(&f.ID, &f.Question, &f.Answer, &tags, &f.Embedding); err != nil {
			return nil, err
		}
		if tags.Valid {
			f.Tags = tags.String
		}
		f.Embedded = true
		faqs = append(faqs, f)
	}
	return faqs, rows.Err()
}

// ListPendingFAQs loads FAQ rows that still need an embedding.
func (s *SQLiteStore) ListPendingFAQs(ctx context.Context, limit int) ([]domain.FAQ, error) {
	query := `SELECT id, question, answer, tags FROM faqs WHERE embedded = 0 ORDER BY id ASC`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var faqs []domain.FAQ
	for rows.Next() {
		var f domain.FAQ
		var tags sql.NullString
		if err := rows.Scan(&f.ID, &f.Question, &f.Answer, &tags); err != nil {
			return nil, err
		}
		if tags.Valid {
			f.Tags = tags.String
		}
		faqs = append(faqs, f)
	}
	return faqs, rows.Err()
}

// CountPendingFAQs counts FAQ rows without an embedding.
func (s *SQLiteStore) CountPendingFAQs(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM faqs WHERE embedded = 0`).Scan(&n)
	return n, err
}

// CreateFAQ inserts a new FAQ row. The embedding, if any, is set separately
// by the corpus ingestion pass.
func (s *SQLiteStore) CreateFAQ(ctx context.Context, faq *domain.FAQ) error {
	var tags sql.NullString
	if faq.Tags != "" {
		tags = sql.NullString{String: faq.Tags, Valid: true}
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO faqs (question, answer, tags, embedding, embedded) VALUES (?, ?, ?, NULL, 0)`,
		faq.Question, faq.Answer, tags)
	if err != nil {
		return fmt.Errorf("failed to create faq: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	faq.ID = id
	return nil
}

// SetFAQEmbedding writes the embedding blob and flips the embedded flag.
func (s *SQLiteStore) SetFAQEmbedding(ctx context.Context, id int64, embedding []byte) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE faqs SET embedding = ?, embedded = 1 WHERE id = ?`,
		embedding, id)
	if err != nil {
		return fmt.Errorf("failed to set faq embedding: %w", err)
	}
	return nil
}
