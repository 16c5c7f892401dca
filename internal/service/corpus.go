package service

import (
	"context"
	"fmt"

	"github.com/yxzhu16/helpdesk/internal/llm"
	"github.com/yxzhu16/helpdesk/internal/retrieval"
)

// embedBatchSize bounds one embeddings request.
const embedBatchSize = 32

// EmbedPendingFAQs embeds every FAQ row that does not have a vector yet, in
// batches, and reports how many were embedded and how many remain. A partial
// pass is not rolled back; already-stored vectors stay valid.
func (s *Service) EmbedPendingFAQs(ctx context.Context) (embedded, pending int, err error) {
	for {
		batch, err := s.store.ListPendingFAQs(ctx, embedBatchSize)
		if err != nil {
			return embedded, 0, err
		}
		if len(batch) == 0 {
			break
		}

		texts := make([]string, len(batch))
		for i, f := range batch {
			texts[i] = fmt.Sprintf("Q: %s\n\nA: %s", f.Question, f.Answer)
		}

		vectors, err := s.gateway.CreateEmbeddings(ctx, &llm.EmbeddingRequest{
			Model:      s.cfg.EmbeddingModel,
			Input:      texts,
			Dimensions: s.cfg.EmbedDim,
		})
		if err != nil {
			return embedded, 0, fmt.Errorf("embed corpus batch: %w", err)
		}
		if len(vectors) != len(batch) {
			return embedded, 0, fmt.Errorf("embed corpus batch: got %d vectors for %d texts", len(vectors), len(batch))
		}

		for i, f := range batch {
			if err := s.store.SetFAQEmbedding(ctx, f.ID, retrieval.EncodeVector(vectors[i])); err != nil {
				return embedded, 0, err
			}
			embedded++
		}
	}

	pending, err = s.store.CountPendingFAQs(ctx)
	if err != nil {
		return embedded, 0, err
	}
	return embedded, pending, nil
}
