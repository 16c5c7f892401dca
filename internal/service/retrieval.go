package service

import (
	"context"

	"github.com/yxzhu16/helpdesk/internal/domain"
)

// Retrieve is the retrieval test boundary: it runs the same engine the
// knowledge node uses, without touching sessions or the graph. Only vector
// mode is implemented; bm25 and hybrid are accepted and return empty results.
func (s *Service) Retrieve(ctx context.Context, req domain.RetrievalRequest) (*domain.RetrievalResponse, error) {
	mode, err := domain.ParseRetrievalMode(req.Mode)
	if err != nil {
		return nil, err
	}

	resp := &domain.RetrievalResponse{
		Query:   req.Query,
		Mode:    mode,
		Results: []domain.RetrievedFAQ{},
	}

	if mode != domain.RetrievalModeVector {
		return resp, nil
	}

	k := req.TopK
	if k <= 0 {
		k = s.cfg.RetrievalTopK
	}

	results, err := s.engine.Retrieve(ctx, req.Query, k, s.cfg.RetrievalThreshold)
	if err != nil {
		return nil, err
	}
	if results != nil {
		resp.Results = results
	}
	resp.Count = len(resp.Results)
	return resp, nil
}
