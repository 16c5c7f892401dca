// Package retrieval implements brute-force semantic search over the FAQ
// corpus: embed the query, score every stored snippet by cosine similarity,
// filter by threshold and keep the top k. O(N·D) per query; fine at this
// corpus size, a known limit beyond it.
package retrieval

import (
	"context"
	"sort"
	"strings"

	"github.com/yxzhu16/helpdesk/internal/domain"
	"github.com/yxzhu16/helpdesk/internal/llm"
)

const (
	// DefaultTopK is the default result count.
	DefaultTopK = 5
	// MaxTopK caps the requested result count.
	MaxTopK = 50
	// DefaultThreshold is the default minimum similarity score.
	DefaultThreshold = 0.6
)

// Embedder is the slice of the completion gateway the engine needs.
type Embedder interface {
	CreateEmbeddings(ctx context.Context, req *llm.EmbeddingRequest) ([][]float32, error)
}

// CorpusStore loads the scored candidate set.
type CorpusStore interface {
	ListEmbeddedFAQs(ctx context.Context) ([]domain.FAQ, error)
}

// Engine scores FAQ snippets against query embeddings.
type Engine struct {
	store    CorpusStore
	embedder Embedder
	model    string
	dim      int
}

// NewEngine creates a retrieval engine. dim is the requested embedding
// dimensionality; 0 leaves it to the model default.
func NewEngine(store CorpusStore, embedder Embedder, model string, dim int) *Engine {
	return &Engine{
		store:    store,
		embedder: embedder,
		model:    model,
		dim:      dim,
	}
}

// Retrieve returns the top-k snippets scoring at least threshold against the
// query. An empty or whitespace-only query returns an empty result without a
// gateway call. "Nothing above threshold" is an empty result, not an error;
// only a failing embedding call surfaces as an error.
func (e *Engine) Retrieve(ctx context.Context, query string, k int, threshold float64) ([]domain.RetrievedFAQ, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}

	if k <= 0 {
		k = DefaultTopK
	}
	if k > MaxTopK {
		k = MaxTopK
	}

	vectors, err := e.embedder.CreateEmbeddings(ctx, &llm.EmbeddingRequest{
		Model:      e.model,
		Input:      []string{query},
		Dimensions: e.dim,
	})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, nil
	}
	qVec := vectors[0]
	qDim := len(qVec)

	faqs, err := e.store.ListEmbeddedFAQs(ctx)
	if err != nil {
		return nil, err
	}

	var scored []domain.RetrievedFAQ
	for _, f := range faqs {
		if len(f.Embedding) == 0 {
			continue
		}
		v := DecodeVector(f.Embedding)
		// Mixed embedding-model generations can coexist in storage;
		// rows from another generation are skipped, not an error.
		if len(v) != qDim {
			continue
		}
		score := Cosine(qVec, v)
		if score < threshold {
			continue
		}
		scored = append(scored, domain.RetrievedFAQ{
			ID:       f.ID,
			Question: f.Question,
			Answer:   f.Answer,
			Tags:     f.Tags,
			Score:    score,
		})
	}

	// Stable: ties keep insertion order.
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if len(scored) > k {
		scored = scored[:k]
	}
	return scored, nil
}
