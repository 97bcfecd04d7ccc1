// Package retrieval ranks documents against a query vector.
// It is pure computation: no I/O, no logging, no state.
package retrieval

import (
	"fmt"
	"sort"

	"github.com/kailas-cloud/ragdex/internal/domain"
	"github.com/kailas-cloud/ragdex/internal/domain/similarity"
)

// TopK scores every document vector against the query vector and returns the
// k best candidates ordered by descending similarity. Ties keep the original
// input order (stable sort). k greater than len(documents) returns everything;
// k == 0 returns an empty slice. Inputs are never mutated.
func TopK(
	query []float32, documents []domain.Document, vectors [][]float32, k int,
) ([]domain.Candidate, error) {
	if k < 0 {
		return nil, fmt.Errorf("top_k must be non-negative, got %d: %w", k, domain.ErrInvalidArgument)
	}
	if len(documents) != len(vectors) {
		return nil, fmt.Errorf("%d documents but %d vectors: %w",
			len(documents), len(vectors), domain.ErrVectorDimMismatch)
	}

	candidates := make([]domain.Candidate, len(documents))
	for i := range documents {
		score, err := similarity.Cosine(query, vectors[i])
		if err != nil {
			return nil, fmt.Errorf("score document %d: %w", i, err)
		}
		candidates[i] = domain.NewCandidate(documents[i], score)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score() > candidates[j].Score()
	})

	if k < len(candidates) {
		candidates = candidates[:k]
	}
	return candidates, nil
}
