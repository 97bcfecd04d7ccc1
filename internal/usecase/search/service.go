// Package search exposes query-to-candidates similarity search over an
// in-memory document set.
package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/kailas-cloud/ragdex/internal/domain"
	"github.com/kailas-cloud/ragdex/internal/usecase/retrieval"
)

// Service embeds a text query and ranks documents against it.
type Service struct {
	embed Embedder
}

// New creates a search service.
func New(embed Embedder) *Service {
	return &Service{embed: embed}
}

// Search vectorizes the query and returns the topK most similar documents.
// documents and vectors must be positionally aligned.
func (s *Service) Search(
	ctx context.Context, query string,
	documents []domain.Document, vectors [][]float32, topK int,
) ([]domain.Candidate, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("query is required: %w", domain.ErrInvalidArgument)
	}

	embResult, err := s.embed.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("vectorize query: %w", err)
	}

	candidates, err := retrieval.TopK(embResult.Embedding, documents, vectors, topK)
	if err != nil {
		return nil, fmt.Errorf("rank documents: %w", err)
	}
	return candidates, nil
}
