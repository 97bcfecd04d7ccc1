package rag

import (
	"context"

	"github.com/kailas-cloud/ragdex/internal/domain"
)

// Embedder vectorizes the question before retrieval.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// Generator produces the grounded answer from the assembled context.
type Generator interface {
	Generate(ctx context.Context, contextText, question string) (domain.GenerationResult, error)
}
