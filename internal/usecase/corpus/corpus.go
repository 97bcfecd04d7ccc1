// Package corpus materializes the in-memory document set served by ragdex:
// documents plus their embeddings, computed once at startup.
package corpus

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/ragdex/internal/domain"
)

// Corpus is an immutable, positionally aligned set of documents and vectors.
// Built before the server starts serving; safe for concurrent reads.
type Corpus struct {
	docs    []domain.Document
	vectors [][]float32
	dim     int
	tokens  int
}

// Build embeds all documents and returns the materialized corpus.
// Uses a single batch API call when the embedder supports it, otherwise
// falls back to one call per document.
func Build(ctx context.Context, docs []domain.Document, embed domain.Embedder) (*Corpus, error) {
	if len(docs) == 0 {
		return nil, domain.ErrCorpusEmpty
	}

	texts := make([]string, len(docs))
	for i := range docs {
		texts[i] = docs[i].Content()
	}

	var batch domain.BatchEmbeddingResult
	var err error
	if be, ok := embed.(domain.BatchEmbedder); ok {
		batch, err = be.BatchEmbed(ctx, texts)
	} else {
		batch, err = domain.BatchFallback(ctx, embed, texts)
	}
	if err != nil {
		return nil, fmt.Errorf("embed corpus: %w", err)
	}

	if len(batch.Embeddings) != len(docs) {
		return nil, fmt.Errorf("provider returned %d embeddings for %d documents: %w",
			len(batch.Embeddings), len(docs), domain.ErrEmbeddingProviderError)
	}

	dim := len(batch.Embeddings[0])
	if dim == 0 {
		return nil, fmt.Errorf("provider returned empty embedding: %w", domain.ErrEmbeddingProviderError)
	}
	for i, vec := range batch.Embeddings {
		if len(vec) != dim {
			return nil, fmt.Errorf("embedding %d has %d dimensions, expected %d: %w",
				i, len(vec), dim, domain.ErrVectorDimMismatch)
		}
	}

	return &Corpus{
		docs:    docs,
		vectors: batch.Embeddings,
		dim:     dim,
		tokens:  batch.TotalTokens,
	}, nil
}

// Reconstruct creates a Corpus from precomputed vectors (tests, fixtures).
func Reconstruct(docs []domain.Document, vectors [][]float32) (*Corpus, error) {
	if len(docs) == 0 {
		return nil, domain.ErrCorpusEmpty
	}
	if len(docs) != len(vectors) {
		return nil, fmt.Errorf("%d documents but %d vectors: %w",
			len(docs), len(vectors), domain.ErrVectorDimMismatch)
	}
	dim := len(vectors[0])
	for i, vec := range vectors {
		if len(vec) != dim {
			return nil, fmt.Errorf("vector %d has %d dimensions, expected %d: %w",
				i, len(vec), dim, domain.ErrVectorDimMismatch)
		}
	}
	return &Corpus{docs: docs, vectors: vectors, dim: dim}, nil
}

// Documents returns the document set in input order.
func (c *Corpus) Documents() []domain.Document { return c.docs }

// Vectors returns the embeddings, aligned with Documents.
func (c *Corpus) Vectors() [][]float32 { return c.vectors }

// Dimensions returns the embedding dimension D.
func (c *Corpus) Dimensions() int { return c.dim }

// Size returns the document count.
func (c *Corpus) Size() int { return len(c.docs) }

// EmbeddingTokens returns the tokens consumed building the corpus.
func (c *Corpus) EmbeddingTokens() int { return c.tokens }
