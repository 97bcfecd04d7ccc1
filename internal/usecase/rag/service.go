// Package rag orchestrates the retrieval-augmented generation pipeline:
// question -> embedding -> retrieval -> context -> generation -> answer.
package rag

import (
	"context"
	"fmt"
	"strings"

	"github.com/kailas-cloud/ragdex/internal/domain"
	"github.com/kailas-cloud/ragdex/internal/usecase/retrieval"
)

// Answer is the result of one RAG pipeline run.
type Answer struct {
	Text             string
	Sources          []domain.Candidate
	EmbeddingTokens  int
	GenerationTokens int
}

// Service runs the RAG pipeline over a caller-supplied document set.
type Service struct {
	embed Embedder
	gen   Generator
}

// New creates a RAG orchestrator.
func New(embed Embedder, gen Generator) *Service {
	return &Service{embed: embed, gen: gen}
}

// Answer runs the pipeline sequentially. Each step may fail and aborts the
// whole operation; no partial results are returned and nothing is retried here.
func (s *Service) Answer(
	ctx context.Context, question string,
	documents []domain.Document, vectors [][]float32, topK int,
) (Answer, error) {
	sources, embTokens, err := s.retrieve(ctx, question, documents, vectors, topK)
	if err != nil {
		return Answer{}, err
	}

	contextText := retrieval.AssembleContext(sources)

	genResult, err := s.gen.Generate(ctx, contextText, question)
	if err != nil {
		return Answer{}, fmt.Errorf("generate answer: %w", err)
	}

	return Answer{
		Text:             genResult.Answer,
		Sources:          sources,
		EmbeddingTokens:  embTokens,
		GenerationTokens: genResult.TotalTokens,
	}, nil
}

// AnswerStream runs the same pipeline but streams answer fragments through
// onDelta. Fails with ErrStreamingNotSupported when the generator cannot stream.
func (s *Service) AnswerStream(
	ctx context.Context, question string,
	documents []domain.Document, vectors [][]float32, topK int,
	onDelta func(delta string) error,
) (Answer, error) {
	sg, ok := s.gen.(domain.StreamGenerator)
	if !ok {
		return Answer{}, domain.ErrStreamingNotSupported
	}

	sources, embTokens, err := s.retrieve(ctx, question, documents, vectors, topK)
	if err != nil {
		return Answer{}, err
	}

	contextText := retrieval.AssembleContext(sources)

	genResult, err := sg.GenerateStream(ctx, contextText, question, onDelta)
	if err != nil {
		return Answer{}, fmt.Errorf("generate answer stream: %w", err)
	}

	return Answer{
		Text:             genResult.Answer,
		Sources:          sources,
		EmbeddingTokens:  embTokens,
		GenerationTokens: genResult.TotalTokens,
	}, nil
}

// retrieve embeds the question and ranks the documents against it.
func (s *Service) retrieve(
	ctx context.Context, question string,
	documents []domain.Document, vectors [][]float32, topK int,
) ([]domain.Candidate, int, error) {
	if strings.TrimSpace(question) == "" {
		return nil, 0, fmt.Errorf("question is required: %w", domain.ErrInvalidArgument)
	}

	embResult, err := s.embed.Embed(ctx, question)
	if err != nil {
		return nil, 0, fmt.Errorf("vectorize question: %w", err)
	}

	candidates, err := retrieval.TopK(embResult.Embedding, documents, vectors, topK)
	if err != nil {
		return nil, 0, fmt.Errorf("retrieve context: %w", err)
	}
	return candidates, embResult.TotalTokens, nil
}
