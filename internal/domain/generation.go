package domain

import "context"

// Generator produces a grounded answer from a context block and a question.
type Generator interface {
	Generate(ctx context.Context, contextText, question string) (GenerationResult, error)
}

// StreamGenerator additionally streams the answer as it is produced.
// onDelta is called once per answer fragment, in order; returning an error
// from onDelta aborts the stream.
type StreamGenerator interface {
	GenerateStream(ctx context.Context, contextText, question string, onDelta func(delta string) error) (GenerationResult, error)
}

// GenerationResult carries the answer text and token usage.
type GenerationResult struct {
	Answer           string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}
