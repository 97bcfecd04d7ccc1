package domain

import "errors"

var (
	// ErrVectorDimMismatch signals that compared vectors (or the
	// documents/vectors sequences) differ in length.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
	// ErrInvalidArgument signals structurally invalid input, e.g. a negative top_k.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrGenerationProviderError signals a generation provider failure.
	ErrGenerationProviderError = errors.New("generation provider error")
	// ErrCorpusEmpty signals that no documents are available for retrieval.
	ErrCorpusEmpty = errors.New("corpus is empty")
	// ErrStreamingNotSupported signals that the generator cannot stream.
	ErrStreamingNotSupported = errors.New("streaming not supported by generator")
)
