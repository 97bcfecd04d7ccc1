// Package similarity implements vector similarity scoring for retrieval.
package similarity

import (
	"fmt"
	"math"

	"github.com/kailas-cloud/ragdex/internal/domain"
)

// Cosine returns the cosine similarity of two equal-length vectors:
// dot(a, b) / (|a| * |b|), accumulated in float64.
// A zero-norm vector scores 0.0 against anything (neutral, not an error).
func Cosine(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("cosine: %d vs %d dimensions: %w", len(a), len(b), domain.ErrVectorDimMismatch)
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0, nil
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}
