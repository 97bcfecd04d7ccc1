package retrieval

import (
	"strings"

	"github.com/kailas-cloud/ragdex/internal/domain"
)

// AssembleContext concatenates candidate documents into a single grounding
// block, preserving ranking order. Each document renders as a labeled block
//
//	[Title]
//	Content
//
// joined by blank lines. An empty candidate list yields an empty string.
func AssembleContext(candidates []domain.Candidate) string {
	if len(candidates) == 0 {
		return ""
	}

	blocks := make([]string, len(candidates))
	for i := range candidates {
		doc := candidates[i].Document()
		blocks[i] = "[" + doc.Title() + "]\n" + doc.Content()
	}
	return strings.Join(blocks, "\n\n")
}
