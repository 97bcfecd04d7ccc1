package domain

// Candidate pairs a document with its similarity score against a query.
// Produced transiently by retrieval; cosine scores lie in [-1, 1].
type Candidate struct {
	doc   Document
	score float64
}

// NewCandidate creates a scored candidate.
func NewCandidate(doc Document, score float64) Candidate {
	return Candidate{doc: doc, score: score}
}

// Document returns the scored document.
func (c Candidate) Document() Document { return c.doc }

// Score returns the similarity score.
func (c Candidate) Score() float64 { return c.score }
