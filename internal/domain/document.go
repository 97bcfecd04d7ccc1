package domain

import "fmt"

// MaxContentSize is the maximum document content size in bytes.
const MaxContentSize = 163840 // 160KB

// MaxTitleLen is the maximum document title length in bytes.
const MaxTitleLen = 256

// Document is an immutable titled text fragment used as retrieval grounding.
// Identity is positional within the collection passed to a retrieval call.
type Document struct {
	title   string
	content string
}

// NewDocument validates and creates a Document.
// Title: non-empty, max 256 bytes. Content: non-empty, max 160KB.
func NewDocument(title, content string) (Document, error) {
	if title == "" {
		return Document{}, fmt.Errorf("document title is required: %w", ErrInvalidArgument)
	}
	if len(title) > MaxTitleLen {
		return Document{}, fmt.Errorf("document title too long (max %d): %w", MaxTitleLen, ErrInvalidArgument)
	}
	if content == "" {
		return Document{}, fmt.Errorf("document content is required: %w", ErrInvalidArgument)
	}
	if len(content) > MaxContentSize {
		return Document{}, fmt.Errorf("document content too large (max %d bytes): %w", MaxContentSize, ErrInvalidArgument)
	}
	return Document{title: title, content: content}, nil
}

// ReconstructDocument creates a Document without validation (trusted input, tests).
func ReconstructDocument(title, content string) Document {
	return Document{title: title, content: content}
}

// Title returns the human-readable document label.
func (d Document) Title() string { return d.title }

// Content returns the document body text.
func (d Document) Content() string { return d.content }
