// Package corpusfile loads the document corpus from a YAML file.
package corpusfile

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/ragdex/internal/domain"
)

type fileDocument struct {
	Title   string `yaml:"title"`
	Content string `yaml:"content"`
}

type corpusFile struct {
	Documents []fileDocument `yaml:"documents"`
}

// Load reads and validates documents from a corpus YAML file.
func Load(path string) ([]domain.Document, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read corpus file %s: %w", path, err)
	}

	var cf corpusFile
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("parse corpus file %s: %w", path, err)
	}

	if len(cf.Documents) == 0 {
		return nil, fmt.Errorf("corpus file %s: %w", path, domain.ErrCorpusEmpty)
	}

	docs := make([]domain.Document, len(cf.Documents))
	for i, fd := range cf.Documents {
		doc, err := domain.NewDocument(fd.Title, fd.Content)
		if err != nil {
			return nil, fmt.Errorf("corpus document %d: %w", i, err)
		}
		docs[i] = doc
	}
	return docs, nil
}
