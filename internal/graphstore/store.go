// Package graphstore persists a project's move graph document as a JSON
// file in the project directory.
package graphstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/avdberg/pvminer/internal/graph"
)

// ErrNoDocument means the project has no saved graph yet.
var ErrNoDocument = errors.New("no graph document found")

const documentFileName = "graph.json"

// Store reads and writes one project's graph document.
type Store struct {
	dir string
}

// NewStore creates the project directory if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create project directory: %w", err)
	}

	return &Store{dir: dir}, nil
}

func (s *Store) path() string {
	return filepath.Join(s.dir, documentFileName)
}

// SaveGraph atomically replaces the stored document. Called after every
// processed position, so a crash loses at most one position's worth of
// updates.
func (s *Store) SaveGraph(ctx context.Context, doc *graph.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to serialize graph document: %w", err)
	}

	tmpPath := s.path() + ".tmp"
	if err = os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write graph document: %w", err)
	}

	if err = os.Rename(tmpPath, s.path()); err != nil {
		return fmt.Errorf("failed to finalize graph document: %w", err)
	}

	return nil
}

// LoadGraph reads the stored document, or ErrNoDocument if none exists.
func (s *Store) LoadGraph(ctx context.Context) (*graph.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNoDocument, s.path())
		}
		return nil, fmt.Errorf("failed to read graph document: %w", err)
	}

	var doc graph.Document
	if err = json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse graph document: %w", err)
	}

	return &doc, nil
}
