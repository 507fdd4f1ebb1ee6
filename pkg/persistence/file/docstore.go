package file

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
)

// docStore reads and writes one JSON document per entity id inside a single
// directory.
type docStore[T any] struct {
	dir string
}

func newDocStore[T any](root, entity string) *docStore[T] {
	return &docStore[T]{dir: path.Join(root, entity)}
}

// get returns the document for an id, or nil when none exists.
func (s *docStore[T]) get(id string) (*T, error) {
	filePath := filepath.Clean(path.Join(s.dir, id+".json"))

	body, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to read document %s: %w", id, err)
	}

	var doc T

	err = json.Unmarshal(body, &doc)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal document %s: %w", id, err)
	}

	return &doc, nil
}

// put writes the document for an id, creating the directory on first use.
func (s *docStore[T]) put(id string, doc *T) error {
	err := os.MkdirAll(s.dir, 0750)
	if err != nil {
		return fmt.Errorf("failed to create document directory: %w", err)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal document %s: %w", id, err)
	}

	return os.WriteFile(path.Join(s.dir, id+".json"), data, 0600)
}

// remove deletes the document for an id. Removing a missing document is not an
// error.
func (s *docStore[T]) remove(id string) error {
	err := os.Remove(path.Join(s.dir, id+".json"))

	if err != nil && os.IsNotExist(err) {
		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to delete document %s: %w", id, err)
	}

	return nil
}

// list loads every document in the directory.
func (s *docStore[T]) list() ([]*T, error) {
	root := os.DirFS(s.dir)

	jsonFiles, err := fs.Glob(root, "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}

	docs := make([]*T, 0, len(jsonFiles))

	for _, file := range jsonFiles {
		id := file[:len(file)-5] // Remove .json extension

		doc, err := s.get(id)
		if err != nil {
			return nil, fmt.Errorf("failed to load document %s: %w", id, err)
		}

		if doc != nil {
			docs = append(docs, doc)
		}
	}

	return docs, nil
}
