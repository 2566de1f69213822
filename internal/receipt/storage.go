package receipt

import (
	"fmt"
	"os"
	"path/filepath"
)

// Storage defines the interface for extraction artifact files: the OCR
// input, the TSV result, and unparseable backend output kept for manual
// recovery.
type Storage interface {
	// Save writes an artifact and returns the stored filename
	Save(filename string, data []byte) (string, error)

	// Get retrieves an artifact by filename
	Get(path string) ([]byte, error)

	// Delete removes an artifact
	Delete(path string) error
}

// Artifact filenames, keyed by extraction ID.
func ocrFilename(id string) string { return id + "_ocr.txt" }
func tsvFilename(id string) string { return id + ".tsv" }
func rawFilename(id string) string { return id + "_raw.txt" }

// LocalStorage implements the Storage interface using local filesystem
type LocalStorage struct {
	basePath string
}

// NewLocalStorage creates a new LocalStorage instance
func NewLocalStorage(basePath string) (*LocalStorage, error) {
	// Create directory if it doesn't exist
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("creating storage directory: %w", err)
	}

	return &LocalStorage{
		basePath: basePath,
	}, nil
}

// Save writes an artifact to local storage
func (l *LocalStorage) Save(filename string, data []byte) (string, error) {
	path := filepath.Join(l.basePath, filename)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("writing file: %w", err)
	}
	return filename, nil
}

// Get retrieves an artifact from local storage
func (l *LocalStorage) Get(path string) ([]byte, error) {
	fullPath := filepath.Join(l.basePath, path)
	data, err := os.ReadFile(fullPath)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}
	return data, nil
}

// Delete removes an artifact from local storage
func (l *LocalStorage) Delete(path string) error {
	fullPath := filepath.Join(l.basePath, path)
	if err := os.Remove(fullPath); err != nil {
		return fmt.Errorf("deleting file: %w", err)
	}
	return nil
}
