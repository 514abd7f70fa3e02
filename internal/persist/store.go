package persist

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// ErrBlobNotFound means no base has been saved at the store's location
var ErrBlobNotFound = errors.New("base blob not found")

// Store keeps a single serialized base
type Store interface {
	Save(ctx context.Context, blob []byte) error
	Load(ctx context.Context) ([]byte, error)
}

// FileStore keeps the base in a file on the local filesystem
type FileStore struct {
	path string
}

// NewFileStore creates a store for the file at path
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the location of the base file
func (s *FileStore) Path() string {
	return s.path
}

// Save writes the blob to a temporary file and renames it into place
func (s *FileStore) Save(ctx context.Context, blob []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(blob); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write base: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write base: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to move base to %s: %w", s.path, err)
	}
	return nil
}

// Load reads the blob back
func (s *FileStore) Load(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	blob, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrBlobNotFound, s.path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read base from %s: %w", s.path, err)
	}
	return blob, nil
}
