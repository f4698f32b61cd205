package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kjstillabower/weather-dashboard/internal/models"
)

// FileStore persists the tracked-city sequence as a single JSON document.
// Writes are atomic (temp file + rename) so a crash mid-write leaves the
// previous snapshot intact.
type FileStore struct {
	path string
}

// NewFileStore creates a FileStore writing to the given path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load reads the persisted sequence. A missing file is an empty list. A
// corrupt file is backed up alongside the original and also treated as empty:
// losing the local store resets the tracked list, it never blocks startup.
func (s *FileStore) Load(ctx context.Context) ([]models.TrackedCity, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return []models.TrackedCity{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read city store %s: %w", s.path, err)
	}

	var cities []models.TrackedCity
	if err := json.Unmarshal(data, &cities); err != nil {
		_ = os.Rename(s.path, s.path+".corrupt")
		return []models.TrackedCity{}, nil
	}
	return cities, nil
}

// Persist overwrites the stored sequence with the given one.
func (s *FileStore) Persist(ctx context.Context, cities []models.TrackedCity) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("%w: create data directory: %v", ErrPersistence, err)
	}

	data, err := json.MarshalIndent(cities, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: marshal cities: %v", ErrPersistence, err)
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o600); err != nil {
		return fmt.Errorf("%w: write temp file: %v", ErrPersistence, err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("%w: rename temp file: %v", ErrPersistence, err)
	}
	return nil
}
