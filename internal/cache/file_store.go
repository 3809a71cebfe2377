package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"worldatlas/models"
)

// FileStore keeps one cache as a single JSON document on disk. The file is
// read once and rewritten in full after every mutation.
type FileStore struct {
	path string

	mu     sync.Mutex
	loaded bool
	data   map[string]models.CacheEntry
}

// NewFileStore returns a store for the cache called name under dir
func NewFileStore(dir, name string) *FileStore {
	return &FileStore{
		path: filepath.Join(filepath.Clean(dir), name+".json"),
		data: map[string]models.CacheEntry{},
	}
}

// Path returns the location of the backing file
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the backing file. A missing or empty file is an empty cache;
// a corrupt one is reported and will be replaced on the next write.
func (s *FileStore) Load(_ context.Context) (map[string]models.CacheEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.loaded {
		return copyEntries(s.data), nil
	}
	s.loaded = true

	b, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]models.CacheEntry{}, nil
		}
		return nil, fmt.Errorf("failed to read cache file: %w", err)
	}
	if len(b) == 0 {
		return map[string]models.CacheEntry{}, nil
	}

	var m map[string]models.CacheEntry
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("corrupt cache file %s: %w", s.path, err)
	}
	s.data = m
	return copyEntries(m), nil
}

func (s *FileStore) Put(_ context.Context, key string, entry models.CacheEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[key] = entry
	return s.saveLocked()
}

func (s *FileStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data[key]; !ok {
		return nil
	}
	delete(s.data, key)
	return s.saveLocked()
}

func (s *FileStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data = map[string]models.CacheEntry{}
	return s.saveLocked()
}

func (s *FileStore) saveLocked() error {
	b, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode cache file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	return os.Rename(tmp, s.path)
}

func copyEntries(m map[string]models.CacheEntry) map[string]models.CacheEntry {
	out := make(map[string]models.CacheEntry, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
