package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileStore keeps one JSON file per collection under a data directory and
// rewrites the whole file on every Put. Fine for the scale this platform
// runs at; swap in PostgresStore when a real database is available.
type FileStore struct {
	dir   string
	mu    sync.Mutex
	cache map[string]map[string]json.RawMessage
}

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create data dir: %v", ErrPersistence, err)
	}
	return &FileStore{dir: dir, cache: make(map[string]map[string]json.RawMessage)}, nil
}

func (s *FileStore) Load(ctx context.Context, collection string) (map[string]json.RawMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	docs, err := s.loadLocked(collection)
	if err != nil {
		return nil, err
	}
	out := make(map[string]json.RawMessage, len(docs))
	for id, doc := range docs {
		out[id] = doc
	}
	return out, nil
}

func (s *FileStore) Put(ctx context.Context, collection, id string, doc []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	docs, err := s.loadLocked(collection)
	if err != nil {
		return err
	}
	docs[id] = json.RawMessage(doc)
	return s.writeLocked(collection, docs)
}

func (s *FileStore) Delete(ctx context.Context, collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	docs, err := s.loadLocked(collection)
	if err != nil {
		return err
	}
	delete(docs, id)
	return s.writeLocked(collection, docs)
}

func (s *FileStore) Close() error { return nil }

func (s *FileStore) loadLocked(collection string) (map[string]json.RawMessage, error) {
	if docs, ok := s.cache[collection]; ok {
		return docs, nil
	}
	docs := make(map[string]json.RawMessage)
	raw, err := os.ReadFile(s.path(collection))
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: read %s: %v", ErrPersistence, collection, err)
		}
	} else if len(raw) > 0 {
		if err := json.Unmarshal(raw, &docs); err != nil {
			return nil, fmt.Errorf("%w: decode %s: %v", ErrPersistence, collection, err)
		}
	}
	s.cache[collection] = docs
	return docs, nil
}

// writeLocked rewrites the collection file through a temp file so a crashed
// write never leaves a half-written collection behind.
func (s *FileStore) writeLocked(collection string, docs map[string]json.RawMessage) error {
	encoded, err := json.MarshalIndent(docs, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encode %s: %v", ErrPersistence, collection, err)
	}
	tmp := s.path(collection) + ".tmp"
	if err := os.WriteFile(tmp, encoded, 0o644); err != nil {
		return fmt.Errorf("%w: write %s: %v", ErrPersistence, collection, err)
	}
	if err := os.Rename(tmp, s.path(collection)); err != nil {
		return fmt.Errorf("%w: rename %s: %v", ErrPersistence, collection, err)
	}
	return nil
}

func (s *FileStore) path(collection string) string {
	return filepath.Join(s.dir, collection+".json")
}
