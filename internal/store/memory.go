package store

import (
	"context"
	"encoding/json"
	"sync"
)

// MemoryStore is a non-durable Store for tests.
type MemoryStore struct {
	mu   sync.Mutex
	data map[string]map[string]json.RawMessage
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]map[string]json.RawMessage)}
}

func (s *MemoryStore) Load(ctx context.Context, collection string) (map[string]json.RawMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]json.RawMessage, len(s.data[collection]))
	for id, doc := range s.data[collection] {
		out[id] = doc
	}
	return out, nil
}

func (s *MemoryStore) Put(ctx context.Context, collection, id string, doc []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data[collection] == nil {
		s.data[collection] = make(map[string]json.RawMessage)
	}
	s.data[collection][id] = json.RawMessage(doc)
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data[collection], id)
	return nil
}

func (s *MemoryStore) Close() error { return nil }
