package store

import (
	"context"
	"encoding/json"
	"sync"
)

// MemoryStore implements DocumentStore in memory.
// Thread-safe via RWMutex.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string]map[string]map[string]any // collection -> id -> doc
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string]map[string]map[string]any)}
}

func (s *MemoryStore) Get(ctx context.Context, collection, id string) (map[string]any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if doc, ok := s.docs[collection][id]; ok {
		return deepCopy(doc)
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) Set(ctx context.Context, collection, id string, doc map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.docs[collection] == nil {
		s.docs[collection] = make(map[string]map[string]any)
	}
	copied, err := deepCopy(doc)
	if err != nil {
		return err
	}
	s.docs[collection][id] = merge(s.docs[collection][id], copied)
	return nil
}

func (s *MemoryStore) Query(ctx context.Context, collection, field string, value any) ([]map[string]any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []map[string]any
	for _, doc := range s.docs[collection] {
		if doc[field] == value {
			copied, err := deepCopy(doc)
			if err != nil {
				return nil, err
			}
			out = append(out, copied)
		}
	}
	return out, nil
}

// deepCopy round-trips through JSON so callers cannot mutate stored state.
func deepCopy(doc map[string]any) (map[string]any, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}
