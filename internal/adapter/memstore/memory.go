package memstore

import (
	"fmt"
	"sync"

	"skillhub/internal/adapter/store"
	"skillhub/internal/port"
)

// VectorStore is a non-persistent port.VectorStore with the same scoring as
// store.BoltVectorStore. Used by ephemeral engines and tests.
type VectorStore struct {
	mu        sync.RWMutex
	dimension int
	items     map[string]port.VectorItem
}

func NewVectorStore(dimension int) *VectorStore {
	return &VectorStore{
		dimension: dimension,
		items:     make(map[string]port.VectorItem),
	}
}

func (s *VectorStore) Upsert(items []port.VectorItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, item := range items {
		if len(item.Vector) != s.dimension {
			return fmt.Errorf("vector dimension mismatch for %s: expected %d, got %d", item.ID, s.dimension, len(item.Vector))
		}
	}
	for _, item := range items {
		s.items[item.ID] = item
	}
	return nil
}

func (s *VectorStore) Search(query []float32, k int, filter map[string]string) ([]port.VectorResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(query) != s.dimension {
		return nil, fmt.Errorf("query dimension mismatch: expected %d, got %d", s.dimension, len(query))
	}
	if k <= 0 {
		return nil, nil
	}

	results := make([]port.VectorResult, 0, len(s.items))
	for id, item := range s.items {
		if !store.MatchesFilter(item.Metadata, filter) {
			continue
		}
		results = append(results, port.VectorResult{
			ID:       id,
			Score:    store.DistanceScore(store.L2Distance(query, item.Vector)),
			Metadata: item.Metadata,
		})
	}
	store.SortResults(results)
	if k < len(results) {
		results = results[:k]
	}
	return results, nil
}

func (s *VectorStore) Delete(ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		delete(s.items, id)
	}
	return nil
}

func (s *VectorStore) Count() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items), nil
}

func (s *VectorStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = make(map[string]port.VectorItem)
	return nil
}

// Has reports whether id currently has a vector.
func (s *VectorStore) Has(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.items[id]
	return ok
}
