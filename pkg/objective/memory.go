package objective

import (
	"context"
	"sync"
)

// MemoryStore is an in-process Store used in tests and single-host
// runs where no Postgres instance is configured.
type MemoryStore struct {
	mu         sync.Mutex
	objectives map[string]Objective
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objectives: make(map[string]Objective)}
}

func (s *MemoryStore) Record(ctx context.Context, o Objective) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.objectives[o.Digest]; !exists {
		s.objectives[o.Digest] = o
	}
	return nil
}

func (s *MemoryStore) List(ctx context.Context) ([]Objective, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Objective, 0, len(s.objectives))
	for _, o := range s.objectives {
		out = append(out, o)
	}
	return out, nil
}

func (s *MemoryStore) Close() error { return nil }
