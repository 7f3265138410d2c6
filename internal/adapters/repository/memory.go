package repository

import (
	"context"
	"fmt"
	"sync"
)

// MemoryStore keeps runs in process memory.
type MemoryStore struct {
	mu       sync.RWMutex
	runs     []RunRecord // oldest first
	good     *RunRecord
	settings settings
}

// NewMemoryStore creates an empty in-memory archive.
func NewMemoryStore(opts ...Option) *MemoryStore {
	return &MemoryStore{settings: newSettings(opts)}
}

// Save implements Store.
func (s *MemoryStore) Save(_ context.Context, r RunRecord) error {
	if r.ID == "" {
		return ErrMissingID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs = append(s.runs, r)
	if over := len(s.runs) - s.settings.historyLimit; over > 0 {
		s.runs = append([]RunRecord(nil), s.runs[over:]...)
	}
	if r.OK() {
		good := r
		s.good = &good
	}
	return nil
}

// Latest implements Store.
func (s *MemoryStore) Latest(_ context.Context) (RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.runs) == 0 {
		return RunRecord{}, ErrNotFound
	}
	return s.runs[len(s.runs)-1], nil
}

// LatestGood implements Store.
func (s *MemoryStore) LatestGood(_ context.Context) (RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.good == nil {
		return RunRecord{}, ErrNotFound
	}
	return *s.good, nil
}

// List implements Store.
func (s *MemoryStore) List(_ context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLimit, limit)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := min(limit, len(s.runs))
	out := make([]RunRecord, 0, n)
	for i := len(s.runs) - 1; i >= len(s.runs)-n; i-- {
		out = append(out, s.runs[i])
	}
	return out, nil
}

// Close implements Store.
func (s *MemoryStore) Close() error {
	return nil
}
