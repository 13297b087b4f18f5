package recordstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]Record)}
}

func (s *MemoryStore) Get(_ context.Context, auditID string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[auditID]
	if !ok {
		return Record{}, fmt.Errorf("%w: %s", ErrNotFound, auditID)
	}
	return rec, nil
}

func (s *MemoryStore) Upsert(_ context.Context, rec Record) error {
	if rec.AuditID == "" {
		return fmt.Errorf("audit_id is required")
	}
	s.mu.Lock()
	s.records[rec.AuditID] = rec
	s.mu.Unlock()
	return nil
}

// Snapshot returns every record ordered by creation time.
func (s *MemoryStore) Snapshot() []Record {
	s.mu.RLock()
	out := make([]Record, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].AuditID < out[j].AuditID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (s *MemoryStore) Close() error { return nil }
