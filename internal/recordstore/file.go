package recordstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

type PersistedState struct {
	Records map[string]Record `json:"records"`
}

func LoadState(path string) (PersistedState, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return PersistedState{Records: map[string]Record{}}, nil
		}
		return PersistedState{}, err
	}
	var state PersistedState
	if err := json.Unmarshal(blob, &state); err != nil {
		return PersistedState{}, err
	}
	if state.Records == nil {
		state.Records = map[string]Record{}
	}
	return state, nil
}

func SaveState(path string, state PersistedState) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	blob, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, blob, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// FileStore keeps records in memory and rewrites a JSON state file on every
// upsert.
type FileStore struct {
	path  string
	mem   *MemoryStore
	saveM sync.Mutex
}

func NewFileStore(path string) (*FileStore, error) {
	state, err := LoadState(path)
	if err != nil {
		return nil, err
	}
	mem := NewMemoryStore()
	for id, rec := range state.Records {
		mem.records[id] = rec
	}
	return &FileStore{path: path, mem: mem}, nil
}

func (s *FileStore) Get(ctx context.Context, auditID string) (Record, error) {
	return s.mem.Get(ctx, auditID)
}

// Upsert writes the state file with rec applied and only then updates the
// in-memory records, so a failed write leaves both unchanged.
func (s *FileStore) Upsert(ctx context.Context, rec Record) error {
	if rec.AuditID == "" {
		return fmt.Errorf("audit_id is required")
	}
	s.saveM.Lock()
	defer s.saveM.Unlock()
	state := PersistedState{Records: map[string]Record{}}
	for _, r := range s.mem.Snapshot() {
		state.Records[r.AuditID] = r
	}
	state.Records[rec.AuditID] = rec
	if err := SaveState(s.path, state); err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	return s.mem.Upsert(ctx, rec)
}

func (s *FileStore) Close() error { return nil }
