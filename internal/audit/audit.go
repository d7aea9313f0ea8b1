// Package audit persists one finalized decision record per run for
// regulatory audit. The pipeline does not retry persistence failures; they
// surface as the run's terminal error.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/fyrsmithlabs/verdictd/internal/decision"
)

// Store accepts exactly one finalized run result per run.
type Store interface {
	Save(ctx context.Context, result *decision.RunResult) error
}

// MemoryStore keeps results in memory. Used in tests and as the default
// when no durable store is configured.
type MemoryStore struct {
	mu      sync.Mutex
	results []*decision.RunResult
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Save implements Store.
func (s *MemoryStore) Save(ctx context.Context, result *decision.RunResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, result)
	return nil
}

// Results returns the saved results in arrival order.
func (s *MemoryStore) Results() []*decision.RunResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*decision.RunResult, len(s.results))
	copy(out, s.results)
	return out
}

// FileStore appends one JSON line per run to an audit log file.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore creates a JSONL-backed store at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Save implements Store.
func (s *FileStore) Save(ctx context.Context, result *decision.RunResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal run result: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("open audit log: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("append audit record: %w", err)
	}
	return nil
}

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*FileStore)(nil)
)
