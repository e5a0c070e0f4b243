// Package checkpointstore provides workflow.CheckpointStore implementations:
// an in-memory store for tests and single-process runs, and SQLite/MySQL
// backends that persist checkpoint snapshots durably. The SQLite and MySQL
// stores only write snapshots; they provide no method to read one back.
package checkpointstore

import (
	"context"
	"sync"

	"github.com/lyzr-oss/statelang/workflow"
)

// MemoryStore is an in-memory workflow.CheckpointStore. Grounded on the
// teacher's store.MemStore: a mutex-guarded map keyed by identifier,
// designed for tests and single-process workflows where persistence
// across restarts isn't needed.
type MemoryStore struct {
	mu          sync.RWMutex
	byID        map[string]workflow.CheckpointSnapshot
	latestByRun map[string]workflow.CheckpointSnapshot
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:        make(map[string]workflow.CheckpointSnapshot),
		latestByRun: make(map[string]workflow.CheckpointSnapshot),
	}
}

// Save records snapshot, indexed by its ID and as the latest checkpoint
// for its ExecID.
func (m *MemoryStore) Save(_ context.Context, snapshot workflow.CheckpointSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[snapshot.ID] = snapshot
	m.latestByRun[snapshot.ExecID] = snapshot
	return nil
}

// Get returns the checkpoint saved under id, or false if none exists.
func (m *MemoryStore) Get(id string) (workflow.CheckpointSnapshot, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.byID[id]
	return s, ok
}

// Latest returns the most recently saved checkpoint for execID, or false
// if that run has never checkpointed.
func (m *MemoryStore) Latest(execID string) (workflow.CheckpointSnapshot, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.latestByRun[execID]
	return s, ok
}
