package testfixtures

import (
	"context"
	"sync"

	"github.com/example/room-ledger/internal/persistence"
)

// MemoryStore is an in-memory persistence.SnapshotStore that records how often it
// was written and can be told to fail.
type MemoryStore struct {
	mu       sync.Mutex
	snapshot persistence.Snapshot
	saved    bool
	saves    int

	// LoadErr and SaveErr, when set, are returned by Load and Save.
	LoadErr error
	SaveErr error
}

// NewMemoryStore returns a store that already holds snapshot. A nil snapshot
// yields a store that reports persistence.ErrNotFound on Load.
func NewMemoryStore(snapshot persistence.Snapshot) *MemoryStore {
	store := &MemoryStore{}
	if snapshot != nil {
		store.snapshot = snapshot.Clone()
		store.saved = true
	}
	return store
}

// Load returns a copy of the last saved snapshot.
func (s *MemoryStore) Load(ctx context.Context) (persistence.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.LoadErr != nil {
		return nil, s.LoadErr
	}
	if !s.saved {
		return nil, persistence.ErrNotFound
	}
	return s.snapshot.Clone(), nil
}

// Save replaces the stored snapshot.
func (s *MemoryStore) Save(ctx context.Context, snapshot persistence.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.SaveErr != nil {
		return s.SaveErr
	}
	s.snapshot = snapshot.Clone()
	s.saved = true
	s.saves++
	return nil
}

// Saves returns the number of successful Save calls.
func (s *MemoryStore) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

// Stored returns a copy of the stored snapshot, or nil when nothing was saved.
func (s *MemoryStore) Stored() persistence.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.saved {
		return nil
	}
	return s.snapshot.Clone()
}

// FailSaves makes subsequent Save calls return err; nil restores normal behaviour.
func (s *MemoryStore) FailSaves(err error) {
	s.mu.Lock()
	s.SaveErr = err
	s.mu.Unlock()
}
