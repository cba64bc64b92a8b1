// Package store holds the session's original snapshot. Loads replace it
// wholesale; filter passes derive from it and never write back.
package store

import (
	"sync"

	"github.com/dealerops/funnel-etl-go/internal/models"
)

type SnapshotStore struct {
	mu       sync.RWMutex
	original *models.Snapshot
}

func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{}
}

// SetOriginal installs the snapshot produced by a successful load.
func (s *SnapshotStore) SetOriginal(snap *models.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.original = snap
}

// Original returns the current snapshot, or false when nothing has been
// loaded yet.
func (s *SnapshotStore) Original() (*models.Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.original == nil {
		return nil, false
	}
	return s.original, true
}
