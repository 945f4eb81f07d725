package health

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"sync"
	"time"
)

// ErrNoImport is returned by the import checker before the first run
// completes.
var ErrNoImport = errors.New("health: no import has completed yet")

// KindStatus is the outcome of importing one entity kind.
type KindStatus struct {
	Records  int           `json:"records"`
	Duration time.Duration `json:"duration_ns"`
	Error    string        `json:"error,omitempty"`
}

// Snapshot is a point-in-time copy of an [ImportStatus].
type Snapshot struct {
	Runs      int                   `json:"runs"`
	LastRun   time.Time             `json:"last_run,omitzero"`
	LastError string                `json:"last_error,omitempty"`
	Kinds     map[string]KindStatus `json:"kinds"`
}

// ImportStatus records the result of the most recent import run. It is
// safe for concurrent use: the watcher writes while HTTP handlers read.
type ImportStatus struct {
	mu   sync.RWMutex
	snap Snapshot
	ok   bool
}

// NewImportStatus returns an empty [ImportStatus].
func NewImportStatus() *ImportStatus {
	return &ImportStatus{snap: Snapshot{Kinds: map[string]KindStatus{}}}
}

// Record stores the outcome of a run. kinds replaces the per-kind results
// of the previous run.
func (s *ImportStatus) Record(at time.Time, kinds map[string]KindStatus, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snap.Runs++
	s.snap.LastRun = at
	s.snap.Kinds = maps.Clone(kinds)
	if s.snap.Kinds == nil {
		s.snap.Kinds = map[string]KindStatus{}
	}
	s.snap.LastError = ""
	if err != nil {
		s.snap.LastError = err.Error()
	}
	s.ok = err == nil
}

// Snapshot returns a copy of the current state.
func (s *ImportStatus) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := s.snap
	out.Kinds = maps.Clone(s.snap.Kinds)
	return out
}

// Checker returns a readiness [Checker] that passes once the most recent run
// succeeded.
func (s *ImportStatus) Checker() Checker {
	return Checker{
		Name: "import",
		Check: func(context.Context) error {
			s.mu.RLock()
			defer s.mu.RUnlock()
			if s.snap.Runs == 0 {
				return ErrNoImport
			}
			if !s.ok {
				return fmt.Errorf("last import failed: %s", s.snap.LastError)
			}
			return nil
		},
	}
}
