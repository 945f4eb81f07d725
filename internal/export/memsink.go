package export

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/MrWong99/pbsimport/internal/pbs"
)

var _ Sink = (*MemSink)(nil)

// MemSink is a thread-safe, in-memory [Sink] holding the JSON document of
// every record. It is suitable for dry runs and testing.
// The zero value is ready to use.
type MemSink struct {
	mu    sync.RWMutex
	kinds map[string]memTable
}

type memTable struct {
	ids  []string
	docs map[string]json.RawMessage
}

// NewMemSink returns an initialised [MemSink].
func NewMemSink() *MemSink {
	return &MemSink{kinds: make(map[string]memTable)}
}

// Name implements [Sink].
func (*MemSink) Name() string { return "memory" }

// Import implements [Sink].
func (s *MemSink) Import(ctx context.Context, t *pbs.Table) (int, error) {
	records := t.Records()
	mt := memTable{
		ids:  make([]string, 0, len(records)),
		docs: make(map[string]json.RawMessage, len(records)),
	}
	for _, r := range records {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		doc, err := json.Marshal(r)
		if err != nil {
			return 0, fmt.Errorf("encode [%s]: %w", r.ID(), err)
		}
		mt.ids = append(mt.ids, r.ID())
		mt.docs[r.ID()] = doc
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.kinds == nil {
		s.kinds = make(map[string]memTable)
	}
	s.kinds[t.Kind()] = mt
	return len(records), nil
}

// Get returns the document of record id of kind.
// Returns [ErrNotFound] when no such record was imported.
func (s *MemSink) Get(kind, id string) (json.RawMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.kinds[kind].docs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return doc, nil
}

// IDs returns the record identifiers of kind in import order.
func (s *MemSink) IDs(kind string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.kinds[kind].ids)
}

// Kinds returns the imported kinds in ascending order.
func (s *MemSink) Kinds() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Sorted(maps.Keys(s.kinds))
}
