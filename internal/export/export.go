// Package export writes imported tables to their destinations.
//
// A [Sink] receives one [pbs.Table] at a time and replaces everything it
// previously held for that table's kind, so re-running an import never
// leaves stale records behind.
package export

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/MrWong99/pbsimport/internal/observe"
	"github.com/MrWong99/pbsimport/internal/pbs"
)

// ErrNotFound is returned by sink lookups when no record matches.
var ErrNotFound = errors.New("export: record not found")

// Sink is a destination for imported tables.
//
// Implementations must be safe for concurrent use.
type Sink interface {
	// Name is a short label for the sink used in logs and metrics
	// (e.g. "json", "postgres").
	Name() string

	// Import replaces the records stored for t's kind with t's records.
	// Returns the number of records written.
	Import(ctx context.Context, t *pbs.Table) (int, error)
}

// Stager is a [Sink] that can hold tables back until a whole run succeeded.
// Stage prepares a table without making it visible, Commit publishes
// everything staged since the last Commit or Discard, and Discard drops it.
type Stager interface {
	Sink
	Stage(ctx context.Context, t *pbs.Table) (int, error)
	Commit() error
	Discard()
}

// ImportAll writes every table to every sink. Sinks run concurrently; each
// sink receives the tables in order. The first failure cancels the
// remaining work and is returned. [Stager] sinks are only committed once
// every sink has accepted every table, and are discarded otherwise. A nil
// m means [observe.DefaultMetrics].
func ImportAll(ctx context.Context, m *observe.Metrics, sinks []Sink, tables []*pbs.Table) error {
	if m == nil {
		m = observe.DefaultMetrics()
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, s := range sinks {
		g.Go(func() (err error) {
			ctx, span := observe.StartExport(ctx, s.Name(), len(tables))
			written := 0
			defer func() { observe.EndSpan(span, written, err) }()

			for _, t := range tables {
				if err := ctx.Err(); err != nil {
					return err
				}
				write := s.Import
				if st, ok := s.(Stager); ok {
					write = st.Stage
				}
				n, err := write(ctx, t)
				if err != nil {
					return fmt.Errorf("export: %s: %s: %w", s.Name(), t.Kind(), err)
				}
				written += n
				m.RecordExport(ctx, s.Name(), t.Kind(), n)
				observe.Logger(ctx).Debug("table exported",
					"sink", s.Name(),
					"kind", t.Kind(),
					"records", n,
				)
			}
			return nil
		})
	}
	err := g.Wait()

	var errs []error
	for _, s := range sinks {
		st, ok := s.(Stager)
		if !ok {
			continue
		}
		if err != nil {
			st.Discard()
			continue
		}
		if cerr := st.Commit(); cerr != nil {
			errs = append(errs, fmt.Errorf("export: %s: commit: %w", s.Name(), cerr))
		}
	}
	if err != nil {
		return err
	}
	return errors.Join(errs...)
}
