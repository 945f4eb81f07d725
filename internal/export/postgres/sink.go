package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MrWong99/pbsimport/internal/export"
	"github.com/MrWong99/pbsimport/internal/pbs"
)

var _ export.Sink = (*Sink)(nil)

// Sink writes tables into a single PostgreSQL table. All operations are safe
// for concurrent use.
type Sink struct {
	pool  *pgxpool.Pool
	table string
}

// NewSink creates a connection pool to the database at dsn, verifies it
// with a ping and runs [Migrate] for table.
func NewSink(ctx context.Context, dsn, table string) (*Sink, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres sink: parse dsn: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres sink: create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres sink: ping: %w", err)
	}

	if err := Migrate(ctx, pool, table); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres sink: %w", err)
	}

	return &Sink{pool: pool, table: table}, nil
}

// Name implements [export.Sink].
func (*Sink) Name() string { return "postgres" }

// Import implements [export.Sink]. The previous records of the kind are
// deleted and the new ones inserted in a single transaction.
func (s *Sink) Import(ctx context.Context, t *pbs.Table) (n int, err error) {
	records := t.Records()
	tbl := pgx.Identifier{s.table}.Sanitize()

	batch := &pgx.Batch{}
	batch.Queue(`DELETE FROM `+tbl+` WHERE kind = $1`, t.Kind())
	for i, r := range records {
		doc, err := json.Marshal(r)
		if err != nil {
			return 0, fmt.Errorf("postgres sink: encode [%s]: %w", r.ID(), err)
		}
		batch.Queue(`INSERT INTO `+tbl+` (kind, id, position, doc) VALUES ($1, $2, $3, $4)`,
			t.Kind(), r.ID(), i, doc)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("postgres sink: begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return 0, fmt.Errorf("postgres sink: import %s: %w", t.Kind(), err)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("postgres sink: commit: %w", err)
	}
	return len(records), nil
}

// Get returns the stored document of record id of kind.
// Returns [export.ErrNotFound] when no such record exists.
func (s *Sink) Get(ctx context.Context, kind, id string) (json.RawMessage, error) {
	var doc []byte
	err := s.pool.QueryRow(ctx,
		`SELECT doc FROM `+pgx.Identifier{s.table}.Sanitize()+` WHERE kind = $1 AND id = $2`,
		kind, id,
	).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, export.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres sink: get %s %s: %w", kind, id, err)
	}
	return doc, nil
}

// IDs returns the stored record identifiers of kind in import order.
func (s *Sink) IDs(ctx context.Context, kind string) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id FROM `+pgx.Identifier{s.table}.Sanitize()+` WHERE kind = $1 ORDER BY position`,
		kind,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres sink: list %s: %w", kind, err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("postgres sink: list %s: %w", kind, err)
	}
	return ids, nil
}

// Ping reports whether the database is reachable. It matches the signature
// of a health check.
func (s *Sink) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases all connections held by the underlying connection pool.
func (s *Sink) Close() {
	s.pool.Close()
}
