// Package postgres provides a PostgreSQL-backed [export.Sink] storing every
// record as a JSONB document keyed by kind and identifier.
//
// Usage:
//
//	sink, err := postgres.NewSink(ctx, dsn, "pbs_records")
//	if err != nil { … }
//	defer sink.Close()
//
//	n, err := sink.Import(ctx, table)
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ddlRecords returns the DDL of the record table. Identifiers are quoted
// with [pgx.Identifier].
func ddlRecords(table string) string {
	t := pgx.Identifier{table}.Sanitize()
	idx := pgx.Identifier{"idx_" + table + "_kind"}.Sanitize()
	return fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %[1]s (
    kind         TEXT         NOT NULL,
    id           TEXT         NOT NULL,
    position     INTEGER      NOT NULL,
    doc          JSONB        NOT NULL,
    imported_at  TIMESTAMPTZ  NOT NULL DEFAULT now(),
    PRIMARY KEY (kind, id)
);

CREATE INDEX IF NOT EXISTS %[2]s
    ON %[1]s (kind, position);
`, t, idx)
}

// Migrate creates the record table if it does not exist. It is idempotent
// and safe to call on every application start.
func Migrate(ctx context.Context, pool *pgxpool.Pool, table string) error {
	if _, err := pool.Exec(ctx, ddlRecords(table)); err != nil {
		return fmt.Errorf("postgres migrate: %w", err)
	}
	return nil
}
