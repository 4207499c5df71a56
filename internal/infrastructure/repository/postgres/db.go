package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// OpenDB opens the shared read-mostly connection pool. Catalog queries run
// concurrently across batch workers on this pool.
func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

// EnsureSchema bootstraps all tables. The advisory lock serializes DDL across
// api/worker startups.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026082501)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS parts (
	part_number TEXT PRIMARY KEY,
	description TEXT NOT NULL,
	category TEXT NOT NULL DEFAULT '',
	material TEXT NOT NULL DEFAULT '',
	keywords TEXT NOT NULL DEFAULT '',
	availability TEXT NOT NULL DEFAULT 'in_stock',
	list_price DOUBLE PRECISION NOT NULL DEFAULT 0,
	diameter_mm DOUBLE PRECISION NOT NULL DEFAULT 0,
	length_mm DOUBLE PRECISION NOT NULL DEFAULT 0,
	width_mm DOUBLE PRECISION NOT NULL DEFAULT 0,
	height_mm DOUBLE PRECISION NOT NULL DEFAULT 0,
	thickness_mm DOUBLE PRECISION NOT NULL DEFAULT 0,
	material_grade TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_parts_category ON parts(category);
CREATE INDEX IF NOT EXISTS idx_parts_fts ON parts
	USING GIN (to_tsvector('english', description || ' ' || keywords));

CREATE TABLE IF NOT EXISTS orders (
	id TEXT PRIMARY KEY,
	customer TEXT NOT NULL DEFAULT '',
	source TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL,
	error_message TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS line_items (
	id TEXT PRIMARY KEY,
	order_id TEXT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
	position INT NOT NULL,
	raw_text TEXT NOT NULL,
	quantity DOUBLE PRECISION NOT NULL DEFAULT 0,
	unit TEXT NOT NULL DEFAULT '',
	material_hint TEXT NOT NULL DEFAULT '',
	part_number_hint TEXT NOT NULL DEFAULT '',
	dimensions_hint TEXT NOT NULL DEFAULT '',
	urgency TEXT NOT NULL DEFAULT '',
	requirements JSONB NOT NULL DEFAULT '[]'::jsonb
);

CREATE INDEX IF NOT EXISTS idx_line_items_order ON line_items(order_id, position);

CREATE TABLE IF NOT EXISTS match_results (
	order_id TEXT PRIMARY KEY REFERENCES orders(id) ON DELETE CASCADE,
	matches JSONB NOT NULL,
	statistics JSONB NOT NULL,
	confidence DOUBLE PRECISION NOT NULL,
	gates JSONB NOT NULL DEFAULT '[]'::jsonb,
	errors JSONB NOT NULL DEFAULT '{}'::jsonb,
	created_at TIMESTAMPTZ NOT NULL
);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}
