package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// migrations[i] moves the schema from version i to i+1. The version lives
// in PRAGMA user_version. Append only.
var migrations = []string{
	`CREATE TABLE nodes (
		path TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		size INTEGER NOT NULL,
		type TEXT NOT NULL,
		category TEXT NOT NULL,
		tags TEXT NOT NULL,
		created_at TEXT NOT NULL,
		modified_at TEXT NOT NULL,
		last_accessed_at TEXT NOT NULL,
		access_count INTEGER NOT NULL DEFAULT 0,
		health INTEGER NOT NULL,
		entropy INTEGER NOT NULL,
		content_hash TEXT,
		cloaked INTEGER NOT NULL DEFAULT 0,
		cloaked_at TEXT,
		integrity_hash TEXT
	);
	CREATE INDEX idx_nodes_category ON nodes(category);
	CREATE TABLE snapshot_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);`,

	`CREATE INDEX idx_nodes_content_hash ON nodes(content_hash) WHERE content_hash IS NOT NULL;`,
}

func schemaVersion(ctx context.Context, q interface {
	QueryRowContext(context.Context, string, ...any) *sql.Row
}) (int, error) {
	var v int
	err := q.QueryRowContext(ctx, "PRAGMA user_version").Scan(&v)
	return v, err
}

func (db *DB) migrate(ctx context.Context) error {
	have, err := schemaVersion(ctx, db.conn)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	want := len(migrations)
	if have > want {
		return fmt.Errorf("schema version %d is newer than this build supports (%d)", have, want)
	}
	for v := have; v < want; v++ {
		err := db.WithTx(ctx, func(tx *sql.Tx) error {
			if _, err := tx.ExecContext(ctx, migrations[v]); err != nil {
				return err
			}
			// PRAGMA does not take bind parameters
			_, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", v+1))
			return err
		})
		if err != nil {
			return fmt.Errorf("migrate to v%d: %w", v+1, err)
		}
		db.logger.Debug("Schema migrated", "version", v+1)
	}
	return nil
}
