package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"biome/internal/classify"
	"biome/internal/node"
)

const metaLastScan = "last_scan"

// Snapshot is the persisted node set.
type Snapshot struct {
	Nodes    []node.FileNode
	LastScan time.Time
	SavedAt  time.Time
}

// SaveSnapshot replaces the stored node set with nodes.
func (db *DB) SaveSnapshot(ctx context.Context, nodes []node.FileNode, lastScan time.Time) error {
	start := time.Now()
	err := db.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM nodes"); err != nil {
			return err
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO nodes (path, name, size, type, category, tags, created_at, modified_at,
				last_accessed_at, access_count, health, entropy, content_hash, cloaked, cloaked_at, integrity_hash)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return err
		}
		defer func() { _ = stmt.Close() }()

		for _, n := range nodes {
			tags, err := json.Marshal(n.Tags)
			if err != nil {
				return err
			}
			_, err = stmt.ExecContext(ctx,
				n.Path,
				n.Name,
				n.Size,
				string(n.Type),
				string(n.Category),
				string(tags),
				formatTime(n.CreatedAt),
				formatTime(n.ModifiedAt),
				formatTime(n.LastAccessedAt),
				n.AccessCount,
				n.Health,
				n.Entropy,
				nullString(n.ContentHash),
				n.Cloaked,
				nullTime(n.CloakedAt),
				nullString(n.IntegrityHash),
			)
			if err != nil {
				return fmt.Errorf("insert %s: %w", n.Path, err)
			}
		}

		if err := putMeta(ctx, tx, metaLastScan, formatTime(lastScan)); err != nil {
			return err
		}
		return putMeta(ctx, tx, "saved_at", formatTime(time.Now()))
	})
	if err != nil {
		return err
	}
	db.logger.Debug("Snapshot saved", "nodes", len(nodes), "duration", time.Since(start))
	return nil
}

// LoadSnapshot reads the stored node set, ordered by path. An empty
// database yields an empty snapshot.
func (db *DB) LoadSnapshot(ctx context.Context) (*Snapshot, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT path, name, size, type, category, tags, created_at, modified_at,
			last_accessed_at, access_count, health, entropy, content_hash, cloaked, cloaked_at, integrity_hash
		FROM nodes ORDER BY path
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	snap := &Snapshot{Nodes: []node.FileNode{}}
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, err
		}
		snap.Nodes = append(snap.Nodes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if v, ok, err := db.getMeta(ctx, metaLastScan); err != nil {
		return nil, err
	} else if ok {
		snap.LastScan = parseTime(v)
	}
	if v, ok, err := db.getMeta(ctx, "saved_at"); err != nil {
		return nil, err
	} else if ok {
		snap.SavedAt = parseTime(v)
	}
	return snap, nil
}

// NodeCount returns the number of stored nodes.
func (db *DB) NodeCount(ctx context.Context) (int, error) {
	var n int
	err := db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM nodes").Scan(&n)
	return n, err
}

func scanNode(rows *sql.Rows) (node.FileNode, error) {
	var n node.FileNode
	var typ, category, tags, createdAt, modifiedAt, lastAccessed string
	var contentHash, cloakedAt, integrityHash sql.NullString

	err := rows.Scan(
		&n.Path,
		&n.Name,
		&n.Size,
		&typ,
		&category,
		&tags,
		&createdAt,
		&modifiedAt,
		&lastAccessed,
		&n.AccessCount,
		&n.Health,
		&n.Entropy,
		&contentHash,
		&n.Cloaked,
		&cloakedAt,
		&integrityHash,
	)
	if err != nil {
		return n, err
	}
	if err := json.Unmarshal([]byte(tags), &n.Tags); err != nil {
		return n, fmt.Errorf("decode tags of %s: %w", n.Path, err)
	}

	n.Type = classify.FileType(typ)
	n.Category = classify.Category(category)
	n.CreatedAt = parseTime(createdAt)
	n.ModifiedAt = parseTime(modifiedAt)
	n.LastAccessedAt = parseTime(lastAccessed)
	n.ContentHash = contentHash.String
	n.IntegrityHash = integrityHash.String
	if cloakedAt.Valid {
		n.CloakedAt = parseTime(cloakedAt.String)
	}
	return n, nil
}

func putMeta(ctx context.Context, tx *sql.Tx, key, value string) error {
	_, err := tx.ExecContext(ctx,
		"INSERT INTO snapshot_meta (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value)
	return err
}

func (db *DB) getMeta(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := db.conn.QueryRowContext(ctx, "SELECT value FROM snapshot_meta WHERE key = ?", key).Scan(&v)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullTime(t time.Time) sql.NullString {
	if t.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(t), Valid: true}
}
