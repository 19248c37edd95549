// Package registry provides the SQLite-backed asset registry with optional
// FTS5 title search.
package registry

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const coreSchemaSQL = `
CREATE TABLE IF NOT EXISTS assets (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	title         TEXT NOT NULL DEFAULT '',
	mime_type     TEXT NOT NULL DEFAULT '',
	status        TEXT NOT NULL DEFAULT 'inherit',
	storage_path  TEXT NOT NULL,
	file_path     TEXT NOT NULL,
	original_path TEXT,
	url           TEXT NOT NULL DEFAULT '',
	size          INTEGER NOT NULL DEFAULT 0,
	checksum      TEXT NOT NULL DEFAULT '',
	metadata      TEXT NOT NULL DEFAULT '{}',
	created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_assets_original_path ON assets(original_path);
CREATE INDEX IF NOT EXISTS idx_assets_storage_path ON assets(storage_path);

CREATE TABLE IF NOT EXISTS import_activity (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	batch_id   TEXT NOT NULL,
	file       TEXT NOT NULL,
	path       TEXT NOT NULL,
	success    INTEGER NOT NULL,
	asset_id   INTEGER,
	error      TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_import_activity_batch ON import_activity(batch_id);
`

// DB wraps a sql.DB with registry operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("registry: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("registry: ping: %w", err)
	}
	if _, err := conn.Exec(coreSchemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("registry: apply core schema: %w", err)
	}
	if err := initFTS(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("registry: apply fts schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
