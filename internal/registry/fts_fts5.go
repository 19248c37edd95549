//go:build sqlite_fts5

package registry

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/starford/sideload/internal/models"
)

func initFTS(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS assets_fts USING fts5(
			asset_id UNINDEXED,
			title,
			storage_path,
			tokenize = 'unicode61 remove_diacritics 2'
		);
	`)
	return err
}

func ftsUpsert(tx *sql.Tx, id int64, title, storagePath string) error {
	_, _ = tx.Exec(`DELETE FROM assets_fts WHERE asset_id = ?`, id)
	_, err := tx.Exec(`INSERT INTO assets_fts (asset_id, title, storage_path) VALUES (?, ?, ?)`,
		id, title, storagePath)
	if err != nil {
		return fmt.Errorf("registry: upsert fts: %w", err)
	}
	return nil
}

// Search performs an FTS5 search over asset titles and storage paths.
func (db *DB) Search(ctx context.Context, query string, limit int) ([]models.Asset, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.QueryContext(ctx, `
		SELECT `+prefixed("a.")+`
		FROM assets_fts f
		JOIN assets a ON a.id = f.asset_id
		WHERE assets_fts MATCH ?
		ORDER BY rank
		LIMIT ?
	`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("registry: search: %w", err)
	}
	defer rows.Close()
	return collect(rows)
}
