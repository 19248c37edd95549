//go:build !sqlite_fts5

package registry

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/starford/sideload/internal/models"
)

func initFTS(_ *sql.DB) error {
	// FTS5 not available; search uses LIKE on the assets table.
	return nil
}

func ftsUpsert(_ *sql.Tx, _ int64, _, _ string) error {
	return nil
}

// Search performs a LIKE-based search (fallback when FTS5 is not compiled in).
func (db *DB) Search(ctx context.Context, query string, limit int) ([]models.Asset, error) {
	if limit <= 0 {
		limit = 20
	}
	like := "%" + query + "%"
	rows, err := db.conn.QueryContext(ctx, `
		SELECT `+assetColumns+`
		FROM assets
		WHERE title LIKE ? OR storage_path LIKE ?
		ORDER BY id DESC
		LIMIT ?
	`, like, like, limit)
	if err != nil {
		return nil, fmt.Errorf("registry: search: %w", err)
	}
	defer rows.Close()
	return collect(rows)
}
