package registry

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/starford/sideload/internal/models"
)

// RecordActivity appends one import attempt to the activity log.
func (db *DB) RecordActivity(ctx context.Context, a models.Activity) error {
	created := a.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	var assetID any
	if a.AssetID != nil {
		assetID = *a.AssetID
	}
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO import_activity (batch_id, file, path, success, asset_id, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, a.BatchID, a.File, a.Path, a.Success, assetID, a.Error, created)
	if err != nil {
		return fmt.Errorf("registry: record activity: %w", err)
	}
	return nil
}

// ListActivity returns the most recent import attempts, newest first.
func (db *DB) ListActivity(ctx context.Context, limit int) ([]models.Activity, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, batch_id, file, path, success, asset_id, error, created_at
		FROM import_activity
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("registry: list activity: %w", err)
	}
	defer rows.Close()

	var out []models.Activity
	for rows.Next() {
		var (
			a       models.Activity
			assetID sql.NullInt64
		)
		if err := rows.Scan(&a.ID, &a.BatchID, &a.File, &a.Path, &a.Success, &assetID, &a.Error, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("registry: scan activity: %w", err)
		}
		if assetID.Valid {
			id := assetID.Int64
			a.AssetID = &id
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
