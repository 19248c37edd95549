package registry

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/starford/sideload/internal/apperr"
	"github.com/starford/sideload/internal/models"
)

const assetColumns = `id, title, mime_type, status, storage_path, file_path, original_path,
	url, size, checksum, metadata, created_at`

// prefixed qualifies every asset column with a table alias.
func prefixed(alias string) string {
	cols := strings.Split(assetColumns, ",")
	for i, c := range cols {
		cols[i] = alias + strings.TrimSpace(c)
	}
	return strings.Join(cols, ", ")
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAsset(s rowScanner) (*models.Asset, error) {
	var (
		a        models.Asset
		original sql.NullString
		meta     string
	)
	if err := s.Scan(&a.ID, &a.Title, &a.MimeType, &a.Status, &a.StoragePath, &a.FilePath,
		&original, &a.URL, &a.Size, &a.Checksum, &meta, &a.CreatedAt); err != nil {
		return nil, err
	}
	a.OriginalPath = original.String
	if meta != "" {
		_ = json.Unmarshal([]byte(meta), &a.Metadata)
	}
	return &a, nil
}

// Insert registers a new asset together with its title search entry.
func (db *DB) Insert(ctx context.Context, n models.NewAsset) (*models.Asset, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("registry: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	status := n.Status
	if status == "" {
		status = models.StatusInherit
	}
	var original any
	if n.OriginalPath != "" {
		original = n.OriginalPath
	}
	now := time.Now().UTC()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO assets (title, mime_type, status, storage_path, file_path, original_path,
			url, size, checksum, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, '{}', ?)
	`, n.Title, n.MimeType, status, n.StoragePath, n.FilePath, original, n.URL, n.Size, n.Checksum, now)
	if err != nil {
		return nil, fmt.Errorf("registry: insert asset: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("registry: last insert id: %w", err)
	}

	// FTS upsert (no-op when FTS5 tag is absent).
	if err := ftsUpsert(tx, id, n.Title, n.StoragePath); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("registry: commit: %w", err)
	}

	return &models.Asset{
		ID:           id,
		Title:        n.Title,
		MimeType:     n.MimeType,
		Status:       status,
		StoragePath:  n.StoragePath,
		FilePath:     n.FilePath,
		OriginalPath: n.OriginalPath,
		URL:          n.URL,
		Size:         n.Size,
		Checksum:     n.Checksum,
		CreatedAt:    now,
	}, nil
}

// Get returns the asset with the given id or apperr.ErrNotFound.
func (db *DB) Get(ctx context.Context, id int64) (*models.Asset, error) {
	row := db.conn.QueryRowContext(ctx, `SELECT `+assetColumns+` FROM assets WHERE id = ?`, id)
	a, err := scanAsset(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("registry: get asset %d: %w", id, err)
	}
	return a, nil
}

// FindByOriginalPath returns the oldest asset recorded with this source path.
func (db *DB) FindByOriginalPath(ctx context.Context, path string) (int64, bool, error) {
	return db.findOne(ctx, `SELECT id FROM assets WHERE original_path = ? ORDER BY id LIMIT 1`, path)
}

// FindByStoragePath returns the oldest asset stored at rel.
func (db *DB) FindByStoragePath(ctx context.Context, rel string) (int64, bool, error) {
	return db.findOne(ctx, `SELECT id FROM assets WHERE storage_path = ? ORDER BY id LIMIT 1`, rel)
}

func (db *DB) findOne(ctx context.Context, query, arg string) (int64, bool, error) {
	var id int64
	err := db.conn.QueryRowContext(ctx, query, arg).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("registry: lookup: %w", err)
	}
	return id, true, nil
}

// UpdateMetadata replaces the post-processing metadata of an asset.
func (db *DB) UpdateMetadata(ctx context.Context, id int64, meta models.AssetMetadata) error {
	data, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("registry: encode metadata: %w", err)
	}
	res, err := db.conn.ExecContext(ctx, `UPDATE assets SET metadata = ? WHERE id = ?`, string(data), id)
	if err != nil {
		return fmt.Errorf("registry: update metadata: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// List returns assets newest first, with the total count.
func (db *DB) List(ctx context.Context, limit, offset int) ([]models.Asset, int, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	var total int
	if err := db.conn.QueryRowContext(ctx, `SELECT count(*) FROM assets`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("registry: count assets: %w", err)
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+assetColumns+` FROM assets ORDER BY id DESC LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("registry: list assets: %w", err)
	}
	defer rows.Close()

	out, err := collect(rows)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func collect(rows *sql.Rows) ([]models.Asset, error) {
	var out []models.Asset
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, fmt.Errorf("registry: scan asset: %w", err)
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}
