package registry

import (
	"context"

	"github.com/starford/sideload/internal/models"
)

// Registry is the asset system of record. Consumers depend on this
// interface so the import core can run against Memory in tests.
type Registry interface {
	Insert(ctx context.Context, a models.NewAsset) (*models.Asset, error)
	Get(ctx context.Context, id int64) (*models.Asset, error)
	// FindByOriginalPath returns the first asset whose provenance attribute
	// equals path.
	FindByOriginalPath(ctx context.Context, path string) (int64, bool, error)
	// FindByStoragePath returns the first asset stored at the given
	// storage-relative path.
	FindByStoragePath(ctx context.Context, rel string) (int64, bool, error)
	UpdateMetadata(ctx context.Context, id int64, meta models.AssetMetadata) error
	List(ctx context.Context, limit, offset int) ([]models.Asset, int, error)
	Search(ctx context.Context, query string, limit int) ([]models.Asset, error)
	RecordActivity(ctx context.Context, a models.Activity) error
	ListActivity(ctx context.Context, limit int) ([]models.Activity, error)
	Close() error
}

// Verify *DB satisfies Registry at compile time.
var _ Registry = (*DB)(nil)
