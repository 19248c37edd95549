// Package provenance answers whether a source file has already been
// registered as an asset.
package provenance

import (
	"context"

	"github.com/starford/sideload/internal/registry"
)

// Area is the managed storage area as seen by provenance lookups.
type Area interface {
	Rel(abs string) (string, bool)
}

// Store looks assets up by source path. It never writes.
type Store struct {
	reg  registry.Registry
	area Area
}

// New returns a Store over reg. area may be nil when there is no managed
// storage area to match against.
func New(reg registry.Registry, area Area) *Store {
	return &Store{reg: reg, area: area}
}

// FindAssetBySourcePath returns the id of the asset recorded for abs.
// The original-path attribute is consulted first; when abs lies inside the
// storage area the storage-relative path is tried next. Any asset stored
// at that path counts, whether or not it was created by an import.
func (s *Store) FindAssetBySourcePath(ctx context.Context, abs string) (int64, bool, error) {
	id, ok, err := s.reg.FindByOriginalPath(ctx, abs)
	if err != nil || ok {
		return id, ok, err
	}
	if s.area == nil {
		return 0, false, nil
	}
	rel, inside := s.area.Rel(abs)
	if !inside || rel == "" {
		return 0, false, nil
	}
	return s.reg.FindByStoragePath(ctx, rel)
}
