package registry

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/starford/sideload/internal/apperr"
	"github.com/starford/sideload/internal/models"
)

// Memory is an in-process Registry used by tests and dry runs.
type Memory struct {
	mu       sync.Mutex
	nextID   int64
	assets   []models.Asset
	activity []models.Activity

	// FailInsert, when set, is returned by every Insert call.
	FailInsert error
	// FailLookup, when set, is returned by every Find* call.
	FailLookup error
}

var _ Registry = (*Memory)(nil)

// NewMemory returns an empty in-memory registry.
func NewMemory() *Memory { return &Memory{} }

func (m *Memory) Insert(_ context.Context, n models.NewAsset) (*models.Asset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailInsert != nil {
		return nil, m.FailInsert
	}
	m.nextID++
	status := n.Status
	if status == "" {
		status = models.StatusInherit
	}
	a := models.Asset{
		ID:           m.nextID,
		Title:        n.Title,
		MimeType:     n.MimeType,
		Status:       status,
		StoragePath:  n.StoragePath,
		FilePath:     n.FilePath,
		OriginalPath: n.OriginalPath,
		URL:          n.URL,
		Size:         n.Size,
		Checksum:     n.Checksum,
		CreatedAt:    time.Now().UTC(),
	}
	m.assets = append(m.assets, a)
	return &a, nil
}

func (m *Memory) Get(_ context.Context, id int64) (*models.Asset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.assets {
		if a.ID == id {
			return &a, nil
		}
	}
	return nil, apperr.ErrNotFound
}

func (m *Memory) FindByOriginalPath(_ context.Context, path string) (int64, bool, error) {
	return m.find(func(a models.Asset) bool { return a.OriginalPath != "" && a.OriginalPath == path })
}

func (m *Memory) FindByStoragePath(_ context.Context, rel string) (int64, bool, error) {
	return m.find(func(a models.Asset) bool { return a.StoragePath == rel })
}

func (m *Memory) find(match func(models.Asset) bool) (int64, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailLookup != nil {
		return 0, false, m.FailLookup
	}
	for _, a := range m.assets {
		if match(a) {
			return a.ID, true, nil
		}
	}
	return 0, false, nil
}

func (m *Memory) UpdateMetadata(_ context.Context, id int64, meta models.AssetMetadata) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.assets {
		if m.assets[i].ID == id {
			m.assets[i].Metadata = meta
			return nil
		}
	}
	return apperr.ErrNotFound
}

func (m *Memory) List(_ context.Context, limit, offset int) ([]models.Asset, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	all := slices.Clone(m.assets)
	slices.Reverse(all)
	total := len(all)
	if offset < 0 || offset >= total {
		return nil, total, nil
	}
	end := min(offset+limit, total)
	return all[offset:end], total, nil
}

func (m *Memory) Search(_ context.Context, query string, limit int) ([]models.Asset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if limit <= 0 {
		limit = 20
	}
	q := strings.ToLower(query)
	var out []models.Asset
	for i := len(m.assets) - 1; i >= 0 && len(out) < limit; i-- {
		a := m.assets[i]
		if strings.Contains(strings.ToLower(a.Title), q) || strings.Contains(strings.ToLower(a.StoragePath), q) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *Memory) RecordActivity(_ context.Context, a models.Activity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a.ID = int64(len(m.activity) + 1)
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	m.activity = append(m.activity, a)
	return nil
}

func (m *Memory) ListActivity(_ context.Context, limit int) ([]models.Activity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	out := slices.Clone(m.activity)
	slices.Reverse(out)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Len returns the number of registered assets.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.assets)
}

func (m *Memory) Close() error { return nil }
