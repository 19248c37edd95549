package settings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"github.com/starford/sideload/internal/metrics"
	pkgconfig "github.com/starford/sideload/pkg/config"
)

// ErrLockTimeout is returned when the settings file lock cannot be taken.
var ErrLockTimeout = errors.New("settings: lock timeout")

const lockTimeout = 5 * time.Second

// Store holds the current settings and persists changes to a YAML file.
// Readers take a snapshot with Current; it never changes underneath them.
type Store struct {
	path        string
	defaultRoot string
	current     atomic.Pointer[Settings]
	logger      *slog.Logger
}

// Open loads path, or starts from defaults when it does not exist yet.
func Open(path, defaultRoot string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{path: path, defaultRoot: defaultRoot, logger: logger}
	def := Defaults(defaultRoot)
	s.current.Store(&def)

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		logger.Info("settings file absent, using defaults", slog.String("path", path))
		return s, nil
	}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the settings file path.
func (s *Store) Path() string { return s.path }

// DefaultRoot returns the root used when none is configured.
func (s *Store) DefaultRoot() string { return s.defaultRoot }

// Current returns the settings snapshot.
func (s *Store) Current() Settings { return *s.current.Load() }

// Reload re-reads the settings file. On failure the previous snapshot stays.
func (s *Store) Reload() error {
	next := Defaults(s.defaultRoot)
	if err := pkgconfig.Load(s.path, &next); err != nil {
		metrics.RecordSettingsReload(false)
		return fmt.Errorf("settings: load: %w", err)
	}
	s.current.Store(&next)
	metrics.RecordSettingsReload(true)
	return nil
}

// Update sanitizes in, writes it under an exclusive file lock and makes it
// current. Sanitization notices are returned for display.
func (s *Store) Update(ctx context.Context, in Settings) (Settings, []string, error) {
	next, notices := Sanitize(in, s.defaultRoot)

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return Settings{}, nil, fmt.Errorf("settings: mkdir: %w", err)
	}
	lock := flock.New(s.path + ".lock")
	lockCtx, cancel := context.WithTimeout(ctx, lockTimeout)
	defer cancel()

	locked, err := lock.TryLockContext(lockCtx, 100*time.Millisecond)
	if err != nil {
		return Settings{}, nil, fmt.Errorf("settings: acquire lock: %w", err)
	}
	if !locked {
		return Settings{}, nil, ErrLockTimeout
	}
	defer func() { _ = lock.Unlock() }()

	if err := pkgconfig.Save(s.path, &next); err != nil {
		return Settings{}, nil, fmt.Errorf("settings: save: %w", err)
	}
	s.current.Store(&next)
	s.logger.Info("settings updated",
		slog.String("root_path", next.RootPath),
		slog.String("import_behavior", next.ImportBehavior),
		slog.String("allowed_types", next.AllowedTypes))
	return next, notices, nil
}
