// Package importservice wires the browse and import core to the current
// runtime settings. Every call builds its collaborators from a fresh
// settings snapshot, so a settings change applies to the next request.
package importservice

import (
	"context"
	"log/slog"

	"github.com/starford/sideload/internal/apperr"
	"github.com/starford/sideload/internal/browser"
	"github.com/starford/sideload/internal/fsys"
	"github.com/starford/sideload/internal/importer"
	"github.com/starford/sideload/internal/library"
	"github.com/starford/sideload/internal/metrics"
	"github.com/starford/sideload/internal/models"
	"github.com/starford/sideload/internal/pathguard"
	"github.com/starford/sideload/internal/provenance"
	"github.com/starford/sideload/internal/registry"
	"github.com/starford/sideload/internal/settings"
)

// Settings supplies the current settings snapshot.
type Settings interface {
	Current() settings.Settings
	Update(ctx context.Context, in settings.Settings) (settings.Settings, []string, error)
}

// Options carries the optional collaborators of a Service.
type Options struct {
	Post   importer.PostProcessor
	Events importer.Events
	Logger *slog.Logger
}

// Service coordinates browsing, importing and the asset registry.
type Service struct {
	settings Settings
	fs       fsys.FS
	reg      registry.Registry
	lib      *library.Library
	prov     *provenance.Store
	post     importer.PostProcessor
	events   importer.Events
	logger   *slog.Logger
}

// New returns a Service.
func New(st Settings, fs fsys.FS, reg registry.Registry, lib *library.Library, opts Options) *Service {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Service{
		settings: st,
		fs:       fs,
		reg:      reg,
		lib:      lib,
		prov:     provenance.New(reg, lib),
		post:     opts.Post,
		events:   opts.Events,
		logger:   opts.Logger,
	}
}

// Browse lists path, or the root when path is empty.
func (s *Service) Browse(ctx context.Context, path string) (*models.BrowseResult, error) {
	res, err := s.browse(ctx, path)
	outcome := "ok"
	if err != nil {
		outcome = string(apperr.KindOf(err))
	}
	metrics.RecordBrowse(outcome)
	return res, err
}

func (s *Service) browse(ctx context.Context, path string) (*models.BrowseResult, error) {
	cur := s.settings.Current()
	resolver := pathguard.New(cur.RootPath, s.fs)

	root, err := resolver.Root()
	if err != nil {
		return nil, err
	}
	target := root
	if path != "" {
		if target, err = resolver.Resolve(path); err != nil {
			return nil, err
		}
	}

	listing, err := browser.NewLister(s.fs, cur.Policy(), s.prov).List(ctx, target)
	if err != nil {
		return nil, err
	}
	return &models.BrowseResult{
		CurrentPath: target,
		Breadcrumbs: browser.Breadcrumbs(root, target),
		Directories: listing.Directories,
		Files:       listing.Files,
	}, nil
}

// Import imports paths in order and reports one result per path.
func (s *Service) Import(ctx context.Context, paths []string) importer.Summary {
	cur := s.settings.Current()
	imp := importer.New(importer.Deps{
		Resolver: pathguard.New(cur.RootPath, s.fs),
		FS:       s.fs,
		Policy:   cur.Policy(),
		Finder:   s.prov,
		Library:  s.lib,
		Registry: s.reg,
		Post:     s.post,
		Behavior: cur.ImportBehavior,
		Logger:   s.logger,
	})
	return importer.NewBatch(imp, s.reg, s.events, s.logger).ImportBatch(ctx, paths)
}

// Settings returns the current settings.
func (s *Service) Settings() settings.Settings { return s.settings.Current() }

// UpdateSettings sanitizes and persists in.
func (s *Service) UpdateSettings(ctx context.Context, in settings.Settings) (settings.Settings, []string, error) {
	return s.settings.Update(ctx, in)
}

// ListAssets returns registered assets, newest first.
func (s *Service) ListAssets(ctx context.Context, limit, offset int) ([]models.Asset, int, error) {
	return s.reg.List(ctx, limit, offset)
}

// SearchAssets searches asset titles and storage paths.
func (s *Service) SearchAssets(ctx context.Context, query string, limit int) ([]models.Asset, error) {
	return s.reg.Search(ctx, query, limit)
}

// GetAsset returns one asset or apperr.ErrNotFound.
func (s *Service) GetAsset(ctx context.Context, id int64) (*models.Asset, error) {
	return s.reg.Get(ctx, id)
}

// Activity returns recent import attempts.
func (s *Service) Activity(ctx context.Context, limit int) ([]models.Activity, error) {
	return s.reg.ListActivity(ctx, limit)
}

// Library returns the managed storage area.
func (s *Service) Library() *library.Library { return s.lib }
