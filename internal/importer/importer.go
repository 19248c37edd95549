// Package importer places files from the browse root into the managed
// storage area and registers them as assets.
//
// Known limitations: a path is validated before it is opened, so a file
// swapped in between is not detected; a placed file is not removed when
// registration fails; two concurrent imports of one source may both pass
// the duplicate check.
package importer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/starford/sideload/internal/apperr"
	"github.com/starford/sideload/internal/filetype"
	"github.com/starford/sideload/internal/fsys"
	"github.com/starford/sideload/internal/library"
	"github.com/starford/sideload/internal/metrics"
	"github.com/starford/sideload/internal/models"
	"github.com/starford/sideload/internal/pathguard"
)

// Import behaviors.
const (
	BehaviorCopy = "copy"
	BehaviorMove = "move"
)

// sniffLen is how many leading bytes are read for content detection.
const sniffLen = 3072

// Finder reports whether a source path has already been imported.
type Finder interface {
	FindAssetBySourcePath(ctx context.Context, abs string) (int64, bool, error)
}

// Registrar records new assets.
type Registrar interface {
	Insert(ctx context.Context, a models.NewAsset) (*models.Asset, error)
	UpdateMetadata(ctx context.Context, id int64, meta models.AssetMetadata) error
}

// PostProcessor derives metadata for a freshly registered asset.
type PostProcessor interface {
	Process(ctx context.Context, a *models.Asset) (models.AssetMetadata, error)
}

// Deps wires an Importer.
type Deps struct {
	Resolver *pathguard.Resolver
	FS       fsys.FS
	Policy   filetype.Policy
	Finder   Finder
	Library  *library.Library
	Registry Registrar
	// Post is optional.
	Post PostProcessor
	// Behavior is BehaviorCopy (default) or BehaviorMove.
	Behavior string
	Logger   *slog.Logger
}

// Importer imports one file at a time.
type Importer struct {
	d Deps
}

// New returns an Importer.
func New(d Deps) *Importer {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Behavior != BehaviorMove {
		d.Behavior = BehaviorCopy
	}
	return &Importer{d: d}
}

// ImportFile imports requested and returns the registered asset. Failures
// are *apperr.Error values; nothing is registered unless placement succeeded.
func (im *Importer) ImportFile(ctx context.Context, requested string) (*models.Asset, error) {
	start := time.Now()
	a, err := im.importFile(ctx, requested)
	outcome := "ok"
	var size int64
	if err != nil {
		outcome = string(apperr.KindOf(err))
		if outcome == "" {
			outcome = "error"
		}
	} else {
		size = a.Size
	}
	metrics.RecordImport(outcome, size, time.Since(start))
	return a, err
}

func (im *Importer) importFile(ctx context.Context, requested string) (*models.Asset, error) {
	src, err := im.d.Resolver.Resolve(requested)
	if err != nil {
		return nil, err
	}
	name := filepath.Base(src)

	info, err := im.d.FS.Stat(src)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindNotReadable, src, "The file is not readable.", err)
	}
	if !info.Mode().IsRegular() {
		return nil, apperr.New(apperr.KindNotAFile, src, "The path is not a regular file.")
	}
	head, err := im.readHead(src)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindNotReadable, src, "The file is not readable.", err)
	}

	mime, err := filetype.Verify(name, head)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInvalidType, src, "Invalid file type.", err)
	}
	if !im.d.Policy.ExtensionAllowed(name) {
		return nil, apperr.New(apperr.KindTypeNotAllowed, src, "This file type is not allowed for import.")
	}

	if _, found, err := im.d.Finder.FindAssetBySourcePath(ctx, src); err != nil {
		return nil, apperr.Wrap(apperr.KindRegistrationFailed, src, "Could not check whether the file was already imported.", err)
	} else if found {
		return nil, apperr.New(apperr.KindAlreadyImported, src, "This file has already been imported.")
	}

	stored, err := im.place(src, name)
	if err != nil {
		return nil, err
	}

	asset, err := im.d.Registry.Insert(ctx, models.NewAsset{
		Title:        strings.TrimSuffix(name, filepath.Ext(name)),
		MimeType:     mime,
		Status:       models.StatusInherit,
		StoragePath:  stored.Rel,
		FilePath:     im.d.Library.Abs(stored.Rel),
		OriginalPath: src,
		URL:          im.d.Library.URL(stored.Rel),
		Size:         stored.Size,
		Checksum:     stored.Checksum,
	})
	if err != nil {
		im.d.Logger.Warn("registration failed after placement",
			slog.String("source", src), slog.String("stored", stored.Rel), slog.String("error", err.Error()))
		return nil, apperr.Wrap(apperr.KindRegistrationFailed, src, "Failed to register the file as an asset.", err)
	}

	im.postProcess(ctx, asset)
	im.d.Logger.Info("file imported",
		slog.String("source", src), slog.String("stored", stored.Rel), slog.Int64("asset_id", asset.ID))
	return asset, nil
}

func (im *Importer) readHead(src string) ([]byte, error) {
	f, err := im.d.FS.Open(src)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	buf := make([]byte, sniffLen)
	n, err := io.ReadFull(f, buf)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, err
	}
	return buf[:n], nil
}

// place puts src into the storage area. Files already inside it are
// registered where they are.
func (im *Importer) place(src, name string) (library.Stored, error) {
	lib := im.d.Library
	if rel, inside := lib.Rel(src); inside && rel != "" {
		st, err := lib.Describe(rel)
		if err != nil {
			return library.Stored{}, apperr.Wrap(apperr.KindCopyFailed, src, "Failed to read the file in the storage area.", err)
		}
		return st, nil
	}

	dir := lib.TargetDir()
	if err := lib.MkdirAll(dir); err != nil {
		return library.Stored{}, apperr.Wrap(apperr.KindCopyFailed, src, "Failed to create the storage directory.", err)
	}
	rel := path.Join(dir, lib.UniqueName(dir, name))

	if im.d.Behavior == BehaviorMove {
		return im.move(src, rel)
	}
	st, err := im.copy(src, rel)
	if err != nil {
		return library.Stored{}, apperr.Wrap(apperr.KindCopyFailed, src, "Failed to copy the file.", err)
	}
	return st, nil
}

func (im *Importer) copy(src, rel string) (library.Stored, error) {
	f, err := im.d.FS.Open(src)
	if err != nil {
		return library.Stored{}, err
	}
	defer f.Close()
	return im.d.Library.Store(rel, f)
}

// move renames src into the storage area, falling back to copy and remove
// when the rename fails (for example across devices).
func (im *Importer) move(src, rel string) (library.Stored, error) {
	lib := im.d.Library
	if err := im.d.FS.Rename(src, lib.Abs(rel)); err == nil {
		st, err := lib.Describe(rel)
		if err != nil {
			return library.Stored{}, apperr.Wrap(apperr.KindCopyFailed, src, "Failed to read the moved file.", err)
		}
		return st, nil
	}

	st, err := im.copy(src, rel)
	if err != nil {
		return library.Stored{}, apperr.Wrap(apperr.KindCopyFailed, src, "Failed to move the file.", err)
	}
	if err := im.d.FS.Remove(src); err != nil {
		_ = lib.Remove(rel)
		return library.Stored{}, apperr.Wrap(apperr.KindCopyFailed, src, "Failed to remove the source file after copying.", err)
	}
	return st, nil
}

// postProcess runs after registration. Its failure does not fail the import.
func (im *Importer) postProcess(ctx context.Context, a *models.Asset) {
	if im.d.Post == nil {
		return
	}
	meta, err := im.d.Post.Process(ctx, a)
	if err != nil {
		im.d.Logger.Warn("post-processing failed", slog.Int64("asset_id", a.ID), slog.String("error", err.Error()))
		return
	}
	if err := im.d.Registry.UpdateMetadata(ctx, a.ID, meta); err != nil {
		im.d.Logger.Warn("store metadata failed", slog.Int64("asset_id", a.ID), slog.String("error", err.Error()))
		return
	}
	a.Metadata = meta
}
