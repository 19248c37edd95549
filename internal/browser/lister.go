// Package browser lists directories beneath the browse root and classifies
// each file as importable and already imported.
package browser

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/starford/sideload/internal/apperr"
	"github.com/starford/sideload/internal/filetype"
	"github.com/starford/sideload/internal/fsys"
	"github.com/starford/sideload/internal/models"
)

// Finder reports whether a source path has already been imported.
type Finder interface {
	FindAssetBySourcePath(ctx context.Context, abs string) (int64, bool, error)
}

// Lister enumerates one directory at a time.
type Lister struct {
	fs     fsys.FS
	policy filetype.Policy
	finder Finder
}

// NewLister returns a Lister using policy for importability and finder for
// duplicate detection.
func NewLister(fs fsys.FS, policy filetype.Policy, finder Finder) *Lister {
	return &Lister{fs: fs, policy: policy, finder: finder}
}

// List returns the subdirectories and files of the canonical directory dir.
func (l *Lister) List(ctx context.Context, dir string) (*models.Listing, error) {
	info, err := l.fs.Stat(dir)
	if err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return nil, apperr.Wrap(apperr.KindNotReadable, dir, "The directory is not readable.", err)
		}
		return nil, apperr.Wrap(apperr.KindNotADirectory, dir, "The requested path is not a directory.", err)
	}
	if !info.IsDir() {
		return nil, apperr.New(apperr.KindNotADirectory, dir, "The requested path is not a directory.")
	}

	entries, err := l.fs.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return nil, apperr.Wrap(apperr.KindNotReadable, dir, "The directory is not readable.", err)
		}
		return nil, apperr.Wrap(apperr.KindScanFailed, dir, "Failed to scan the directory.", err)
	}

	out := &models.Listing{
		Directories: []models.DirectoryEntry{},
		Files:       []models.FileEntry{},
	}
	for _, e := range entries {
		name := e.Name()
		if name == "." || name == ".." {
			continue
		}
		full := filepath.Join(dir, name)

		isLink := e.Mode()&os.ModeSymlink != 0
		if isLink {
			// Follow the link; a broken one is listed as a file.
			if target, err := l.fs.Stat(full); err == nil {
				e = target
			}
		}
		if e.IsDir() {
			out.Directories = append(out.Directories, models.DirectoryEntry{Name: name, Path: full})
			continue
		}

		fe := models.FileEntry{
			Name:       name,
			Path:       full,
			Size:       e.Size(),
			Modified:   e.ModTime().UTC(),
			MimeType:   filetype.TypeByName(name),
			Importable: l.policy.Importable(name),
		}
		id, found, err := l.finder.FindAssetBySourcePath(ctx, full)
		if err == nil && !found && isLink {
			// Imports record the canonical source path.
			if real, rerr := l.fs.RealPath(full); rerr == nil && real != full {
				id, found, err = l.finder.FindAssetBySourcePath(ctx, real)
			}
		}
		if err != nil {
			return nil, apperr.Wrap(apperr.KindScanFailed, full, "Failed to check import status.", err)
		}
		if found {
			fe.Imported = true
			fe.AssetID = &id
		}
		out.Files = append(out.Files, fe)
	}

	slices.SortFunc(out.Directories, func(a, b models.DirectoryEntry) int { return compareNames(a.Name, b.Name) })
	slices.SortFunc(out.Files, func(a, b models.FileEntry) int { return compareNames(a.Name, b.Name) })
	return out, nil
}

func compareNames(a, b string) int {
	if c := strings.Compare(strings.ToLower(a), strings.ToLower(b)); c != 0 {
		return c
	}
	return strings.Compare(a, b)
}
