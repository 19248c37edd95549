// Package library manages the media storage area that imported files are
// placed into and served from.
package library

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	billy "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/google/uuid"

	"github.com/starford/sideload/internal/checksum"
	"github.com/starford/sideload/internal/pathguard"
)

const tmpPrefix = ".sideload-tmp-"

var unsafeNameRe = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

// Options control placement and public URLs.
type Options struct {
	// BaseURL prefixes storage-relative paths to form public URLs.
	BaseURL string
	// OrganizeByDate places new files under YYYY/MM subdirectories.
	OrganizeByDate bool
	// Now overrides the clock used for dated directories.
	Now func() time.Time
}

// Library is a storage area rooted at an absolute host directory.
// All relative paths use forward slashes.
type Library struct {
	base string
	fs   billy.Filesystem
	opts Options
}

// Stored describes a file written into the library.
type Stored struct {
	Rel      string
	Size     int64
	Checksum string
}

// Open creates dir if needed and returns a Library over it.
func Open(dir string, opts Options) (*Library, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("library: mkdir: %w", err)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("library: resolve dir: %w", err)
	}
	real, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, fmt.Errorf("library: resolve dir: %w", err)
	}
	return New(real, osfs.New(real, osfs.WithBoundOS()), opts), nil
}

// New returns a Library whose files live in fs, reported under the
// canonical host directory base.
func New(base string, fs billy.Filesystem, opts Options) *Library {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	opts.BaseURL = strings.TrimSuffix(opts.BaseURL, "/")
	return &Library{base: base, fs: fs, opts: opts}
}

// Base returns the canonical host directory of the library.
func (l *Library) Base() string { return l.base }

// Contains reports whether the canonical host path abs lies inside the library.
func (l *Library) Contains(abs string) bool { return pathguard.Within(l.base, abs) }

// Rel returns abs relative to the library base.
func (l *Library) Rel(abs string) (string, bool) { return pathguard.Rel(l.base, abs) }

// Abs returns the host path of a library-relative path.
func (l *Library) Abs(rel string) string {
	return filepath.Join(l.base, filepath.FromSlash(rel))
}

// URL returns the public URL of a library-relative path.
func (l *Library) URL(rel string) string {
	return l.opts.BaseURL + "/" + strings.TrimPrefix(rel, "/")
}

// TargetDir returns the directory new files are placed into, "" for the
// library root.
func (l *Library) TargetDir() string {
	if !l.opts.OrganizeByDate {
		return ""
	}
	return l.opts.Now().Format("2006/01")
}

// SanitizeName reduces name to a safe base name that never starts with a
// dot. A name that is only an extension, like ".jpg", gets a random stem.
func SanitizeName(name string) string {
	name = path.Base(filepath.ToSlash(name))
	name = strings.Join(strings.Fields(name), "-")
	name = unsafeNameRe.ReplaceAllString(name, "_")
	switch {
	case strings.Trim(name, ".") == "":
		return uuid.NewString()
	case path.Ext(name) == name:
		return uuid.NewString() + name
	}
	return strings.TrimLeft(name, ".")
}

// UniqueName returns a sanitized name that does not yet exist in dir,
// appending -1, -2, ... before the extension on collision.
func (l *Library) UniqueName(dir, name string) string {
	name = SanitizeName(name)
	ext := path.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	candidate := name
	for i := 1; l.Exists(path.Join(dir, candidate)); i++ {
		candidate = stem + "-" + strconv.Itoa(i) + ext
	}
	return candidate
}

// Exists reports whether rel is present in the library.
func (l *Library) Exists(rel string) bool {
	_, err := l.fs.Lstat(rel)
	return err == nil
}

// Stat returns file info for rel.
func (l *Library) Stat(rel string) (os.FileInfo, error) { return l.fs.Stat(rel) }

// Open opens rel for reading.
func (l *Library) Open(rel string) (billy.File, error) { return l.fs.Open(rel) }

// Remove deletes rel.
func (l *Library) Remove(rel string) error { return l.fs.Remove(rel) }

// MkdirAll creates dir and its parents.
func (l *Library) MkdirAll(dir string) error {
	if dir == "" {
		return nil
	}
	return l.fs.MkdirAll(dir, 0o755)
}

// Store atomically writes the contents of r to rel: temp file, then rename.
// An existing file at rel is never overwritten.
func (l *Library) Store(rel string, r io.Reader) (Stored, error) {
	dir := path.Dir(rel)
	if dir == "." {
		dir = ""
	}
	if err := l.MkdirAll(dir); err != nil {
		return Stored{}, fmt.Errorf("library: mkdir %s: %w", dir, err)
	}
	if l.Exists(rel) {
		return Stored{}, fmt.Errorf("library: %s: %w", rel, os.ErrExist)
	}

	tmpName := path.Join(dir, tmpPrefix+uuid.NewString())
	tmp, err := l.fs.Create(tmpName)
	if err != nil {
		return Stored{}, fmt.Errorf("library: create temp: %w", err)
	}

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = l.fs.Remove(tmpName)
		}
	}()

	sum := checksum.NewWriter()
	if _, err := io.Copy(io.MultiWriter(tmp, sum), r); err != nil {
		return Stored{}, fmt.Errorf("library: write temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return Stored{}, fmt.Errorf("library: close temp: %w", err)
	}
	if err := l.fs.Rename(tmpName, rel); err != nil {
		return Stored{}, fmt.Errorf("library: rename: %w", err)
	}
	success = true
	return Stored{Rel: rel, Size: sum.Size(), Checksum: sum.Sum()}, nil
}

// Describe digests a file already present in the library.
func (l *Library) Describe(rel string) (Stored, error) {
	f, err := l.fs.Open(rel)
	if err != nil {
		return Stored{}, fmt.Errorf("library: open %s: %w", rel, err)
	}
	defer f.Close()
	sum := checksum.NewWriter()
	if _, err := io.Copy(sum, f); err != nil {
		return Stored{}, fmt.Errorf("library: read %s: %w", rel, err)
	}
	return Stored{Rel: rel, Size: sum.Size(), Checksum: sum.Sum()}, nil
}

// IsNotExist reports whether err means a library path is missing.
func IsNotExist(err error) bool {
	return errors.Is(err, os.ErrNotExist)
}
