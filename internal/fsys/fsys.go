// Package fsys isolates host filesystem access used by the browse and import
// core, so tests can count or fail individual operations.
package fsys

import (
	"os"
	"path/filepath"

	billy "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
)

// FS is the set of host filesystem operations the core performs.
// Paths are absolute host paths.
type FS interface {
	// RealPath returns the absolute path with symlinks and dot segments resolved.
	RealPath(name string) (string, error)
	// Stat follows symlinks.
	Stat(name string) (os.FileInfo, error)
	Lstat(name string) (os.FileInfo, error)
	// ReadDir returns the entries of a directory without following symlinks.
	ReadDir(name string) ([]os.FileInfo, error)
	Open(name string) (billy.File, error)
	Rename(from, to string) error
	Remove(name string) error
}

// Host implements FS on the real operating system filesystem.
type Host struct {
	fs billy.Filesystem
}

// NewHost returns an FS rooted at the host filesystem root.
func NewHost() *Host {
	return &Host{fs: osfs.Default}
}

var _ FS = (*Host)(nil)

// RealPath resolves name the way realpath(3) does.
func (h *Host) RealPath(name string) (string, error) {
	abs, err := filepath.Abs(name)
	if err != nil {
		return "", err
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", err
	}
	// Stat so that permission problems below the last symlink surface here.
	if _, err := os.Stat(resolved); err != nil {
		return "", err
	}
	return resolved, nil
}

func (h *Host) Stat(name string) (os.FileInfo, error)  { return h.fs.Stat(name) }
func (h *Host) Lstat(name string) (os.FileInfo, error) { return h.fs.Lstat(name) }

func (h *Host) ReadDir(name string) ([]os.FileInfo, error) { return h.fs.ReadDir(name) }

func (h *Host) Open(name string) (billy.File, error) { return h.fs.Open(name) }

// Rename moves from to to, creating the destination directory if needed.
func (h *Host) Rename(from, to string) error { return h.fs.Rename(from, to) }

func (h *Host) Remove(name string) error { return h.fs.Remove(name) }
