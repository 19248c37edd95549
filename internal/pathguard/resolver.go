// Package pathguard resolves user-supplied paths against the configured root
// and rejects anything that escapes it.
package pathguard

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/starford/sideload/internal/apperr"
	"github.com/starford/sideload/internal/fsys"
)

// Resolver canonicalizes paths beneath a single root.
// It holds no cached state: every call re-reads the filesystem.
type Resolver struct {
	root string
	fs   fsys.FS
}

// New returns a Resolver for root. The root is canonicalized lazily on
// each call so that a misconfigured root is reported as RootInvalid.
func New(root string, fs fsys.FS) *Resolver {
	return &Resolver{root: root, fs: fs}
}

// Root returns the canonical root.
func (r *Resolver) Root() (string, error) {
	if r.root == "" {
		return "", apperr.New(apperr.KindRootInvalid, "", "The configured root path does not exist.")
	}
	real, err := r.fs.RealPath(r.root)
	if err != nil {
		return "", apperr.Wrap(apperr.KindRootInvalid, r.root, "The configured root path does not exist.", err)
	}
	return real, nil
}

// Resolve returns the canonical form of requested if it lies at or below
// the canonical root.
func (r *Resolver) Resolve(requested string) (string, error) {
	root, err := r.Root()
	if err != nil {
		return "", err
	}
	// Relative input would be read against the working directory.
	if requested == "" || !filepath.IsAbs(requested) {
		return "", apperr.New(apperr.KindPathNotFound, requested, "The requested path does not exist.")
	}
	real, err := r.fs.RealPath(requested)
	if err != nil {
		return "", apperr.Wrap(apperr.KindPathNotFound, requested, "The requested path does not exist.", err)
	}
	if !Within(root, real) {
		return "", apperr.New(apperr.KindOutsideRoot, requested, "Access denied: path is outside the allowed root directory.")
	}
	return real, nil
}

// Within reports whether path equals base or is nested under it. Both must
// already be canonical. "/root-evil" is not within "/root".
func Within(base, path string) bool {
	if path == base {
		return true
	}
	prefix := base
	if !strings.HasSuffix(prefix, string(os.PathSeparator)) {
		prefix += string(os.PathSeparator)
	}
	return strings.HasPrefix(path, prefix)
}

// Rel returns path relative to base using forward slashes, and false when
// path is not within base.
func Rel(base, path string) (string, bool) {
	if !Within(base, path) {
		return "", false
	}
	rel, err := filepath.Rel(base, path)
	if err != nil {
		return "", false
	}
	if rel == "." {
		return "", true
	}
	return filepath.ToSlash(rel), true
}
