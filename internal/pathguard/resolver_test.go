package pathguard

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/sideload/internal/apperr"
	"github.com/starford/sideload/internal/fsys"
)

func canonicalTemp(t *testing.T) string {
	t.Helper()
	dir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	return dir
}

func TestResolveWithinRoot(t *testing.T) {
	root := canonicalTemp(t)
	require.NoError(t, os.MkdirAll(filepath.Join(root, "sub"), 0o755))

	r := New(root, fsys.NewHost())

	got, err := r.Resolve(root)
	require.NoError(t, err)
	assert.Equal(t, root, got)

	got, err = r.Resolve(filepath.Join(root, "sub", "..", "sub"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "sub"), got)
}

func TestResolveOutsideRoot(t *testing.T) {
	root := canonicalTemp(t)
	r := New(root, fsys.NewHost())

	other := canonicalTemp(t)
	passwd := filepath.Join(other, "passwd")
	require.NoError(t, os.WriteFile(passwd, []byte("root:x:0:0"), 0o644))

	_, err := r.Resolve(passwd)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrOutsideRoot), "got %v", err)

	_, err = r.Resolve(filepath.Join(root, ".."))
	assert.True(t, errors.Is(err, apperr.ErrOutsideRoot), "got %v", err)
}

func TestResolveSiblingWithSharedPrefix(t *testing.T) {
	base := canonicalTemp(t)
	root := filepath.Join(base, "root")
	evil := filepath.Join(base, "root-evil")
	require.NoError(t, os.MkdirAll(root, 0o755))
	require.NoError(t, os.MkdirAll(evil, 0o755))

	_, err := New(root, fsys.NewHost()).Resolve(evil)
	assert.True(t, errors.Is(err, apperr.ErrOutsideRoot), "got %v", err)
}

func TestResolveSymlinkEscape(t *testing.T) {
	base := canonicalTemp(t)
	root := filepath.Join(base, "root")
	outside := filepath.Join(base, "outside")
	require.NoError(t, os.MkdirAll(root, 0o755))
	require.NoError(t, os.MkdirAll(outside, 0o755))
	require.NoError(t, os.Symlink(outside, filepath.Join(root, "escape")))

	_, err := New(root, fsys.NewHost()).Resolve(filepath.Join(root, "escape"))
	assert.True(t, errors.Is(err, apperr.ErrOutsideRoot), "got %v", err)
}

func TestResolveMissingPath(t *testing.T) {
	root := canonicalTemp(t)
	_, err := New(root, fsys.NewHost()).Resolve(filepath.Join(root, "nope"))
	assert.True(t, errors.Is(err, apperr.ErrPathNotFound), "got %v", err)
}

func TestResolveRejectsRelativePath(t *testing.T) {
	root := canonicalTemp(t)
	require.NoError(t, os.MkdirAll(filepath.Join(root, "sub"), 0o755))
	t.Chdir(root)

	r := New(root, fsys.NewHost())
	for _, p := range []string{"sub", "./sub", "."} {
		_, err := r.Resolve(p)
		assert.True(t, errors.Is(err, apperr.ErrPathNotFound), "%q: got %v", p, err)
	}
}

func TestResolveInvalidRoot(t *testing.T) {
	r := New(filepath.Join(t.TempDir(), "missing-root"), fsys.NewHost())
	_, err := r.Resolve("/tmp")
	assert.True(t, errors.Is(err, apperr.ErrRootInvalid), "got %v", err)
}

func TestWithin(t *testing.T) {
	cases := []struct {
		base, path string
		want       bool
	}{
		{"/var/www", "/var/www", true},
		{"/var/www", "/var/www/a", true},
		{"/var/www", "/var/www-evil", false},
		{"/var/www", "/var", false},
		{"/", "/etc", true},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, Within(c.base, c.path), "Within(%q, %q)", c.base, c.path)
	}
}

func TestRel(t *testing.T) {
	rel, ok := Rel("/srv/uploads", "/srv/uploads/2024/05/a.jpg")
	assert.True(t, ok)
	assert.Equal(t, "2024/05/a.jpg", rel)

	_, ok = Rel("/srv/uploads", "/srv/other/a.jpg")
	assert.False(t, ok)
}
