package fsys

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRealPathResolvesSymlinksAndDots(t *testing.T) {
	dir := t.TempDir()
	real, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)

	require.NoError(t, os.MkdirAll(filepath.Join(real, "a", "b"), 0o755))
	require.NoError(t, os.Symlink(filepath.Join(real, "a", "b"), filepath.Join(real, "link")))

	h := NewHost()

	got, err := h.RealPath(filepath.Join(real, "a", "..", "link"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(real, "a", "b"), got)
}

func TestRealPathMissing(t *testing.T) {
	h := NewHost()
	_, err := h.RealPath(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestReadDirAndRename(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("a"), 0o644))

	h := NewHost()
	infos, err := h.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, "a.txt", infos[0].Name())

	dst := filepath.Join(dir, "nested", "b.txt")
	require.NoError(t, h.Rename(filepath.Join(dir, "a.txt"), dst))
	_, err = os.Stat(dst)
	assert.NoError(t, err)
}
