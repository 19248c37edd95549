package library

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/sideload/internal/checksum"
)

func fixedNow() time.Time { return time.Date(2024, time.May, 3, 10, 0, 0, 0, time.UTC) }

func memLibrary(t *testing.T, byDate bool) *Library {
	t.Helper()
	return New("/srv/library", memfs.New(), Options{
		BaseURL:        "https://example.test/media/",
		OrganizeByDate: byDate,
		Now:            fixedNow,
	})
}

func TestContainsAndRel(t *testing.T) {
	l := memLibrary(t, true)
	assert.True(t, l.Contains("/srv/library/2024/05/a.jpg"))
	assert.False(t, l.Contains("/srv/library-old/a.jpg"))

	rel, ok := l.Rel("/srv/library/2024/05/a.jpg")
	require.True(t, ok)
	assert.Equal(t, "2024/05/a.jpg", rel)
	assert.Equal(t, filepath.Join("/srv/library", "2024", "05", "a.jpg"), l.Abs(rel))
}

func TestURLAndTargetDir(t *testing.T) {
	l := memLibrary(t, true)
	assert.Equal(t, "https://example.test/media/2024/05/a.jpg", l.URL("2024/05/a.jpg"))
	assert.Equal(t, "2024/05", l.TargetDir())

	assert.Equal(t, "", memLibrary(t, false).TargetDir())
}

func TestSanitizeName(t *testing.T) {
	assert.Equal(t, "my-holiday-photo.jpg", SanitizeName("my holiday  photo.jpg"))
	assert.Equal(t, "passwd", SanitizeName("../../etc/passwd"))
	assert.Equal(t, "r_sum_.pdf", SanitizeName("résumé.pdf"))
	assert.Equal(t, "hidden.txt", SanitizeName(".hidden.txt"))
	assert.Equal(t, "x.png", SanitizeName("..x.png"))

	// A bare extension keeps its extension behind a random stem.
	got := SanitizeName(".jpg")
	assert.True(t, strings.HasSuffix(got, ".jpg"), got)
	assert.Len(t, got, 36+len(".jpg"))
	assert.Equal(t, ".jpg", filepath.Ext(got))

	for _, dots := range []string{"..", "...", ""} {
		got := SanitizeName(dots)
		assert.Len(t, got, 36, "name %q", dots)
		assert.NotContains(t, got, ".")
	}
}

func TestUniqueName(t *testing.T) {
	l := memLibrary(t, true)
	assert.Equal(t, "a.jpg", l.UniqueName("2024/05", "a.jpg"))

	_, err := l.Store("2024/05/a.jpg", strings.NewReader("one"))
	require.NoError(t, err)
	assert.Equal(t, "a-1.jpg", l.UniqueName("2024/05", "a.jpg"))

	_, err = l.Store("2024/05/a-1.jpg", strings.NewReader("two"))
	require.NoError(t, err)
	assert.Equal(t, "a-2.jpg", l.UniqueName("2024/05", "a.jpg"))
	assert.Equal(t, "a.jpg", l.UniqueName("2024/06", "a.jpg"))
}

func TestStore(t *testing.T) {
	l := memLibrary(t, true)
	st, err := l.Store("2024/05/hello.txt", strings.NewReader("hello"))
	require.NoError(t, err)
	assert.Equal(t, int64(5), st.Size)
	assert.Equal(t, checksum.Sum([]byte("hello")), st.Checksum)

	f, err := l.Open("2024/05/hello.txt")
	require.NoError(t, err)
	defer f.Close()
	data, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	// No temp files are left behind.
	infos, err := l.fs.ReadDir("2024/05")
	require.NoError(t, err)
	assert.Len(t, infos, 1)

	_, err = l.Store("2024/05/hello.txt", strings.NewReader("again"))
	assert.ErrorIs(t, err, os.ErrExist)
}

func TestDescribe(t *testing.T) {
	l := memLibrary(t, false)
	require.NoError(t, util.WriteFile(l.fs, "inplace.png", []byte("abc"), 0o644))

	st, err := l.Describe("inplace.png")
	require.NoError(t, err)
	assert.Equal(t, int64(3), st.Size)
	assert.Equal(t, checksum.Sum([]byte("abc")), st.Checksum)

	_, err = l.Describe("missing.png")
	assert.True(t, IsNotExist(err))
}

func TestOpenOnHostDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "uploads")
	l, err := Open(dir, Options{BaseURL: "/media"})
	require.NoError(t, err)

	_, err = l.Store("a/b.txt", strings.NewReader("x"))
	require.NoError(t, err)

	data, err := os.ReadFile(l.Abs("a/b.txt"))
	require.NoError(t, err)
	assert.Equal(t, "x", string(data))
	assert.True(t, l.Contains(l.Abs("a/b.txt")))
}
