package importer

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	billy "github.com/go-git/go-billy/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/sideload/internal/apperr"
	"github.com/starford/sideload/internal/filetype"
	"github.com/starford/sideload/internal/fsys"
	"github.com/starford/sideload/internal/library"
	"github.com/starford/sideload/internal/models"
	"github.com/starford/sideload/internal/pathguard"
	"github.com/starford/sideload/internal/provenance"
	"github.com/starford/sideload/internal/registry"
)

// countingFS records the host operations an import performs.
type countingFS struct {
	fsys.FS
	opens, renames, removes int
	failRename              bool
}

func (c *countingFS) Open(name string) (billy.File, error) {
	c.opens++
	return c.FS.Open(name)
}

func (c *countingFS) Rename(from, to string) error {
	c.renames++
	if c.failRename {
		return errors.New("cross-device link")
	}
	return c.FS.Rename(from, to)
}

func (c *countingFS) Remove(name string) error {
	c.removes++
	return c.FS.Remove(name)
}

type env struct {
	root string
	fs   *countingFS
	reg  *registry.Memory
	lib  *library.Library
}

func newEnv(t *testing.T) *env {
	t.Helper()
	root, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	lib, err := library.Open(filepath.Join(root, "uploads"), library.Options{
		BaseURL:        "/media",
		OrganizeByDate: true,
		Now:            func() time.Time { return time.Date(2024, time.May, 3, 0, 0, 0, 0, time.UTC) },
	})
	require.NoError(t, err)
	return &env{root: root, fs: &countingFS{FS: fsys.NewHost()}, reg: registry.NewMemory(), lib: lib}
}

func (e *env) importer(behavior, allowed string, post PostProcessor) *Importer {
	return New(Deps{
		Resolver: pathguard.New(e.root, e.fs),
		FS:       e.fs,
		Policy:   filetype.NewPolicy(allowed),
		Finder:   provenance.New(e.reg, e.lib),
		Library:  e.lib,
		Registry: e.reg,
		Post:     post,
		Behavior: behavior,
	})
}

func (e *env) write(t *testing.T, rel string, data []byte) string {
	t.Helper()
	p := filepath.Join(e.root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, data, 0o644))
	return p
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 3))))
	return buf.Bytes()
}

func TestImportCopy(t *testing.T) {
	e := newEnv(t)
	data := pngBytes(t)
	src := e.write(t, "in/My Photo.png", data)

	a, err := e.importer(BehaviorCopy, "", nil).ImportFile(context.Background(), src)
	require.NoError(t, err)

	assert.Equal(t, "2024/05/My-Photo.png", a.StoragePath)
	assert.Equal(t, "My Photo", a.Title, "title comes from the source name, not the stored one")
	assert.Equal(t, "image/png", a.MimeType)
	assert.Equal(t, models.StatusInherit, a.Status)
	assert.Equal(t, src, a.OriginalPath)
	assert.Equal(t, "/media/2024/05/My-Photo.png", a.URL)
	assert.Equal(t, int64(len(data)), a.Size)

	// Copy keeps the source byte-identical to the stored file.
	stored, err := os.ReadFile(e.lib.Abs(a.StoragePath))
	require.NoError(t, err)
	orig, err := os.ReadFile(src)
	require.NoError(t, err)
	assert.Equal(t, orig, stored)
	assert.Zero(t, e.fs.renames)
}

func TestImportMove(t *testing.T) {
	e := newEnv(t)
	src := e.write(t, "in/notes.txt", []byte("hello"))

	a, err := e.importer(BehaviorMove, "", nil).ImportFile(context.Background(), src)
	require.NoError(t, err)

	_, err = os.Stat(src)
	assert.True(t, os.IsNotExist(err), "source should be gone after a move")
	data, err := os.ReadFile(e.lib.Abs(a.StoragePath))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
	assert.Equal(t, 1, e.fs.renames)
}

func TestImportMoveFallsBackToCopy(t *testing.T) {
	e := newEnv(t)
	e.fs.failRename = true
	src := e.write(t, "in/notes.txt", []byte("hello"))

	a, err := e.importer(BehaviorMove, "", nil).ImportFile(context.Background(), src)
	require.NoError(t, err)

	_, err = os.Stat(src)
	assert.True(t, os.IsNotExist(err))
	assert.FileExists(t, e.lib.Abs(a.StoragePath))
	assert.Equal(t, 1, e.fs.removes)
}

func TestImportDuplicateIsIdempotent(t *testing.T) {
	e := newEnv(t)
	src := e.write(t, "in/notes.txt", []byte("hello"))
	imp := e.importer(BehaviorCopy, "", nil)

	first, err := imp.ImportFile(context.Background(), src)
	require.NoError(t, err)
	require.NotZero(t, first.ID)
	opensAfterFirst := e.fs.opens

	_, err = imp.ImportFile(context.Background(), src)
	assert.ErrorIs(t, err, apperr.ErrAlreadyImported)
	assert.Equal(t, 1, e.reg.Len())

	// Only the content sniff opens the file; no second copy is made.
	assert.Equal(t, opensAfterFirst+1, e.fs.opens)
	entries, err := os.ReadDir(filepath.Join(e.lib.Base(), "2024", "05"))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestImportInPlace(t *testing.T) {
	e := newEnv(t)
	src := e.write(t, "uploads/manual/scan.pdf", []byte("%PDF-1.4"))

	a, err := e.importer(BehaviorMove, "", nil).ImportFile(context.Background(), src)
	require.NoError(t, err)

	assert.Equal(t, "manual/scan.pdf", a.StoragePath)
	assert.Equal(t, src, a.FilePath)
	assert.Zero(t, e.fs.renames)
	assert.Zero(t, e.fs.removes)
	assert.Equal(t, 1, e.fs.opens, "only the content sniff touches the source")
	assert.FileExists(t, src)
}

func TestImportInPlaceAlreadyPresentByStoragePath(t *testing.T) {
	e := newEnv(t)
	src := e.write(t, "uploads/2023/01/old.txt", []byte("x"))
	_, err := e.reg.Insert(context.Background(), models.NewAsset{StoragePath: "2023/01/old.txt"})
	require.NoError(t, err)

	_, err = e.importer(BehaviorCopy, "", nil).ImportFile(context.Background(), src)
	assert.ErrorIs(t, err, apperr.ErrAlreadyImported)
}

func TestImportUniqueNames(t *testing.T) {
	e := newEnv(t)
	imp := e.importer(BehaviorCopy, "", nil)
	a1, err := imp.ImportFile(context.Background(), e.write(t, "a/notes.txt", []byte("1")))
	require.NoError(t, err)
	a2, err := imp.ImportFile(context.Background(), e.write(t, "b/notes.txt", []byte("2")))
	require.NoError(t, err)

	assert.Equal(t, "2024/05/notes.txt", a1.StoragePath)
	assert.Equal(t, "2024/05/notes-1.txt", a2.StoragePath)
	assert.Equal(t, "notes", a1.Title)
	assert.Equal(t, "notes", a2.Title)

	a3, err := imp.ImportFile(context.Background(), e.write(t, "c/Summer Trip (2).txt", []byte("3")))
	require.NoError(t, err)
	assert.Equal(t, "2024/05/Summer-Trip-_2_.txt", a3.StoragePath)
	assert.Equal(t, "Summer Trip (2)", a3.Title)
}

func TestImportValidation(t *testing.T) {
	e := newEnv(t)
	outside, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	outsideFile := filepath.Join(outside, "secret.txt")
	require.NoError(t, os.WriteFile(outsideFile, []byte("s"), 0o644))

	e.write(t, "dir/keep.txt", []byte("k"))
	fake := e.write(t, "fake.jpg", []byte("this is not a jpeg"))
	exe := e.write(t, "tool.exe", []byte("MZ"))
	pdf := e.write(t, "doc.pdf", []byte("%PDF-1.4"))

	imp := e.importer(BehaviorCopy, "jpg,png", nil)
	ctx := context.Background()

	cases := []struct {
		name string
		path string
		want error
	}{
		{"outside root", outsideFile, apperr.ErrOutsideRoot},
		{"traversal", filepath.Join(e.root, "..", filepath.Base(outside), "secret.txt"), apperr.ErrOutsideRoot},
		{"missing", filepath.Join(e.root, "nope.txt"), apperr.ErrPathNotFound},
		{"directory", filepath.Join(e.root, "dir"), apperr.ErrNotAFile},
		{"content mismatch", fake, apperr.ErrInvalidType},
		{"unknown type", exe, apperr.ErrInvalidType},
		{"not on allow list", pdf, apperr.ErrTypeNotAllowed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := imp.ImportFile(ctx, tc.path)
			assert.ErrorIs(t, err, tc.want)
		})
	}
	assert.Zero(t, e.reg.Len())
}

func TestImportRegistrationFailure(t *testing.T) {
	e := newEnv(t)
	e.reg.FailInsert = errors.New("disk full")
	src := e.write(t, "in/notes.txt", []byte("hello"))

	_, err := e.importer(BehaviorCopy, "", nil).ImportFile(context.Background(), src)
	assert.ErrorIs(t, err, apperr.ErrRegistrationFailed)
	assert.Equal(t, "Failed to register the file as an asset.", apperr.Message(err))
}

type stubPost struct {
	meta models.AssetMetadata
	err  error
	seen []int64
}

func (s *stubPost) Process(_ context.Context, a *models.Asset) (models.AssetMetadata, error) {
	s.seen = append(s.seen, a.ID)
	return s.meta, s.err
}

func TestImportPostProcessing(t *testing.T) {
	e := newEnv(t)
	post := &stubPost{meta: models.AssetMetadata{Width: 4, Height: 3}}
	a, err := e.importer(BehaviorCopy, "", post).ImportFile(context.Background(), e.write(t, "p.png", pngBytes(t)))
	require.NoError(t, err)
	assert.Equal(t, []int64{a.ID}, post.seen)
	assert.Equal(t, 4, a.Metadata.Width)

	got, err := e.reg.Get(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Metadata.Height)

	failing := &stubPost{err: errors.New("decode")}
	_, err = e.importer(BehaviorCopy, "", failing).ImportFile(context.Background(), e.write(t, "q.png", pngBytes(t)))
	assert.NoError(t, err, "post-processing failure does not fail the import")
}
