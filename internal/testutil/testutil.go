// Package testutil provides shared test helpers for browse roots, storage
// areas and registries.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/sideload/internal/library"
	"github.com/starford/sideload/internal/registry"
	"github.com/starford/sideload/internal/settings"
)

// TestDB creates a temporary SQLite registry that is automatically cleaned up.
func TestDB(t *testing.T) *registry.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "sideload-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := registry.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestRoot creates a temporary directory with symlinks resolved, so paths
// compare equal to what the resolver returns on hosts where TMPDIR is a link.
func TestRoot(t *testing.T) string {
	t.Helper()
	dir, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return dir
}

// TestLibrary opens a storage area in a fresh temp directory served under /media.
func TestLibrary(t *testing.T) *library.Library {
	t.Helper()
	lib, err := library.Open(filepath.Join(TestRoot(t), "uploads"), library.Options{BaseURL: "/media"})
	if err != nil {
		t.Fatal(err)
	}
	return lib
}

// TestSettings opens a settings store whose default root is root.
func TestSettings(t *testing.T, root string) *settings.Store {
	t.Helper()
	st, err := settings.Open(filepath.Join(t.TempDir(), "settings.yaml"), root, nil)
	if err != nil {
		t.Fatal(err)
	}
	return st
}
