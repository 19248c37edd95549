package internal

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func testConfig(t *testing.T) *Config {
	t.Helper()
	dir := t.TempDir()
	cfg := NewDefaultConfig()
	cfg.Content.Dir = filepath.Join(dir, "content")
	cfg.Storage.Dir = filepath.Join(dir, "uploads")
	cfg.SQLite.Path = filepath.Join(dir, "sideload.db")
	cfg.Settings.Path = filepath.Join(dir, "data", "settings.yaml")
	return cfg
}

func TestOpenRequiresConfig(t *testing.T) {
	if _, err := Open(); err == nil {
		t.Fatal("Open without config should fail")
	}
}

func TestOpenWiresCore(t *testing.T) {
	cfg := testConfig(t)
	core, err := Open(WithConfig(cfg), WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer core.Close()

	if _, err := os.Stat(cfg.Content.Dir); err != nil {
		t.Errorf("content dir not created: %v", err)
	}
	root := core.Settings.Current().RootPath
	if !filepath.IsAbs(root) {
		t.Errorf("default root %q should be absolute", root)
	}

	src := filepath.Join(cfg.Content.Dir, "notes.txt")
	if err := os.WriteFile(src, []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}
	sum := core.Service.Import(context.Background(), []string{src})
	if sum.Succeeded != 1 {
		t.Fatalf("summary = %+v", sum)
	}
	if _, err := os.Stat(src); err != nil {
		t.Errorf("copy should keep the source: %v", err)
	}
}
