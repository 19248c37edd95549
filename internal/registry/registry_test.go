package registry

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/starford/sideload/internal/apperr"
	"github.com/starford/sideload/internal/models"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	f, err := os.CreateTemp("", "sideload-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := Open(f.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func sample(original, rel string) models.NewAsset {
	return models.NewAsset{
		Title:        "photo",
		MimeType:     "image/jpeg",
		StoragePath:  rel,
		FilePath:     "/lib/" + rel,
		OriginalPath: original,
		URL:          "/media/" + rel,
		Size:         42,
		Checksum:     "abc",
	}
}

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM assets`).Scan(&count); err != nil {
		t.Fatalf("assets table missing: %v", err)
	}
	if err := db.conn.QueryRow(`SELECT count(*) FROM import_activity`).Scan(&count); err != nil {
		t.Fatalf("import_activity table missing: %v", err)
	}
}

// Both implementations must agree on the lookup contract.
func TestRegistryContract(t *testing.T) {
	impls := map[string]func(t *testing.T) Registry{
		"sqlite": func(t *testing.T) Registry { return testDB(t) },
		"memory": func(*testing.T) Registry { return NewMemory() },
	}
	for name, mk := range impls {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			r := mk(t)

			a, err := r.Insert(ctx, sample("/srv/in/photo.jpg", "2024/05/photo.jpg"))
			if err != nil {
				t.Fatalf("Insert: %v", err)
			}
			if a.Status != models.StatusInherit {
				t.Errorf("status = %q, want inherit", a.Status)
			}
			second, _ := r.Insert(ctx, sample("/srv/in/photo.jpg", "2024/05/photo-1.jpg"))

			id, ok, err := r.FindByOriginalPath(ctx, "/srv/in/photo.jpg")
			if err != nil || !ok || id != a.ID {
				t.Errorf("FindByOriginalPath = %d %v %v, want first id %d", id, ok, err, a.ID)
			}
			id, ok, _ = r.FindByStoragePath(ctx, "2024/05/photo-1.jpg")
			if !ok || id != second.ID {
				t.Errorf("FindByStoragePath = %d %v, want %d", id, ok, second.ID)
			}
			if _, ok, _ := r.FindByOriginalPath(ctx, "/srv/in/other.jpg"); ok {
				t.Error("unexpected match for unknown path")
			}

			got, err := r.Get(ctx, a.ID)
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			if got.OriginalPath != "/srv/in/photo.jpg" || got.URL != "/media/2024/05/photo.jpg" {
				t.Errorf("Get = %+v", got)
			}
			if _, err := r.Get(ctx, 9999); !errors.Is(err, apperr.ErrNotFound) {
				t.Errorf("Get missing: err = %v, want ErrNotFound", err)
			}

			list, total, err := r.List(ctx, 10, 0)
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			if total != 2 || len(list) != 2 || list[0].ID != second.ID {
				t.Errorf("List = %d items (total %d), want newest first", len(list), total)
			}
		})
	}
}

func TestNoOriginalPathNeverMatches(t *testing.T) {
	ctx := context.Background()
	db := testDB(t)
	if _, err := db.Insert(ctx, sample("", "2024/05/manual.jpg")); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := db.FindByOriginalPath(ctx, ""); ok {
		t.Error("empty original path should not match a NULL column")
	}
}

func TestUpdateMetadata(t *testing.T) {
	ctx := context.Background()
	db := testDB(t)
	a, _ := db.Insert(ctx, sample("/x.jpg", "x.jpg"))

	meta := models.AssetMetadata{
		Width:  640,
		Height: 480,
		Sizes: map[string]models.DerivedSize{
			"thumbnail": {File: "x-150x150.jpg", Width: 150, Height: 150, MimeType: "image/jpeg"},
		},
	}
	if err := db.UpdateMetadata(ctx, a.ID, meta); err != nil {
		t.Fatalf("UpdateMetadata: %v", err)
	}
	got, _ := db.Get(ctx, a.ID)
	if got.Metadata.Width != 640 || got.Metadata.Sizes["thumbnail"].Width != 150 {
		t.Errorf("metadata = %+v", got.Metadata)
	}
	if err := db.UpdateMetadata(ctx, 404, meta); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestSearch(t *testing.T) {
	ctx := context.Background()
	db := testDB(t)
	n := sample("/a.jpg", "2024/05/sunset.jpg")
	n.Title = "sunset"
	_, _ = db.Insert(ctx, n)
	n = sample("/b.jpg", "2024/05/harbor.jpg")
	n.Title = "harbor"
	_, _ = db.Insert(ctx, n)

	res, err := db.Search(ctx, "sunset", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(res) != 1 || res[0].Title != "sunset" {
		t.Errorf("Search = %+v", res)
	}
}

func TestActivity(t *testing.T) {
	ctx := context.Background()
	db := testDB(t)
	id := int64(7)
	if err := db.RecordActivity(ctx, models.Activity{BatchID: "b1", File: "a.jpg", Path: "/in/a.jpg", Success: true, AssetID: &id}); err != nil {
		t.Fatalf("RecordActivity: %v", err)
	}
	if err := db.RecordActivity(ctx, models.Activity{BatchID: "b1", File: "b.exe", Path: "/in/b.exe", Error: "Invalid file type."}); err != nil {
		t.Fatalf("RecordActivity: %v", err)
	}

	got, err := db.ListActivity(ctx, 10)
	if err != nil {
		t.Fatalf("ListActivity: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].File != "b.exe" || got[0].Success || got[0].AssetID != nil {
		t.Errorf("newest = %+v", got[0])
	}
	if got[1].AssetID == nil || *got[1].AssetID != 7 || !got[1].Success {
		t.Errorf("oldest = %+v", got[1])
	}
}
