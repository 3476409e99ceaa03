package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spec-kit/support-desk/internal/config"
)

func newTestStore(t *testing.T) *LocalStore {
	t.Helper()
	store, err := NewLocalStore(config.StorageConfig{
		BaseDir:       t.TempDir(),
		PublicBaseURL: "http://localhost:8080/",
	})
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return store
}

func TestLocalStoreSave(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	ctx := context.Background()

	blob, err := store.Save(ctx, "abc.txt", "notes.txt", "text/plain", strings.NewReader("hello"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if blob.SizeBytes != 5 {
		t.Errorf("size = %d, want 5", blob.SizeBytes)
	}
	if blob.URL != "http://localhost:8080/files/abc.txt" {
		t.Errorf("url = %s", blob.URL)
	}
	if blob.ThumbnailURL != nil {
		t.Error("text blob should not get a thumbnail")
	}

	data, err := os.ReadFile(store.FilePath("abc.txt"))
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(data) != "hello" {
		t.Errorf("content = %q", data)
	}
}

func TestLocalStoreImageThumbnail(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)

	blob, err := store.Save(context.Background(), "pic.png", "pic.png", "image/png", strings.NewReader("png"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if blob.ThumbnailURL == nil {
		t.Fatal("image blob should get a thumbnail url")
	}
	if *blob.ThumbnailURL != "http://localhost:8080/files/thumb/pic.png" {
		t.Errorf("thumbnail = %s", *blob.ThumbnailURL)
	}
}

func TestLocalStoreSaveRefusesOverwrite(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	ctx := context.Background()

	if _, err := store.Save(ctx, "dup.bin", "a", "application/octet-stream", strings.NewReader("1")); err != nil {
		t.Fatalf("first save: %v", err)
	}
	if _, err := store.Save(ctx, "dup.bin", "b", "application/octet-stream", strings.NewReader("2")); err == nil {
		t.Error("second save with same key should fail")
	}
}

func TestLocalStoreRemoveIdempotent(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	ctx := context.Background()

	if _, err := store.Save(ctx, "gone.txt", "gone", "text/plain", strings.NewReader("x")); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.Remove(ctx, "gone.txt"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := os.Stat(filepath.Join(store.baseDir, "gone.txt")); !os.IsNotExist(err) {
		t.Error("blob still on disk after remove")
	}
	// Removing again is not an error.
	if err := store.Remove(ctx, "gone.txt"); err != nil {
		t.Errorf("second remove: %v", err)
	}
}
