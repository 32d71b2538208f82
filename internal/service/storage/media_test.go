package storage

import (
	"bytes"
	"errors"
	"image"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/disintegration/imaging"

	"geocatalog/internal/config"
)

func setupMediaStore(t *testing.T, maxMB int) *MediaStore {
	t.Helper()

	cfg := config.Default()
	cfg.MediaRoot = filepath.Join(t.TempDir(), "images")
	cfg.MaxUploadMB = maxMB

	store, err := NewMediaStore(cfg)
	if err != nil {
		t.Fatalf("Failed to create media store: %v", err)
	}
	return store
}

func pngBytes(t *testing.T) []byte {
	t.Helper()

	var buf bytes.Buffer
	img := imaging.New(4, 4, image.White.C)
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		t.Fatalf("Failed to encode PNG: %v", err)
	}
	return buf.Bytes()
}

func TestMediaStore_SaveAndRemove(t *testing.T) {
	store := setupMediaStore(t, 1)

	name, err := store.Save(bytes.NewReader(pngBytes(t)))
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if !strings.HasSuffix(name, ".png") {
		t.Errorf("Expected .png name, got %s", name)
	}

	path, err := store.Path(name)
	if err != nil {
		t.Fatalf("Path failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("Saved file should exist: %v", err)
	}

	if err := store.Remove(name); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("File should be gone after Remove")
	}

	// Removing twice is not an error.
	if err := store.Remove(name); err != nil {
		t.Errorf("Second Remove should succeed, got %v", err)
	}
}

func TestMediaStore_RejectsNonImage(t *testing.T) {
	store := setupMediaStore(t, 1)

	_, err := store.Save(strings.NewReader("definitely not an image"))
	if !errors.Is(err, ErrNotImage) {
		t.Errorf("Expected ErrNotImage, got %v", err)
	}

	entries, _ := os.ReadDir(store.Root())
	if len(entries) != 0 {
		t.Errorf("Nothing should be written for a rejected upload, found %d files", len(entries))
	}
}

func TestMediaStore_RejectsOversize(t *testing.T) {
	store := setupMediaStore(t, 1)

	_, err := store.Save(bytes.NewReader(make([]byte, (1<<20)+1)))
	if !errors.Is(err, ErrTooLarge) {
		t.Errorf("Expected ErrTooLarge, got %v", err)
	}
}

func TestMediaStore_PathRejectsTraversal(t *testing.T) {
	store := setupMediaStore(t, 1)

	for _, name := range []string{"", "../secret", "a/b.png", ".hidden"} {
		if _, err := store.Path(name); !errors.Is(err, ErrInvalidName) {
			t.Errorf("Path(%q): expected ErrInvalidName, got %v", name, err)
		}
	}
}
