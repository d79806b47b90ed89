package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/soportek/helpdesk/internal/config"
)

func newTestStore(t *testing.T, maxBytes int64) FileStore {
	t.Helper()
	store, err := NewLocalStore(config.StorageConfig{
		UploadDir:      t.TempDir(),
		MaxUploadBytes: maxBytes,
	})
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return store
}

func TestSaveAndPath(t *testing.T) {
	store := newTestStore(t, 0)

	key, err := store.Save("photo.PNG", []byte("content"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if !strings.HasSuffix(key, ".png") {
		t.Fatalf("key %q should carry the lowercased extension", key)
	}
	if strings.Contains(key, "photo") {
		t.Fatalf("key %q must not reuse the user-supplied name", key)
	}

	data, err := os.ReadFile(store.Path(key))
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(data) != "content" {
		t.Fatalf("unexpected content %q", data)
	}
}

func TestSaveDistinctKeys(t *testing.T) {
	store := newTestStore(t, 0)

	first, _ := store.Save("a.png", []byte("a"))
	second, _ := store.Save("a.png", []byte("b"))
	if first == second {
		t.Fatal("identical file names must not collide")
	}
}

func TestSaveRejectsOversize(t *testing.T) {
	store := newTestStore(t, 4)

	if _, err := store.Save("big.png", []byte("too large")); err == nil {
		t.Fatal("oversize upload accepted")
	}
}

func TestDeleteIdempotent(t *testing.T) {
	store := newTestStore(t, 0)

	key, err := store.Save("x.png", []byte("x"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.Delete(key); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := store.Delete(key); err != nil {
		t.Fatalf("second delete must be a no-op: %v", err)
	}
	if err := store.Delete(""); err != nil {
		t.Fatalf("empty key delete: %v", err)
	}
	if _, err := os.Stat(store.Path(key)); !os.IsNotExist(err) {
		t.Fatal("file still present")
	}
}

func TestKeysGroupedByDate(t *testing.T) {
	store := newTestStore(t, 0)

	key, err := store.Save("y.jpg", []byte("y"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	parts := strings.Split(key, string(filepath.Separator))
	if len(parts) != 3 {
		t.Fatalf("key %q should be year/month/name", key)
	}
}
