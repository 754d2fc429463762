package cache

import (
	"path/filepath"
	"testing"
	"time"
)

func TestWatcher_FileEventClearsDirectoryKeyedEntry(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)
	dir := t.TempDir()
	file := filepath.Join(dir, "routes.json")

	// Registry-style entry keyed by the owning directory, plus a
	// per-file entry keyed by the file itself.
	if err := c.Set(Key(dir), []byte(`{"routes":["/api/old"]}`), time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := c.Set(Key(file), []byte(`stat`), time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}

	w, err := NewWatcher(c)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer w.Close()

	w.invalidate(file)

	if _, found := c.Get(Key(file)); found {
		t.Error("file-keyed entry should be invalidated")
	}
	if _, found := c.Get(Key(dir)); found {
		t.Error("directory-keyed entry should be invalidated by a file event inside it")
	}
}

func TestWatcher_CloseIsIdempotent(t *testing.T) {
	w, err := NewWatcher(NewMemoryCache(time.Minute, time.Minute))
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}
