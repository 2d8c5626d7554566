package contentcache

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestCache(t *testing.T, expiry time.Duration) (*DiskCache, string) {
	t.Helper()
	dir := t.TempDir()
	cache, err := NewDiskCache(dir, expiry, nil)
	if err != nil {
		t.Fatalf("NewDiskCache failed: %v", err)
	}
	t.Cleanup(func() { _ = cache.Close() })
	return cache, dir
}

func writeEntry(t *testing.T, cacheDir, itemID string, age time.Duration) string {
	t.Helper()
	path := filepath.Join(cacheDir, itemID+blobExt)
	if err := os.WriteFile(path, []byte("encoded audio"), 0o644); err != nil {
		t.Fatalf("write entry: %v", err)
	}
	if age > 0 {
		stamp := time.Now().Add(-age)
		if err := os.Chtimes(path, stamp, stamp); err != nil {
			t.Fatalf("age entry: %v", err)
		}
	}
	return path
}

func TestLookupFreshEntryCopiesIntoDest(t *testing.T) {
	cache, dir := newTestCache(t, 24*time.Hour)
	writeEntry(t, dir, "abc123", time.Hour)

	dest := t.TempDir()
	copied, ok := cache.Lookup("abc123", dest)
	if !ok {
		t.Fatal("expected cache hit for fresh entry")
	}
	if copied != filepath.Join(dest, "abc123.mp3") {
		t.Fatalf("unexpected copy path: %q", copied)
	}
	data, err := os.ReadFile(copied)
	if err != nil || string(data) != "encoded audio" {
		t.Fatalf("copied blob wrong: %q, %v", data, err)
	}
}

func TestLookupStaleEntryEvicted(t *testing.T) {
	cache, dir := newTestCache(t, 24*time.Hour)
	entry := writeEntry(t, dir, "old456", 24*time.Hour+time.Minute)

	if _, ok := cache.Lookup("old456", t.TempDir()); ok {
		t.Fatal("expected miss for stale entry")
	}
	if _, err := os.Stat(entry); !os.IsNotExist(err) {
		t.Fatalf("stale entry should be removed, stat err: %v", err)
	}
}

func TestLookupJustInsideWindow(t *testing.T) {
	cache, dir := newTestCache(t, 24*time.Hour)
	writeEntry(t, dir, "edge", 24*time.Hour-time.Minute)

	if _, ok := cache.Lookup("edge", t.TempDir()); !ok {
		t.Fatal("entry just inside the window should hit")
	}
}

func TestLookupMissingAndEmptyID(t *testing.T) {
	cache, _ := newTestCache(t, time.Hour)
	if _, ok := cache.Lookup("ghost", t.TempDir()); ok {
		t.Fatal("expected miss for unknown id")
	}
	if _, ok := cache.Lookup("  ", t.TempDir()); ok {
		t.Fatal("expected miss for blank id")
	}
}

func TestStoreThenLookupRoundTrip(t *testing.T) {
	cache, _ := newTestCache(t, time.Hour)

	srcDir := t.TempDir()
	src := filepath.Join(srcDir, "download.mp3")
	if err := os.WriteFile(src, []byte("fresh download"), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}

	cache.Store("vid789", src)

	copied, ok := cache.Lookup("vid789", t.TempDir())
	if !ok {
		t.Fatal("expected hit after store")
	}
	data, _ := os.ReadFile(copied)
	if string(data) != "fresh download" {
		t.Fatalf("round trip content mismatch: %q", data)
	}
}

func TestStoreFailureIsSilent(t *testing.T) {
	cache, _ := newTestCache(t, time.Hour)
	cache.Store("broken", filepath.Join(t.TempDir(), "does-not-exist.mp3"))
	if _, ok := cache.Lookup("broken", t.TempDir()); ok {
		t.Fatal("failed store must not produce an entry")
	}
}

func TestSweepExpired(t *testing.T) {
	cache, dir := newTestCache(t, 24*time.Hour)
	writeEntry(t, dir, "fresh", time.Hour)
	writeEntry(t, dir, "stale1", 25*time.Hour)
	writeEntry(t, dir, "stale2", 48*time.Hour)

	if removed := cache.SweepExpired(); removed != 2 {
		t.Fatalf("expected 2 removed, got %d", removed)
	}
	if _, ok := cache.Lookup("fresh", t.TempDir()); !ok {
		t.Fatal("fresh entry should survive sweep")
	}

	stats := cache.Stats()
	if stats.Entries != 1 {
		t.Fatalf("expected 1 entry after sweep, got %d", stats.Entries)
	}
}

func TestSecondWriterRejected(t *testing.T) {
	cache, dir := newTestCache(t, time.Hour)
	_ = cache

	if _, err := NewDiskCache(dir, time.Hour, nil); err != ErrCacheBusy {
		t.Fatalf("expected ErrCacheBusy for second writer, got %v", err)
	}
}

func TestNopStore(t *testing.T) {
	var store Store = Nop{}
	store.Store("x", "/nowhere")
	if _, ok := store.Lookup("x", t.TempDir()); ok {
		t.Fatal("nop store should always miss")
	}
	if store.SweepExpired() != 0 {
		t.Fatal("nop sweep should remove nothing")
	}
}
