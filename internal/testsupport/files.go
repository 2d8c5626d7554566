package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteFile fills the target path with placeholder content, creating
// parent directories as needed.
func WriteFile(t testing.TB, path string, content string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if content == "" {
		content = "x"
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// TrackDir creates dir and fills it with the named placeholder tracks,
// returning dir for chaining.
func TrackDir(t testing.TB, dir string, names ...string) string {
	t.Helper()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}
	for _, name := range names {
		WriteFile(t, filepath.Join(dir, name), "media")
	}
	return dir
}
