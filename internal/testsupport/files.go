package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

// TouchFiles creates empty files at the given paths relative to root,
// creating parent directories as needed. Paths ending in "/" become
// directories.
func TouchFiles(t testing.TB, root string, paths ...string) {
	t.Helper()

	for _, rel := range paths {
		target := filepath.Join(root, filepath.FromSlash(rel))
		if len(rel) > 0 && rel[len(rel)-1] == '/' {
			if err := os.MkdirAll(target, 0o755); err != nil {
				t.Fatalf("mkdir %s: %v", target, err)
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			t.Fatalf("mkdir for %s: %v", target, err)
		}
		if err := os.WriteFile(target, []byte{0x42}, 0o644); err != nil {
			t.Fatalf("write %s: %v", target, err)
		}
	}
}
