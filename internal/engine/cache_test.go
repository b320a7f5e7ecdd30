package engine

import (
	"os"
	"path/filepath"
	"testing"
)

func TestBytecodeCacheInvalidate(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "core", "models.py"), "models\n")
	writeFile(t, filepath.Join(root, "core", "__pycache__", "models.cpython-312.pyc"), "stale\n")
	writeFile(t, filepath.Join(root, "core", "pricing", "__pycache__", "pricing.cpython-312.pyc"), "stale\n")
	writeFile(t, filepath.Join(root, "logs", "__pycache__", "keep.pyc"), "outside updatable roots\n")

	cache := NewBytecodeCache()
	if err := cache.Invalidate(root, []string{"core", "ui"}); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}

	for _, gone := range []string{
		filepath.Join(root, "core", "__pycache__"),
		filepath.Join(root, "core", "pricing", "__pycache__"),
	} {
		if _, err := os.Stat(gone); !os.IsNotExist(err) {
			t.Errorf("%s survived invalidation", gone)
		}
	}

	if _, err := os.Stat(filepath.Join(root, "core", "models.py")); err != nil {
		t.Errorf("source file removed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "logs", "__pycache__", "keep.pyc")); err != nil {
		t.Errorf("cache outside updatable roots removed: %v", err)
	}
}

func TestBytecodeCacheMissingRoot(t *testing.T) {
	// Roots absent from the installation are skipped, not an error.
	if err := NewBytecodeCache().Invalidate(t.TempDir(), []string{"core", "web"}); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
}
