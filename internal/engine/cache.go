package engine

import (
	"os"
	"path/filepath"

	"github.com/confeitaria/updater/internal/log"
)

// CacheInvalidator purges derived artifacts of the updatable code so the
// next process start loads only the freshly written sources. The host
// runtime decides what "derived" means.
type CacheInvalidator interface {
	Invalidate(installRoot string, updatableRoots []string) error
}

// BytecodeCache removes compiled-module cache directories (the Python
// runtime's __pycache__ trees) beneath every updatable root. A stale
// compiled artifact surviving an update would shadow the new sources.
type BytecodeCache struct {
	// DirNames are the cache directory names to purge.
	DirNames []string
}

// NewBytecodeCache returns the invalidator for the host runtime's default
// cache layout.
func NewBytecodeCache() *BytecodeCache {
	return &BytecodeCache{DirNames: []string{"__pycache__"}}
}

// Invalidate walks the updatable roots and removes every matching cache
// directory.
func (b *BytecodeCache) Invalidate(installRoot string, updatableRoots []string) error {
	names := make(map[string]bool, len(b.DirNames))
	for _, n := range b.DirNames {
		names[n] = true
	}

	for _, root := range updatableRoots {
		rootPath := filepath.Join(installRoot, filepath.FromSlash(root))
		info, err := os.Stat(rootPath)
		if err != nil || !info.IsDir() {
			continue
		}

		err = filepath.WalkDir(rootPath, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() && names[d.Name()] {
				if err := os.RemoveAll(path); err != nil {
					return classifyIOError(err)
				}
				log.Debug("purged cache directory", "path", path)
				return filepath.SkipDir
			}
			return nil
		})
		if err != nil {
			return err
		}
	}

	return nil
}
