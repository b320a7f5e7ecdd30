package backup

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/confeitaria/updater/internal/fsutil"
	"github.com/confeitaria/updater/internal/log"
	"github.com/confeitaria/updater/internal/pathrule"
)

// Restore copies every path recorded in the snapshot's manifest back over
// the live installation, returning it to its pre-attempt state. Updatable
// paths that a failed replacement introduced and that the snapshot does not
// know about are removed, so the restored tree is byte-identical to the one
// the snapshot captured. Protected paths unknown to the snapshot are left
// alone.
func (m *Manager) Restore(snap *Snapshot) error {
	recorded := make(map[string]bool, len(snap.Paths))
	for _, p := range snap.Paths {
		recorded[p] = true
	}

	entries, err := os.ReadDir(m.installRoot)
	if err != nil {
		return fmt.Errorf("%w: read install root: %v", ErrRestoreFailed, err)
	}
	for _, entry := range entries {
		name := entry.Name()
		if filepath.Join(m.installRoot, name) == m.backupDir || recorded[name] {
			continue
		}
		if m.classifier.Classify(name) != pathrule.Updatable {
			continue
		}
		if err := os.RemoveAll(filepath.Join(m.installRoot, name)); err != nil {
			return fmt.Errorf("%w: remove %s: %v", ErrRestoreFailed, name, err)
		}
		log.Debug("removed path introduced by failed update", "path", name)
	}

	for _, p := range snap.Paths {
		src := filepath.Join(snap.dir, p)
		dst := filepath.Join(m.installRoot, p)
		if err := fsutil.ReplacePath(src, dst); err != nil {
			return fmt.Errorf("%w: restore %s: %v", ErrRestoreFailed, p, err)
		}
	}

	log.Info("snapshot restored", "id", snap.ID, "paths", len(snap.Paths))

	return nil
}
