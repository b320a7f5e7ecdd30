// Package backup creates and restores recovery points of the live
// installation. A snapshot is taken before any mutation and consumed by
// rollback when an update attempt fails.
package backup

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/confeitaria/updater/internal/fsutil"
	"github.com/confeitaria/updater/internal/log"
	"github.com/confeitaria/updater/internal/pathrule"
)

var (
	// ErrBackupFailed is returned when a snapshot cannot be completed.
	// Nothing in the live installation has been mutated at that point.
	ErrBackupFailed = errors.New("backup: snapshot failed")

	// ErrRestoreFailed is returned when copying a snapshot back over the
	// live installation fails. This is the one condition the updater cannot
	// recover from on its own.
	ErrRestoreFailed = errors.New("backup: restore failed")

	// ErrNoSnapshot is returned when no snapshot exists to restore.
	ErrNoSnapshot = errors.New("backup: no snapshot found")
)

// manifestFileName records what a snapshot contains.
const manifestFileName = "manifest.json"

// Snapshot is one timestamped recovery point. Never mutated after creation.
type Snapshot struct {
	ID         string    `json:"id"`
	SourceRoot string    `json:"source_root"`
	CreatedAt  time.Time `json:"created_at"`
	Paths      []string  `json:"paths"`

	// dir is the snapshot directory on disk, not serialized.
	dir string
}

// Dir returns the snapshot directory.
func (s *Snapshot) Dir() string {
	return s.dir
}

// Manager owns the backup directory inside the install root. The directory
// is on the protected surface: updates never write into it except through
// this manager.
type Manager struct {
	installRoot string
	backupDir   string
	classifier  *pathrule.Classifier
}

// NewManager creates a backup manager for the given install root.
func NewManager(installRoot, backupDirName string, classifier *pathrule.Classifier) *Manager {
	return &Manager{
		installRoot: installRoot,
		backupDir:   filepath.Join(installRoot, backupDirName),
		classifier:  classifier,
	}
}

// Create snapshots every top-level path of the install root, updatable and
// protected alike, into a fresh timestamped directory. It must complete
// fully before any live mutation begins: a failure here aborts the update
// attempt with the installation untouched.
func (m *Manager) Create() (*Snapshot, error) {
	entries, err := os.ReadDir(m.installRoot)
	if err != nil {
		return nil, fmt.Errorf("%w: read install root: %v", ErrBackupFailed, err)
	}

	snap := &Snapshot{
		ID:         time.Now().Format("20060102-150405"),
		SourceRoot: m.installRoot,
		CreatedAt:  time.Now(),
	}
	snap.dir = filepath.Join(m.backupDir, snap.ID)

	if err := os.MkdirAll(snap.dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create snapshot dir: %v", ErrBackupFailed, err)
	}

	for _, entry := range entries {
		name := entry.Name()
		// A backup must never recurse into the backup directory itself
		if filepath.Join(m.installRoot, name) == m.backupDir {
			continue
		}

		src := filepath.Join(m.installRoot, name)
		dst := filepath.Join(snap.dir, name)
		if err := fsutil.CopyPath(src, dst); err != nil {
			// Leave the partial snapshot for inspection, fail the attempt
			return nil, fmt.Errorf("%w: copy %s: %v", ErrBackupFailed, name, err)
		}
		snap.Paths = append(snap.Paths, name)
	}
	sort.Strings(snap.Paths)

	if err := m.writeManifest(snap); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackupFailed, err)
	}

	log.Info("backup snapshot created", "id", snap.ID, "paths", len(snap.Paths))

	return snap, nil
}

func (m *Manager) writeManifest(snap *Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(snap.dir, manifestFileName), data, 0o644)
}

// List returns all snapshots, newest first. Directories without a readable
// manifest are skipped.
func (m *Manager) List() ([]*Snapshot, error) {
	entries, err := os.ReadDir(m.backupDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var snapshots []*Snapshot
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		snap, err := m.load(entry.Name())
		if err != nil {
			log.Warn("skipping unreadable snapshot", "id", entry.Name(), "error", err)
			continue
		}
		snapshots = append(snapshots, snap)
	}

	sort.Slice(snapshots, func(i, j int) bool {
		return snapshots[i].ID > snapshots[j].ID
	})

	return snapshots, nil
}

// Get loads one snapshot by ID.
func (m *Manager) Get(id string) (*Snapshot, error) {
	snap, err := m.load(id)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNoSnapshot, id)
		}
		return nil, err
	}
	return snap, nil
}

// Latest returns the most recent snapshot, or ErrNoSnapshot.
func (m *Manager) Latest() (*Snapshot, error) {
	snapshots, err := m.List()
	if err != nil {
		return nil, err
	}
	if len(snapshots) == 0 {
		return nil, ErrNoSnapshot
	}
	return snapshots[0], nil
}

func (m *Manager) load(id string) (*Snapshot, error) {
	dir := filepath.Join(m.backupDir, id)
	data, err := os.ReadFile(filepath.Join(dir, manifestFileName))
	if err != nil {
		return nil, err
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, err
	}
	snap.dir = dir

	return &snap, nil
}

// Prune removes the oldest snapshots beyond keep. The newest snapshots stay
// on durable storage for manual recovery.
func (m *Manager) Prune(keep int) error {
	if keep < 1 {
		keep = 1
	}

	snapshots, err := m.List()
	if err != nil {
		return err
	}
	if len(snapshots) <= keep {
		return nil
	}

	for _, snap := range snapshots[keep:] {
		if err := os.RemoveAll(snap.dir); err != nil {
			return fmt.Errorf("backup: prune %s: %w", snap.ID, err)
		}
		log.Debug("pruned snapshot", "id", snap.ID)
	}

	return nil
}
