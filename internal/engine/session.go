package engine

import (
	"sync"

	"github.com/confeitaria/updater/internal/backup"
	"github.com/confeitaria/updater/internal/manifest"
	"github.com/confeitaria/updater/internal/version"
)

// Session tracks one update attempt from check to terminal state. It
// exclusively owns its staging artifact and backup snapshot for its
// lifetime and is discarded afterwards.
type Session struct {
	Local    version.Version
	Manifest *manifest.ReleaseManifest

	// ArchivePath is the downloaded artifact in temporary storage.
	ArchivePath string

	// StagingDir is where the archive is expanded before replacement.
	StagingDir string

	// Snapshot is the recovery point taken before any live mutation.
	Snapshot *backup.Snapshot

	mu    sync.RWMutex
	state State
}

func newSession(local version.Version, m *manifest.ReleaseManifest) *Session {
	return &Session{
		Local:    local,
		Manifest: m,
		state:    StateIdle,
	}
}

// State returns the session's current state.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Session) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}
