// Package engine drives the update cycle: check, download, back up, stage,
// replace, invalidate caches, commit. It is the only component that mutates
// the live installation, and it never does so without a completed backup
// snapshot in hand.
package engine

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sync"

	"github.com/confeitaria/updater/internal/artifact"
	"github.com/confeitaria/updater/internal/backup"
	"github.com/confeitaria/updater/internal/config"
	"github.com/confeitaria/updater/internal/fsutil"
	"github.com/confeitaria/updater/internal/log"
	"github.com/confeitaria/updater/internal/manifest"
	"github.com/confeitaria/updater/internal/pathrule"
	"github.com/confeitaria/updater/internal/restart"
	"github.com/confeitaria/updater/internal/version"
)

// CheckResult is the outcome of one manifest check. The check path performs
// no filesystem writes.
type CheckResult struct {
	Local     version.Version
	Manifest  *manifest.ReleaseManifest
	Available bool

	// InPlaceAllowed is false when the installed version predates the
	// manifest's minimum compatible version and a fresh install is needed.
	InPlaceAllowed bool
}

// Engine coordinates update sessions. Only one session may be active at a
// time; concurrent requests are rejected with ErrSessionInProgress.
type Engine struct {
	cfg         *config.Config
	source      manifest.Source
	classifier  *pathrule.Classifier
	backups     *backup.Manager
	retriever   *artifact.Retriever
	invalidator CacheInvalidator
	signaler    restart.Signaler

	// replace performs one live-path replacement during the replacing phase.
	replace func(src, dst string) error

	mu      sync.Mutex
	session *Session

	// checkState tracks the check phase, which runs before any session
	// exists: idle, checking-manifest, up-to-date, update-available.
	checkState State
}

// New wires an engine for the given configuration and descriptor source.
func New(cfg *config.Config, source manifest.Source, classifier *pathrule.Classifier) *Engine {
	return &Engine{
		cfg:         cfg,
		source:      source,
		classifier:  classifier,
		backups:     backup.NewManager(cfg.InstallRoot, cfg.BackupDirName, classifier),
		retriever:   artifact.NewRetriever(source.HTTPClient()),
		invalidator: NewBytecodeCache(),
		signaler:    &restart.FileSignaler{InstallRoot: cfg.InstallRoot},
		replace:     fsutil.ReplacePath,
		checkState:  StateIdle,
	}
}

// Backups exposes the engine's backup manager for listing and manual
// restore commands.
func (e *Engine) Backups() *backup.Manager {
	return e.backups
}

// CurrentState returns the active session's state, or the check phase's
// state when no session exists yet.
func (e *Engine) CurrentState() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session == nil {
		return e.checkState
	}
	return e.session.State()
}

func (e *Engine) setCheckState(state State) {
	e.mu.Lock()
	e.checkState = state
	e.mu.Unlock()
}

// LocalVersion reads the installed version from the live version.json, the
// single source of truth for what is currently installed.
func (e *Engine) LocalVersion() (version.Version, error) {
	data, err := os.ReadFile(filepath.Join(e.cfg.InstallRoot, e.cfg.ManifestPath))
	if err != nil {
		return version.Version{}, fmt.Errorf("engine: read local descriptor: %w", err)
	}
	m, err := manifest.Decode(data)
	if err != nil {
		return version.Version{}, fmt.Errorf("engine: local descriptor: %w", err)
	}
	return m.Version, nil
}

// CheckForUpdate fetches the remote descriptor and compares versions.
// Rejected with ErrSessionInProgress while a session is mutating.
func (e *Engine) CheckForUpdate(ctx context.Context) (*CheckResult, error) {
	if err := e.beginCheck(); err != nil {
		return nil, err
	}

	local, err := e.LocalVersion()
	if err != nil {
		e.setCheckState(StateIdle)
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, e.cfg.CheckTimeout)
	defer cancel()

	m, err := e.source.Fetch(ctx)
	if err != nil {
		e.setCheckState(StateIdle)
		return nil, err
	}

	res := &CheckResult{
		Local:          local,
		Manifest:       m,
		Available:      version.UpdateAvailable(local, m.Version),
		InPlaceAllowed: version.Compatible(local, m.MinimumCompatible),
	}
	if res.Available {
		e.setCheckState(StateUpdateAvailable)
	} else {
		e.setCheckState(StateUpToDate)
	}

	log.Info("update check complete",
		"local", local, "remote", m.Version, "available", res.Available)

	return res, nil
}

// BeginUpdate runs the full download-backup-stage-replace cycle for the
// given manifest. On any failure after live mutation began, the snapshot is
// restored before the error is returned. There is no user-triggered abort
// once backing up starts: a half-finished attempt is strictly worse than a
// slow one.
func (e *Engine) BeginUpdate(ctx context.Context, m *manifest.ReleaseManifest, progress artifact.ProgressFunc) (*Session, error) {
	session, err := e.acquireSession(m)
	if err != nil {
		return nil, err
	}

	if err := e.run(ctx, session, progress); err != nil {
		return session, err
	}
	return session, nil
}

func (e *Engine) acquireSession(m *manifest.ReleaseManifest) (*Session, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session != nil && !e.session.State().Terminal() && e.session.State() != StateFailed {
		return nil, ErrSessionInProgress
	}

	local, err := e.LocalVersion()
	if err != nil {
		return nil, err
	}
	if !version.Compatible(local, m.MinimumCompatible) {
		return nil, fmt.Errorf("%w: installed %s, minimum %s",
			ErrIncompatibleVersion, local, m.MinimumCompatible)
	}

	session := newSession(local, m)
	e.session = session
	return session, nil
}

func (e *Engine) run(ctx context.Context, s *Session, progress artifact.ProgressFunc) error {
	defer e.cleanupStaging(s)

	// Downloading: temporary storage only, live tree untouched
	s.setState(StateDownloading)
	url := s.Manifest.DownloadURL
	if url == "" {
		var err error
		url, err = e.source.ArchiveURL(ctx)
		if err != nil {
			return e.abort(s, err)
		}
	}

	dlCtx, cancel := context.WithTimeout(ctx, e.cfg.DownloadTimeout)
	archivePath, err := e.retriever.Download(dlCtx, url, s.Manifest.SHA256, progress)
	cancel()
	if err != nil {
		return e.abort(s, err)
	}
	s.ArchivePath = archivePath

	// BackingUp: the crash-safety boundary. Interrupted before this
	// completes, the attempt is abandoned with the installation untouched.
	s.setState(StateBackingUp)
	snap, err := e.backups.Create()
	if err != nil {
		return e.abort(s, classifyIOError(err))
	}
	s.Snapshot = snap

	// Staging: expand and validate away from the live tree
	s.setState(StateStaging)
	stagingDir, err := os.MkdirTemp("", "confeitaria-staging-*")
	if err != nil {
		return e.abort(s, classifyIOError(err))
	}
	s.StagingDir = stagingDir
	if err := extractArchive(s.ArchivePath, stagingDir); err != nil {
		return e.abort(s, err)
	}
	if err := validateStagedTree(stagingDir, e.classifier); err != nil {
		return e.abort(s, err)
	}

	// Replacing: from here on every failure goes through rollback
	s.setState(StateReplacing)
	if err := e.replaceUpdatable(s); err != nil {
		return e.rollback(s, err)
	}

	s.setState(StateCacheInvalidate)
	if err := e.invalidator.Invalidate(e.cfg.InstallRoot, e.classifier.UpdatableRoots()); err != nil {
		return e.rollback(s, classifyIOError(err))
	}

	s.setState(StateCommitted)
	e.recordCommit(s)

	log.Info("update committed", "version", s.Manifest.Version, "snapshot", snap.ID)

	return nil
}

// replaceUpdatable syncs every staged updatable root over the live tree,
// consulting the classifier on each relative path so a protected rule nested
// beneath an updatable directory survives the update. Paths in the artifact
// that classify as protected are ignored, not an error: the artifact has no
// say over user-owned state.
func (e *Engine) replaceUpdatable(s *Session) error {
	for _, root := range e.classifier.UpdatableRoots() {
		staged := filepath.Join(s.StagingDir, filepath.FromSlash(root))
		if !fsutil.Exists(staged) {
			log.Debug("updatable path absent from artifact", "path", root)
			continue
		}

		live := filepath.Join(e.cfg.InstallRoot, filepath.FromSlash(root))
		if err := e.syncPath(staged, live, root); err != nil {
			return err
		}
		log.Debug("replaced", "path", root)
	}

	// The fetched descriptor wins over whatever the archive carried, so the
	// installed version is exactly what the check observed.
	data, err := manifest.Encode(s.Manifest)
	if err != nil {
		return err
	}
	descriptor := filepath.Join(e.cfg.InstallRoot, e.cfg.ManifestPath)
	if err := os.WriteFile(descriptor, data, 0o644); err != nil {
		return classifyIOError(err)
	}

	return nil
}

// syncPath makes the live path match the staged one for everything that
// classifies updatable at or beneath rel. Protected descendants are neither
// written from the stage nor removed from the live tree.
func (e *Engine) syncPath(staged, live, rel string) error {
	if e.classifier.Classify(rel) == pathrule.Protected {
		return nil
	}

	info, err := os.Stat(staged)
	if err != nil {
		return classifyIOError(err)
	}
	if !info.IsDir() {
		if err := e.replace(staged, live); err != nil {
			return classifyIOError(err)
		}
		return nil
	}

	// A live file where the release now ships a directory
	if liveInfo, err := os.Lstat(live); err == nil && !liveInfo.IsDir() {
		if err := os.RemoveAll(live); err != nil {
			return classifyIOError(err)
		}
	}
	if err := os.MkdirAll(live, 0o755); err != nil {
		return classifyIOError(err)
	}

	stagedEntries, err := os.ReadDir(staged)
	if err != nil {
		return classifyIOError(err)
	}
	stagedNames := make(map[string]bool, len(stagedEntries))
	for _, entry := range stagedEntries {
		stagedNames[entry.Name()] = true
	}

	// Remove stale updatable entries the new release no longer ships
	liveEntries, err := os.ReadDir(live)
	if err != nil {
		return classifyIOError(err)
	}
	for _, entry := range liveEntries {
		if stagedNames[entry.Name()] {
			continue
		}
		childRel := path.Join(rel, entry.Name())
		if e.classifier.Classify(childRel) != pathrule.Updatable {
			continue
		}
		if err := os.RemoveAll(filepath.Join(live, entry.Name())); err != nil {
			return classifyIOError(err)
		}
	}

	for _, entry := range stagedEntries {
		childRel := path.Join(rel, entry.Name())
		err := e.syncPath(
			filepath.Join(staged, entry.Name()),
			filepath.Join(live, entry.Name()),
			childRel)
		if err != nil {
			return err
		}
	}

	return nil
}

// abort fails the attempt before any live mutation. No rollback required.
func (e *Engine) abort(s *Session, err error) error {
	s.setState(StateFailed)
	log.Warn("update attempt aborted", "error", err)
	return err
}

// rollback restores the snapshot after a failed mutation. A failure of the
// restore itself is the one unrecoverable condition.
func (e *Engine) rollback(s *Session, cause error) error {
	s.setState(StateFailed)
	s.setState(StateRollingBack)

	if err := e.backups.Restore(s.Snapshot); err != nil {
		log.Error("rollback failed", "snapshot", s.Snapshot.ID, "cause", cause, "error", err)
		return fmt.Errorf("%w: %v (update failure: %v)", ErrRollbackFailed, err, cause)
	}

	s.setState(StateRolledBack)
	log.Warn("update rolled back", "snapshot", s.Snapshot.ID, "cause", cause)

	return fmt.Errorf("%w: rolled back: %v", ErrReplacementFailed, cause)
}

func (e *Engine) recordCommit(s *Session) {
	settings, err := config.LoadSettings(e.cfg.InstallRoot)
	if err != nil {
		log.Warn("could not load settings after commit", "error", err)
		settings = &config.Settings{}
	}
	settings.LastAppliedVersion = s.Manifest.Version.String()
	settings.LastSnapshotID = s.Snapshot.ID
	if err := settings.Save(e.cfg.InstallRoot); err != nil {
		log.Warn("could not save settings after commit", "error", err)
	}

	if err := e.backups.Prune(e.cfg.BackupRetention); err != nil {
		log.Warn("backup prune failed", "error", err)
	}
}

func (e *Engine) cleanupStaging(s *Session) {
	if s.ArchivePath != "" {
		os.Remove(s.ArchivePath)
	}
	if s.StagingDir != "" {
		os.RemoveAll(s.StagingDir)
	}
}

// RequestRestart signals the supervisor to relaunch the host application.
// Only valid once the active session committed.
func (e *Engine) RequestRestart() error {
	e.mu.Lock()
	session := e.session
	e.mu.Unlock()

	if session == nil || session.State() != StateCommitted {
		return ErrRestartNotCommitted
	}

	return e.signaler.Signal(restart.Request{
		Version: session.Manifest.Version.String(),
	})
}

// beginCheck rejects a check while a session is mutating, discards a
// finished session from a previous cycle, and enters the checking state.
func (e *Engine) beginCheck() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session != nil {
		if state := e.session.State(); !state.Terminal() && state != StateFailed {
			return ErrSessionInProgress
		}
		e.session = nil
	}
	e.checkState = StateCheckingManifest
	return nil
}
