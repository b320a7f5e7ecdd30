package engine

import (
	"errors"
	"fmt"
	"io/fs"
	"syscall"
)

var (
	// ErrSessionInProgress is returned when an update is requested while
	// another session is still running. Requests are rejected, not queued.
	ErrSessionInProgress = errors.New("engine: update session already in progress")

	// ErrIncompatibleVersion is returned when the installed version is below
	// the manifest's minimum compatible version. The engine signals that a
	// fresh install is required; it does not perform one.
	ErrIncompatibleVersion = errors.New("engine: installed version too old for in-place update")

	// ErrInsufficientStorage is returned when a phase runs out of disk space.
	ErrInsufficientStorage = errors.New("engine: insufficient storage")

	// ErrPermissionDenied is returned when the filesystem refuses a mutation.
	ErrPermissionDenied = errors.New("engine: permission denied")

	// ErrReplacementFailed is returned when the replacement phase fails.
	// Rollback has already been attempted by the time callers see it.
	ErrReplacementFailed = errors.New("engine: replacement failed")

	// ErrRollbackFailed is the unrecoverable case: an update failed and the
	// snapshot could not be restored. Manual recovery from the retained
	// backup directory is required.
	ErrRollbackFailed = errors.New("engine: rollback failed, manual recovery required")

	// ErrRestartNotCommitted is returned when a restart is requested outside
	// the committed state.
	ErrRestartNotCommitted = errors.New("engine: restart requires a committed update")
)

// classifyIOError maps filesystem errors onto the engine taxonomy so the
// caller can render a precise diagnostic. Unrecognized errors pass through.
func classifyIOError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, syscall.ENOSPC) {
		return fmt.Errorf("%w: %v", ErrInsufficientStorage, err)
	}
	if errors.Is(err, fs.ErrPermission) {
		return fmt.Errorf("%w: %v", ErrPermissionDenied, err)
	}
	return err
}
