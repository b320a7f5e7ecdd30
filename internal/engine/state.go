package engine

// State is the position of an update session in its lifecycle.
type State string

const (
	StateIdle             State = "idle"
	StateCheckingManifest State = "checking-manifest"
	StateUpToDate         State = "up-to-date"
	StateUpdateAvailable  State = "update-available"
	StateDownloading      State = "downloading"
	StateBackingUp        State = "backing-up"
	StateStaging          State = "staging"
	StateReplacing        State = "replacing"
	StateCacheInvalidate  State = "cache-invalidating"
	StateCommitted        State = "committed"
	StateFailed           State = "failed"
	StateRollingBack      State = "rolling-back"
	StateRolledBack       State = "rolled-back"
)

// Terminal reports whether the state ends an update cycle.
func (s State) Terminal() bool {
	switch s {
	case StateUpToDate, StateCommitted, StateRolledBack:
		return true
	}
	return false
}
