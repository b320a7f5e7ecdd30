// Package restart signals the host process supervisor that a committed
// update wants the application relaunched. The relaunch itself is the
// supervisor's job; this package only records and confirms the intent.
package restart

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// MarkerFileName is the well-known file the launcher watches for.
const MarkerFileName = ".restart-request"

// Request is what the marker file carries.
type Request struct {
	Version     string    `json:"version"`
	RequestedAt time.Time `json:"requested_at"`
	PID         int       `json:"pid"`
}

// Signaler delivers a restart request to the host supervisor.
type Signaler interface {
	Signal(req Request) error
}

// FileSignaler writes the restart marker into the install root, where the
// desktop launcher polls for it on its event loop.
type FileSignaler struct {
	InstallRoot string
}

// Signal writes the marker file. Returning nil confirms the signal was
// accepted (durably written).
func (f *FileSignaler) Signal(req Request) error {
	if req.PID == 0 {
		req.PID = os.Getpid()
	}
	if req.RequestedAt.IsZero() {
		req.RequestedAt = time.Now()
	}

	data, err := json.MarshalIndent(req, "", "  ")
	if err != nil {
		return err
	}

	path := filepath.Join(f.InstallRoot, MarkerFileName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("restart: write marker: %w", err)
	}

	return nil
}

// Pending reports whether a restart request is waiting in installRoot and
// returns it when present. Used by the launcher side.
func Pending(installRoot string) (*Request, bool) {
	data, err := os.ReadFile(filepath.Join(installRoot, MarkerFileName))
	if err != nil {
		return nil, false
	}

	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, false
	}
	return &req, true
}

// Clear removes a pending restart request. The launcher calls this after
// honoring the marker.
func Clear(installRoot string) error {
	err := os.Remove(filepath.Join(installRoot, MarkerFileName))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
