// Package manifest retrieves and parses the remote release descriptor.
package manifest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/confeitaria/updater/internal/version"
)

var (
	// ErrNetworkUnavailable is returned when the hosting service cannot be
	// reached or the request times out.
	ErrNetworkUnavailable = errors.New("manifest: network unavailable")

	// ErrAuthRejected is returned when a credential is present but invalid
	// or lacks the required scope.
	ErrAuthRejected = errors.New("manifest: authentication rejected")

	// ErrNotFound is returned when the descriptor file is missing or the
	// repository is not accessible without a credential.
	ErrNotFound = errors.New("manifest: descriptor not found")

	// ErrCorrupt is returned when the descriptor exists but does not parse
	// into a release manifest.
	ErrCorrupt = errors.New("manifest: descriptor corrupt")
)

// ReleaseManifest is the remote descriptor stating the latest available
// version and how to obtain it. Fetched fresh on every check, never
// persisted beyond the current cycle.
type ReleaseManifest struct {
	Version           version.Version
	ReleaseDate       time.Time
	Changelog         []string
	MinimumCompatible version.Version
	DownloadURL       string // empty means the source's branch archive
	MinimumRuntime    string // optional host runtime requirement
	SHA256            string // optional archive content hash
}

// Source retrieves the descriptor and locates the release artifact on one
// hosting service.
type Source interface {
	// Fetch retrieves and parses the descriptor for the configured branch.
	Fetch(ctx context.Context) (*ReleaseManifest, error)

	// ArchiveURL resolves the downloadable packaged snapshot for the branch.
	ArchiveURL(ctx context.Context) (string, error)

	// HTTPClient returns a client carrying the source's credentials, for
	// downloading the archive outside the API surface.
	HTTPClient() *http.Client
}

// rawManifest is the JSON wire shape of version.json.
type rawManifest struct {
	Version          string   `json:"version"`
	ReleaseDate      string   `json:"release_date"`
	Changelog        []string `json:"changelog"`
	MinCompatible    string   `json:"min_compatible_version"`
	DownloadURL      string   `json:"download_url"`
	MinPythonVersion string   `json:"min_python_version"`
	SHA256           string   `json:"sha256"`
}

// Decode parses descriptor bytes into a ReleaseManifest. Any shape problem
// maps to ErrCorrupt so callers can distinguish a bad descriptor from a bad
// connection.
func Decode(data []byte) (*ReleaseManifest, error) {
	var raw rawManifest
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	if raw.Version == "" {
		return nil, fmt.Errorf("%w: missing version field", ErrCorrupt)
	}
	ver, err := version.Parse(raw.Version)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	m := &ReleaseManifest{
		Version:     ver,
		Changelog:   raw.Changelog,
		DownloadURL: raw.DownloadURL,
		// min_python_version in the descriptor; the updater treats it as an
		// opaque host-runtime requirement string.
		MinimumRuntime: raw.MinPythonVersion,
		SHA256:         raw.SHA256,
	}

	if raw.MinCompatible != "" {
		min, err := version.Parse(raw.MinCompatible)
		if err != nil {
			return nil, fmt.Errorf("%w: min_compatible_version: %v", ErrCorrupt, err)
		}
		m.MinimumCompatible = min
	}

	if raw.ReleaseDate != "" {
		date, err := time.Parse("2006-01-02", raw.ReleaseDate)
		if err != nil {
			return nil, fmt.Errorf("%w: release_date: %v", ErrCorrupt, err)
		}
		m.ReleaseDate = date
	}

	return m, nil
}

// Encode serializes a manifest back into the descriptor wire shape. Used to
// rewrite the installed version.json on commit.
func Encode(m *ReleaseManifest) ([]byte, error) {
	raw := rawManifest{
		Version:          m.Version.String(),
		Changelog:        m.Changelog,
		DownloadURL:      m.DownloadURL,
		MinPythonVersion: m.MinimumRuntime,
		SHA256:           m.SHA256,
	}
	if !m.MinimumCompatible.IsZero() {
		raw.MinCompatible = m.MinimumCompatible.String()
	}
	if !m.ReleaseDate.IsZero() {
		raw.ReleaseDate = m.ReleaseDate.Format("2006-01-02")
	}

	data, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("manifest: encode: %w", err)
	}
	return append(data, '\n'), nil
}
