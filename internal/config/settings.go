package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// Settings holds updater state that persists between runs.
type Settings struct {
	// LastUpdateCheck is when the descriptor was last fetched.
	LastUpdateCheck time.Time `json:"last_update_check,omitempty"`

	// LastAppliedVersion is the version of the last committed update.
	LastAppliedVersion string `json:"last_applied_version,omitempty"`

	// LastSnapshotID is the backup snapshot created by the last attempt.
	LastSnapshotID string `json:"last_snapshot_id,omitempty"`
}

// SettingsPath returns the path to the settings file.
func SettingsPath(installRoot string) string {
	return filepath.Join(installRoot, ".confup.json")
}

// LoadSettings reads settings from disk.
func LoadSettings(installRoot string) (*Settings, error) {
	data, err := os.ReadFile(SettingsPath(installRoot))
	if err != nil {
		if os.IsNotExist(err) {
			return &Settings{}, nil // Empty settings if file doesn't exist
		}
		return nil, err
	}

	var settings Settings
	if err := json.Unmarshal(data, &settings); err != nil {
		return nil, err
	}

	return &settings, nil
}

// Save writes settings to disk.
func (s *Settings) Save(installRoot string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(SettingsPath(installRoot), data, 0o644)
}
