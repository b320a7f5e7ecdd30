// Package config holds updater configuration and persisted settings.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Source selects the hosting service the release descriptor lives on.
type Source string

const (
	SourceGitHub Source = "github"
	SourceGitLab Source = "gitlab"
)

// Config holds all updater configuration.
type Config struct {
	// Source selects the hosting backend (github or gitlab).
	Source Source

	// GitHub repository coordinates.
	Owner  string
	Repo   string
	Branch string

	// GitLab coordinates, used when Source is gitlab.
	GitLabHost    string // empty means gitlab.com
	GitLabProject string // "group/project" path

	// ManifestPath is the descriptor file checked on every update cycle.
	ManifestPath string

	// InstallRoot is the live installation directory.
	InstallRoot string

	// BackupDirName is the snapshot directory inside the install root.
	BackupDirName string

	// BackupRetention is how many snapshots to keep after a committed update.
	BackupRetention int

	// CheckTimeout bounds the manifest fetch; DownloadTimeout bounds the
	// artifact transfer. Both map to a network failure when exceeded.
	CheckTimeout    time.Duration
	DownloadTimeout time.Duration
}

// NewDefault creates a Config with default values for the Confeitaria tree.
func NewDefault() *Config {
	return &Config{
		Source:          SourceGitHub,
		Owner:           "W4lterBr",
		Repo:            "Confeitaria",
		Branch:          "main",
		ManifestPath:    "version.json",
		InstallRoot:     ".",
		BackupDirName:   "backups",
		BackupRetention: 5,
		CheckTimeout:    10 * time.Second,
		DownloadTimeout: 5 * time.Minute,
	}
}

// Load builds configuration from defaults plus CONFUP_* environment
// variables. Call LoadDotEnv first so .env values are visible here.
func Load() (*Config, error) {
	cfg := NewDefault()

	if v := os.Getenv("CONFUP_SOURCE"); v != "" {
		cfg.Source = Source(v)
	}
	if v := os.Getenv("CONFUP_OWNER"); v != "" {
		cfg.Owner = v
	}
	if v := os.Getenv("CONFUP_REPO"); v != "" {
		cfg.Repo = v
	}
	if v := os.Getenv("CONFUP_BRANCH"); v != "" {
		cfg.Branch = v
	}
	if v := os.Getenv("CONFUP_GITLAB_HOST"); v != "" {
		cfg.GitLabHost = v
	}
	if v := os.Getenv("CONFUP_GITLAB_PROJECT"); v != "" {
		cfg.GitLabProject = v
	}
	if v := os.Getenv("CONFUP_MANIFEST_PATH"); v != "" {
		cfg.ManifestPath = v
	}
	if v := os.Getenv("CONFUP_INSTALL_ROOT"); v != "" {
		cfg.InstallRoot = v
	}
	if v := os.Getenv("CONFUP_BACKUP_RETENTION"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("config: invalid CONFUP_BACKUP_RETENTION %q", v)
		}
		cfg.BackupRetention = n
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks configuration consistency beyond simple defaults.
func (c *Config) Validate() error {
	switch c.Source {
	case SourceGitHub:
		if c.Owner == "" || c.Repo == "" {
			return fmt.Errorf("config: github source requires owner and repo")
		}
	case SourceGitLab:
		if c.GitLabProject == "" {
			return fmt.Errorf("config: gitlab source requires a project path")
		}
	default:
		return fmt.Errorf("config: unknown source %q", c.Source)
	}

	if c.ManifestPath == "" {
		return fmt.Errorf("config: manifest path must not be empty")
	}
	if c.BackupDirName == "" {
		return fmt.Errorf("config: backup directory name must not be empty")
	}

	return nil
}
