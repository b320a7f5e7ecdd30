package commands

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/confeitaria/updater/internal/backup"
	"github.com/confeitaria/updater/internal/config"
	"github.com/confeitaria/updater/internal/display"
	"github.com/confeitaria/updater/internal/engine"
	"github.com/confeitaria/updater/internal/manifest"
	"github.com/confeitaria/updater/internal/pathrule"
	"github.com/confeitaria/updater/internal/token"
)

// buildSource constructs the descriptor source for the configured hosting
// backend. A missing credential degrades to anonymous access, which works
// for public repositories.
func buildSource(cfg *config.Config) (manifest.Source, error) {
	tok, err := token.Resolve(cfg.InstallRoot, "GITHUB_TOKEN", "GITLAB_TOKEN")
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s Running without authentication (rate limits may apply)\n",
			display.Warning("→"))
		tok = ""
	}

	switch cfg.Source {
	case config.SourceGitLab:
		return manifest.NewGitLabSource(tok, cfg.GitLabHost, cfg.GitLabProject, cfg.Branch, cfg.ManifestPath)
	default:
		return manifest.NewGitHubSource(tok, cfg.Owner, cfg.Repo, cfg.Branch, cfg.ManifestPath), nil
	}
}

// buildEngine wires the full update engine for the configured installation.
func buildEngine(cfg *config.Config) (*engine.Engine, error) {
	classifier, err := loadClassifier(cfg)
	if err != nil {
		return nil, err
	}
	src, err := buildSource(cfg)
	if err != nil {
		return nil, err
	}
	return engine.New(cfg, src, classifier), nil
}

// loadClassifier loads the path rules, honoring a deployment's
// update-rules.yaml override when present.
func loadClassifier(cfg *config.Config) (*pathrule.Classifier, error) {
	return pathrule.LoadRules(filepath.Join(cfg.InstallRoot, pathrule.RulesFileName))
}

// buildBackupManager wires the snapshot manager without a network source,
// for commands that never go online.
func buildBackupManager(cfg *config.Config) (*backup.Manager, error) {
	classifier, err := loadClassifier(cfg)
	if err != nil {
		return nil, err
	}
	return backup.NewManager(cfg.InstallRoot, cfg.BackupDirName, classifier), nil
}

// recordCheckTime persists when the descriptor was last fetched. Best
// effort: a settings write failure never fails the command.
func recordCheckTime(cfg *config.Config) {
	settings, err := config.LoadSettings(cfg.InstallRoot)
	if err != nil {
		settings = &config.Settings{}
	}
	settings.LastUpdateCheck = time.Now()
	_ = settings.Save(cfg.InstallRoot)
}

func confirmAction(prompt string, skipConfirm bool) (bool, error) {
	if skipConfirm {
		return true, nil
	}

	fmt.Printf("%s\nAre you sure? [y/N]: ", prompt)

	reader := bufio.NewReader(os.Stdin)
	response, err := reader.ReadString('\n')
	if err != nil {
		return false, fmt.Errorf("read response: %w", err)
	}

	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes", nil
}
