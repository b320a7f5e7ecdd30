package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/confeitaria/updater/internal/display"
	"github.com/confeitaria/updater/internal/manifest"
	"github.com/confeitaria/updater/internal/token"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show installed version, service access, and license standing",
	Long: `Status reports the installed version and probes the release service
with the configured credential. Repository access doubles as the license
check: a revoked credential means the subscription lapsed.`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	eng, err := buildEngine(cfg)
	if err != nil {
		return err
	}

	local, err := eng.LocalVersion()
	if err != nil {
		fmt.Printf("%s Installed version unknown: %v\n", display.Warning("⚠"), err)
	} else {
		fmt.Printf("Installed: %s\n", display.Bold(local.String()))
	}

	hasToken := true
	if _, err := token.Resolve(cfg.InstallRoot, "GITHUB_TOKEN", "GITLAB_TOKEN"); errors.Is(err, token.ErrNoToken) {
		hasToken = false
	}

	src, err := buildSource(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.CheckTimeout)
	defer cancel()

	// Repository metadata first: it tells a lapsed license apart from a
	// descriptor problem before the descriptor is even requested.
	if gh, ok := src.(*manifest.GitHubSource); ok {
		if err := gh.Reachable(ctx); err != nil {
			fmt.Println(licenseStanding(err, hasToken))
			return nil
		}
	}

	m, err := src.Fetch(ctx)
	switch {
	case err == nil:
		fmt.Printf("%s License current, latest release %s\n",
			display.Success("✓"), m.Version)
	case errors.Is(err, manifest.ErrNotFound):
		// Repository reachable but the descriptor is missing or relocated
		fmt.Printf("%s Release descriptor not found, check repository settings\n",
			display.Error("✗"))
	case errors.Is(err, manifest.ErrAuthRejected),
		errors.Is(err, manifest.ErrNetworkUnavailable):
		fmt.Println(licenseStanding(err, hasToken))
	default:
		return err
	}

	return nil
}

// licenseStanding renders the license line for a failed service probe.
func licenseStanding(err error, hasToken bool) string {
	switch {
	case errors.Is(err, manifest.ErrAuthRejected):
		return display.Error("✗") + " License delinquent: credential rejected by the release service"
	case errors.Is(err, manifest.ErrNotFound) && !hasToken:
		return display.Warning("⚠") + " License pending: no credential configured and the repository is not public"
	case errors.Is(err, manifest.ErrNotFound):
		return display.Error("✗") + " License delinquent: repository access revoked"
	case errors.Is(err, manifest.ErrNetworkUnavailable):
		return display.Warning("⚠") + " Cannot verify license: release service unreachable"
	}
	return display.Warning("⚠") + " Cannot verify license: " + err.Error()
}
