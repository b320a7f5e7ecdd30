package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/confeitaria/updater/internal/display"
	"github.com/confeitaria/updater/internal/engine"
	"github.com/confeitaria/updater/internal/manifest"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check whether a newer version is published",
	Long: `Check fetches the release descriptor and compares it against the
installed version. Nothing is downloaded and nothing on disk changes.`,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	eng, err := buildEngine(cfg)
	if err != nil {
		return err
	}

	fmt.Println(display.Info("→") + " Checking for updates...")

	res, err := eng.CheckForUpdate(cmd.Context())
	if err != nil {
		return describeCheckError(err)
	}
	recordCheckTime(cfg)

	if !res.Available {
		fmt.Printf("%s Already up to date (%s)\n", display.Success("✓"), res.Local)
		return nil
	}

	printRelease(res)
	if !res.InPlaceAllowed {
		fmt.Printf("\n%s Installed version %s is older than the minimum compatible %s.\n",
			display.Warning("⚠"), res.Local, res.Manifest.MinimumCompatible)
		fmt.Println("  A fresh installation is required; 'confup apply' will refuse.")
		return nil
	}

	fmt.Printf("\nRun %s to install.\n", display.Bold("confup apply"))
	return nil
}

func printRelease(res *engine.CheckResult) {
	m := res.Manifest

	fmt.Printf("\n%s %s\n", display.Success("✓"), display.Bold("Update available"))
	fmt.Printf("  Current:  %s\n", display.Muted(res.Local.String()))
	fmt.Printf("  Latest:   %s\n", display.Success(m.Version.String()))
	if !m.ReleaseDate.IsZero() {
		fmt.Printf("  Released: %s\n", display.Muted(m.ReleaseDate.Format("2006-01-02")))
	}
	if len(m.Changelog) > 0 {
		fmt.Println("  Changes:")
		for _, line := range m.Changelog {
			fmt.Printf("    %s %s\n", display.Muted("•"), line)
		}
	}
}

func describeCheckError(err error) error {
	switch {
	case errors.Is(err, manifest.ErrNetworkUnavailable):
		return fmt.Errorf("cannot reach the release service, try again later: %w", err)
	case errors.Is(err, manifest.ErrAuthRejected):
		return fmt.Errorf("credential rejected, check the configured token: %w", err)
	case errors.Is(err, manifest.ErrNotFound):
		return fmt.Errorf("release descriptor not found, check repository settings: %w", err)
	}
	return err
}
