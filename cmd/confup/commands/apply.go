package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/confeitaria/updater/internal/artifact"
	"github.com/confeitaria/updater/internal/display"
	"github.com/confeitaria/updater/internal/engine"
)

var (
	applyYes       bool
	applyNoRestart bool
)

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Download and apply the newest published version",
	Long: `Apply runs the full update cycle:

1. Fetches the release descriptor and compares versions
2. Downloads the packaged release to temporary storage
3. Backs up the current installation
4. Replaces application-owned paths with the staged release
5. Purges compiled-module caches and requests an application restart

User data is never replaced. If anything fails after replacement begins,
the backup is restored and the previous version keeps running.`,
	RunE: runApply,
}

func init() {
	rootCmd.AddCommand(applyCmd)
	applyCmd.Flags().BoolVarP(&applyYes, "yes", "y", false, "Skip confirmation prompt")
	applyCmd.Flags().BoolVar(&applyNoRestart, "no-restart", false, "Do not request an application restart after the update")
}

func runApply(cmd *cobra.Command, args []string) error {
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
	if !res.InPlaceAllowed {
		return fmt.Errorf("installed version %s is older than the minimum compatible %s; a fresh installation is required",
			res.Local, res.Manifest.MinimumCompatible)
	}

	printRelease(res)

	if !applyYes {
		confirmed, err := confirmAction(
			fmt.Sprintf("\nDownload and install %s?", res.Manifest.Version), false)
		if err != nil {
			return err
		}
		if !confirmed {
			fmt.Println(display.Muted("Update cancelled"))
			return nil
		}
	}

	session, err := eng.BeginUpdate(cmd.Context(), res.Manifest, progressPrinter())
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return describeApplyError(err)
	}

	fmt.Printf("%s Updated to %s (backup %s)\n",
		display.Success("✓"), display.Bold(res.Manifest.Version.String()), session.Snapshot.ID)

	if applyNoRestart {
		fmt.Println(display.Muted("Restart the application to load the new version"))
		return nil
	}
	if err := eng.RequestRestart(); err != nil {
		return err
	}
	fmt.Println(display.Muted("Application restart requested"))
	return nil
}

// progressPrinter renders download progress in place on stderr.
func progressPrinter() artifact.ProgressFunc {
	if quiet {
		return nil
	}
	return func(done, total int64) {
		fmt.Fprintf(os.Stderr, "\r%s Downloading %s", display.Info("→"), display.FormatTransfer(done, total))
	}
}

func describeApplyError(err error) error {
	switch {
	case errors.Is(err, engine.ErrRollbackFailed):
		return fmt.Errorf("%s\n\n%w", display.Error(
			"Update failed AND the backup could not be restored. Restore the newest snapshot from the backups directory by hand."), err)
	case errors.Is(err, engine.ErrReplacementFailed):
		fmt.Printf("%s Update failed, previous version restored\n", display.Warning("⚠"))
		return err
	case errors.Is(err, engine.ErrInsufficientStorage):
		return fmt.Errorf("not enough disk space to update safely: %w", err)
	case errors.Is(err, engine.ErrSessionInProgress):
		return fmt.Errorf("another update is already running: %w", err)
	}
	return describeCheckError(err)
}
