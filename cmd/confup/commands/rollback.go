package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/confeitaria/updater/internal/backup"
	"github.com/confeitaria/updater/internal/display"
)

var (
	rollbackTo  string
	rollbackYes bool
)

var rollbackCmd = &cobra.Command{
	Use:   "rollback",
	Short: "Restore the installation from a backup snapshot",
	Long: `Rollback restores the installation from a backup snapshot, newest
first unless --to selects a specific one. A snapshot is a full copy: every
recorded path comes back byte-for-byte, INCLUDING user data (database,
configuration). Anything saved after the snapshot was taken is lost.
No network access is needed.`,
	RunE: runRollback,
}

func init() {
	rootCmd.AddCommand(rollbackCmd)
	rollbackCmd.Flags().StringVar(&rollbackTo, "to", "", "Snapshot ID to restore (default: newest)")
	rollbackCmd.Flags().BoolVarP(&rollbackYes, "yes", "y", false, "Skip confirmation prompt")
}

func runRollback(cmd *cobra.Command, args []string) error {
	mgr, err := buildBackupManager(cfg)
	if err != nil {
		return err
	}

	var snap *backup.Snapshot
	if rollbackTo != "" {
		snap, err = mgr.Get(rollbackTo)
	} else {
		snap, err = mgr.Latest()
	}
	if err != nil {
		if errors.Is(err, backup.ErrNoSnapshot) {
			return fmt.Errorf("no backup to restore: %w", err)
		}
		return err
	}

	confirmed, err := confirmAction(
		fmt.Sprintf("Restore snapshot %s (taken %s)?\n%s",
			display.Bold(snap.ID), snap.CreatedAt.Format("2006-01-02 15:04:05"),
			display.Warning("This reverts ALL snapshotted paths, including the database and configuration.")),
		rollbackYes)
	if err != nil {
		return err
	}
	if !confirmed {
		fmt.Println(display.Muted("Rollback cancelled"))
		return nil
	}

	if err := mgr.Restore(snap); err != nil {
		return fmt.Errorf("restore failed, installation may be inconsistent: %w", err)
	}

	fmt.Printf("%s Restored snapshot %s\n", display.Success("✓"), snap.ID)
	fmt.Println(display.Muted("Restart the application to load the restored version"))
	return nil
}
