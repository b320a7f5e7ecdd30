package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/confeitaria/updater/internal/display"
)

var backupsCmd = &cobra.Command{
	Use:   "backups",
	Short: "List available backup snapshots",
	RunE:  runBackups,
}

func init() {
	rootCmd.AddCommand(backupsCmd)
}

func runBackups(cmd *cobra.Command, args []string) error {
	mgr, err := buildBackupManager(cfg)
	if err != nil {
		return err
	}

	snaps, err := mgr.List()
	if err != nil {
		return err
	}
	if len(snaps) == 0 {
		fmt.Println(display.Muted("No backups yet"))
		return nil
	}

	fmt.Printf("%s (newest first)\n", display.Bold("Backups"))
	for _, snap := range snaps {
		fmt.Printf("  %s  %s  %d paths\n",
			snap.ID,
			display.Muted(snap.CreatedAt.Format("2006-01-02 15:04:05")),
			len(snap.Paths))
	}

	fmt.Printf("\nRestore one with %s\n", display.Bold("confup rollback --to <id>"))
	return nil
}
