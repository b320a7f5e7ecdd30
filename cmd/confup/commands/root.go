package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/confeitaria/updater/internal/config"
	"github.com/confeitaria/updater/internal/display"
	"github.com/confeitaria/updater/internal/log"
)

var (
	cfg *config.Config

	// Global flags.
	verbose     bool
	quiet       bool
	noColor     bool
	installRoot string
)

var rootCmd = &cobra.Command{
	Use:   "confup",
	Short: "Self-update engine for the Confeitaria desktop application",
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
	Long: `Confup keeps a deployed Confeitaria installation current.

It checks the published release descriptor, downloads the packaged release,
backs up the installation, and replaces only the application-owned paths.
User data (database, configuration, credentials, logs) is never touched, and
any failure mid-update restores the backup before reporting.

Quick Start:
  confup check            See whether a newer version is published
  confup apply            Download and apply the newest version
  confup rollback         Restore the most recent backup
  confup status           Verify service access and license standing`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// .env first so its values are visible to config.Load
		if err := config.LoadDotEnv(installRoot); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to load .env: %v\n", err)
		}

		log.Configure(log.Options{
			Verbose: verbose,
		})

		display.InitColors(noColor)

		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("load configuration: %w", err)
		}
		if installRoot != "" {
			cfg.InstallRoot = installRoot
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		log.Debug("initialized", "root", cfg.InstallRoot, "source", cfg.Source)

		return nil
	},
}

// Execute runs the root command with signal handling.
func Execute() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress non-essential output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable color output")
	rootCmd.PersistentFlags().StringVarP(&installRoot, "root", "C", "", "Installation directory (default: current directory)")
}
