// Package cmd implements the agencyplan CLI commands.
package cmd

import (
	"fmt"

	"github.com/theirongolddev/agencyplan/internal/config"
	"github.com/theirongolddev/agencyplan/internal/progress"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	fmt.Printf("  Config file: %s\n", config.ConfigPath())
	if config.Exists() {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Println()

	fmt.Println("  [General]")
	if cfg.General.PlanFile != "" {
		fmt.Printf("    Plan file:   %s\n", cfg.General.PlanFile)
	} else {
		fmt.Println("    Plan file:   built-in")
	}
	fmt.Printf("    Store:       %s\n", storePath(cfg))
	key := cfg.General.StorageKey
	if key == "" {
		key = progress.StorageKey
	}
	fmt.Printf("    Storage key: %s\n", key)
	fmt.Println()

	fmt.Println("  [Appearance]")
	fmt.Printf("    Theme: %s\n", cfg.Appearance.Theme)
	fmt.Println()

	fmt.Println("  [TUI]")
	fmt.Printf("    Autosave:      every %s\n", cfg.AutosaveInterval())
	fmt.Printf("    Notifications: %v\n", cfg.TUI.Notifications)
	fmt.Println()

	fmt.Println("  [Daemon]")
	fmt.Printf("    Address:  %s\n", cfg.Daemon.Addr)
	fmt.Printf("    Interval: %ds\n", cfg.Daemon.IntervalSec)
	fmt.Println()

	fmt.Println("  Run `agencyplan setup` to reconfigure.")
	return nil
}
