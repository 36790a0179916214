package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/theirongolddev/agencyplan/internal/config"
	"github.com/theirongolddev/agencyplan/internal/roadmap"
	"github.com/theirongolddev/agencyplan/internal/tui/theme"

	"github.com/spf13/cobra"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "First-time setup wizard",
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(_ *cobra.Command, _ []string) error {
	reader := bufio.NewReader(os.Stdin)
	prompt := func() string {
		fmt.Print("     > ")
		line, _ := reader.ReadString('\n')
		return strings.TrimSpace(line)
	}

	// Load existing config or defaults
	cfg, _ := config.Load()

	fmt.Println()
	fmt.Println("  Welcome to agencyplan!")
	fmt.Println()

	// 1. Plan file
	fmt.Println("  1. Plan file")
	fmt.Println("     A TOML roadmap. Leave empty for the built-in insurance agency plan.")
	if cfg.General.PlanFile != "" {
		fmt.Printf("     Current: %s\n", cfg.General.PlanFile)
	}
	if path := prompt(); path != "" {
		if _, err := roadmap.LoadFile(path); err != nil {
			fmt.Printf("     Skipped: %v\n", err)
		} else {
			cfg.General.PlanFile = path
		}
	}
	fmt.Println()

	// 2. Theme
	fmt.Println("  2. Color theme")
	names := theme.Names()
	for i, name := range names {
		suffix := ""
		if name == cfg.Appearance.Theme {
			suffix = " [current]"
		}
		fmt.Printf("     (%d) %s%s\n", i+1, name, suffix)
	}
	if n, err := strconv.Atoi(prompt()); err == nil && n >= 1 && n <= len(names) {
		cfg.Appearance.Theme = names[n-1]
	}
	fmt.Println()

	// 3. Autosave
	fmt.Println("  3. Dashboard autosave interval in seconds")
	fmt.Printf("     Current: %d (minimum 5)\n", cfg.TUI.AutosaveIntervalSec)
	if n, err := strconv.Atoi(prompt()); err == nil && n >= 5 {
		cfg.TUI.AutosaveIntervalSec = n
	}
	fmt.Println()

	// 4. Notifications
	fmt.Println("  4. Celebrate completed goals? (Y/n)")
	switch strings.ToLower(prompt()) {
	case "n", "no":
		cfg.TUI.Notifications = false
	case "y", "yes":
		cfg.TUI.Notifications = true
	}

	// Save
	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Println()
	fmt.Printf("  Saved to %s\n", config.ConfigPath())
	fmt.Println("  Run `agencyplan setup` anytime to reconfigure.")
	fmt.Println()

	return nil
}
