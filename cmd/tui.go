package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/theirongolddev/agencyplan/internal/logging"
	"github.com/theirongolddev/agencyplan/internal/store"
	"github.com/theirongolddev/agencyplan/internal/tui"
	"github.com/theirongolddev/agencyplan/internal/tui/theme"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch interactive TUI dashboard",
	RunE:  runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(_ *cobra.Command, _ []string) error {
	cfg := loadConfig(newLogger())
	theme.SetActive(cfg.Appearance.Theme)

	plan, err := loadPlan(cfg)
	if err != nil {
		return err
	}

	// The alternate screen owns the terminal, so logs go to a file.
	logOpts := logging.DefaultOptions()
	logOpts.Level = logLevel()
	logPath := filepath.Join(store.DataDir(), "agencyplan.log")
	logger, closer, err := logging.OpenFile(logPath, logOpts)
	if err != nil {
		return err
	}
	defer func() { _ = closer.Close() }()

	// Card backgrounds need color output even when detection picks Ascii.
	lipgloss.SetColorProfile(termenv.TrueColor)

	dbPath := storePath(cfg)
	cwd, _ := os.Getwd()
	app := tui.NewApp(tui.Options{
		Plan: plan,
		Open: func() (store.KV, error) {
			return store.Open(dbPath)
		},
		StorageKey: cfg.General.StorageKey,
		Config:     cfg,
		Logger:     logger,
		ExportDir:  cwd,
	})
	logger.Info("starting dashboard", "store", dbPath)

	p := tea.NewProgram(app, tea.WithAltScreen())
	final, err := p.Run()
	if a, ok := final.(tui.App); ok {
		if cerr := a.Close(); cerr != nil {
			logger.Warn("closing store", "err", cerr)
		}
	}
	if err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
