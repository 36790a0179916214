package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/theirongolddev/agencyplan/internal/cli"
	"github.com/theirongolddev/agencyplan/internal/progress"
	"github.com/theirongolddev/agencyplan/internal/roadmap"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

var (
	flagCategory string
	flagYes      bool
	flagOutput   string
)

var checkCmd = &cobra.Command{
	Use:   "check <id>...",
	Short: "Mark items complete",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setItems(cmd, args, true)
	},
}

var uncheckCmd = &cobra.Command{
	Use:   "uncheck <id>...",
	Short: "Mark items incomplete",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setItems(cmd, args, false)
	},
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Clear all progress and restart the plan today",
	RunE:  runReset,
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write progress to a JSON file",
	RunE:  runExport,
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Replace progress with an exported JSON file",
	Args:  cobra.ExactArgs(1),
	RunE:  runImport,
}

var launchCmd = &cobra.Command{
	Use:   "launch",
	Short: "Check whether enough major goals are done to launch",
	RunE:  runLaunch,
}

func init() {
	for _, c := range []*cobra.Command{checkCmd, uncheckCmd} {
		c.Flags().StringVarP(&flagCategory, "category", "c", "", "Item category: goal, budget or checklist (inferred when omitted)")
	}
	resetCmd.Flags().BoolVarP(&flagYes, "yes", "y", false, "Skip the confirmation prompt")
	exportCmd.Flags().StringVarP(&flagOutput, "output", "o", progress.ExportFileName, `Output file ("-" for stdout)`)

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(uncheckCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(launchCmd)
}

// setItems applies complete to every id and saves once. Nothing is saved if
// any id is unknown.
func setItems(cmd *cobra.Command, ids []string, complete bool) error {
	s, err := openSession(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	type item struct {
		cat progress.Category
		id  string
	}
	items := make([]item, 0, len(ids))
	for _, id := range ids {
		var cat progress.Category
		if flagCategory != "" {
			cat, err = progress.ParseCategory(flagCategory)
			if err != nil {
				return err
			}
			if !s.plan.Has(cat, id) {
				return fmt.Errorf("%w: no %s %q in this plan", roadmap.ErrUnknownItem, cat, id)
			}
		} else if cat, err = s.plan.Resolve(id); err != nil {
			return fmt.Errorf("%w (use --category)", err)
		}
		items = append(items, item{cat: cat, id: id})
	}

	goalDone := false
	for _, it := range items {
		was := s.tracker.IsComplete(it.cat, it.id)
		s.tracker.SetItemState(it.cat, it.id, complete)
		if it.cat == progress.Goal && complete && !was {
			goalDone = true
		}
		s.logger.Debug("set item", "category", it.cat, "id", it.id, "complete", complete)
	}
	if err := s.tracker.Save(cmd.Context()); err != nil {
		return err
	}

	for _, it := range items {
		fmt.Printf("  %s %s\n", cli.Checkbox(complete), s.plan.ItemTitle(it.cat, it.id))
	}
	if goalDone && s.cfg.TUI.Notifications {
		fmt.Println()
		fmt.Println("  Goal completed! Great job!")
	}
	fmt.Printf("\n  Overall %s\n", cli.RenderProgressBar(s.plan.Progress(s.tracker), 30))
	return nil
}

func runReset(cmd *cobra.Command, _ []string) error {
	s, err := openSession(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	if !flagYes {
		confirmed := false
		form := huh.NewForm(huh.NewGroup(
			huh.NewConfirm().
				Title("Reset all progress?").
				Description("Every checkbox is cleared and the start date moves to today. This cannot be undone.").
				Affirmative("Reset").
				Negative("Cancel").
				Value(&confirmed),
		))
		if err := form.Run(); err != nil {
			if errors.Is(err, huh.ErrUserAborted) {
				return nil
			}
			return err
		}
		if !confirmed {
			fmt.Println("  Reset cancelled.")
			return nil
		}
	}

	if err := s.tracker.Reset(cmd.Context()); err != nil {
		return err
	}
	fmt.Println("  Progress has been reset!")
	return nil
}

func runExport(cmd *cobra.Command, _ []string) error {
	s, err := openSession(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	data, err := s.tracker.ExportSnapshot()
	if err != nil {
		return err
	}

	if flagOutput == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(flagOutput, data, 0o600); err != nil {
		return fmt.Errorf("writing export: %w", err)
	}
	fmt.Printf("  Exported progress to %s\n", flagOutput)
	return nil
}

func runImport(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	raw, err := os.ReadFile(args[0]) //nolint:gosec // import path is chosen by the local user
	if err == nil {
		err = s.tracker.ImportSnapshot(cmd.Context(), raw)
	}
	if err != nil {
		s.logger.Debug("import failed", "path", args[0], "err", err)
		return errors.New("Error importing progress. Please check the file format.") //nolint:staticcheck // user-facing sentence
	}
	fmt.Println("  Progress imported successfully!")
	return nil
}

func runLaunch(cmd *cobra.Command, _ []string) error {
	s, err := openSession(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	r := s.plan.LaunchReadiness(s.tracker)
	fmt.Println()
	if r.Ready() {
		where := "your agency"
		if s.plan.Location != "" {
			where += " in " + s.plan.Location
		}
		fmt.Println(cli.RenderTitle("★ Congratulations! ★"))
		fmt.Println()
		fmt.Printf("  You're ready to launch %s!\n\n", where)
		return nil
	}

	fmt.Println(cli.RenderWarn(fmt.Sprintf(
		"  Complete more goals before launching. You need at least %d major milestones (%d done).",
		r.Required, len(r.Completed))))
	fmt.Println()
	for _, g := range r.Pending {
		fmt.Printf("    %s %s %s\n", cli.Checkbox(false), g.Title, cli.RenderMuted("("+g.ID+")"))
	}
	fmt.Println()
	return nil
}
