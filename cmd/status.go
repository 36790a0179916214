package cmd

import (
	"fmt"

	"github.com/theirongolddev/agencyplan/internal/cli"
	"github.com/theirongolddev/agencyplan/internal/progress"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show overall progress, budget totals and launch readiness",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	p := s.plan
	tr := s.tracker
	goals, budget, checklist := p.Counts()
	pct := p.Progress(tr)
	sum := p.BudgetSummary(tr)
	ready := p.LaunchReadiness(tr)

	title := "AGENCY LAUNCH PLAN"
	if p.Title != "" {
		title = p.Title
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(title))
	fmt.Println()
	fmt.Printf("  Overall  %s\n\n", cli.RenderProgressBar(pct, 30))

	saved := "never"
	if tr.Found() {
		if at, err := s.db.UpdatedAt(ctx, tr.Key()); err == nil {
			saved = cli.FormatRelative(at)
		}
	}

	launch := cli.RenderWarn(fmt.Sprintf("not yet (%d/%d major goals)", len(ready.Completed), ready.Required))
	if ready.Ready() {
		launch = "ready"
	}

	rows := [][]string{
		{"Goals", cli.FormatCount(p.CompletedCount(tr, progress.Goal), goals)},
		{"Budget items", cli.FormatCount(p.CompletedCount(tr, progress.BudgetItem), budget)},
		{"Checklist", cli.FormatCount(p.CompletedCount(tr, progress.ChecklistItem), checklist)},
		{"---"},
		{"Total budget", cli.FormatMoney(sum.TotalCost, p.Currency)},
		{"Paid", cli.FormatMoney(sum.CompletedCost, p.Currency)},
		{"Remaining", cli.FormatMoney(sum.RemainingCost, p.Currency)},
		{"Funded", cli.FormatPercent(sum.RoundedPercent())},
		{"---"},
		{"Started", cli.FormatDate(tr.StartDate())},
		{"Last saved", saved},
		{"Launch", launch},
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Headers:    []string{"Metric", "Value"},
		Rows:       rows,
		RightAlign: []bool{false, true},
	}))
	fmt.Println()
	return nil
}
