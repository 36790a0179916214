package cmd

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/agencyplan/internal/cli"
	"github.com/theirongolddev/agencyplan/internal/progress"

	"github.com/spf13/cobra"
)

var flagMarkdown bool

var timelineCmd = &cobra.Command{
	Use:   "timeline",
	Short: "List goals by phase with due dates",
	RunE:  runTimeline,
}

var budgetCmd = &cobra.Command{
	Use:   "budget",
	Short: "Show startup costs and what has been paid",
	RunE:  runBudget,
}

var checklistCmd = &cobra.Command{
	Use:   "checklist",
	Short: "List checklist items by section",
	RunE:  runChecklist,
}

var resourcesCmd = &cobra.Command{
	Use:   "resources",
	Short: "List reference links",
	RunE:  runResources,
}

func init() {
	resourcesCmd.Flags().BoolVar(&flagMarkdown, "markdown", false, "Render as formatted markdown")

	rootCmd.AddCommand(timelineCmd)
	rootCmd.AddCommand(budgetCmd)
	rootCmd.AddCommand(checklistCmd)
	rootCmd.AddCommand(resourcesCmd)
}

func runTimeline(cmd *cobra.Command, _ []string) error {
	s, err := openSession(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	p, tr := s.plan, s.tracker
	goals, _, _ := p.Counts()
	start := tr.StartDate()

	fmt.Println()
	fmt.Println(cli.RenderTitle("TIMELINE  " + cli.FormatCount(p.CompletedCount(tr, progress.Goal), goals)))
	fmt.Println()

	for _, phase := range p.Phases() {
		var rows [][]string
		for _, g := range p.GoalsInPhase(phase) {
			title := g.Title
			if g.Major {
				title += " ★"
			}
			rows = append(rows, []string{
				cli.Checkbox(tr.IsComplete(progress.Goal, g.ID)),
				g.ID,
				title,
				cli.FormatDate(g.DueDate(start)),
			})
		}
		fmt.Print(cli.RenderTable(cli.Table{
			Title:      phase,
			Headers:    []string{"", "ID", "Goal", "Due"},
			Rows:       rows,
			RightAlign: []bool{false, false, false, true},
		}))
		fmt.Println()
	}
	fmt.Println(cli.RenderMuted("  ★ major milestone. Mark done with `agencyplan check <id>`."))
	return nil
}

func runBudget(cmd *cobra.Command, _ []string) error {
	s, err := openSession(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	p, tr := s.plan, s.tracker
	cur := p.Currency
	sum := p.BudgetSummary(tr)

	rows := make([][]string, 0, len(p.Budget)+4)
	for _, b := range p.Budget {
		rows = append(rows, []string{
			cli.Checkbox(tr.IsComplete(progress.BudgetItem, b.ID)),
			b.ID,
			b.Label,
			cli.FormatMoney(b.Cost(), cur),
		})
	}
	rows = append(rows,
		[]string{"---"},
		[]string{"", "", "Total", cli.FormatMoney(sum.TotalCost, cur)},
		[]string{"", "", "Paid", cli.FormatMoney(sum.CompletedCost, cur)},
		[]string{"", "", "Remaining", cli.FormatMoney(sum.RemainingCost, cur)},
	)

	fmt.Println()
	fmt.Println(cli.RenderTitle("STARTUP BUDGET"))
	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Headers:    []string{"", "ID", "Item", "Amount"},
		Rows:       rows,
		RightAlign: []bool{false, false, false, true},
	}))
	fmt.Printf("\n  Funded   %s\n\n", cli.RenderProgressBar(sum.RoundedPercent(), 30))
	return nil
}

func runChecklist(cmd *cobra.Command, _ []string) error {
	s, err := openSession(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	p, tr := s.plan, s.tracker
	_, _, total := p.Counts()

	fmt.Println()
	fmt.Println(cli.RenderTitle("CHECKLIST  " + cli.FormatCount(p.CompletedCount(tr, progress.ChecklistItem), total)))
	fmt.Println()

	for _, sec := range p.Sections() {
		fmt.Println(cli.RenderHeading(sec))
		for _, c := range p.Checklist {
			if c.Section != sec {
				continue
			}
			fmt.Printf("    %s %s %s\n",
				cli.Checkbox(tr.IsComplete(progress.ChecklistItem, c.ID)),
				c.Title,
				cli.RenderMuted("("+c.ID+")"),
			)
		}
		fmt.Println()
	}
	return nil
}

// runResources does not need saved progress, so it skips the store.
func runResources(_ *cobra.Command, _ []string) error {
	cfg := loadConfig(newLogger())
	p, err := loadPlan(cfg)
	if err != nil {
		return err
	}

	if flagMarkdown {
		var b strings.Builder
		b.WriteString("# Resources\n\n")
		for _, r := range p.Resources {
			fmt.Fprintf(&b, "- [%s](%s)", r.Name, r.URL)
			if r.Description != "" {
				b.WriteString(": " + r.Description)
			}
			b.WriteString("\n")
		}
		out, err := cli.RenderMarkdown(b.String(), 80)
		if err != nil {
			return err
		}
		fmt.Print(out)
		return nil
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle("RESOURCES"))
	fmt.Println()
	for _, r := range p.Resources {
		fmt.Println(cli.RenderHeading(r.Name))
		fmt.Printf("    %s\n", r.URL)
		if r.Description != "" {
			fmt.Printf("    %s\n", cli.RenderMuted(r.Description))
		}
		fmt.Println()
	}
	return nil
}
