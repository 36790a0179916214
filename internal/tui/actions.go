package tui

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/theirongolddev/agencyplan/internal/progress"
	"github.com/theirongolddev/agencyplan/internal/tui/components"
	"github.com/theirongolddev/agencyplan/internal/tui/theme"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

const (
	msgGoalDone     = "Goal completed! Great job!"
	msgImportOK     = "Progress imported successfully!"
	msgImportFailed = "Error importing progress. Please check the file format."
	msgReset        = "Progress has been reset!"
)

// itemCount returns how many selectable rows tab has.
func (a App) itemCount(tab int) int {
	switch tab {
	case tabTimeline:
		return len(a.plan.Goals)
	case tabBudget:
		return len(a.plan.Budget)
	case tabChecklist:
		return len(a.plan.Checklist)
	case tabResources:
		return len(a.plan.Resources)
	}
	return 0
}

// itemAt returns the category and ID of row idx on tab. Resources are not
// checkable and report ok=false.
func (a App) itemAt(tab, idx int) (cat progress.Category, id string, ok bool) {
	switch tab {
	case tabTimeline:
		goals := a.timelineGoals()
		if idx >= 0 && idx < len(goals) {
			return progress.Goal, goals[idx].ID, true
		}
	case tabBudget:
		if idx >= 0 && idx < len(a.plan.Budget) {
			return progress.BudgetItem, a.plan.Budget[idx].ID, true
		}
	case tabChecklist:
		items := a.checklistItems()
		if idx >= 0 && idx < len(items) {
			return progress.ChecklistItem, items[idx].ID, true
		}
	}
	return 0, "", false
}

// toggleSelected flips the item under the cursor and saves.
func (a App) toggleSelected() (tea.Model, tea.Cmd) {
	if a.activeTab == tabResources {
		idx := a.cursor[tabResources]
		if idx < len(a.plan.Resources) {
			return a, a.copyLink(a.plan.Resources[idx].URL)
		}
		return a, nil
	}

	cat, id, ok := a.itemAt(a.activeTab, a.cursor[a.activeTab])
	if !ok {
		return a, nil
	}

	done := a.tracker.Toggle(cat, id)
	a.logger.Debug("toggled item", "category", cat, "id", id, "complete", done)

	if cmd := a.save(); cmd != nil {
		return a, cmd
	}
	if cat == progress.Goal && done && a.opts.Config.TUI.Notifications {
		return a, a.flash(msgGoalDone, components.NoticeSuccess)
	}
	return a, nil
}

// copyLink puts url on the system clipboard. Without a clipboard (no
// xclip/xsel/wl-copy, or a headless session) the URL is shown instead.
func (a *App) copyLink(url string) tea.Cmd {
	if err := clipboard.WriteAll(url); err != nil {
		a.logger.Debug("clipboard unavailable", "err", err)
		return a.flash(url, components.NoticeInfo)
	}
	return a.flash("Copied "+url, components.NoticeSuccess)
}

// export writes the snapshot to the default export file.
func (a *App) export() tea.Cmd {
	data, err := a.tracker.ExportSnapshot()
	if err != nil {
		a.logger.Error("exporting progress", "err", err)
		return a.flash("Export failed", components.NoticeError)
	}

	path := filepath.Join(a.opts.ExportDir, progress.ExportFileName)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		a.logger.Error("writing export", "path", path, "err", err)
		return a.flash("Export failed: "+err.Error(), components.NoticeError)
	}
	a.logger.Info("exported progress", "path", path)
	return a.flash("Exported to "+path, components.NoticeSuccess)
}

// ─── Import ─────────────────────────────────────────────────────

func newImportInput(defaultPath string) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = defaultPath
	ti.Prompt = "Import from: "
	ti.CharLimit = 512
	ti.Width = 50
	return ti
}

func (a App) startImport() (tea.Model, tea.Cmd) {
	a.importing = true
	a.importInput = newImportInput(filepath.Join(a.opts.ExportDir, progress.ExportFileName))
	return a, a.importInput.Focus()
}

func (a App) updateImportInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		a.importing = false
		return a, nil
	case "enter":
		a.importing = false
		path := strings.TrimSpace(a.importInput.Value())
		if path == "" {
			path = a.importInput.Placeholder
		}
		return a, a.importFile(path)
	}

	var cmd tea.Cmd
	a.importInput, cmd = a.importInput.Update(msg)
	return a, cmd
}

// importFile replaces progress with the snapshot at path. A bad file leaves
// the current progress untouched.
func (a *App) importFile(path string) tea.Cmd {
	raw, err := os.ReadFile(path) //nolint:gosec // path typed by the local user
	if err != nil {
		a.logger.Warn("reading import", "path", path, "err", err)
		return a.flash(msgImportFailed, components.NoticeError)
	}
	if err := a.tracker.ImportSnapshot(context.Background(), raw); err != nil {
		a.logger.Warn("importing progress", "path", path, "err", err)
		return a.flash(msgImportFailed, components.NoticeError)
	}
	a.logger.Info("imported progress", "path", path)
	return a.flash(msgImportOK, components.NoticeSuccess)
}

func (a App) renderImportPrompt(cw int) string {
	t := theme.Active
	return lipgloss.NewStyle().
		Foreground(t.TextPrimary).
		Background(t.SurfaceHover).
		Width(cw).
		Render(" " + a.importInput.View())
}

// ─── Reset ──────────────────────────────────────────────────────

func newResetForm(confirmed *bool) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Reset all progress?").
				Description("Every checkbox is cleared and the start date moves to today.\nThis cannot be undone.").
				Affirmative("Reset").
				Negative("Cancel").
				Value(confirmed),
		),
	).WithShowHelp(true)
}

func (a App) startReset() (tea.Model, tea.Cmd) {
	a.confirmed = new(bool)
	a.resetForm = newResetForm(a.confirmed)
	if a.width > 0 {
		a.resetForm = a.resetForm.WithWidth(min(a.width, 60))
	}
	return a, a.resetForm.Init()
}

func (a App) updateResetForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if km, ok := msg.(tea.KeyMsg); ok && km.String() == "esc" {
		a.resetForm = nil
		return a, nil
	}

	form, cmd := a.resetForm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.resetForm = f
	}

	switch a.resetForm.State {
	case huh.StateCompleted:
		a.resetForm = nil
		if !*a.confirmed {
			return a, nil
		}
		return a, a.reset()
	case huh.StateAborted:
		a.resetForm = nil
		return a, nil
	}

	return a, cmd
}

// reset clears all progress and the persisted slot.
func (a *App) reset() tea.Cmd {
	if err := a.tracker.Reset(context.Background()); err != nil {
		a.logger.Error("resetting progress", "err", err)
		return a.flash("Reset failed", components.NoticeError)
	}
	a.cursor = [tabCount]int{}
	a.logger.Info("progress reset")
	return a.flash(msgReset, components.NoticeSuccess)
}
