// Package tui provides the interactive Bubble Tea dashboard for agencyplan.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/theirongolddev/agencyplan/internal/cli"
	"github.com/theirongolddev/agencyplan/internal/config"
	"github.com/theirongolddev/agencyplan/internal/logging"
	"github.com/theirongolddev/agencyplan/internal/progress"
	"github.com/theirongolddev/agencyplan/internal/roadmap"
	"github.com/theirongolddev/agencyplan/internal/store"
	"github.com/theirongolddev/agencyplan/internal/tui/components"
	"github.com/theirongolddev/agencyplan/internal/tui/theme"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

// Options configures the dashboard.
type Options struct {
	Plan       *roadmap.Plan
	Open       func() (store.KV, error) // called once, off the UI goroutine
	StorageKey string
	Config     config.Config
	Logger     *log.Logger
	ExportDir  string // where `e` writes the export file; "" is the working dir
}

// loadedMsg is sent when the store is open and saved progress has been read.
type loadedMsg struct {
	kv      store.KV
	tracker *progress.Tracker
	savedAt time.Time
	err     error
}

type autosaveMsg struct{}

type noticeExpiredMsg struct{ seq int }

const (
	tabTimeline = iota
	tabBudget
	tabChecklist
	tabResources
	tabCount
)

// App is the root Bubble Tea model.
type App struct {
	opts   Options
	plan   *roadmap.Plan
	logger *log.Logger

	kv      store.KV
	tracker *progress.Tracker
	loaded  bool
	loadErr error
	savedAt time.Time

	// UI state
	width      int
	height     int
	activeTab  int
	cursor     [tabCount]int
	showHelp   bool
	showLaunch bool

	// Reset confirmation (huh form). confirmed is a pointer so the form
	// keeps writing to the same bool across App copies.
	resetForm *huh.Form
	confirmed *bool

	// Import path prompt
	importing   bool
	importInput textinput.Model

	// Flash notice in the status bar
	notice     string
	noticeKind components.NoticeKind
	noticeSeq  int

	spinner spinner.Model
}

const (
	minTerminalWidth = 60
	compactWidth     = 110
	maxContentWidth  = 160
	minContentHeight = 5

	noticeDuration = 4 * time.Second
)

// NewApp creates a new TUI app model.
func NewApp(opts Options) App {
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Active.Accent).Background(theme.Active.Surface)

	return App{
		opts:    opts,
		plan:    opts.Plan,
		logger:  opts.Logger,
		spinner: sp,
	}
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	return tea.Batch(
		tea.EnableMouseCellMotion,
		a.loadCmd(),
		a.spinner.Tick,
	)
}

// loadCmd opens the store and reads saved progress in the background.
func (a App) loadCmd() tea.Cmd {
	open := a.opts.Open
	key := a.opts.StorageKey
	logger := a.logger
	return func() tea.Msg {
		kv, err := open()
		if err != nil {
			return loadedMsg{err: err}
		}
		ctx := context.Background()
		tr := progress.New(kv, progress.WithKey(key), progress.WithLogger(logger))
		if err := tr.Load(ctx); err != nil {
			_ = kv.Close()
			return loadedMsg{err: err}
		}
		msg := loadedMsg{kv: kv, tracker: tr}
		if st, ok := kv.(store.Stamped); ok && tr.Found() {
			at, err := st.UpdatedAt(ctx, tr.Key())
			if err != nil {
				logger.Debug("reading last save time", "err", err)
			}
			msg.savedAt = at
		}
		return msg
	}
}

func autosaveCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return autosaveMsg{}
	})
}

// Close releases the store. Call after the program exits.
func (a App) Close() error {
	if a.kv == nil {
		return nil
	}
	return a.kv.Close()
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		if a.resetForm != nil {
			a.resetForm = a.resetForm.WithWidth(min(msg.Width, 60))
		}
		return a, nil

	case loadedMsg:
		if msg.err != nil {
			a.loadErr = msg.err
			a.logger.Error("loading progress", "err", msg.err)
			return a, nil
		}
		a.kv = msg.kv
		a.tracker = msg.tracker
		a.savedAt = msg.savedAt
		a.loaded = true
		return a, autosaveCmd(a.opts.Config.AutosaveInterval())

	case autosaveMsg:
		if !a.loaded {
			return a, nil
		}
		return a, tea.Batch(a.save(), autosaveCmd(a.opts.Config.AutosaveInterval()))

	case noticeExpiredMsg:
		if msg.seq == a.noticeSeq {
			a.notice = ""
		}
		return a, nil

	case spinner.TickMsg:
		if !a.loaded {
			var cmd tea.Cmd
			a.spinner, cmd = a.spinner.Update(msg)
			return a, cmd
		}
		return a, nil

	case tea.MouseMsg:
		if !a.loaded || a.showHelp || a.showLaunch || a.resetForm != nil || a.importing {
			return a, nil
		}
		if msg.Action != tea.MouseActionPress {
			return a, nil
		}
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			a.moveCursor(-1)
		case tea.MouseButtonWheelDown:
			a.moveCursor(1)
		case tea.MouseButtonLeft:
			if msg.Y == 0 {
				if tab := components.TabAtX(msg.X - a.contentOffset()); tab >= 0 {
					a.activeTab = tab
				}
			}
		}
		return a, nil

	case tea.KeyMsg:
		return a.updateKey(msg)
	}

	// Forward cursor blinks and other internal messages to active widgets.
	if a.resetForm != nil {
		return a.updateResetForm(msg)
	}
	if a.importing {
		var cmd tea.Cmd
		a.importInput, cmd = a.importInput.Update(msg)
		return a, cmd
	}

	return a, nil
}

func (a App) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	// Global: quit
	if key == "ctrl+c" {
		return a, a.quit()
	}

	if !a.loaded {
		if key == "q" {
			return a, tea.Quit
		}
		return a, nil
	}

	// Modal widgets intercept all keys
	if a.resetForm != nil {
		return a.updateResetForm(msg)
	}
	if a.importing {
		return a.updateImportInput(msg)
	}

	if key == "?" {
		a.showHelp = !a.showHelp
		return a, nil
	}
	if a.showHelp {
		a.showHelp = false
		return a, nil
	}
	if a.showLaunch {
		a.showLaunch = false
		return a, nil
	}

	switch key {
	case "q":
		return a, a.quit()
	case "left", "shift+tab":
		a.activeTab = (a.activeTab - 1 + tabCount) % tabCount
	case "right", "tab":
		a.activeTab = (a.activeTab + 1) % tabCount
	case "j", "down":
		a.moveCursor(1)
	case "k", "up":
		a.moveCursor(-1)
	case "g", "home":
		a.cursor[a.activeTab] = 0
	case "G", "end":
		a.cursor[a.activeTab] = max(a.itemCount(a.activeTab)-1, 0)
	case " ", "enter", "x":
		return a.toggleSelected()
	case "ctrl+r", "R":
		return a.startReset()
	case "e":
		return a, a.export()
	case "i":
		return a.startImport()
	case "L":
		a.showLaunch = true
	default:
		if tab := components.TabIdxByKey(key); tab >= 0 {
			a.activeTab = tab
		}
	}
	return a, nil
}

// quit saves once more before exiting so nothing since the last autosave is lost.
func (a *App) quit() tea.Cmd {
	if a.loaded {
		if err := a.tracker.Save(context.Background()); err != nil {
			a.logger.Error("saving progress on exit", "err", err)
		}
	}
	return tea.Quit
}

func (a *App) moveCursor(delta int) {
	n := a.itemCount(a.activeTab)
	c := a.cursor[a.activeTab] + delta
	if c >= n {
		c = n - 1
	}
	if c < 0 {
		c = 0
	}
	a.cursor[a.activeTab] = c
}

// flash shows msg in the status bar until noticeDuration passes or a newer
// notice replaces it.
func (a *App) flash(msg string, kind components.NoticeKind) tea.Cmd {
	a.noticeSeq++
	a.notice = msg
	a.noticeKind = kind
	seq := a.noticeSeq
	return tea.Tick(noticeDuration, func(time.Time) tea.Msg {
		return noticeExpiredMsg{seq: seq}
	})
}

// save persists the tracker. Failures are logged and flashed, never fatal.
func (a *App) save() tea.Cmd {
	if err := a.tracker.Save(context.Background()); err != nil {
		a.logger.Error("saving progress", "err", err)
		return a.flash("Could not save progress", components.NoticeError)
	}
	a.savedAt = time.Now()
	return nil
}

func (a App) contentWidth() int {
	cw := a.width
	if cw > maxContentWidth {
		cw = maxContentWidth
	}
	return cw
}

// contentOffset is the left margin when the content is centered in a wide terminal.
func (a App) contentOffset() int {
	return (a.width - a.contentWidth()) / 2
}

func (a App) isCompactLayout() bool {
	return a.contentWidth() < compactWidth
}

// View implements tea.Model.
func (a App) View() string {
	if a.width == 0 {
		return ""
	}

	if a.width < minTerminalWidth {
		return a.viewTooNarrow()
	}

	if !a.loaded {
		return a.viewLoading()
	}

	switch {
	case a.resetForm != nil:
		return a.overlay(a.resetForm.View())
	case a.showHelp:
		return a.viewHelp()
	case a.showLaunch:
		return a.viewLaunch()
	}

	return a.viewMain()
}

func (a App) viewTooNarrow() string {
	h := a.height
	if h < 5 {
		h = 5
	}

	msg := fmt.Sprintf(
		"\n  Terminal too narrow (%d cols)\n\n  agencyplan needs at least %d columns.\n",
		a.width,
		minTerminalWidth,
	)

	return padHeight(truncateHeight(msg, h), h)
}

// overlay centers a bordered card over the full terminal.
func (a App) overlay(body string) string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(1, 3)

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(body),
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewLoading() string {
	t := theme.Active

	logoStyle := lipgloss.NewStyle().
		Foreground(t.AccentBright).
		Background(t.Surface).
		Bold(true)

	subtitleStyle := lipgloss.NewStyle().
		Foreground(t.TextMuted).
		Background(t.Surface)

	errStyle := lipgloss.NewStyle().
		Foreground(t.Red).
		Background(t.Surface)

	var b strings.Builder
	b.WriteString(logoStyle.Render("◈ agencyplan"))
	b.WriteString(subtitleStyle.Render(" · " + a.plan.Title))
	b.WriteString("\n\n")

	if a.loadErr != nil {
		b.WriteString(errStyle.Render("Could not open saved progress:"))
		b.WriteString("\n")
		b.WriteString(subtitleStyle.Render(truncStr(a.loadErr.Error(), 60)))
		b.WriteString("\n\n")
		b.WriteString(subtitleStyle.Render("Press q to quit"))
	} else {
		b.WriteString(a.spinner.View())
		b.WriteString(subtitleStyle.Render(" Loading progress..."))
	}

	return a.overlay(b.String())
}

func (a App) viewHelp() string {
	t := theme.Active

	titleStyle := lipgloss.NewStyle().
		Foreground(t.AccentBright).
		Background(t.Surface).
		Bold(true)

	sectionStyle := lipgloss.NewStyle().
		Foreground(t.Accent).
		Background(t.Surface).
		Bold(true)

	keyStyle := lipgloss.NewStyle().
		Foreground(t.Cyan).
		Background(t.Surface).
		Bold(true)

	descStyle := lipgloss.NewStyle().
		Foreground(t.TextMuted).
		Background(t.Surface)

	dimStyle := lipgloss.NewStyle().
		Foreground(t.TextDim).
		Background(t.Surface)

	var b strings.Builder
	b.WriteString(titleStyle.Render("◈ Keyboard Shortcuts"))
	b.WriteString("\n\n")

	sections := []struct {
		name     string
		bindings []struct{ key, desc string }
	}{
		{"Navigation", []struct{ key, desc string }{
			{"1-4 t b c r", "Jump to tab"},
			{"← →", "Previous / Next tab"},
			{"j k", "Move selection"},
			{"g G", "First / Last item"},
		}},
		{"Actions", []struct{ key, desc string }{
			{"space x ⏎", "Toggle selected item"},
			{"⏎", "Copy link (Resources)"},
			{"e", "Export progress"},
			{"i", "Import progress"},
			{"L", "Launch check"},
			{"R ^r", "Reset all progress"},
			{"?", "Toggle help"},
			{"q", "Save and quit"},
		}},
	}
	for i, sec := range sections {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(sectionStyle.Render(sec.name))
		b.WriteString("\n")
		for _, bind := range sec.bindings {
			fmt.Fprintf(&b, "  %s  %s\n",
				keyStyle.Render(fmt.Sprintf("%-12s", bind.key)),
				descStyle.Render(bind.desc))
		}
	}

	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Press any key to close"))

	return a.overlay(b.String())
}

func (a App) viewLaunch() string {
	t := theme.Active
	r := a.plan.LaunchReadiness(a.tracker)

	titleStyle := lipgloss.NewStyle().
		Foreground(t.Green).
		Background(t.Surface).
		Bold(true)

	warnStyle := lipgloss.NewStyle().
		Foreground(t.Orange).
		Background(t.Surface).
		Bold(true)

	textStyle := lipgloss.NewStyle().
		Foreground(t.TextPrimary).
		Background(t.Surface)

	dimStyle := lipgloss.NewStyle().
		Foreground(t.TextDim).
		Background(t.Surface)

	var b strings.Builder
	if r.Ready() {
		b.WriteString(titleStyle.Render("★ Congratulations! ★"))
		b.WriteString("\n\n")
		where := "your agency"
		if a.plan.Location != "" {
			where += " in " + a.plan.Location
		}
		b.WriteString(textStyle.Render("You're ready to launch " + where + "!"))
		b.WriteString("\n")
		b.WriteString(textStyle.Render("Your hard work has paid off. Time to make it real."))
	} else {
		b.WriteString(warnStyle.Render("Not quite yet"))
		b.WriteString("\n\n")
		b.WriteString(textStyle.Render(fmt.Sprintf(
			"Complete more goals before launching. You need at least %d major milestones (%d done).",
			r.Required, len(r.Completed))))
		b.WriteString("\n\n")
		for _, g := range r.Pending {
			b.WriteString(cli.Checkbox(false) + textStyle.Render(" "+g.Title))
			b.WriteString("\n")
		}
	}
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Press any key to close"))

	return a.overlay(b.String())
}

func (a App) viewMain() string {
	t := theme.Active
	w := a.width
	cw := a.contentWidth()
	h := a.height

	// 1. Header: tab bar + overall progress line
	header := lipgloss.JoinVertical(lipgloss.Left,
		components.RenderTabBar(a.activeTab, cw),
		a.renderProgressLine(cw),
	)
	if a.importing {
		header = lipgloss.JoinVertical(lipgloss.Left, header, a.renderImportPrompt(cw))
	}

	// 2. Status bar
	saved := ""
	if !a.savedAt.IsZero() {
		saved = "saved " + cli.FormatRelative(a.savedAt)
	}
	statusBar := components.RenderStatusBar(cw, a.notice, a.noticeKind, saved)

	// 3. Content zone height
	contentH := h - lipgloss.Height(header) - lipgloss.Height(statusBar)
	if contentH < minContentHeight {
		contentH = minContentHeight
	}

	// 4. Tab content
	var content string
	switch a.activeTab {
	case tabTimeline:
		content = a.renderTimelineTab(cw, contentH)
	case tabBudget:
		content = a.renderBudgetTab(cw, contentH)
	case tabChecklist:
		content = a.renderChecklistTab(cw, contentH)
	case tabResources:
		content = a.renderResourcesTab(cw, contentH)
	}

	// 5. Truncate + pad to exactly contentH lines, filled with background
	content = padHeight(truncateHeight(content, contentH), contentH)
	content = fillLinesWithBackground(content, cw, t.Background)

	// 6. Stack and center in the terminal
	output := lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)
	return lipgloss.Place(w, h, lipgloss.Center, lipgloss.Top, output,
		lipgloss.WithWhitespaceBackground(t.Background))
}

// renderProgressLine shows the plan title, overall progress and start date.
func (a App) renderProgressLine(cw int) string {
	t := theme.Active

	titleStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface).Bold(true)
	mutedStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	left := titleStyle.Render(" " + a.plan.Title)
	right := mutedStyle.Render("Started " + cli.FormatDate(a.tracker.StartDate()) + " ")

	barW := cw - lipgloss.Width(left) - lipgloss.Width(right) - 16
	if barW > 40 {
		barW = 40
	}
	bar := ""
	if barW >= 8 {
		bar = mutedStyle.Render("  Overall ") + components.ProgressBar(a.plan.Progress(a.tracker), barW)
	}

	gap := cw - lipgloss.Width(left) - lipgloss.Width(bar) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}
	return left + bar + mutedStyle.Render(strings.Repeat(" ", gap)) + right
}

// ─── Helpers ────────────────────────────────────────────────────

// completedIn counts plan items of cat that are complete.
func (a App) completedIn(cat progress.Category) int {
	return a.plan.CompletedCount(a.tracker, cat)
}

// listRow renders one checkable row: marker, checkbox, title and a
// right-aligned annotation, highlighted when selected.
func listRow(done, selected bool, title, right string, width int) string {
	t := theme.Active

	bg := t.Surface
	if selected {
		bg = t.SurfaceHover
	}
	base := lipgloss.NewStyle().Background(bg)

	marker := base.Foreground(t.TextDim).Render("  ")
	if selected {
		marker = base.Foreground(t.AccentBright).Bold(true).Render("▸ ")
	}

	box := base.Foreground(t.TextDim).Render("○ ")
	titleColor := t.TextPrimary
	if done {
		box = base.Foreground(t.Green).Render("✓ ")
		titleColor = t.TextMuted
	}

	rightW := lipgloss.Width(right)
	titleW := width - 4 - rightW - 2
	if titleW < 5 {
		titleW = 5
	}
	title = truncStr(title, titleW)
	gap := width - 4 - lipgloss.Width(title) - rightW
	if gap < 1 {
		gap = 1
	}

	return marker + box +
		base.Foreground(titleColor).Render(title) +
		base.Render(strings.Repeat(" ", gap)) +
		base.Foreground(t.TextMuted).Render(right)
}

// groupHeading renders a phase or section heading inside a card.
func groupHeading(s string) string {
	t := theme.Active
	return lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true).Render(s)
}

// scrollWindow returns at most height lines around focus.
func scrollWindow(lines []string, focus, height int) []string {
	if height <= 0 {
		return nil
	}
	if len(lines) <= height {
		return lines
	}
	start := focus - height/2
	if start < 0 {
		start = 0
	}
	if start > len(lines)-height {
		start = len(lines) - height
	}
	return lines[start : start+height]
}

func truncStr(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}

func truncateHeight(s string, limit int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= limit {
		return s
	}
	return strings.Join(lines[:limit], "\n")
}

func padHeight(s string, h int) string {
	lines := strings.Split(s, "\n")
	if len(lines) >= h {
		return s
	}
	padding := strings.Repeat("\n", h-len(lines))
	return s + padding
}

// fillLinesWithBackground pads each line to width w with background color.
func fillLinesWithBackground(s string, w int, bg lipgloss.Color) string {
	lines := strings.Split(s, "\n")

	var result strings.Builder
	for i, line := range lines {
		placed := lipgloss.PlaceHorizontal(w, lipgloss.Left, line,
			lipgloss.WithWhitespaceBackground(bg))
		result.WriteString(placed)
		if i < len(lines)-1 {
			result.WriteString("\n")
		}
	}
	return result.String()
}
