package components

import (
	"strings"

	"github.com/theirongolddev/agencyplan/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// NoticeKind selects the color of a status bar notice.
type NoticeKind int

const (
	NoticeInfo NoticeKind = iota
	NoticeSuccess
	NoticeError
)

// RenderStatusBar renders the bottom status bar: key hints on the left, an
// optional notice in the middle and the save state on the right.
func RenderStatusBar(width int, notice string, kind NoticeKind, saved string) string {
	t := theme.Active

	base := lipgloss.NewStyle().
		Foreground(t.TextMuted).
		Background(t.Surface)

	keyStyle := lipgloss.NewStyle().
		Foreground(t.Accent).
		Background(t.Surface)

	noticeColor := t.Cyan
	switch kind {
	case NoticeSuccess:
		noticeColor = t.Green
	case NoticeError:
		noticeColor = t.Red
	}
	noticeStyle := lipgloss.NewStyle().
		Foreground(noticeColor).
		Background(t.Surface).
		Bold(true)

	left := base.Render(" ") +
		keyStyle.Render("[space]") + base.Render("toggle ") +
		keyStyle.Render("[?]") + base.Render("help ") +
		keyStyle.Render("[q]") + base.Render("uit")

	mid := ""
	if notice != "" {
		mid = base.Render("  ") + noticeStyle.Render(notice)
	}

	right := ""
	if saved != "" {
		right = base.Render(saved + " ")
	}

	padding := width - lipgloss.Width(left) - lipgloss.Width(mid) - lipgloss.Width(right)
	if padding < 1 {
		// Drop the save state before the notice when space is tight.
		right = ""
		padding = width - lipgloss.Width(left) - lipgloss.Width(mid)
		if padding < 0 {
			padding = 0
		}
	}

	bar := left + mid + base.Render(strings.Repeat(" ", padding)) + right
	return lipgloss.NewStyle().Background(t.Surface).MaxWidth(width).Render(bar)
}
