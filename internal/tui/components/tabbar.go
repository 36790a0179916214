package components

import (
	"strconv"
	"strings"

	"github.com/theirongolddev/agencyplan/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// Tab represents a single tab in the tab bar.
type Tab struct {
	Name string
	Key  string // letter shortcut; the 1-based index also selects the tab
}

// Tabs defines all available tabs.
var Tabs = []Tab{
	{Name: "Timeline", Key: "t"},
	{Name: "Budget", Key: "b"},
	{Name: "Checklist", Key: "c"},
	{Name: "Resources", Key: "r"},
}

func tabLabel(i int) string {
	return strconv.Itoa(i+1) + " " + Tabs[i].Name
}

// TabVisualWidth returns the rendered width of tab i, padding included.
// Active and inactive tabs are the same width so hitboxes stay put.
func TabVisualWidth(i int) int {
	return lipgloss.Width(tabLabel(i)) + 2
}

// RenderTabBar renders the tab bar with the given active index, padded to width.
// Tabs are separated by a single column.
func RenderTabBar(activeIdx int, width int) string {
	t := theme.Active

	activeStyle := lipgloss.NewStyle().
		Foreground(t.AccentBright).
		Background(t.SurfaceHover).
		Bold(true).
		Padding(0, 1)

	inactiveStyle := lipgloss.NewStyle().
		Foreground(t.TextMuted).
		Background(t.Surface).
		Padding(0, 1)

	sepStyle := lipgloss.NewStyle().
		Foreground(t.Border).
		Background(t.Surface)

	var b strings.Builder
	for i := range Tabs {
		if i == activeIdx {
			b.WriteString(activeStyle.Render(tabLabel(i)))
		} else {
			b.WriteString(inactiveStyle.Render(tabLabel(i)))
		}
		if i < len(Tabs)-1 {
			b.WriteString(sepStyle.Render("│"))
		}
	}

	return lipgloss.NewStyle().
		Background(t.Surface).
		Width(width).
		Render(b.String())
}

// TabIdxByKey returns the tab index for a key press ("1".."4" or the tab's
// letter), or -1.
func TabIdxByKey(key string) int {
	for i, tab := range Tabs {
		if key == tab.Key || key == strconv.Itoa(i+1) {
			return i
		}
	}
	return -1
}

// TabAtX returns the tab index at column x, or -1 if none.
func TabAtX(x int) int {
	pos := 0
	for i := range Tabs {
		w := TabVisualWidth(i)
		if x >= pos && x < pos+w {
			return i
		}
		pos += w + 1 // separator
	}
	return -1
}
