package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/spendburn/internal/model"
	"github.com/theirongolddev/spendburn/internal/tui/theme"
)

// Tab is one period tab in the tab bar.
type Tab struct {
	Period model.Period
	Key    rune
}

// Tabs lists the period tabs in display order.
var Tabs = []Tab{
	{Period: model.Weekly, Key: 'w'},
	{Period: model.Biweekly, Key: 'b'},
	{Period: model.Monthly, Key: 'm'},
}

// RenderTabBar renders the period tabs with the given active index. The
// shortcut letter is the first letter of each tab name.
func RenderTabBar(activeIdx int, width int) string {
	t := theme.Active

	activeStyle := lipgloss.NewStyle().
		Foreground(t.Accent).
		Background(t.Surface).
		Bold(true).
		Padding(0, 1)

	inactiveStyle := lipgloss.NewStyle().
		Foreground(t.TextMuted).
		Background(t.Surface)

	keyStyle := lipgloss.NewStyle().
		Foreground(t.Accent).
		Background(t.Surface).
		Bold(true)

	dimKeyStyle := lipgloss.NewStyle().
		Foreground(t.TextDim).
		Background(t.Surface)

	sep := lipgloss.NewStyle().Background(t.Surface).Render("  ")

	parts := make([]string, 0, len(Tabs))
	for i, tab := range Tabs {
		name := tab.Period.Title()
		if i == activeIdx {
			parts = append(parts, activeStyle.Render(name))
			continue
		}
		parts = append(parts, inactiveStyle.Render(" ")+
			dimKeyStyle.Render("[")+keyStyle.Render(name[:1])+dimKeyStyle.Render("]")+
			inactiveStyle.Render(name[1:]+" "))
	}

	bar := " " + strings.Join(parts, sep)
	return lipgloss.NewStyle().Background(t.Surface).Width(width).Render(bar)
}

// TabIdxByKey returns the tab index for a given key press, or -1.
func TabIdxByKey(key rune) int {
	for i, tab := range Tabs {
		if tab.Key == key {
			return i
		}
	}
	return -1
}

// TabIdxByPeriod returns the tab index of p, or 0.
func TabIdxByPeriod(p model.Period) int {
	for i, tab := range Tabs {
		if tab.Period == p {
			return i
		}
	}
	return 0
}
