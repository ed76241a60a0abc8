package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/spendburn/internal/tui/theme"
)

// Status carries the right-hand indicators of the status bar.
type Status struct {
	// DataAge is how long ago the store was read, e.g. "12s".
	DataAge     string
	Refreshing  bool
	AutoRefresh bool
	// Forecast is the source of the spliced predictions, empty when off.
	Forecast string
	// Fetching is true while a forecast or anomaly request is in flight.
	Fetching bool
	Err      string
}

// RenderStatusBar renders the bottom status bar.
func RenderStatusBar(width int, st Status) string {
	t := theme.Active

	base := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	keyStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface)
	warnStyle := lipgloss.NewStyle().Foreground(t.Orange).Background(t.Surface)
	predStyle := lipgloss.NewStyle().Foreground(t.Predicted).Background(t.Surface)

	left := base.Render(" ") +
		keyStyle.Render("[?]") + base.Render("help  ") +
		keyStyle.Render("[p]") + base.Render("redict  ") +
		keyStyle.Render("[g]") + base.Render("raph  ") +
		keyStyle.Render("[q]") + base.Render("uit")

	var right []string
	if st.Err != "" {
		right = append(right, warnStyle.Render(st.Err))
	}
	if st.Fetching {
		right = append(right, predStyle.Render("fetching..."))
	} else if st.Forecast != "" {
		right = append(right, predStyle.Render("forecast: "+st.Forecast))
	}
	switch {
	case st.Refreshing:
		right = append(right, base.Render("refreshing"))
	case st.DataAge != "":
		label := "data " + st.DataAge
		if st.AutoRefresh {
			label += " (auto)"
		}
		right = append(right, base.Render(label))
	}
	rightStr := strings.Join(right, base.Render("  ")) + base.Render(" ")

	padding := width - lipgloss.Width(left) - lipgloss.Width(rightStr)
	if padding < 0 {
		padding = 0
	}
	return left + base.Render(strings.Repeat(" ", padding)) + rightStr
}
