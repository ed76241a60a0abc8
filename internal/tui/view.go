package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/spendburn/internal/cli"
	"github.com/theirongolddev/spendburn/internal/model"
	"github.com/theirongolddev/spendburn/internal/pipeline"
	"github.com/theirongolddev/spendburn/internal/tui/components"
	"github.com/theirongolddev/spendburn/internal/tui/theme"
)

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
	if a.setupForm != nil {
		return a.setupForm.View()
	}
	if a.showHelp {
		return a.viewHelp()
	}
	return a.viewMain()
}

func (a App) contentWidth() int {
	return min(a.width, maxContentWidth)
}

func (a App) viewTooNarrow() string {
	h := max(a.height, 5)
	msg := fmt.Sprintf("\n  Terminal too narrow (%d cols)\n\n  spendburn needs at least %d columns.\n",
		a.width, minTerminalWidth)
	return padHeight(truncateHeight(msg, h), h)
}

func (a App) viewLoading() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(2, 4)
	logoStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	subtitleStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	spinnerStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface)

	var b strings.Builder
	b.WriteString(logoStyle.Render("◈ spendburn"))
	b.WriteString(subtitleStyle.Render(" · Spending vs Budget"))
	b.WriteString("\n\n")

	if a.progressMax > 0 {
		barW := min(max(a.width-30, 20), 40)
		pct := float64(a.progress) / float64(a.progressMax)
		b.WriteString(spinnerStyle.Render(a.spinner.View()))
		b.WriteString(subtitleStyle.Render(" Importing exports\n\n"))
		b.WriteString(components.ProgressBar(pct, barW))
		b.WriteString("\n")
		b.WriteString(subtitleStyle.Render(fmt.Sprintf("%s / %s files",
			cli.FormatNumber(int64(a.progress)), cli.FormatNumber(int64(a.progressMax)))))
	} else {
		b.WriteString(spinnerStyle.Render(a.spinner.View()))
		b.WriteString(subtitleStyle.Render(" Loading transactions..."))
	}

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(b.String()),
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewHelp() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(1, 3)
	titleStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	keyStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	var b strings.Builder
	b.WriteString(titleStyle.Render("◈ Keyboard Shortcuts"))
	b.WriteString("\n\n")

	bindings := []struct{ key, desc string }{
		{"w b m", "Weekly / Biweekly / Monthly"},
		{"← →", "Previous / Next period"},
		{"g", "Toggle daily / cumulative"},
		{"p", "Toggle predictions"},
		{"a", "Toggle anomalies"},
		{"r", "Reload from store"},
		{"R", "Toggle auto-refresh"},
		{"?", "Toggle help"},
		{"q", "Quit"},
	}
	for _, bind := range bindings {
		fmt.Fprintf(&b, "  %s  %s\n",
			keyStyle.Render(fmt.Sprintf("%-6s", bind.key)),
			descStyle.Render(bind.desc))
	}
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Press any key to close"))

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(b.String()),
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewMain() string {
	t := theme.Active
	w := a.width
	cw := a.contentWidth()

	pill := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	pillAccent := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	sum := a.summaries[a.period()]
	filter := pill.Render(" ") + pillAccent.Render(string(a.graphMode)) +
		pill.Render(" │ "+sum.Start+" → "+sum.End)
	if a.inputs.UserID != "" {
		filter += pill.Render(" │ ") + pillAccent.Render(a.inputs.UserID)
	}
	if a.showPredictions {
		filter += pill.Render(" │ ") +
			lipgloss.NewStyle().Foreground(t.Predicted).Background(t.Surface).Render("predictions")
	}
	header := components.RenderTabBar(a.activeTab, w) + "\n" +
		lipgloss.NewStyle().Background(t.Surface).Width(w).Render(filter)

	status := components.RenderStatusBar(w, components.Status{
		DataAge:     formatAge(a.opts.Now().Sub(a.lastRefresh)),
		Refreshing:  a.refreshing,
		AutoRefresh: a.autoRefresh,
		Forecast:    a.forecastLabel(),
		Fetching:    a.fetching || a.anomalyFetching,
		Err:         a.lastErr,
	})

	contentH := max(a.height-lipgloss.Height(header)-lipgloss.Height(status), minContentHeight)
	content := a.renderPeriod(cw, contentH)
	content = padHeight(truncateHeight(content, contentH), contentH)
	content = fillLinesWithBackground(content, cw, t.Background)
	content = lipgloss.Place(w, contentH, lipgloss.Center, lipgloss.Top, content,
		lipgloss.WithWhitespaceBackground(t.Background))

	output := lipgloss.JoinVertical(lipgloss.Left, header, content, status)
	return lipgloss.Place(w, a.height, lipgloss.Left, lipgloss.Top, output,
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) forecastLabel() string {
	if !a.showPredictions {
		return ""
	}
	if fc, ok := a.forecasts[a.period()]; ok && fc.Source != "" {
		return fc.Source
	}
	return a.opts.ForecastSource
}

// renderPeriod draws the metric cards, budget bar, chart and the side panel
// for the active period.
func (a App) renderPeriod(cw, h int) string {
	t := theme.Active
	sum := a.summaries[a.period()]
	st := sum.Status

	remaining := components.Metric{Label: "Remaining", Value: cli.FormatMoney(st.Remaining), Color: t.Green}
	if st.Over {
		remaining = components.Metric{
			Label: "Over budget",
			Value: cli.FormatMoney(st.Total - st.Budget),
			Color: t.Red,
		}
	}
	cards := components.MetricCardRow([]components.Metric{
		{Label: "Total spent", Value: cli.FormatMoney(st.Total), Delta: fmt.Sprintf("%d transactions", sum.Transactions)},
		{Label: sum.Period.Title() + " budget", Value: cli.FormatMoney(st.Budget)},
		remaining,
		{Label: "Avg / day", Value: cli.FormatMoney(st.AveragePerDay)},
	}, cw)

	barW := max(cw-30, 10)
	bar := lipgloss.NewStyle().Background(t.Surface).Width(cw).Render(
		" " + components.BudgetBar("Used", st.Percentage, st.Over, 6, barW))

	sideW := min(max(cw/3, 30), 48)
	chartW := cw - sideW
	chartH := max(h-lipgloss.Height(cards)-lipgloss.Height(bar)-5, 4)

	chart := components.ContentCard(a.chartTitle(),
		components.BarChart(a.chartSeries(), components.CardInnerWidth(chartW), chartH), chartW)

	var side string
	if a.showAnomalies {
		side = components.ContentCard("Anomalies", a.renderAnomalies(components.CardInnerWidth(sideW)), sideW)
	} else {
		side = components.ContentCard("Top categories", a.renderCategories(components.CardInnerWidth(sideW)), sideW)
	}

	return cards + "\n" + bar + "\n" + components.CardRow([]string{chart, side})
}

func (a App) chartTitle() string {
	title := "Daily spend"
	if a.graphMode == model.Cumulative {
		title = "Cumulative spend"
	}
	if a.fetching {
		title += "  " + a.spinner.View() + " forecasting"
	}
	return title
}

// chartSeries maps the displayed series onto chart values for the active
// graph mode.
func (a App) chartSeries() components.Series {
	s := components.Series{
		Values:    make([]float64, len(a.series)),
		Predicted: make([]bool, len(a.series)),
		Labels:    chartDateLabels(a.series),
	}
	for i, b := range a.series {
		if a.graphMode == model.Cumulative {
			s.Values[i] = b.Cumulative
		} else {
			s.Values[i] = b.Amount
		}
		s.Predicted[i] = b.Predicted
	}
	return s
}

func (a App) renderCategories(w int) string {
	t := theme.Active
	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	cats := pipeline.LimitCategories(a.categories[a.period()], 6)
	if len(cats) == 0 {
		return muted.Render("No spending in this period")
	}

	labelW := min(16, w/2)
	valueW := 10
	barW := max(w-labelW-valueW-2, 4)
	peak := cats[0].Total

	label := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	bar := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface)
	value := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	lines := make([]string, 0, len(cats))
	for _, c := range cats {
		name := c.Category
		if len([]rune(name)) > labelW {
			name = string([]rune(name)[:labelW-1]) + "…"
		}
		filled := 0
		if peak > 0 && c.Total > 0 {
			filled = max(int(c.Total/peak*float64(barW)), 1)
		}
		lines = append(lines,
			label.Render(fmt.Sprintf("%-*s ", labelW, name))+
				bar.Render(strings.Repeat("▇", filled)+strings.Repeat(" ", barW-filled))+
				value.Render(fmt.Sprintf(" %*s", valueW, cli.FormatMoneyShort(c.Total))))
	}
	return strings.Join(lines, "\n")
}

func (a App) renderAnomalies(w int) string {
	t := theme.Active
	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	if a.anomalyFetching {
		return muted.Render(a.spinner.View() + " detecting...")
	}
	rep, ok := a.anomalies[a.period()]
	if !ok || rep.Empty() {
		return muted.Render("No anomalies in this period")
	}

	high := lipgloss.NewStyle().Foreground(t.Red).Background(t.Surface)
	low := lipgloss.NewStyle().Foreground(t.Blue).Background(t.Surface)

	var lines []string
	add := func(style lipgloss.Style, marker string, list []model.Anomaly) {
		for _, an := range list {
			line := fmt.Sprintf("%s %s %s %+.0f%%", marker, cli.FormatShortDay(an.Date),
				cli.FormatMoney(an.Amount), an.PercentDeviation)
			if len([]rune(line)) > w {
				line = string([]rune(line)[:w])
			}
			lines = append(lines, style.Render(line))
		}
	}
	add(high, "▲", rep.High)
	add(low, "▼", rep.Low)
	return strings.Join(lines, "\n")
}
