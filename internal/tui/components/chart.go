package components

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/spendburn/internal/tui/theme"
)

// Series is a chart input. Predicted marks bars drawn in the forecast color;
// it may be nil or shorter than Values.
type Series struct {
	Values    []float64
	Predicted []bool
	Labels    []string
}

func (s Series) predicted(i int) bool {
	return i < len(s.Predicted) && s.Predicted[i]
}

// Sparkline renders a unicode sparkline from values.
func Sparkline(values []float64, color lipgloss.Color) string {
	if len(values) == 0 {
		return ""
	}
	t := theme.Active

	blocks := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

	peak := values[0]
	for _, v := range values[1:] {
		peak = max(peak, v)
	}
	if peak <= 0 {
		peak = 1
	}

	style := lipgloss.NewStyle().Foreground(color).Background(t.Surface)

	var buf strings.Builder
	buf.Grow(len(values) * 3)
	for _, v := range values {
		idx := int(v / peak * float64(len(blocks)-1))
		idx = min(max(idx, 0), len(blocks)-1)
		buf.WriteRune(blocks[idx])
	}
	return style.Render(buf.String())
}

// BarChart renders a bar chart with a y axis and date labels. Negative values
// (net credit days) are drawn as empty bars.
func BarChart(s Series, width, height int) string {
	if len(s.Values) == 0 {
		return ""
	}
	t := theme.Active
	if width < 15 || height < 3 {
		return Sparkline(s.Values, t.Accent)
	}

	maxVal := 0.0
	for _, v := range s.Values {
		maxVal = max(maxVal, v)
	}
	if maxVal == 0 {
		maxVal = 1
	}

	tickStep := chartTickStep(maxVal)
	maxIntervals := max(height/2, 2)
	for int(math.Ceil(maxVal/tickStep)) > maxIntervals {
		tickStep *= 2
	}
	ceiling := math.Ceil(maxVal/tickStep) * tickStep
	numIntervals := max(int(math.Round(ceiling/tickStep)), 1)

	rowsPerTick := max(height/numIntervals, 2)
	chartH := rowsPerTick * numIntervals

	yLabelW := max(len(formatChartLabel(ceiling))+1, 4)
	tickLabels := make(map[int]string, numIntervals)
	for i := 1; i <= numIntervals; i++ {
		tickLabels[i*rowsPerTick] = formatChartLabel(tickStep * float64(i))
	}

	chartW := max(width-yLabelW-1, 5)
	s = fitSeries(s, chartW)
	n := len(s.Values)

	gap := 1
	if n <= 1 {
		gap = 0
	}
	barW := chartW
	if n > 1 {
		barW = (chartW - (n - 1)) / n
	}
	barW = min(max(barW, 1), 6)
	axisLen := n*barW + max(0, n-1)*gap

	blocks := []rune{' ', '▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}
	axisStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	blank := lipgloss.NewStyle().Background(t.Surface)

	var b strings.Builder
	for row := chartH; row >= 1; row-- {
		rowTop := ceiling * float64(row) / float64(chartH)
		rowBottom := ceiling * float64(row-1) / float64(chartH)

		actualColor := t.Accent
		if float64(row)/float64(chartH) > 0.8 {
			actualColor = t.AccentBright
		}
		actualStyle := lipgloss.NewStyle().Foreground(actualColor).Background(t.Surface)
		predStyle := lipgloss.NewStyle().Foreground(t.Predicted).Background(t.Surface)

		b.WriteString(axisStyle.Render(fmt.Sprintf("%*s", yLabelW, tickLabels[row])))
		b.WriteString(axisStyle.Render("│"))

		for i, v := range s.Values {
			if i > 0 && gap > 0 {
				b.WriteString(blank.Render(strings.Repeat(" ", gap)))
			}
			style := actualStyle
			if s.predicted(i) {
				style = predStyle
			}
			switch {
			case v >= rowTop:
				b.WriteString(style.Render(strings.Repeat("█", barW)))
			case v > rowBottom:
				idx := int((v - rowBottom) / (rowTop - rowBottom) * 8)
				idx = min(max(idx, 1), 8)
				b.WriteString(style.Render(strings.Repeat(string(blocks[idx]), barW)))
			default:
				b.WriteString(blank.Render(strings.Repeat(" ", barW)))
			}
		}
		b.WriteString("\n")
	}

	b.WriteString(axisStyle.Render(fmt.Sprintf("%*s", yLabelW, "0")))
	b.WriteString(axisStyle.Render("└"))
	b.WriteString(axisStyle.Render(strings.Repeat("─", axisLen)))

	if len(s.Labels) == n && n > 0 {
		b.WriteString("\n")
		b.WriteString(blank.Render(strings.Repeat(" ", yLabelW+1)))
		b.WriteString(axisStyle.Render(strings.TrimRight(axisLabels(s.Labels, barW, gap, axisLen), " ")))
	}
	return b.String()
}

// fitSeries samples s down so each bar is at least one column wide.
func fitSeries(s Series, chartW int) Series {
	n := len(s.Values)
	maxN := max((chartW+1)/2, 2)
	if n <= maxN {
		return s
	}
	out := Series{Values: make([]float64, maxN), Predicted: make([]bool, maxN)}
	if len(s.Labels) == n {
		out.Labels = make([]string, maxN)
	}
	for i := range out.Values {
		src := i * (n - 1) / (maxN - 1)
		out.Values[i] = s.Values[src]
		out.Predicted[i] = s.predicted(src)
		if out.Labels != nil {
			out.Labels[i] = s.Labels[src]
		}
	}
	return out
}

// axisLabels lays out x labels under their bars without overlap. The last
// label is always shown when it fits.
func axisLabels(labels []string, barW, gap, axisLen int) string {
	buf := []byte(strings.Repeat(" ", axisLen))
	n := len(labels)
	step := max(1, (n*7)/(axisLen+1))

	lastEnd := -1
	for i := 0; i < n; i += step {
		pos := i * (barW + gap)
		lbl := labels[i]
		if pos <= lastEnd || pos+len(lbl) > axisLen {
			continue
		}
		copy(buf[pos:], lbl)
		lastEnd = pos + len(lbl)
	}
	if n > 1 {
		lbl := labels[n-1]
		pos := min((n-1)*(barW+gap), axisLen-len(lbl))
		if pos > lastEnd {
			copy(buf[pos:], lbl)
		}
	}
	return string(buf)
}

// chartTickStep computes a nice tick interval targeting ~5 ticks.
func chartTickStep(maxVal float64) float64 {
	if maxVal <= 0 {
		return 1
	}
	rough := maxVal / 5
	base := math.Pow(10, math.Floor(math.Log10(rough)))
	frac := rough / base

	switch {
	case frac < 1.5:
		return base
	case frac < 3.5:
		return 2 * base
	default:
		return 5 * base
	}
}

func formatChartLabel(v float64) string {
	switch {
	case v >= 1e6:
		return trimZero(fmt.Sprintf("$%.1fM", v/1e6))
	case v >= 1e3:
		return trimZero(fmt.Sprintf("$%.1fk", v/1e3))
	case v >= 1:
		return fmt.Sprintf("$%.0f", v)
	default:
		return fmt.Sprintf("$%.2f", v)
	}
}

func trimZero(s string) string {
	return strings.Replace(s, ".0", "", 1)
}
