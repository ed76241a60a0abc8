package components

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/theirongolddev/spendburn/internal/model"
	"github.com/theirongolddev/spendburn/internal/tui/theme"
)

func init() {
	// Force TrueColor output so ANSI codes are generated in tests
	lipgloss.SetColorProfile(termenv.TrueColor)
}

func TestCardRowBackgroundFill(t *testing.T) {
	theme.SetActive("flexoki-dark")

	shortCard := ContentCard("Short", "Content", 22)
	tallCard := ContentCard("Tall", "Line 1\nLine 2\nLine 3\nLine 4\nLine 5", 22)

	shortLines := len(strings.Split(shortCard, "\n"))
	tallLines := len(strings.Split(tallCard, "\n"))
	if shortLines >= tallLines {
		t.Fatal("short card should be shorter than tall card")
	}

	lines := strings.Split(CardRow([]string{tallCard, shortCard}), "\n")
	if len(lines) != tallLines {
		t.Fatalf("joined height = %d, want %d", len(lines), tallLines)
	}
	for i := shortLines; i < len(lines); i++ {
		if !strings.Contains(lines[i], "\x1b[") {
			t.Errorf("line %d has no ANSI styling", i)
		}
	}
}

func TestLayoutRowSumsToTotal(t *testing.T) {
	for _, total := range []int{80, 81, 119, 180} {
		for n := 1; n <= 5; n++ {
			sum := 0
			for _, w := range LayoutRow(total, n) {
				sum += w
			}
			if sum != total {
				t.Fatalf("LayoutRow(%d, %d) sums to %d", total, n, sum)
			}
		}
	}
	if LayoutRow(10, 0) != nil {
		t.Fatal("LayoutRow with n=0 should be nil")
	}
}

func TestMetricCardRowWidth(t *testing.T) {
	row := MetricCardRow([]Metric{
		{Label: "Total", Value: "$120.00"},
		{Label: "Budget", Value: "$500.00"},
		{Label: "Remaining", Value: "$380.00", Color: theme.Active.Green},
		{Label: "Avg/day", Value: "$17.14"},
	}, 100)
	for i, line := range strings.Split(row, "\n") {
		if w := lipgloss.Width(line); w != 100 {
			t.Fatalf("line %d width = %d, want 100", i, w)
		}
	}
}

func TestTabKeys(t *testing.T) {
	cases := map[rune]model.Period{'w': model.Weekly, 'b': model.Biweekly, 'm': model.Monthly}
	for key, want := range cases {
		idx := TabIdxByKey(key)
		if idx < 0 || Tabs[idx].Period != want {
			t.Fatalf("TabIdxByKey(%q) = %d", key, idx)
		}
		if TabIdxByPeriod(want) != idx {
			t.Fatalf("TabIdxByPeriod(%s) = %d, want %d", want, TabIdxByPeriod(want), idx)
		}
	}
	if TabIdxByKey('x') != -1 {
		t.Fatal("unknown key should map to -1")
	}
	if !strings.Contains(RenderTabBar(0, 60), "Weekly") {
		t.Fatal("tab bar missing active tab name")
	}
}

func TestBarChartMarksPredicted(t *testing.T) {
	s := Series{
		Values:    []float64{10, 20, 30, 40},
		Predicted: []bool{false, false, true, true},
		Labels:    []string{"Jan", "2", "3", "4"},
	}
	out := BarChart(s, 40, 8)
	if out == "" {
		t.Fatal("empty chart")
	}
	// The forecast color must appear only when some bars are predicted.
	pred := lipgloss.NewStyle().
		Foreground(theme.Active.Predicted).
		Background(theme.Active.Surface).
		Render("█")
	prefix := pred[:strings.Index(pred, "█")]
	if !strings.Contains(out, prefix) {
		t.Fatal("predicted bars not drawn in forecast color")
	}
	s.Predicted = nil
	if strings.Contains(BarChart(s, 40, 8), prefix) {
		t.Fatal("forecast color used without predicted bars")
	}
}

func TestBarChartNarrowFallsBackToSparkline(t *testing.T) {
	out := BarChart(Series{Values: []float64{1, 2, 3}}, 10, 2)
	if strings.Contains(out, "│") {
		t.Fatal("narrow chart should render as sparkline")
	}
}

func TestFitSeriesKeepsPredictedFlags(t *testing.T) {
	s := Series{Values: make([]float64, 30), Predicted: make([]bool, 30)}
	for i := 20; i < 30; i++ {
		s.Predicted[i] = true
	}
	got := fitSeries(s, 11)
	if len(got.Values) != 6 {
		t.Fatalf("sampled to %d bars, want 6", len(got.Values))
	}
	if got.Predicted[0] || !got.Predicted[len(got.Predicted)-1] {
		t.Fatalf("predicted flags not carried: %v", got.Predicted)
	}
}

func TestFormatChartLabel(t *testing.T) {
	cases := map[float64]string{
		0.5:  "$0.50",
		40:   "$40",
		1000: "$1k",
		2500: "$2.5k",
		3e6:  "$3M",
	}
	for in, want := range cases {
		if got := formatChartLabel(in); got != want {
			t.Errorf("formatChartLabel(%v) = %q, want %q", in, got, want)
		}
	}
}
