package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/theirongolddev/spendburn/internal/anomaly"
	"github.com/theirongolddev/spendburn/internal/forecast"
	"github.com/theirongolddev/spendburn/internal/model"
	"github.com/theirongolddev/spendburn/internal/pipeline"
)

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

type stubProvider struct {
	calls int
	err   error
}

func (s *stubProvider) Predict(_ context.Context, _ forecast.Request) (model.Forecast, error) {
	s.calls++
	if s.err != nil {
		return model.Forecast{}, s.err
	}
	return model.Forecast{
		Source: "stub",
		Daily: []model.DailyBucket{
			{Date: "2026-03-10", Amount: 99, Cumulative: 99},
			{Date: "2026-03-11", Amount: 10, Cumulative: 10},
			{Date: "2026-03-12", Amount: 5, Cumulative: 15},
		},
	}, nil
}

func testInputs() pipeline.Inputs {
	return pipeline.Inputs{
		UserID: "u1",
		Transactions: []model.Transaction{
			{ID: "a", Date: "2026-03-09", Amount: 20, Category: "Food > Groceries"},
			{ID: "b", Date: "2026-03-10T09:30:00Z", Amount: 30, Category: "Travel"},
			{ID: "c", Date: "2026-01-01", Amount: 500, Category: "Rent"},
		},
	}
}

func newTestApp(p forecast.Provider) App {
	a := NewApp(Options{
		Load:      func(context.Context) (pipeline.Inputs, error) { return testInputs(), nil },
		Forecast:  p,
		Anomalies: anomaly.IQR{Location: time.UTC},
		Location:  time.UTC,
		Period:    model.Weekly,
		GraphMode: model.Cumulative,
		Logger:    zerolog.Nop(),
		Now:       func() time.Time { return testNow },
	})
	m, _ := a.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	m, _ = m.Update(DataLoadedMsg{Inputs: testInputs()})
	return m.(App)
}

func press(t *testing.T, a App, key string) (App, tea.Cmd) {
	t.Helper()
	var msg tea.KeyMsg
	switch key {
	case "left":
		msg = tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		msg = tea.KeyMsg{Type: tea.KeyRight}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
	}
	m, cmd := a.Update(msg)
	return m.(App), cmd
}

// drain runs cmd and returns the messages of the given type, flattening
// batches.
func drain[T tea.Msg](cmd tea.Cmd) []T {
	if cmd == nil {
		return nil
	}
	var out []T
	switch msg := cmd().(type) {
	case tea.BatchMsg:
		for _, c := range msg {
			out = append(out, drain[T](c)...)
		}
	case T:
		out = append(out, msg)
	}
	return out
}

func predictedCount(series []model.DailyBucket) int {
	n := 0
	for _, b := range series {
		if b.Predicted {
			n++
		}
	}
	return n
}

func TestLoadComputesSummaries(t *testing.T) {
	a := newTestApp(nil)
	sum := a.summaries[model.Weekly]
	if sum.Total != 50 {
		t.Fatalf("weekly total = %v, want 50", sum.Total)
	}
	if len(a.series) != 7 {
		t.Fatalf("series len = %d, want 7", len(a.series))
	}
	if a.summaries[model.Monthly].Total != 50 {
		t.Fatalf("monthly total = %v, want 50", a.summaries[model.Monthly].Total)
	}
	if len(a.categories[model.Weekly]) != 2 {
		t.Fatalf("weekly categories = %v", a.categories[model.Weekly])
	}
}

func TestPredictionToggleSplicesAndDrops(t *testing.T) {
	p := &stubProvider{}
	a := newTestApp(p)
	actual := append([]model.DailyBucket(nil), a.series...)

	a, cmd := press(t, a, "p")
	if !a.showPredictions || !a.fetching {
		t.Fatal("p should start a forecast fetch")
	}
	msgs := drain[ForecastMsg](cmd)
	if len(msgs) != 1 {
		t.Fatalf("got %d forecast messages, want 1", len(msgs))
	}
	m, _ := a.Update(msgs[0])
	a = m.(App)

	if a.fetching {
		t.Fatal("fetching should clear once the forecast lands")
	}
	if got := predictedCount(a.series); got != 2 {
		t.Fatalf("predicted buckets = %d, want 2 (overlapping day dropped)", got)
	}
	last := a.series[len(a.series)-1]
	if last.Date != "2026-03-12" || last.Cumulative != 65 {
		t.Fatalf("last bucket = %+v, want 2026-03-12 cumulative 65", last)
	}

	a, _ = press(t, a, "p")
	if a.showPredictions || predictedCount(a.series) != 0 {
		t.Fatal("toggling off should drop the predicted tail")
	}
	if len(a.series) != len(actual) {
		t.Fatalf("series len = %d, want %d", len(a.series), len(actual))
	}
	for i := range actual {
		if a.series[i] != actual[i] {
			t.Fatalf("actual bucket %d changed: %+v vs %+v", i, a.series[i], actual[i])
		}
	}
}

func TestStaleForecastIsDiscarded(t *testing.T) {
	a := newTestApp(&stubProvider{})

	a, cmd := press(t, a, "p")
	stale := drain[ForecastMsg](cmd)
	a, _ = press(t, a, "p")
	a, cmd = press(t, a, "p")
	fresh := drain[ForecastMsg](cmd)
	if len(stale) != 1 || len(fresh) != 1 {
		t.Fatal("expected one forecast message per toggle")
	}

	m, _ := a.Update(stale[0])
	a = m.(App)
	if predictedCount(a.series) != 0 || !a.fetching {
		t.Fatal("stale forecast must not be spliced")
	}

	m, _ = a.Update(fresh[0])
	a = m.(App)
	if predictedCount(a.series) != 2 {
		t.Fatal("current forecast should be spliced")
	}
}

func TestForecastAfterToggleOffIsDiscarded(t *testing.T) {
	a := newTestApp(&stubProvider{})
	a, cmd := press(t, a, "p")
	msgs := drain[ForecastMsg](cmd)
	a, _ = press(t, a, "p")

	m, _ := a.Update(msgs[0])
	a = m.(App)
	if a.showPredictions || predictedCount(a.series) != 0 {
		t.Fatal("late forecast revived predictions")
	}
}

func TestForecastErrorRestoresPreviousState(t *testing.T) {
	a := newTestApp(&stubProvider{err: errors.New("boom")})
	before := a.summaries[model.Weekly]

	a, cmd := press(t, a, "p")
	m, _ := a.Update(drain[ForecastMsg](cmd)[0])
	a = m.(App)

	if a.showPredictions {
		t.Fatal("predictions should be off after a failed fetch")
	}
	if !strings.Contains(a.lastErr, "boom") {
		t.Fatalf("lastErr = %q", a.lastErr)
	}
	if a.summaries[model.Weekly].Total != before.Total || len(a.series) != len(before.Buckets) {
		t.Fatal("failed forecast touched the actual series")
	}
}

func TestGraphToggleKeepsAggregates(t *testing.T) {
	a := newTestApp(nil)
	before := a.summaries[model.Weekly]

	a, _ = press(t, a, "g")
	if a.graphMode != model.Daily {
		t.Fatalf("graph mode = %s, want daily", a.graphMode)
	}
	if a.summaries[model.Weekly].Total != before.Total {
		t.Fatal("graph toggle changed totals")
	}
	s := a.chartSeries()
	if s.Values[len(s.Values)-1] != 30 {
		t.Fatalf("daily value = %v, want 30", s.Values[len(s.Values)-1])
	}
}

func TestTabSwitchFetchesForecastForNewPeriod(t *testing.T) {
	p := &stubProvider{}
	a := newTestApp(p)

	a, cmd := press(t, a, "p")
	m, _ := a.Update(drain[ForecastMsg](cmd)[0])
	a = m.(App)

	a, cmd = press(t, a, "m")
	if a.period() != model.Monthly {
		t.Fatalf("period = %s, want monthly", a.period())
	}
	if len(a.series) != 30 {
		t.Fatalf("monthly series before forecast = %d, want 30", len(a.series))
	}
	msgs := drain[ForecastMsg](cmd)
	if len(msgs) != 1 || msgs[0].Period != model.Monthly {
		t.Fatalf("expected a monthly forecast request, got %+v", msgs)
	}

	// Back to weekly reuses the cached forecast.
	calls := p.calls
	a, cmd = press(t, a, "w")
	if len(drain[ForecastMsg](cmd)) != 0 || p.calls != calls {
		t.Fatal("cached weekly forecast should not be refetched")
	}
	if predictedCount(a.series) != 2 {
		t.Fatal("weekly forecast not spliced from cache")
	}
}

func TestAnomalyToggle(t *testing.T) {
	a := newTestApp(nil)
	a, cmd := press(t, a, "a")
	if !a.showAnomalies || !a.anomalyFetching {
		t.Fatal("a should start anomaly detection")
	}
	msgs := drain[AnomalyMsg](cmd)
	if len(msgs) != 1 {
		t.Fatalf("got %d anomaly messages", len(msgs))
	}
	m, _ := a.Update(msgs[0])
	a = m.(App)
	if a.anomalyFetching {
		t.Fatal("fetching flag not cleared")
	}
	if _, ok := a.anomalies[model.Weekly]; !ok {
		t.Fatal("report not stored")
	}
}

func TestStaleAnomalyReportIsDiscarded(t *testing.T) {
	a := newTestApp(nil)
	a, cmd := press(t, a, "a")
	stale := drain[AnomalyMsg](cmd)

	in := testInputs()
	for i, amt := range []float64{22, 25, 900} {
		in.Transactions = append(in.Transactions, model.Transaction{
			ID: fmt.Sprintf("n%d", i), Date: "2026-03-08", Amount: amt,
		})
	}
	m, cmd := a.Update(RefreshDataMsg{Inputs: in})
	a = m.(App)
	fresh := drain[AnomalyMsg](cmd)
	if len(stale) != 1 || len(fresh) != 1 {
		t.Fatal("expected one anomaly message per request")
	}

	m, _ = a.Update(fresh[0])
	a = m.(App)
	if got := len(a.anomalies[model.Weekly].High); got != 1 {
		t.Fatalf("high anomalies after refresh = %d, want 1", got)
	}

	m, _ = a.Update(stale[0])
	a = m.(App)
	if got := len(a.anomalies[model.Weekly].High); got != 1 {
		t.Fatalf("stale report overwrote fresh one: high = %d", got)
	}
}

func TestAnomalyAfterToggleOffIsDiscarded(t *testing.T) {
	a := newTestApp(nil)
	a, cmd := press(t, a, "a")
	msgs := drain[AnomalyMsg](cmd)
	a, _ = press(t, a, "a")

	m, _ := a.Update(msgs[0])
	a = m.(App)
	if a.anomalyFetching {
		t.Fatal("fetching flag should stay cleared after toggle-off")
	}
	if _, ok := a.anomalies[model.Weekly]; ok {
		t.Fatal("late report stored after toggle-off")
	}
}

func TestRefreshInvalidatesCachedForecasts(t *testing.T) {
	p := &stubProvider{}
	a := newTestApp(p)
	a, cmd := press(t, a, "p")
	m, _ := a.Update(drain[ForecastMsg](cmd)[0])
	a = m.(App)

	in := testInputs()
	in.Transactions = append(in.Transactions, model.Transaction{ID: "d", Date: "2026-03-10", Amount: 5})
	m, cmd = a.Update(RefreshDataMsg{Inputs: in})
	a = m.(App)

	if a.summaries[model.Weekly].Total != 55 {
		t.Fatalf("total after refresh = %v, want 55", a.summaries[model.Weekly].Total)
	}
	if len(drain[ForecastMsg](cmd)) != 1 {
		t.Fatal("refresh should request a new forecast while predictions are on")
	}
}

func TestViewRendersDashboard(t *testing.T) {
	a := newTestApp(nil)
	out := a.View()
	for _, want := range []string{"Weekly", "Total spent", "$50.00", "Top categories"} {
		if !strings.Contains(out, want) {
			t.Errorf("view missing %q", want)
		}
	}

	a, _ = press(t, a, "?")
	if !strings.Contains(a.View(), "Keyboard Shortcuts") {
		t.Fatal("help overlay not shown")
	}
}

func TestSetupValues(t *testing.T) {
	for _, in := range []string{"", "250", "$99.50", " 10 "} {
		if err := validateBudget(in); err != nil {
			t.Errorf("validateBudget(%q) = %v", in, err)
		}
	}
	for _, in := range []string{"abc", "0", "-5"} {
		if validateBudget(in) == nil {
			t.Errorf("validateBudget(%q) accepted", in)
		}
	}

	v := SetupValues{Weekly: "250", Monthly: "$1800", Biweekly: "", Period: "m"}
	b := v.Budgets()
	if b.For(model.Weekly) != 250 || b.For(model.Biweekly) != 1000 || b.For(model.Monthly) != 1800 {
		t.Fatalf("budgets = %v/%v/%v", b.For(model.Weekly), b.For(model.Biweekly), b.For(model.Monthly))
	}
}
