// Package tui provides the interactive Bubble Tea dashboard for spendburn.
package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/theirongolddev/spendburn/internal/anomaly"
	"github.com/theirongolddev/spendburn/internal/forecast"
	"github.com/theirongolddev/spendburn/internal/model"
	"github.com/theirongolddev/spendburn/internal/pipeline"
	"github.com/theirongolddev/spendburn/internal/tui/components"
	"github.com/theirongolddev/spendburn/internal/tui/theme"
)

// Options wires the dashboard to its data and integrations.
type Options struct {
	// Load reads the scoped transactions and budgets. Required.
	Load func(ctx context.Context) (pipeline.Inputs, error)
	// Import runs once before the first load when set.
	Import func(progress pipeline.ProgressFunc) (*pipeline.ImportResult, error)

	// Forecast and Anomalies are optional; nil disables the toggle.
	Forecast       forecast.Provider
	ForecastSource string
	ForecastDays   int
	Anomalies      anomaly.Detector

	Location  *time.Location
	Sign      model.SignConvention
	Period    model.Period
	GraphMode model.GraphMode

	AutoRefresh     bool
	RefreshInterval time.Duration

	// Setup, when non-nil, shows the first-run form pre-filled with it.
	// SaveSetup persists the answers.
	Setup     *SetupValues
	SaveSetup func(SetupValues) error

	Logger zerolog.Logger
	Now    func() time.Time
}

// DataLoadedMsg is sent when the first load finishes.
type DataLoadedMsg struct {
	Inputs   pipeline.Inputs
	LoadTime time.Duration
	Err      error
}

// ProgressMsg reports import progress.
type ProgressMsg struct {
	Current int
	Total   int
}

// RefreshDataMsg is sent when a background reload completes.
type RefreshDataMsg struct {
	Inputs   pipeline.Inputs
	LoadTime time.Duration
	Err      error
}

// ForecastMsg carries a prediction tagged with the generation it was
// requested under.
type ForecastMsg struct {
	Token    forecast.Token
	Period   model.Period
	Forecast model.Forecast
	Err      error
}

// AnomalyMsg carries an anomaly report for one period, tagged like
// ForecastMsg.
type AnomalyMsg struct {
	Token  forecast.Token
	Period model.Period
	Report model.AnomalyReport
	Err    error
}

// App is the root Bubble Tea model.
type App struct {
	opts Options
	log  zerolog.Logger

	// Data
	inputs     pipeline.Inputs
	summaries  map[model.Period]model.PeriodSummary
	categories map[model.Period][]model.CategoryTotal
	loaded     bool
	loadTime   time.Duration
	lastErr    string

	// Auto-refresh state
	autoRefresh     bool
	refreshInterval time.Duration
	lastRefresh     time.Time
	refreshing      bool

	// UI state
	width     int
	height    int
	activeTab int
	graphMode model.GraphMode
	showHelp  bool

	// Predictions. series is what the chart shows: the actual buckets of
	// the active period, plus the spliced forecast when predictions are on.
	showPredictions bool
	tracker         *forecast.Tracker
	fetching        bool
	forecasts       map[model.Period]model.Forecast
	series          []model.DailyBucket

	showAnomalies   bool
	anomalyTracker  *forecast.Tracker
	anomalyFetching bool
	anomalies       map[model.Period]model.AnomalyReport

	// First-run setup (huh form)
	setupForm *huh.Form
	setupVals *SetupValues

	// Loading
	spinner     spinner.Model
	progress    int
	progressMax int
	loadSub     chan tea.Msg
}

const (
	minTerminalWidth = 60
	maxContentWidth  = 160
	minContentHeight = 5
	requestTimeout   = 30 * time.Second
)

// NewApp creates a new dashboard model.
func NewApp(opts Options) App {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Sign == "" {
		opts.Sign = model.PositiveSpend
	}
	if !opts.Period.Valid() {
		opts.Period = model.Weekly
	}
	if opts.GraphMode == "" {
		opts.GraphMode = model.Cumulative
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.RefreshInterval < 10*time.Second {
		opts.RefreshInterval = 60 * time.Second
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Active.Accent).Background(theme.Active.Surface)

	return App{
		opts:            opts,
		log:             opts.Logger.With().Str("component", "tui").Logger(),
		summaries:       make(map[model.Period]model.PeriodSummary),
		categories:      make(map[model.Period][]model.CategoryTotal),
		autoRefresh:     opts.AutoRefresh,
		refreshInterval: opts.RefreshInterval,
		activeTab:       components.TabIdxByPeriod(opts.Period),
		graphMode:       opts.GraphMode,
		tracker:         &forecast.Tracker{},
		forecasts:       make(map[model.Period]model.Forecast),
		anomalyTracker:  &forecast.Tracker{},
		anomalies:       make(map[model.Period]model.AnomalyReport),
		setupVals:       opts.Setup,
		spinner:         sp,
		loadSub:         make(chan tea.Msg, 1),
	}
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	return tea.Batch(
		loadDataCmd(a.opts, a.loadSub),
		a.spinner.Tick,
		tickCmd(),
	)
}

func (a App) period() model.Period {
	return components.Tabs[a.activeTab].Period
}

func (a App) today() time.Time {
	return model.DayOf(a.opts.Now(), a.opts.Location)
}

// recompute rebuilds every period summary and category breakdown from the
// current inputs.
func (a *App) recompute() {
	opts := pipeline.Options{Location: a.opts.Location, Sign: a.opts.Sign, Logger: a.log}
	summaries := make(map[model.Period]model.PeriodSummary, len(model.Periods))
	categories := make(map[model.Period][]model.CategoryTotal, len(model.Periods))
	today := a.today()
	for _, p := range model.Periods {
		w := model.WindowFor(p, today)
		kept := pipeline.FilterByWindow(a.inputs.Transactions, w, a.opts.Location, zerolog.Nop()).Kept
		summaries[p] = pipeline.SummarizeWindow(a.inputs.Transactions, p, w, a.inputs.Budgets.For(p), opts)
		categories[p] = pipeline.AggregateCategories(kept, a.opts.Sign)
	}
	a.summaries = summaries
	a.categories = categories
	a.rebuildSeries()
}

// rebuildSeries derives the displayed series. Aggregates are never touched.
func (a *App) rebuildSeries() {
	actual := a.summaries[a.period()].Buckets
	a.series = actual
	if !a.showPredictions {
		return
	}
	if fc, ok := a.forecasts[a.period()]; ok {
		a.series = pipeline.Splice(actual, fc.Daily, a.graphMode)
	}
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		if a.setupForm != nil {
			a.setupForm = a.setupForm.WithWidth(msg.Width).WithHeight(msg.Height)
		}
		return a, nil

	case tea.KeyMsg:
		return a.updateKey(msg)

	case DataLoadedMsg:
		a.loaded = true
		a.loadTime = msg.LoadTime
		a.lastRefresh = a.opts.Now()
		if msg.Err != nil {
			a.lastErr = msg.Err.Error()
			a.log.Error().Err(msg.Err).Msg("loading transactions")
		}
		a.inputs = msg.Inputs
		a.recompute()

		if a.setupVals != nil {
			a.setupForm = NewSetupForm(a.setupVals)
			if a.width > 0 {
				a.setupForm = a.setupForm.WithWidth(a.width).WithHeight(a.height)
			}
			return a, a.setupForm.Init()
		}
		return a, nil

	case ProgressMsg:
		a.progress = msg.Current
		a.progressMax = msg.Total
		return a, waitForLoadMsg(a.loadSub)

	case RefreshDataMsg:
		a.refreshing = false
		a.lastRefresh = a.opts.Now()
		if msg.Err != nil {
			a.lastErr = msg.Err.Error()
			return a, nil
		}
		a.lastErr = ""
		a.inputs = msg.Inputs
		a.loadTime = msg.LoadTime
		// History changed, so cached forecasts and reports are stale, and
		// so is anything still in flight.
		a.tracker.Invalidate()
		a.anomalyTracker.Invalidate()
		a.fetching = false
		a.anomalyFetching = false
		a.forecasts = make(map[model.Period]model.Forecast)
		a.anomalies = make(map[model.Period]model.AnomalyReport)
		a.recompute()
		var cmds []tea.Cmd
		if a.showPredictions {
			var cmd tea.Cmd
			a, cmd = a.requestForecast()
			cmds = append(cmds, cmd)
		}
		if a.showAnomalies {
			var cmd tea.Cmd
			a, cmd = a.requestAnomalies()
			cmds = append(cmds, cmd)
		}
		return a, tea.Batch(cmds...)

	case ForecastMsg:
		if !a.tracker.Current(msg.Token) {
			a.log.Debug().Uint64("token", uint64(msg.Token)).Msg("discarding stale forecast")
			return a, nil
		}
		a.fetching = false
		if msg.Err != nil {
			// Leave the view as it was before the toggle.
			a.showPredictions = false
			a.lastErr = "forecast: " + msg.Err.Error()
			a.rebuildSeries()
			return a, nil
		}
		a.forecasts[msg.Period] = msg.Forecast
		a.rebuildSeries()
		return a, nil

	case AnomalyMsg:
		if !a.anomalyTracker.Current(msg.Token) {
			a.log.Debug().Uint64("token", uint64(msg.Token)).Msg("discarding stale anomaly report")
			return a, nil
		}
		a.anomalyFetching = false
		if msg.Err != nil {
			a.lastErr = "anomalies: " + msg.Err.Error()
			return a, nil
		}
		a.anomalies[msg.Period] = msg.Report
		return a, nil

	case spinner.TickMsg:
		if !a.loaded || a.fetching || a.anomalyFetching {
			var cmd tea.Cmd
			a.spinner, cmd = a.spinner.Update(msg)
			return a, cmd
		}
		return a, nil

	case tickMsg:
		cmds := []tea.Cmd{tickCmd()}
		if a.loaded && a.autoRefresh && !a.refreshing && a.setupForm == nil {
			if a.opts.Now().Sub(a.lastRefresh) >= a.refreshInterval {
				a.refreshing = true
				cmds = append(cmds, refreshDataCmd(a.opts.Load))
			}
		}
		return a, tea.Batch(cmds...)
	}

	if a.setupForm != nil {
		return a.updateSetupForm(msg)
	}
	return a, nil
}

func (a App) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if key == "ctrl+c" {
		return a, tea.Quit
	}
	if !a.loaded {
		return a, nil
	}
	if a.setupForm != nil {
		return a.updateSetupForm(msg)
	}

	if key == "?" {
		a.showHelp = !a.showHelp
		return a, nil
	}
	if a.showHelp {
		a.showHelp = false
		return a, nil
	}

	switch key {
	case "q":
		return a, tea.Quit
	case "g":
		a.graphMode = a.graphMode.Toggle()
		a.rebuildSeries()
		return a, nil
	case "p":
		return a.togglePredictions()
	case "a":
		return a.toggleAnomalies()
	case "r":
		if a.refreshing {
			return a, nil
		}
		a.refreshing = true
		return a, refreshDataCmd(a.opts.Load)
	case "R":
		a.autoRefresh = !a.autoRefresh
		return a, nil
	case "left", "shift+tab":
		return a.selectTab((a.activeTab - 1 + len(components.Tabs)) % len(components.Tabs))
	case "right", "tab":
		return a.selectTab((a.activeTab + 1) % len(components.Tabs))
	}

	if r := []rune(key); len(r) == 1 {
		if idx := components.TabIdxByKey(r[0]); idx >= 0 {
			return a.selectTab(idx)
		}
	}
	return a, nil
}

// selectTab switches the displayed period. Missing forecasts or reports for
// the new period are fetched if their view is on.
func (a App) selectTab(idx int) (App, tea.Cmd) {
	if idx == a.activeTab {
		return a, nil
	}
	a.activeTab = idx
	a.rebuildSeries()

	var cmds []tea.Cmd
	if a.showPredictions {
		if _, ok := a.forecasts[a.period()]; !ok {
			var cmd tea.Cmd
			a, cmd = a.requestForecast()
			cmds = append(cmds, cmd)
		}
	}
	if a.showAnomalies {
		if _, ok := a.anomalies[a.period()]; !ok {
			var cmd tea.Cmd
			a, cmd = a.requestAnomalies()
			cmds = append(cmds, cmd)
		}
	}
	return a, tea.Batch(cmds...)
}

// togglePredictions flips showPredictions. Turning it on requests a
// forecast for the active period; turning it off retires any request in
// flight and drops the spliced tail.
func (a App) togglePredictions() (App, tea.Cmd) {
	if a.showPredictions {
		a.showPredictions = false
		a.fetching = false
		a.tracker.Invalidate()
		a.forecasts = make(map[model.Period]model.Forecast)
		a.series = pipeline.Unsplice(a.series)
		return a, nil
	}
	if a.opts.Forecast == nil {
		a.lastErr = "no forecast provider configured"
		return a, nil
	}
	a.showPredictions = true
	return a.requestForecast()
}

func (a App) requestForecast() (App, tea.Cmd) {
	p := a.period()
	if _, ok := a.forecasts[p]; ok {
		a.rebuildSeries()
		return a, nil
	}
	days := a.opts.ForecastDays
	if days <= 0 {
		days = forecast.DaysFor(p)
	}
	req := forecast.Request{
		UserID:    a.inputs.UserID,
		AccountID: a.inputs.AccountID,
		History:   a.summaries[p].Buckets,
		Days:      days,
	}
	tok := a.tracker.Begin()
	a.fetching = true
	return a, tea.Batch(fetchForecastCmd(a.opts.Forecast, tok, p, req), a.spinner.Tick)
}

func (a App) toggleAnomalies() (App, tea.Cmd) {
	if a.showAnomalies {
		a.showAnomalies = false
		a.anomalyFetching = false
		a.anomalyTracker.Invalidate()
		return a, nil
	}
	if a.opts.Anomalies == nil {
		a.lastErr = "no anomaly detector configured"
		return a, nil
	}
	a.showAnomalies = true
	if _, ok := a.anomalies[a.period()]; ok {
		return a, nil
	}
	return a.requestAnomalies()
}

func (a App) requestAnomalies() (App, tea.Cmd) {
	p := a.period()
	req := anomaly.Request{
		AccountID:    a.inputs.AccountID,
		Window:       model.WindowFor(p, a.today()),
		Transactions: a.inputs.Transactions,
	}
	tok := a.anomalyTracker.Begin()
	a.anomalyFetching = true
	return a, tea.Batch(fetchAnomaliesCmd(a.opts.Anomalies, tok, p, req), a.spinner.Tick)
}

func (a App) updateSetupForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := a.setupForm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.setupForm = f
	}

	switch a.setupForm.State {
	case huh.StateCompleted:
		vals := *a.setupVals
		if a.opts.SaveSetup != nil {
			if err := a.opts.SaveSetup(vals); err != nil {
				a.lastErr = "saving config: " + err.Error()
			}
		}
		a.inputs.Budgets = a.inputs.Budgets.Merge(vals.Budgets())
		if p, err := model.ParsePeriod(vals.Period); err == nil {
			a.activeTab = components.TabIdxByPeriod(p)
		}
		if vals.Theme != "" {
			theme.SetActive(vals.Theme)
		}
		a.recompute()
		a.setupForm = nil
		a.setupVals = nil
		return a, nil
	case huh.StateAborted:
		a.setupForm = nil
		a.setupVals = nil
		return a, nil
	}
	return a, cmd
}

type tickMsg struct{}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

// loadDataCmd runs the optional import and the first load in a background
// goroutine. It streams ProgressMsg updates and a final DataLoadedMsg
// through sub.
func loadDataCmd(opts Options, sub chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		go func() {
			start := time.Now()

			if opts.Import != nil {
				// Non-blocking send so the importer is never stalled; the
				// next update catches up.
				progressFn := func(current, total int) {
					select {
					case sub <- ProgressMsg{Current: current, Total: total}:
					default:
					}
				}
				if _, err := opts.Import(progressFn); err != nil {
					opts.Logger.Warn().Err(err).Msg("import failed")
				}
			}

			ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
			defer cancel()
			in, err := opts.Load(ctx)
			sub <- DataLoadedMsg{Inputs: in, LoadTime: time.Since(start), Err: err}
		}()

		return <-sub
	}
}

// waitForLoadMsg blocks until the next message arrives from the loader goroutine.
func waitForLoadMsg(sub chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return <-sub
	}
}

func refreshDataCmd(load func(context.Context) (pipeline.Inputs, error)) tea.Cmd {
	return func() tea.Msg {
		start := time.Now()
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		in, err := load(ctx)
		return RefreshDataMsg{Inputs: in, LoadTime: time.Since(start), Err: err}
	}
}

func fetchForecastCmd(p forecast.Provider, tok forecast.Token, period model.Period, req forecast.Request) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		fc, err := p.Predict(ctx, req)
		return ForecastMsg{Token: tok, Period: period, Forecast: fc, Err: err}
	}
}

func fetchAnomaliesCmd(d anomaly.Detector, tok forecast.Token, period model.Period, req anomaly.Request) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		rep, err := d.Detect(ctx, req)
		return AnomalyMsg{Token: tok, Period: period, Report: rep, Err: err}
	}
}

// chartDateLabels builds compact X-axis labels for an ascending series.
// The first label and month boundaries show the month; the rest show the day.
func chartDateLabels(series []model.DailyBucket) []string {
	labels := make([]string, len(series))
	prevMonth := time.Month(0)
	for i, b := range series {
		dt, err := time.Parse(model.DateLayout, b.Date)
		if err != nil {
			continue
		}
		if i == 0 || dt.Month() != prevMonth {
			labels[i] = dt.Format("Jan")
		} else {
			labels[i] = strconv.Itoa(dt.Day())
		}
		prevMonth = dt.Month()
	}
	return labels
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
	return s + strings.Repeat("\n", h-len(lines))
}

// fillLinesWithBackground pads each line to width w with background color.
func fillLinesWithBackground(s string, w int, bg lipgloss.Color) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = lipgloss.PlaceHorizontal(w, lipgloss.Left, line,
			lipgloss.WithWhitespaceBackground(bg))
	}
	return strings.Join(lines, "\n")
}

func formatAge(d time.Duration) string {
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	default:
		return fmt.Sprintf("%dh", int(d.Hours()))
	}
}
