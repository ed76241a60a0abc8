package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/spendburn/internal/config"
	"github.com/theirongolddev/spendburn/internal/daemon"
	"github.com/theirongolddev/spendburn/internal/logger"
	"github.com/theirongolddev/spendburn/internal/pipeline"
	"github.com/theirongolddev/spendburn/internal/tui"
	"github.com/theirongolddev/spendburn/internal/tui/theme"
)

var (
	flagTUIImport bool
	flagTUISeed   int64
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch interactive TUI dashboard",
	RunE:  runTUI,
}

func init() {
	tuiCmd.Flags().BoolVar(&flagTUIImport, "import", false, "Import new exports from the import dir before loading")
	tuiCmd.Flags().Int64Var(&flagTUISeed, "seed", 0, "Seed for the synthetic forecast (0 = random)")
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(_ *cobra.Command, _ []string) error {
	theme.SetActive(rt.cfg.Appearance.Theme)

	// Force TrueColor profile so all background styling produces ANSI codes
	// Without this, lipgloss may default to Ascii profile (no colors)
	lipgloss.SetColorProfile(termenv.TrueColor)

	log, closeLog := tuiLogger()
	defer closeLog()

	provider, kind, err := newProvider("", flagTUISeed)
	if err != nil {
		return err
	}

	src := daemon.StoreSource{Path: rt.dbPath, Scope: rt.scope}
	opts := tui.Options{
		Load:            src.Load,
		Forecast:        provider,
		ForecastSource:  kind,
		ForecastDays:    rt.cfg.Forecast.Days,
		Anomalies:       newDetector(false),
		Location:        rt.loc,
		Sign:            rt.sign,
		Period:          rt.period,
		GraphMode:       rt.cfg.GraphMode(),
		AutoRefresh:     rt.cfg.TUI.AutoRefresh,
		RefreshInterval: time.Duration(rt.cfg.TUI.RefreshIntervalSec) * time.Second,
		Logger:          log,
	}
	if flagTUIImport || rt.cfg.General.ImportDir != "" {
		dir := importDir(nil)
		opts.Import = func(progress pipeline.ProgressFunc) (*pipeline.ImportResult, error) {
			st, err := openStore()
			if err != nil {
				return nil, err
			}
			defer func() { _ = st.Close() }()
			return pipeline.Import(dir, st, importDefaults(), progress)
		}
	}
	if !config.Exists() {
		vals := tui.SetupValuesFrom(rt.cfg)
		opts.Setup = &vals
		opts.SaveSetup = func(v tui.SetupValues) error {
			cfg := rt.cfg
			v.Apply(&cfg)
			if err := config.Save(cfg); err != nil {
				return err
			}
			rt.cfg = cfg
			return nil
		}
	}

	p := tea.NewProgram(tui.NewApp(opts), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}

// tuiLogger writes to a file while the alternate screen owns the terminal.
func tuiLogger() (zerolog.Logger, func()) {
	path := filepath.Join(pipeline.DataDir(), "tui.log")
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return zerolog.Nop(), func() {}
	}
	//nolint:gosec // log path is under the user's data dir
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o600)
	if err != nil {
		return zerolog.Nop(), func() {}
	}
	level := rt.log.GetLevel()
	return logger.NewWithWriter(f).Level(level), func() { _ = f.Close() }
}
