package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/spendburn/internal/anomaly"
	"github.com/theirongolddev/spendburn/internal/config"
	"github.com/theirongolddev/spendburn/internal/forecast"
	"github.com/theirongolddev/spendburn/internal/logger"
	"github.com/theirongolddev/spendburn/internal/model"
	"github.com/theirongolddev/spendburn/internal/oracle"
	"github.com/theirongolddev/spendburn/internal/pipeline"
	"github.com/theirongolddev/spendburn/internal/store"
)

// version is set at build time with -ldflags "-X ...cmd.version=...".
var version = "dev"

var (
	flagUser     string
	flagAccount  string
	flagDB       string
	flagPeriod   string
	flagSign     string
	flagQuiet    bool
	flagLogLevel string
)

// runEnv is the resolved configuration shared by every command.
type runEnv struct {
	cfg    config.Config
	log    zerolog.Logger
	loc    *time.Location
	sign   model.SignConvention
	period model.Period
	scope  pipeline.Scope
	dbPath string
	flush  func()
}

var rt runEnv

var rootCmd = &cobra.Command{
	Use:               "spendburn",
	Short:             "Spending vs budget from your bank exports",
	Long:              "Track rolling weekly, biweekly and monthly spending against budgets, with forecasts and anomaly detection.",
	SilenceUsage:      true,
	PersistentPreRunE: initRuntime,
	PersistentPostRun: func(*cobra.Command, []string) {
		if rt.flush != nil {
			rt.flush()
		}
	},
	RunE: runSummary,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagUser, "user", "u", "", "User id (default from config)")
	rootCmd.PersistentFlags().StringVar(&flagAccount, "account", "", "Account id, overrides the user's linked account")
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "Transaction database path (default "+pipeline.StorePath()+")")
	rootCmd.PersistentFlags().StringVarP(&flagPeriod, "period", "p", "", "Budget period: weekly, biweekly or monthly")
	rootCmd.PersistentFlags().StringVar(&flagSign, "sign", "", "Sign convention: positive_spend, negative_spend or absolute")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress progress output")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn, error")
}

func initRuntime(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	level := cfg.Logging.Level
	if flagLogLevel != "" {
		level = flagLogLevel
	}
	log := logger.New(logger.ParseLevel(level)).With().Str("cmd", cmd.Name()).Logger()

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	sign, err := cfg.Sign()
	if flagSign != "" {
		sign, err = model.ParseSignConvention(flagSign)
	}
	if err != nil {
		return err
	}

	period := cfg.Period()
	if flagPeriod != "" {
		if period, err = model.ParsePeriod(flagPeriod); err != nil {
			return err
		}
	}

	scope := pipeline.Scope{
		UserID:    cfg.General.UserID,
		AccountID: cfg.General.AccountID,
		Budgets:   cfg.Budget,
	}
	if flagUser != "" {
		scope.UserID = flagUser
	}
	if flagAccount != "" {
		scope.AccountID = flagAccount
	}

	dbPath := pipeline.StorePath()
	if flagDB != "" {
		dbPath = flagDB
	}

	rt = runEnv{
		cfg:    cfg,
		log:    log,
		loc:    loc,
		sign:   sign,
		period: period,
		scope:  scope,
		dbPath: dbPath,
		flush:  logger.InitSentry(config.SentryDSN(cfg), cfg.Telemetry.Environment, version, log),
	}
	return nil
}

// openStore opens the transaction database.
func openStore() (*store.Store, error) {
	return store.Open(rt.dbPath)
}

// loadInputs is the shared data loading path used by all commands.
func loadInputs() (pipeline.Inputs, error) {
	st, err := openStore()
	if err != nil {
		return pipeline.Inputs{}, err
	}
	defer func() { _ = st.Close() }()

	in, err := pipeline.LoadInputs(st, rt.scope)
	if err != nil {
		return in, err
	}
	if !flagQuiet && len(in.Transactions) == 0 {
		fmt.Fprintf(os.Stderr, "  No transactions found. Run `spendburn import` first.\n")
	}
	return in, nil
}

func summaryOptions() pipeline.Options {
	return pipeline.Options{Location: rt.loc, Sign: rt.sign, Logger: rt.log}
}

func today() time.Time {
	return model.DayOf(time.Now(), rt.loc)
}

// newOracleClient builds the external service client. It returns
// oracle.ErrNotConfigured when no base URL is set.
func newOracleClient() (*oracle.Client, error) {
	c := rt.cfg.Oracle
	return oracle.New(oracle.Options{
		BaseURL:      config.OracleURL(rt.cfg),
		APIKey:       config.OracleKey(rt.cfg),
		Timeout:      time.Duration(c.TimeoutSec) * time.Second,
		MaxRetries:   c.MaxRetries,
		Logger:       rt.log,
		ReportErrors: config.SentryDSN(rt.cfg) != "",
	})
}

// newProvider resolves the forecast provider. An empty kind uses the config.
// A remote provider without a configured oracle falls back to synthetic.
// Errors are returned to the caller; wrap with forecast.Safe where a failed
// forecast should degrade to actual spending only.
func newProvider(kind string, seed int64) (forecast.Provider, string, error) {
	if kind == "" {
		kind = rt.cfg.Forecast.Provider
	}
	if seed == 0 {
		seed = rt.cfg.Forecast.Seed
	}
	k, err := forecast.ParseProvider(kind)
	if err != nil {
		return nil, "", err
	}

	if k == forecast.KindRemote {
		client, err := newOracleClient()
		switch {
		case err == nil:
			return forecast.NewRemote(client), string(forecast.KindRemote), nil
		case errors.Is(err, oracle.ErrNotConfigured):
			rt.log.Warn().Msg("oracle not configured, using synthetic forecast")
		default:
			return nil, "", err
		}
	}
	return forecast.NewSynthetic(seed), string(forecast.KindSynthetic), nil
}

// newDetector returns the remote detector when an oracle is configured and
// local is false, else the local IQR detector. Remote errors are returned
// to the caller.
func newDetector(local bool) anomaly.Detector {
	iqr := anomaly.IQR{Location: rt.loc, Sign: rt.sign}
	if local {
		return iqr
	}
	client, err := newOracleClient()
	if err != nil {
		return iqr
	}
	return anomaly.NewRemote(client)
}

// forecastDays returns the configured horizon or the period default.
func forecastDays(p model.Period) int {
	if d := rt.cfg.Forecast.Days; d > 0 {
		return d
	}
	return forecast.DaysFor(p)
}

// requestTimeout covers one oracle call including its retries.
func requestTimeout() time.Duration {
	return time.Duration(rt.cfg.Oracle.TimeoutSec)*time.Second*time.Duration(max(rt.cfg.Oracle.MaxRetries, 0)+1) + 5*time.Second
}

func requestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), requestTimeout())
}
