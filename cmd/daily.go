package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/spendburn/internal/cli"
	"github.com/theirongolddev/spendburn/internal/forecast"
	"github.com/theirongolddev/spendburn/internal/model"
	"github.com/theirongolddev/spendburn/internal/pipeline"
)

var (
	flagDailyMode    string
	flagDailyPredict bool
)

var dailyCmd = &cobra.Command{
	Use:   "daily",
	Short: "Day-by-day spending for the period",
	RunE:  runDaily,
}

func init() {
	dailyCmd.Flags().StringVar(&flagDailyMode, "mode", "", "Graph mode: daily or cumulative (default from config)")
	dailyCmd.Flags().BoolVar(&flagDailyPredict, "predict", false, "Append the forecast for the next period")
	rootCmd.AddCommand(dailyCmd)
}

func runDaily(_ *cobra.Command, _ []string) error {
	mode := rt.cfg.GraphMode()
	if flagDailyMode != "" {
		var err error
		if mode, err = model.ParseGraphMode(flagDailyMode); err != nil {
			return err
		}
	}

	in, err := loadInputs()
	if err != nil {
		return err
	}
	sum := pipeline.Summarize(in.Transactions, rt.period, in.Budgets, today(), summaryOptions())

	series := sum.Buckets
	source := ""
	if flagDailyPredict {
		series, source, err = spliceForecast(in, sum, mode, "", 0)
		if err != nil {
			return err
		}
	}

	title := fmt.Sprintf("%s SPENDING  %s - %s", sum.Period.Title(), cli.FormatShortDay(sum.Start), cli.FormatShortDay(sum.End))
	fmt.Println()
	fmt.Println(cli.RenderTitle(title))
	fmt.Println()
	fmt.Print(renderSeries(series, mode))

	fmt.Println()
	fmt.Printf("  Total %s of %s  %s\n",
		cli.FormatMoney(sum.Status.Total), cli.FormatMoney(sum.Status.Budget),
		cli.RenderBudgetBar(sum.Status.Percentage, 20))
	if source != "" {
		fmt.Println(cli.RenderNote("Predicted rows from the " + source + " forecast"))
	}
	return nil
}

// spliceForecast fetches a forecast continuing sum and splices it on.
func spliceForecast(in pipeline.Inputs, sum model.PeriodSummary, mode model.GraphMode, kind string, seed int64) ([]model.DailyBucket, string, error) {
	provider, source, err := newProvider(kind, seed)
	if err != nil {
		return nil, "", err
	}
	ctx, cancel := requestContext()
	defer cancel()

	fc, err := forecast.Safe(provider, rt.log).Predict(ctx, forecast.Request{
		UserID:    in.UserID,
		AccountID: in.AccountID,
		History:   sum.Buckets,
		Days:      forecastDays(sum.Period),
	})
	if err != nil {
		return nil, "", err
	}
	if fc.Source != "" {
		source = fc.Source
	}
	return pipeline.Splice(sum.Buckets, fc.Daily, mode), source, nil
}

// renderSeries prints a bucket table. Predicted rows are muted.
func renderSeries(series []model.DailyBucket, mode model.GraphMode) string {
	rows := make([][]string, 0, len(series))
	muted := make(map[int]bool)
	for i, b := range series {
		day := cli.FormatDay(b.Date)
		if b.Predicted {
			day += " *"
			muted[i] = true
		}
		rows = append(rows, []string{day, cli.FormatMoney(b.Amount), cli.FormatMoney(b.Cumulative)})
	}

	values := make([]float64, len(series))
	for i, b := range series {
		if mode == model.Cumulative {
			values[i] = b.Cumulative
		} else {
			values[i] = b.Amount
		}
	}

	return cli.RenderTable(cli.Table{
		Headers: []string{"Date", "Spent", "Cumulative"},
		Rows:    rows,
		Muted:   muted,
	}) + "\n  " + cli.RenderSparkline(values) + "  (" + string(mode) + ")\n"
}
