package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/spendburn/internal/cli"
	"github.com/theirongolddev/spendburn/internal/pipeline"
)

var (
	flagForecastProvider string
	flagForecastSeed     int64
)

var forecastCmd = &cobra.Command{
	Use:   "forecast",
	Short: "Actual spending with the predicted continuation",
	Long: "Splices a forecast onto the period's cumulative series. The synthetic " +
		"provider is a demo generator, not a statistical model.",
	RunE: runForecast,
}

func init() {
	forecastCmd.Flags().StringVar(&flagForecastProvider, "provider", "", "Forecast provider: synthetic or remote (default from config)")
	forecastCmd.Flags().Int64Var(&flagForecastSeed, "seed", 0, "Seed for the synthetic provider (0 = random)")
	rootCmd.AddCommand(forecastCmd)
}

func runForecast(_ *cobra.Command, _ []string) error {
	in, err := loadInputs()
	if err != nil {
		return err
	}
	mode := rt.cfg.GraphMode()
	sum := pipeline.Summarize(in.Transactions, rt.period, in.Budgets, today(), summaryOptions())

	series, source, err := spliceForecast(in, sum, mode, flagForecastProvider, flagForecastSeed)
	if err != nil {
		return err
	}

	predicted := len(series) - len(sum.Buckets)
	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("%s FORECAST  %s", sum.Period.Title(), source)))
	fmt.Println()
	fmt.Print(renderSeries(series, mode))
	fmt.Println()

	if predicted == 0 {
		fmt.Println(cli.RenderNote("Forecast unavailable; showing actual spending only"))
		return nil
	}
	projected := sum.Status.Total
	for _, b := range series[len(sum.Buckets):] {
		projected += b.Amount
	}
	fmt.Printf("  Projected by %s: %s (budget %s)\n",
		cli.FormatDay(series[len(series)-1].Date), cli.FormatMoney(projected), cli.FormatMoney(sum.Status.Budget))
	return nil
}
