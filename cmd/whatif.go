package cmd

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/spendburn/internal/cli"
	"github.com/theirongolddev/spendburn/internal/forecast"
	"github.com/theirongolddev/spendburn/internal/model"
	"github.com/theirongolddev/spendburn/internal/oracle"
	"github.com/theirongolddev/spendburn/internal/pipeline"
)

var (
	flagWhatIfSkip   string
	flagWhatIfNew    string
	flagWhatIfReduce string
	flagWhatIfSeed   int64
)

var whatIfCmd = &cobra.Command{
	Use:   "whatif",
	Short: "Compare the forecast with and without a spending change",
	Example: `  spendburn whatif --skip Travel
  spendburn whatif --reduce "Food and Drink:30" --new Entertainment:10`,
	RunE: runWhatIf,
}

func init() {
	whatIfCmd.Flags().StringVar(&flagWhatIfSkip, "skip", "", "Drop a category entirely")
	whatIfCmd.Flags().StringVar(&flagWhatIfNew, "new", "", "Add spend to a category, CATEGORY:PERCENT")
	whatIfCmd.Flags().StringVar(&flagWhatIfReduce, "reduce", "", "Cut a category, CATEGORY:PERCENT")
	whatIfCmd.Flags().Int64Var(&flagWhatIfSeed, "seed", 0, "Seed for the local simulation (0 = random)")
	rootCmd.AddCommand(whatIfCmd)
}

func runWhatIf(_ *cobra.Command, _ []string) error {
	sc, err := parseScenario(flagWhatIfSkip, flagWhatIfNew, flagWhatIfReduce)
	if err != nil {
		return err
	}
	if !sc.Active() {
		return errors.New("set at least one of --skip, --new or --reduce")
	}

	in, err := loadInputs()
	if err != nil {
		return err
	}
	sum := pipeline.Summarize(in.Transactions, rt.period, in.Budgets, today(), summaryOptions())
	req := forecast.Request{
		UserID:    in.UserID,
		AccountID: in.AccountID,
		History:   sum.Buckets,
		Days:      forecastDays(rt.period),
		Scenario:  sc,
	}

	ctx, cancel := requestContext()
	defer cancel()

	var baseline, adjusted []model.DailyBucket
	source := "oracle"
	client, err := newOracleClient()
	switch {
	case err == nil:
		baseline, adjusted, err = forecast.NewRemote(client).Compare(ctx, req)
		if err != nil {
			return err
		}
	case errors.Is(err, oracle.ErrNotConfigured):
		// Local simulation over the synthetic forecast.
		source = "local simulation"
		fc, err := forecast.NewSynthetic(flagWhatIfSeed).Predict(ctx, req)
		if err != nil {
			return err
		}
		baseline = forecast.Baseline(fc.Transactions)
		adjusted = forecast.ApplyScenario(fc.Transactions, sc)
	default:
		return err
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("WHAT IF  next %d days  (%s)", req.Days, source)))
	fmt.Println()
	fmt.Println(cli.RenderNote(describeScenario(sc)))
	fmt.Println()

	adjByDay := make(map[string]float64, len(adjusted))
	for _, b := range adjusted {
		adjByDay[b.Date] = b.Amount
	}
	rows := make([][]string, 0, len(baseline)+2)
	var totalBase, totalAdj float64
	for _, b := range baseline {
		adj := adjByDay[b.Date]
		totalBase += b.Amount
		totalAdj += adj
		rows = append(rows, []string{cli.FormatDay(b.Date), cli.FormatMoney(b.Amount), cli.FormatMoney(adj), cli.FormatDelta(adj, b.Amount)})
	}
	rows = append(rows,
		[]string{cli.Separator},
		[]string{"Total", cli.FormatMoney(totalBase), cli.FormatMoney(totalAdj), cli.FormatDelta(totalAdj, totalBase)},
	)
	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Date", "Without", "With", "Change"},
		Rows:    rows,
	}))
	return nil
}

// parseScenario builds a scenario from the flag values. Percentages are
// whole numbers clamped to 0-100.
func parseScenario(skip, add, reduce string) (model.Scenario, error) {
	var sc model.Scenario
	if s := strings.TrimSpace(skip); s != "" {
		sc.SkipExpense = &model.Adjustment{Category: s}
	}
	if add != "" {
		a, err := parseAdjustment(add)
		if err != nil {
			return sc, fmt.Errorf("--new: %w", err)
		}
		sc.NewExpense = &a
	}
	if reduce != "" {
		a, err := parseAdjustment(reduce)
		if err != nil {
			return sc, fmt.Errorf("--reduce: %w", err)
		}
		sc.ReduceExpense = &a
	}
	return sc, nil
}

func parseAdjustment(s string) (model.Adjustment, error) {
	i := strings.LastIndex(s, ":")
	if i <= 0 {
		return model.Adjustment{}, fmt.Errorf("want CATEGORY:PERCENT, got %q", s)
	}
	pct, err := strconv.Atoi(strings.TrimSuffix(strings.TrimSpace(s[i+1:]), "%"))
	if err != nil {
		return model.Adjustment{}, fmt.Errorf("bad percent in %q", s)
	}
	return model.Adjustment{
		Category: strings.TrimSpace(s[:i]),
		Percent:  model.PercentFromWhole(pct),
	}, nil
}

func describeScenario(sc model.Scenario) string {
	var parts []string
	if a := sc.SkipExpense; a != nil {
		parts = append(parts, "skip "+a.Category)
	}
	if a := sc.ReduceExpense; a != nil {
		parts = append(parts, fmt.Sprintf("reduce %s by %.0f%%", a.Category, a.Percent*100))
	}
	if a := sc.NewExpense; a != nil {
		parts = append(parts, fmt.Sprintf("add %.0f%% to %s", a.Percent*100, a.Category))
	}
	return strings.Join(parts, ", ")
}
