package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/spendburn/internal/anomaly"
	"github.com/theirongolddev/spendburn/internal/cli"
	"github.com/theirongolddev/spendburn/internal/model"
)

var flagAnomaliesLocal bool

var anomaliesCmd = &cobra.Command{
	Use:   "anomalies",
	Short: "Unusually high or low transactions in the period",
	RunE:  runAnomalies,
}

func init() {
	anomaliesCmd.Flags().BoolVar(&flagAnomaliesLocal, "local", false, "Use the local IQR detector even when an oracle is configured")
	rootCmd.AddCommand(anomaliesCmd)
}

func runAnomalies(_ *cobra.Command, _ []string) error {
	in, err := loadInputs()
	if err != nil {
		return err
	}

	w := model.WindowFor(rt.period, today())
	ctx, cancel := requestContext()
	defer cancel()

	rep, err := newDetector(flagAnomaliesLocal).Detect(ctx, anomaly.Request{
		AccountID:    in.AccountID,
		Window:       w,
		Transactions: in.Transactions,
	})
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("%s ANOMALIES  %s", rt.period.Title(), w)))
	fmt.Println()

	if rep.Empty() {
		fmt.Println("  No anomalies found.")
		return nil
	}
	if len(rep.High) > 0 {
		fmt.Print(anomalyTable("High spending", rep.High))
		fmt.Println()
	}
	if len(rep.Low) > 0 {
		fmt.Print(anomalyTable("Low spending", rep.Low))
	}
	return nil
}

func anomalyTable(title string, list []model.Anomaly) string {
	rows := make([][]string, 0, len(list))
	for _, a := range list {
		rows = append(rows, []string{
			cli.FormatDay(a.Date),
			a.TransactionID,
			cli.FormatMoney(a.Amount),
			cli.FormatMoney(a.NormalRange[0]) + " - " + cli.FormatMoney(a.NormalRange[1]),
			fmt.Sprintf("%+.1f%%", a.PercentDeviation),
		})
	}
	return cli.RenderTable(cli.Table{
		Title:   title,
		Headers: []string{"Date", "Transaction", "Amount", "Normal range", "Deviation"},
		Rows:    rows,
	})
}
