package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/spendburn/internal/cli"
	"github.com/theirongolddev/spendburn/internal/pipeline"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Spending vs budget for every period",
	RunE:  runSummary,
}

func init() {
	rootCmd.AddCommand(summaryCmd)
}

func runSummary(_ *cobra.Command, _ []string) error {
	in, err := loadInputs()
	if err != nil {
		return err
	}

	summaries := pipeline.SummarizeAll(in.Transactions, in.Budgets, today(), summaryOptions())

	title := "SPENDING"
	if in.UserID != "" {
		title += "  " + in.UserID
	}
	fmt.Println()
	fmt.Println(cli.RenderTitle(title))
	fmt.Println()

	rows := make([][]string, 0, len(summaries))
	dropped := 0
	for _, s := range summaries {
		st := s.Status
		remaining := cli.FormatMoney(st.Remaining)
		if st.Over {
			remaining = cli.FormatMoney(st.Total-st.Budget) + " over"
		}
		top := s.TopCategory
		if top == "" {
			top = "-"
		}
		rows = append(rows, []string{
			s.Period.Title(),
			cli.FormatShortDay(s.Start) + " - " + cli.FormatShortDay(s.End),
			cli.FormatMoney(st.Total),
			cli.FormatMoney(st.Budget),
			cli.RenderBudgetBar(st.Percentage, 12),
			remaining,
			cli.FormatMoney(st.AveragePerDay),
			top,
		})
		dropped = max(dropped, s.Dropped)
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Period", "Window", "Spent", "Budget", "Used", "Remaining", "Avg/day", "Top category"},
		Rows:    rows,
	}))

	if dropped > 0 {
		fmt.Fprintf(os.Stderr, "\n  %d transactions skipped (unparseable dates)\n", dropped)
	}
	return nil
}
