package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/spendburn/internal/cli"
	"github.com/theirongolddev/spendburn/internal/model"
	"github.com/theirongolddev/spendburn/internal/pipeline"
)

var flagCategoriesTop int

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "Spending by top-level category",
	RunE:  runCategories,
}

func init() {
	categoriesCmd.Flags().IntVarP(&flagCategoriesTop, "top", "n", 10, "Show the top N categories (0 = all)")
	rootCmd.AddCommand(categoriesCmd)
}

func runCategories(_ *cobra.Command, _ []string) error {
	in, err := loadInputs()
	if err != nil {
		return err
	}

	w := model.WindowFor(rt.period, today())
	kept := pipeline.FilterByWindow(in.Transactions, w, rt.loc, rt.log).Kept
	cats := pipeline.AggregateCategories(kept, rt.sign)
	if flagCategoriesTop > 0 {
		cats = pipeline.LimitCategories(cats, flagCategoriesTop)
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("%s CATEGORIES  %s", rt.period.Title(), w)))
	fmt.Println()

	if len(cats) == 0 {
		fmt.Println("  No spending in this period.")
		return nil
	}

	labelW := 0
	for _, c := range cats {
		labelW = max(labelW, len(c.Category))
	}
	peak := cats[0].Total
	for _, c := range cats {
		fmt.Printf("%s  %s\n",
			cli.RenderHorizontalBar(c.Category, c.Total, peak, labelW, 30),
			cli.FormatShare(c.SharePercent))
	}
	return nil
}
