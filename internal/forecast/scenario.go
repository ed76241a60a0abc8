package forecast

import (
	"strings"

	"github.com/theirongolddev/spendburn/internal/model"
	"github.com/theirongolddev/spendburn/internal/pipeline"
)

// ApplyScenario runs a what-if over predicted transactions and returns the
// adjusted daily series. Skip zeroes the category, reduce scales it by
// (1 - percent) and new adds percent of the category's spend on top. A
// skipped category stays at zero whatever else names it.
// Adjustments match on the display form of the top-level category.
func ApplyScenario(txs []model.Transaction, sc model.Scenario) []model.DailyBucket {
	adjusted := make([]model.Transaction, 0, len(txs))
	for _, tx := range txs {
		if a := sc.SkipExpense; a != nil && sameCategory(tx.Category, a.Category) {
			tx.Amount = 0
			adjusted = append(adjusted, tx)
			continue
		}
		amount := tx.Amount
		if a := sc.ReduceExpense; a != nil && sameCategory(tx.Category, a.Category) {
			amount *= 1 - clampFraction(a.Percent)
		}
		if a := sc.NewExpense; a != nil && sameCategory(tx.Category, a.Category) {
			amount += tx.Amount * clampFraction(a.Percent)
		}
		tx.Amount = amount
		adjusted = append(adjusted, tx)
	}
	return dailyFromTransactions(adjusted)
}

// Baseline returns the unadjusted daily series for predicted transactions.
func Baseline(txs []model.Transaction) []model.DailyBucket {
	return dailyFromTransactions(txs)
}

func sameCategory(a, b string) bool {
	return strings.EqualFold(
		pipeline.FormatCategory(pipeline.TopLevelCategory(a)),
		pipeline.FormatCategory(pipeline.TopLevelCategory(b)),
	)
}

func clampFraction(p float64) float64 {
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}
