package pipeline

import (
	"math"

	"github.com/theirongolddev/spendburn/internal/model"
)

// EvaluateBudget derives budget progress for total spend against budget over
// bucketCount days. Percentage is clamped to [0, 100]. A budget that is not a
// positive finite number yields 0% and no remaining amount.
func EvaluateBudget(total, budget float64, bucketCount int) model.BudgetStatus {
	st := model.BudgetStatus{
		Budget: budget,
		Total:  total,
	}
	if bucketCount > 0 {
		st.AveragePerDay = total / float64(bucketCount)
	}

	if budget <= 0 || math.IsNaN(budget) || math.IsInf(budget, 0) || math.IsNaN(total) {
		return st
	}

	ratio := math.Min(total/budget, 1)
	if ratio < 0 {
		ratio = 0
	}
	st.Percentage = int(math.Round(ratio * 100))
	st.Remaining = math.Max(budget-total, 0)
	st.Over = total > budget
	return st
}
