package pipeline

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/theirongolddev/spendburn/internal/model"
)

// Options carries the explicit context every recomputation needs.
type Options struct {
	Location *time.Location
	Sign     model.SignConvention
	Logger   zerolog.Logger
}

// Summarize runs filter, aggregation and budget evaluation for one period
// ending on today. It is a pure function of its inputs.
func Summarize(txs []model.Transaction, p model.Period, budgets model.Budgets, today time.Time, opts Options) model.PeriodSummary {
	w := model.WindowFor(p, model.DayOf(today, opts.Location))
	return SummarizeWindow(txs, p, w, budgets.For(p), opts)
}

// SummarizeWindow is Summarize over an explicit window and budget.
func SummarizeWindow(txs []model.Transaction, p model.Period, w model.Window, budget float64, opts Options) model.PeriodSummary {
	filtered := FilterByWindow(txs, w, opts.Location, opts.Logger)
	buckets := AggregateDays(filtered.Kept, w, opts.Location, opts.Sign)
	total := Total(buckets)

	return model.PeriodSummary{
		Period:       p,
		Start:        w.Start.Format(model.DateLayout),
		End:          w.End.Format(model.DateLayout),
		Buckets:      buckets,
		Total:        total,
		Status:       EvaluateBudget(total, budget, len(buckets)),
		Transactions: len(filtered.Kept),
		Dropped:      filtered.Dropped,
		TopCategory:  TopCategory(filtered.Kept, opts.Sign),
	}
}

// SummarizeAll summarizes every period.
func SummarizeAll(txs []model.Transaction, budgets model.Budgets, today time.Time, opts Options) []model.PeriodSummary {
	out := make([]model.PeriodSummary, 0, len(model.Periods))
	for _, p := range model.Periods {
		out = append(out, Summarize(txs, p, budgets, today, opts))
	}
	return out
}
