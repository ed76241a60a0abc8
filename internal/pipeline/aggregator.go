package pipeline

import (
	"time"

	"github.com/theirongolddev/spendburn/internal/model"
)

// AggregateDays buckets transactions by calendar day over w, ascending, with one
// bucket per day including zero-spend days. Each bucket carries the running total.
// Transactions outside w or with unparseable dates are ignored.
func AggregateDays(txs []model.Transaction, w model.Window, loc *time.Location, conv model.SignConvention) []model.DailyBucket {
	n := w.Days()
	if n == 0 {
		return nil
	}

	byDay := make(map[string]float64, n)
	for _, tx := range txs {
		day, err := model.ParseDate(tx.Date, loc)
		if err != nil || !w.Contains(day) {
			continue
		}
		byDay[day.Format(model.DateLayout)] += conv.Apply(tx.Amount)
	}

	buckets := make([]model.DailyBucket, 0, n)
	var running float64
	for d := w.Start; !d.After(w.End); d = d.AddDate(0, 0, 1) {
		key := d.Format(model.DateLayout)
		amount := byDay[key]
		running += amount
		buckets = append(buckets, model.DailyBucket{
			Date:       key,
			Amount:     amount,
			Cumulative: running,
		})
	}
	return buckets
}

// Total sums the amounts of the non-predicted buckets.
func Total(buckets []model.DailyBucket) float64 {
	var total float64
	for _, b := range buckets {
		if !b.Predicted {
			total += b.Amount
		}
	}
	return total
}

// CountActual returns the number of non-predicted buckets.
func CountActual(buckets []model.DailyBucket) int {
	n := 0
	for _, b := range buckets {
		if !b.Predicted {
			n++
		}
	}
	return n
}
