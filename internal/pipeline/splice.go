package pipeline

import (
	"sort"

	"github.com/theirongolddev/spendburn/internal/model"
)

// Splice appends the predicted buckets dated strictly after the last actual
// bucket and flags them as predicted. In cumulative mode the predicted segment
// continues from the last actual cumulative value. Neither input is modified.
func Splice(actual, predicted []model.DailyBucket, mode model.GraphMode) []model.DailyBucket {
	out := make([]model.DailyBucket, len(actual), len(actual)+len(predicted))
	copy(out, actual)

	var lastDate string
	var running float64
	if len(actual) > 0 {
		last := actual[len(actual)-1]
		lastDate = last.Date
		running = last.Cumulative
	}

	tail := make([]model.DailyBucket, len(predicted))
	copy(tail, predicted)
	sort.SliceStable(tail, func(i, j int) bool { return tail[i].Date < tail[j].Date })

	for _, p := range tail {
		// Dates are YYYY-MM-DD so lexical order is chronological.
		if lastDate != "" && p.Date <= lastDate {
			continue
		}
		p.Predicted = true
		if mode == model.Cumulative {
			running += p.Amount
			p.Cumulative = running
		}
		out = append(out, p)
		lastDate = p.Date
	}
	return out
}

// Unsplice drops the predicted tail, returning the actual series.
func Unsplice(series []model.DailyBucket) []model.DailyBucket {
	out := make([]model.DailyBucket, 0, len(series))
	for _, b := range series {
		if !b.Predicted {
			out = append(out, b)
		}
	}
	return out
}
