package oracle

import (
	"sort"
	"time"

	"github.com/theirongolddev/spendburn/internal/model"
)

// PredictRequest is the body of a prediction call.
type PredictRequest struct {
	UserID    string         `json:"user_id"`
	TimeRange string         `json:"time_range"` // "<start>_to_<end>"
	Scenario  model.Scenario `json:"scenario"`
}

// PredictResponse carries two date-keyed prediction maps: the baseline and
// the baseline with the request scenario applied.
type PredictResponse struct {
	WithoutParam map[string]float64 `json:"predictions_without_param"`
	WithParam    map[string]float64 `json:"predictions_with_param"`
}

// Baseline returns the predictions without the scenario as sorted buckets.
func (r *PredictResponse) Baseline() []model.DailyBucket {
	return bucketsFromMap(r.WithoutParam)
}

// Adjusted returns the predictions with the scenario as sorted buckets.
func (r *PredictResponse) Adjusted() []model.DailyBucket {
	return bucketsFromMap(r.WithParam)
}

// bucketsFromMap converts a date->amount map into ascending predicted
// buckets with a running cumulative from zero. Keys that are not dates are
// skipped; keys that normalize to the same day are summed.
func bucketsFromMap(m map[string]float64) []model.DailyBucket {
	byDay := make(map[string]float64, len(m))
	for raw, amount := range m {
		day, err := model.ParseDate(raw, time.UTC)
		if err != nil {
			continue
		}
		byDay[day.Format(model.DateLayout)] += amount
	}

	days := make([]string, 0, len(byDay))
	for d := range byDay {
		days = append(days, d)
	}
	sort.Strings(days)

	out := make([]model.DailyBucket, 0, len(days))
	var running float64
	for _, d := range days {
		running += byDay[d]
		out = append(out, model.DailyBucket{
			Date:       d,
			Amount:     byDay[d],
			Cumulative: running,
			Predicted:  true,
		})
	}
	return out
}

// AnomalyRequest is the body of an anomaly call. UserID carries the linked
// account id.
type AnomalyRequest struct {
	UserID    string `json:"userId"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}
