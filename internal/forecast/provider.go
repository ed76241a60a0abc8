// Package forecast produces predicted daily spend for splicing onto an
// actual series. Providers are interchangeable; the synthetic one is a demo
// generator and carries no statistical meaning.
package forecast

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/theirongolddev/spendburn/internal/model"
)

// ErrUnknownProvider is returned by ParseProvider.
var ErrUnknownProvider = errors.New("unknown forecast provider")

// Request describes what to predict.
type Request struct {
	UserID    string
	AccountID string
	// History is the actual series the prediction continues.
	History []model.DailyBucket
	// Start is the first predicted day. Zero means the day after History.
	Start    time.Time
	Days     int
	Scenario model.Scenario
}

// Provider returns a predicted series for a request.
type Provider interface {
	Predict(ctx context.Context, req Request) (model.Forecast, error)
}

// Kind names a provider implementation.
type Kind string

const (
	KindSynthetic Kind = "synthetic"
	KindRemote    Kind = "remote"
)

// ParseProvider resolves a provider name. Empty input means synthetic.
func ParseProvider(s string) (Kind, error) {
	switch Kind(s) {
	case "", KindSynthetic:
		return KindSynthetic, nil
	case KindRemote:
		return KindRemote, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownProvider, s)
}

// DaysFor returns the forecast horizon for a period.
func DaysFor(p model.Period) int {
	return p.Days()
}

// StartDate resolves the first predicted day for req, falling back to the
// day after today when there is no history.
func StartDate(req Request, today time.Time) time.Time {
	if !req.Start.IsZero() {
		return model.NewWindow(req.Start, req.Start).Start
	}
	if n := len(req.History); n > 0 {
		if last, err := model.ParseDate(req.History[n-1].Date, time.UTC); err == nil {
			return last.AddDate(0, 0, 1)
		}
	}
	return model.NewWindow(today, today).Start.AddDate(0, 0, 1)
}

// Safe wraps p so failures yield an empty forecast and a log entry. Forecast
// errors must never reach the actual series.
func Safe(p Provider, log zerolog.Logger) Provider {
	return safeProvider{next: p, log: log}
}

type safeProvider struct {
	next Provider
	log  zerolog.Logger
}

func (s safeProvider) Predict(ctx context.Context, req Request) (model.Forecast, error) {
	fc, err := s.next.Predict(ctx, req)
	if err != nil {
		s.log.Warn().Err(err).Str("user_id", req.UserID).Msg("forecast unavailable")
		return model.Forecast{}, nil
	}
	return fc, nil
}

// dailyFromTransactions sums predicted transactions per day into ascending
// buckets with a running cumulative from zero.
func dailyFromTransactions(txs []model.Transaction) []model.DailyBucket {
	byDay := make(map[string]float64)
	for _, tx := range txs {
		day, err := model.ParseDate(tx.Date, time.UTC)
		if err != nil {
			continue
		}
		byDay[day.Format(model.DateLayout)] += tx.Amount
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
		out = append(out, model.DailyBucket{Date: d, Amount: byDay[d], Cumulative: running, Predicted: true})
	}
	return out
}
