// Package pipeline turns raw transactions into windowed daily spend series,
// budget progress and forecast-spliced views.
package pipeline

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/theirongolddev/spendburn/internal/model"
)

// FilterResult is the outcome of a window filter pass.
type FilterResult struct {
	Kept    []model.Transaction
	Dropped int // unparseable dates
	Outside int // parsed but outside the window
}

// FilterByWindow returns the transactions whose calendar day lies in w (inclusive).
// A transaction with an unparseable date is dropped and logged; it never aborts
// the pass. Input order is preserved and the input slice is not modified.
func FilterByWindow(txs []model.Transaction, w model.Window, loc *time.Location, log zerolog.Logger) FilterResult {
	var res FilterResult
	for _, tx := range txs {
		day, err := model.ParseDate(tx.Date, loc)
		if err != nil {
			res.Dropped++
			log.Warn().
				Err(err).
				Str("transaction_id", tx.ID).
				Str("date", tx.Date).
				Msg("dropping transaction with unparseable date")
			continue
		}
		if !w.Contains(day) {
			res.Outside++
			continue
		}
		res.Kept = append(res.Kept, tx)
	}
	return res
}
