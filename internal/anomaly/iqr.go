package anomaly

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/theirongolddev/spendburn/internal/model"
)

// minTransactions is the smallest sample the IQR detector will judge.
const minTransactions = 3

// IQR flags amounts beyond 1.5 interquartile ranges from the quartiles.
// The low threshold never goes below zero.
type IQR struct {
	Location *time.Location
	Sign     model.SignConvention
}

// Detect implements Detector. Transactions outside a non-zero window or
// with unparseable dates are ignored.
func (d IQR) Detect(ctx context.Context, req Request) (model.AnomalyReport, error) {
	if err := ctx.Err(); err != nil {
		return model.AnomalyReport{}, err
	}
	loc := d.Location
	if loc == nil {
		loc = time.UTC
	}
	sign := d.Sign
	if sign == "" {
		sign = model.PositiveSpend
	}

	type point struct {
		tx     model.Transaction
		date   string
		amount float64
	}
	var pts []point
	for _, tx := range req.Transactions {
		day, err := model.ParseDate(tx.Date, loc)
		if err != nil {
			continue
		}
		if !req.Window.Start.IsZero() && !req.Window.Contains(day) {
			continue
		}
		pts = append(pts, point{tx: tx, date: day.Format(model.DateLayout), amount: sign.Apply(tx.Amount)})
	}

	var rep model.AnomalyReport
	if len(pts) < minTransactions {
		return rep, nil
	}

	amounts := make([]float64, len(pts))
	for i, p := range pts {
		amounts[i] = p.amount
	}
	sort.Float64s(amounts)

	q1 := quantile(amounts, 0.25)
	q3 := quantile(amounts, 0.75)
	median := quantile(amounts, 0.5)
	iqr := q3 - q1

	high := q3 + 1.5*iqr
	low := math.Max(0, q1-1.5*iqr)
	normal := [2]float64{math.Max(0, median-iqr), median + iqr}

	for _, p := range pts {
		var dev float64
		if median != 0 {
			dev = (p.amount - median) / median * 100
		}
		a := model.Anomaly{
			Amount:           p.amount,
			Date:             p.date,
			NormalRange:      normal,
			PercentDeviation: dev,
			TransactionID:    p.tx.ID,
		}
		switch {
		case p.amount > high:
			rep.High = append(rep.High, a)
		case p.amount < low:
			rep.Low = append(rep.Low, a)
		}
	}
	return rep, nil
}

// quantile returns the q-quantile of sorted values using linear
// interpolation between closest ranks.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}
