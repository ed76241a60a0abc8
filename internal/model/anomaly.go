package model

// Anomaly is a transaction whose amount falls outside the normal range.
type Anomaly struct {
	Amount           float64    `json:"amount"`
	Date             string     `json:"date"`
	NormalRange      [2]float64 `json:"normal_range"`
	PercentDeviation float64    `json:"percent_deviation"`
	TransactionID    string     `json:"transaction_id"`
}

// AnomalyReport groups anomalies by direction.
type AnomalyReport struct {
	High []Anomaly `json:"high_spending_anomalies"`
	Low  []Anomaly `json:"low_spending_anomalies"`
}

// Empty reports whether the report carries no anomalies.
func (r AnomalyReport) Empty() bool {
	return len(r.High) == 0 && len(r.Low) == 0
}

// Adjustment is one what-if change. Percent is a fraction in [0, 1].
type Adjustment struct {
	Category string  `json:"category"`
	Percent  float64 `json:"percent,omitempty"`
}

// Scenario holds up to three toggleable what-if adjustments.
// A nil adjustment is inactive.
type Scenario struct {
	SkipExpense   *Adjustment `json:"skip_expense,omitempty"`
	NewExpense    *Adjustment `json:"new_expense,omitempty"`
	ReduceExpense *Adjustment `json:"reduce_expense,omitempty"`
}

// Active reports whether any adjustment is set.
func (s Scenario) Active() bool {
	return s.SkipExpense != nil || s.NewExpense != nil || s.ReduceExpense != nil
}

// PercentFromWhole converts a whole-number UI percentage into a fraction in [0, 1].
func PercentFromWhole(pct int) float64 {
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	return float64(pct) / 100
}
