package model

// Budgets holds optional per-period budget overrides.
// A nil or non-positive value falls back to the period default.
type Budgets struct {
	Weekly   *float64 `json:"weekly,omitempty" toml:"weekly,omitempty"`
	Biweekly *float64 `json:"biweekly,omitempty" toml:"biweekly,omitempty"`
	Monthly  *float64 `json:"monthly,omitempty" toml:"monthly,omitempty"`
}

// Override returns the stored override for p, or nil.
func (b Budgets) Override(p Period) *float64 {
	switch p {
	case Weekly:
		return b.Weekly
	case Biweekly:
		return b.Biweekly
	case Monthly:
		return b.Monthly
	}
	return nil
}

// Set stores an override for p.
func (b *Budgets) Set(p Period, v float64) {
	vv := v
	switch p {
	case Weekly:
		b.Weekly = &vv
	case Biweekly:
		b.Biweekly = &vv
	case Monthly:
		b.Monthly = &vv
	}
}

// For resolves the effective budget for p.
func (b Budgets) For(p Period) float64 {
	if v := b.Override(p); v != nil && *v > 0 {
		return *v
	}
	return p.DefaultBudget()
}

// Merge returns b with unset or non-positive entries filled from fallback.
func (b Budgets) Merge(fallback Budgets) Budgets {
	out := b
	for _, p := range Periods {
		if v := out.Override(p); v != nil && *v > 0 {
			continue
		}
		if v := fallback.Override(p); v != nil && *v > 0 {
			out.Set(p, *v)
		}
	}
	return out
}

// BudgetStatus holds budget progress for one period.
type BudgetStatus struct {
	Budget        float64 `json:"budget"`
	Total         float64 `json:"total"`
	Percentage    int     `json:"percentage"`
	Remaining     float64 `json:"remaining"`
	AveragePerDay float64 `json:"average_per_day"`
	Over          bool    `json:"over_budget"`
}
