package model

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownPeriod is returned when a period name cannot be resolved.
var ErrUnknownPeriod = errors.New("unknown budget period")

// Period is a rolling budget window.
type Period string

const (
	Weekly   Period = "weekly"
	Biweekly Period = "biweekly"
	Monthly  Period = "monthly"
)

// Periods lists every period in display order.
var Periods = []Period{Weekly, Biweekly, Monthly}

// Days returns the window length in calendar days.
func (p Period) Days() int {
	switch p {
	case Weekly:
		return 7
	case Biweekly:
		return 14
	case Monthly:
		return 30
	}
	return 0
}

// DefaultBudget returns the budget used when the user has no override.
func (p Period) DefaultBudget() float64 {
	switch p {
	case Weekly:
		return 500
	case Biweekly:
		return 1000
	case Monthly:
		return 2000
	}
	return 0
}

// Title returns the capitalized period name, e.g. "Weekly".
func (p Period) Title() string {
	if p == "" {
		return ""
	}
	s := string(p)
	return strings.ToUpper(s[:1]) + s[1:]
}

// Valid reports whether p is one of the known periods.
func (p Period) Valid() bool {
	return p.Days() > 0
}

// ParsePeriod resolves a period name or one of its short aliases.
func ParsePeriod(s string) (Period, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "weekly", "week", "w", "7d", "7":
		return Weekly, nil
	case "biweekly", "bi-weekly", "fortnight", "b", "2w", "14d", "14":
		return Biweekly, nil
	case "monthly", "month", "m", "30d", "30":
		return Monthly, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPeriod, s)
}

// GraphMode selects how a series is charted.
type GraphMode string

const (
	Daily      GraphMode = "daily"
	Cumulative GraphMode = "cumulative"
)

// ParseGraphMode resolves a graph mode name. Empty input means Daily.
func ParseGraphMode(s string) (GraphMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "daily", "day", "d":
		return Daily, nil
	case "cumulative", "cum", "c":
		return Cumulative, nil
	}
	return "", fmt.Errorf("unknown graph mode %q", s)
}

// Toggle returns the other graph mode.
func (g GraphMode) Toggle() GraphMode {
	if g == Cumulative {
		return Daily
	}
	return Cumulative
}

// SignConvention defines how a raw transaction amount maps to spend.
type SignConvention string

const (
	// PositiveSpend uses amounts as-is; negative rows (refunds) reduce totals.
	PositiveSpend SignConvention = "positive_spend"
	// NegativeSpend negates amounts; negative rows are spend, positive rows are credits.
	NegativeSpend SignConvention = "negative_spend"
	// Absolute counts every row as spend regardless of sign.
	Absolute SignConvention = "absolute"
)

// ParseSignConvention resolves a sign convention name. Empty input means PositiveSpend.
func ParseSignConvention(s string) (SignConvention, error) {
	switch SignConvention(strings.ToLower(strings.TrimSpace(s))) {
	case "", PositiveSpend:
		return PositiveSpend, nil
	case NegativeSpend:
		return NegativeSpend, nil
	case Absolute:
		return Absolute, nil
	}
	return "", fmt.Errorf("unknown sign convention %q (want %s, %s or %s)", s, PositiveSpend, NegativeSpend, Absolute)
}

// Apply converts a raw amount into a spend amount.
func (c SignConvention) Apply(amount float64) float64 {
	switch c {
	case NegativeSpend:
		return -amount
	case Absolute:
		if amount < 0 {
			return -amount
		}
	}
	return amount
}
