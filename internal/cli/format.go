// Package cli provides formatting and rendering utilities for terminal output.
package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/spendburn/internal/model"
)

// FormatMoney formats an amount as dollars with two decimals and thousands
// separators, e.g. 1234.5 -> "$1,234.50", -3 -> "-$3.00".
// Rounding happens here and nowhere upstream.
func FormatMoney(amount float64) string {
	d := decimal.NewFromFloat(amount).Round(2)
	neg := d.IsNegative()
	if neg {
		d = d.Neg()
	}

	whole, frac, _ := strings.Cut(d.StringFixed(2), ".")
	n, _ := strconv.ParseInt(whole, 10, 64)
	s := "$" + FormatNumber(n) + "." + frac
	if neg {
		return "-" + s
	}
	return s
}

// FormatMoneyShort formats an amount compactly for cards and axes.
// e.g., 1234 -> "$1.2K", 87.3 -> "$87", 4.5 -> "$4.50"
func FormatMoneyShort(amount float64) string {
	abs := amount
	sign := ""
	if abs < 0 {
		abs = -abs
		sign = "-"
	}

	switch {
	case abs >= 1_000_000:
		return fmt.Sprintf("%s$%.1fM", sign, abs/1_000_000)
	case abs >= 1_000:
		return fmt.Sprintf("%s$%.1fK", sign, abs/1_000)
	case abs >= 10:
		return fmt.Sprintf("%s$%.0f", sign, abs)
	default:
		return fmt.Sprintf("%s$%.2f", sign, abs)
	}
}

// FormatNumber adds comma separators to an integer.
// e.g., 1234567 -> "1,234,567"
func FormatNumber(n int64) string {
	if n < 0 {
		return "-" + FormatNumber(-n)
	}

	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}

	var result strings.Builder
	remainder := len(s) % 3
	if remainder > 0 {
		result.WriteString(s[:remainder])
	}
	for i := remainder; i < len(s); i += 3 {
		if result.Len() > 0 {
			result.WriteByte(',')
		}
		result.WriteString(s[i : i+3])
	}
	return result.String()
}

// FormatPercent formats a whole-number percentage.
func FormatPercent(pct int) string {
	return strconv.Itoa(pct) + "%"
}

// FormatShare formats a 0-100 share with one decimal.
func FormatShare(share float64) string {
	return fmt.Sprintf("%.1f%%", share)
}

// FormatDelta formats a spend change with an explicit sign.
func FormatDelta(current, previous float64) string {
	delta := current - previous
	if delta >= 0 {
		return "+" + FormatMoney(delta)
	}
	return FormatMoney(delta)
}

// FormatDay renders a YYYY-MM-DD key as "Mon Jan 02". Unparseable keys are
// returned unchanged.
func FormatDay(date string) string {
	t, err := time.Parse(model.DateLayout, date)
	if err != nil {
		return date
	}
	return t.Format("Mon Jan 02")
}

// FormatShortDay renders a YYYY-MM-DD key as "Jan 02".
func FormatShortDay(date string) string {
	t, err := time.Parse(model.DateLayout, date)
	if err != nil {
		return date
	}
	return t.Format("Jan 02")
}
