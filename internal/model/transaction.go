package model

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the normalized calendar-day key format.
const DateLayout = "2006-01-02"

// Transaction is a single bank transaction as supplied by the data layer.
// Date is kept as received and normalized with ParseDate before bucketing.
type Transaction struct {
	ID         string  `json:"transaction_id"`
	AccountID  string  `json:"account_id"`
	UserID     string  `json:"user_id,omitempty"`
	Date       string  `json:"date"`
	Time       string  `json:"time,omitempty"`
	Amount     float64 `json:"amount"`
	Category   string  `json:"category"`
	Vendor     string  `json:"vendor_name,omitempty"`
	Type       string  `json:"type,omitempty"`
	Activity   string  `json:"activity,omitempty"`
	SourceFile string  `json:"-"`
}

// ParseDate normalizes a date or datetime string to its calendar day in loc.
// The result is midnight UTC of that day so keys compare and step uniformly.
func ParseDate(raw string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}

	if !strings.Contains(s, "T") {
		t, err := time.Parse(DateLayout, s)
		if err != nil {
			return time.Time{}, fmt.Errorf("parsing date %q: %w", raw, err)
		}
		return t, nil
	}

	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return civil(t.In(loc)), nil
	}
	for _, layout := range []string{"2006-01-02T15:04:05.999999999", "2006-01-02T15:04"} {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return civil(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("parsing datetime %q: unsupported layout", raw)
}

// DayOf returns the calendar day of t in loc as midnight UTC.
func DayOf(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	return civil(t.In(loc))
}

func civil(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Window is an inclusive range of calendar days.
type Window struct {
	Start time.Time
	End   time.Time
}

// NewWindow builds a window from two days, normalizing both to midnight UTC.
func NewWindow(start, end time.Time) Window {
	return Window{Start: civil(start), End: civil(end)}
}

// WindowFor returns the rolling window for p that ends on today.
func WindowFor(p Period, today time.Time) Window {
	end := civil(today)
	days := p.Days()
	if days < 1 {
		days = 1
	}
	return Window{Start: end.AddDate(0, 0, -(days - 1)), End: end}
}

// Days returns the number of calendar days in the window, 0 if inverted.
func (w Window) Days() int {
	if w.End.Before(w.Start) {
		return 0
	}
	return int(w.End.Sub(w.Start).Hours()/24) + 1
}

// Contains reports whether day falls inside the window.
func (w Window) Contains(day time.Time) bool {
	return !day.Before(w.Start) && !day.After(w.End)
}

// TimeRange encodes the window as "<start>_to_<end>".
func (w Window) TimeRange() string {
	return w.Start.Format(DateLayout) + "_to_" + w.End.Format(DateLayout)
}

// String implements fmt.Stringer.
func (w Window) String() string {
	return w.Start.Format(DateLayout) + ".." + w.End.Format(DateLayout)
}
