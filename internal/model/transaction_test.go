package model

import (
	"testing"
	"time"
)

func TestParseDate_Formats(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"2024-01-03", "2024-01-03"},
		{" 2024-01-03 ", "2024-01-03"},
		{"2024-01-03T10:15:00Z", "2024-01-03"},
		{"2024-01-03T23:30:00-05:00", "2024-01-04"},
		{"2024-01-03T10:15:00.123Z", "2024-01-03"},
		{"2024-01-03T10:15:00", "2024-01-03"},
	}
	for _, tt := range tests {
		got, err := ParseDate(tt.raw, time.UTC)
		if err != nil {
			t.Fatalf("ParseDate(%q) error: %v", tt.raw, err)
		}
		if got.Format(DateLayout) != tt.want {
			t.Fatalf("ParseDate(%q) = %s, want %s", tt.raw, got.Format(DateLayout), tt.want)
		}
		if got.Location() != time.UTC || got.Hour() != 0 {
			t.Fatalf("ParseDate(%q) = %v, want midnight UTC", tt.raw, got)
		}
	}
}

func TestParseDate_UsesLocationForDatetimes(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*3600)
	got, err := ParseDate("2024-01-03T20:00:00Z", tokyo)
	if err != nil {
		t.Fatal(err)
	}
	if got.Format(DateLayout) != "2024-01-04" {
		t.Fatalf("day = %s, want 2024-01-04", got.Format(DateLayout))
	}
}

func TestParseDate_Rejects(t *testing.T) {
	for _, raw := range []string{"", "yesterday", "2024-13-01", "2024/01/03", "2024-01-03Tnoon"} {
		if _, err := ParseDate(raw, time.UTC); err == nil {
			t.Fatalf("ParseDate(%q) succeeded, want error", raw)
		}
	}
}

func TestWindowFor(t *testing.T) {
	today := time.Date(2024, 3, 10, 18, 45, 0, 0, time.UTC)
	for _, p := range Periods {
		w := WindowFor(p, today)
		if w.Days() != p.Days() {
			t.Fatalf("%s window days = %d, want %d", p, w.Days(), p.Days())
		}
		if w.End.Format(DateLayout) != "2024-03-10" {
			t.Fatalf("%s window end = %s", p, w.End.Format(DateLayout))
		}
	}
	w := WindowFor(Weekly, today)
	if w.TimeRange() != "2024-03-04_to_2024-03-10" {
		t.Fatalf("TimeRange = %q", w.TimeRange())
	}
}

func TestWindowContains(t *testing.T) {
	w := NewWindow(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC))
	day := func(d int) time.Time { return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC) }
	if !w.Contains(day(1)) || !w.Contains(day(3)) {
		t.Fatal("window bounds should be inclusive")
	}
	if w.Contains(day(4)) {
		t.Fatal("day after end should be outside")
	}
	inverted := Window{Start: day(3), End: day(1)}
	if inverted.Days() != 0 {
		t.Fatalf("inverted window days = %d, want 0", inverted.Days())
	}
}

func TestBudgetsFor(t *testing.T) {
	zero := 0.0
	neg := -10.0
	custom := 750.0
	b := Budgets{Weekly: &custom, Biweekly: &zero, Monthly: &neg}

	if got := b.For(Weekly); got != 750 {
		t.Fatalf("weekly = %.0f, want 750", got)
	}
	if got := b.For(Biweekly); got != 1000 {
		t.Fatalf("biweekly = %.0f, want default 1000", got)
	}
	if got := b.For(Monthly); got != 2000 {
		t.Fatalf("monthly = %.0f, want default 2000", got)
	}
}

func TestBudgetsMerge(t *testing.T) {
	userWeekly := 300.0
	cfgWeekly := 400.0
	cfgMonthly := 2500.0
	user := Budgets{Weekly: &userWeekly}
	cfg := Budgets{Weekly: &cfgWeekly, Monthly: &cfgMonthly}

	got := user.Merge(cfg)
	if got.For(Weekly) != 300 {
		t.Fatalf("weekly = %.0f, want user override 300", got.For(Weekly))
	}
	if got.For(Monthly) != 2500 {
		t.Fatalf("monthly = %.0f, want config override 2500", got.For(Monthly))
	}
	if got.For(Biweekly) != 1000 {
		t.Fatalf("biweekly = %.0f, want default", got.For(Biweekly))
	}
	if user.Monthly != nil {
		t.Fatal("Merge mutated its receiver")
	}
}

func TestParsePeriodAliases(t *testing.T) {
	for in, want := range map[string]Period{"week": Weekly, "14d": Biweekly, "Monthly": Monthly} {
		got, err := ParsePeriod(in)
		if err != nil || got != want {
			t.Fatalf("ParsePeriod(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParsePeriod("yearly"); err == nil {
		t.Fatal("ParsePeriod(yearly) should fail")
	}
}

func TestSignConventionApply(t *testing.T) {
	if PositiveSpend.Apply(-5) != -5 || PositiveSpend.Apply(5) != 5 {
		t.Fatal("positive_spend should keep amounts")
	}
	if NegativeSpend.Apply(-5) != 5 || NegativeSpend.Apply(5) != -5 {
		t.Fatal("negative_spend should negate amounts")
	}
	if Absolute.Apply(-5) != 5 || Absolute.Apply(5) != 5 {
		t.Fatal("absolute should count every row as spend")
	}
	if c, err := ParseSignConvention(""); err != nil || c != PositiveSpend {
		t.Fatalf("default convention = %q, %v", c, err)
	}
}

func TestPercentFromWhole(t *testing.T) {
	if PercentFromWhole(20) != 0.2 {
		t.Fatalf("20%% = %v", PercentFromWhole(20))
	}
	if PercentFromWhole(150) != 1 || PercentFromWhole(-3) != 0 {
		t.Fatal("PercentFromWhole should clamp to [0, 1]")
	}
}
