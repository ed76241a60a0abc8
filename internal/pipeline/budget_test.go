package pipeline

import (
	"math"
	"testing"
)

func TestEvaluateBudget_Examples(t *testing.T) {
	over := EvaluateBudget(625, 500, 7)
	if over.Percentage != 100 || over.Remaining != 0 || !over.Over {
		t.Fatalf("over budget = %+v, want 100%% and 0 remaining", over)
	}

	half := EvaluateBudget(250, 500, 7)
	if half.Percentage != 50 || half.Remaining != 250 || half.Over {
		t.Fatalf("half = %+v, want 50%% and 250 remaining", half)
	}
	if math.Abs(half.AveragePerDay-250.0/7) > 1e-9 {
		t.Fatalf("AveragePerDay = %f", half.AveragePerDay)
	}
}

func TestEvaluateBudget_Rounding(t *testing.T) {
	if got := EvaluateBudget(333.3, 1000, 14).Percentage; got != 33 {
		t.Fatalf("33.33%% rounds to %d, want 33", got)
	}
	if got := EvaluateBudget(2.5, 1000, 14).Percentage; got != 0 {
		t.Fatalf("0.25%% rounds to %d, want 0", got)
	}
	if got := EvaluateBudget(5, 1000, 14).Percentage; got != 1 {
		t.Fatalf("0.5%% rounds to %d, want 1", got)
	}
}

func TestEvaluateBudget_Guards(t *testing.T) {
	for _, budget := range []float64{0, -100, math.NaN(), math.Inf(1)} {
		st := EvaluateBudget(50, budget, 0)
		if st.Percentage != 0 || st.Remaining != 0 || st.AveragePerDay != 0 {
			t.Fatalf("budget %v = %+v, want zeros", budget, st)
		}
	}

	refunds := EvaluateBudget(-40, 500, 7)
	if refunds.Percentage != 0 || refunds.Remaining != 540 {
		t.Fatalf("net refunds = %+v, want 0%% and 540 remaining", refunds)
	}
}

func TestEvaluateBudget_PercentageBounded(t *testing.T) {
	for _, total := range []float64{-1e9, -1, 0, 1, 499.99, 500, 1e12} {
		p := EvaluateBudget(total, 500, 30).Percentage
		if p < 0 || p > 100 {
			t.Fatalf("total %v -> %d%%, want within [0, 100]", total, p)
		}
	}
}
