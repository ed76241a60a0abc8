package pipeline

import (
	"bytes"
	"math"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/theirongolddev/spendburn/internal/model"
)

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse(model.DateLayout, s)
	if err != nil {
		t.Fatalf("time.Parse(%q): %v", s, err)
	}
	return d
}

func window(t *testing.T, start, end string) model.Window {
	t.Helper()
	return model.NewWindow(mustDate(t, start), mustDate(t, end))
}

func TestAggregateDays_Example(t *testing.T) {
	txs := []model.Transaction{
		{ID: "1", Date: "2024-01-01", Amount: 10},
		{ID: "2", Date: "2024-01-03", Amount: 5},
	}
	got := AggregateDays(txs, window(t, "2024-01-01", "2024-01-03"), time.UTC, model.PositiveSpend)

	want := []model.DailyBucket{
		{Date: "2024-01-01", Amount: 10, Cumulative: 10},
		{Date: "2024-01-02", Amount: 0, Cumulative: 10},
		{Date: "2024-01-03", Amount: 5, Cumulative: 15},
	}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("bucket[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestAggregateDays_SameDaySummedAndDatetimesNormalized(t *testing.T) {
	txs := []model.Transaction{
		{ID: "1", Date: "2024-01-02T09:00:00Z", Amount: 3},
		{ID: "2", Date: "2024-01-02", Amount: 4.5},
		{ID: "3", Date: "2024-01-02T23:59:59", Amount: 2.5},
		{ID: "4", Date: "2023-12-31", Amount: 100}, // outside
		{ID: "5", Date: "garbage", Amount: 100},
	}
	got := AggregateDays(txs, window(t, "2024-01-01", "2024-01-02"), time.UTC, model.PositiveSpend)
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[1].Amount != 10 || got[1].Cumulative != 10 {
		t.Fatalf("2024-01-02 = %+v, want amount 10 cumulative 10", got[1])
	}
}

func TestAggregateDays_SignConventions(t *testing.T) {
	txs := []model.Transaction{
		{ID: "spend", Date: "2024-01-01", Amount: 40},
		{ID: "refund", Date: "2024-01-01", Amount: -15},
	}
	w := window(t, "2024-01-01", "2024-01-01")

	tests := []struct {
		conv model.SignConvention
		want float64
	}{
		{model.PositiveSpend, 25},
		{model.NegativeSpend, -25},
		{model.Absolute, 55},
	}
	for _, tt := range tests {
		got := AggregateDays(txs, w, time.UTC, tt.conv)
		if got[0].Amount != tt.want {
			t.Fatalf("%s: amount = %.2f, want %.2f", tt.conv, got[0].Amount, tt.want)
		}
	}
}

func TestAggregateDays_Properties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	start := mustDate(t, "2024-02-20")

	for iter := 0; iter < 50; iter++ {
		days := 1 + rng.Intn(40)
		w := model.NewWindow(start, start.AddDate(0, 0, days-1))

		var txs []model.Transaction
		for i := rng.Intn(60); i > 0; i-- {
			offset := rng.Intn(days+10) - 5
			txs = append(txs, model.Transaction{
				Date:   start.AddDate(0, 0, offset).Format(model.DateLayout),
				Amount: math.Round(rng.Float64()*20000-5000) / 100,
			})
		}

		got := AggregateDays(txs, w, time.UTC, model.PositiveSpend)
		if len(got) != w.Days() {
			t.Fatalf("iter %d: buckets = %d, want %d", iter, len(got), w.Days())
		}

		var sum float64
		for i, b := range got {
			sum += b.Amount
			if math.Abs(b.Cumulative-sum) > 1e-9 {
				t.Fatalf("iter %d: cumulative[%d] = %f, want %f", iter, i, b.Cumulative, sum)
			}
			if i > 0 && b.Date <= got[i-1].Date {
				t.Fatalf("iter %d: dates not ascending at %d", iter, i)
			}
		}

		again := AggregateDays(txs, w, time.UTC, model.PositiveSpend)
		for i := range got {
			if got[i] != again[i] {
				t.Fatalf("iter %d: aggregation not idempotent at %d", iter, i)
			}
		}
	}
}

func TestAggregateDays_EmptyWindow(t *testing.T) {
	inverted := model.Window{Start: mustDate(t, "2024-01-05"), End: mustDate(t, "2024-01-01")}
	if got := AggregateDays(nil, inverted, time.UTC, model.PositiveSpend); got != nil {
		t.Fatalf("inverted window = %+v, want nil", got)
	}
	got := AggregateDays(nil, window(t, "2024-01-01", "2024-01-07"), time.UTC, model.PositiveSpend)
	if len(got) != 7 || got[6].Cumulative != 0 {
		t.Fatalf("no transactions = %+v, want 7 zero buckets", got)
	}
}

func TestFilterByWindow(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf)

	txs := []model.Transaction{
		{ID: "in-start", Date: "2024-01-01"},
		{ID: "bad", Date: "01/02/2024"},
		{ID: "in-end", Date: "2024-01-07T18:30:00Z"},
		{ID: "before", Date: "2023-12-31"},
		{ID: "after", Date: "2024-01-08"},
		{ID: "empty", Date: ""},
	}
	res := FilterByWindow(txs, window(t, "2024-01-01", "2024-01-07"), time.UTC, log)

	if len(res.Kept) != 2 || res.Kept[0].ID != "in-start" || res.Kept[1].ID != "in-end" {
		t.Fatalf("Kept = %+v", res.Kept)
	}
	if res.Dropped != 2 {
		t.Fatalf("Dropped = %d, want 2", res.Dropped)
	}
	if res.Outside != 2 {
		t.Fatalf("Outside = %d, want 2", res.Outside)
	}
	if !strings.Contains(buf.String(), `"transaction_id":"bad"`) {
		t.Fatalf("parse failure not logged: %s", buf.String())
	}
	if len(res.Kept)+res.Dropped+res.Outside != len(txs) {
		t.Fatal("every transaction should be kept, dropped or outside")
	}
}

func TestSummarize(t *testing.T) {
	today := time.Date(2024, 1, 7, 15, 0, 0, 0, time.UTC)
	txs := []model.Transaction{
		{ID: "1", Date: "2024-01-01", Amount: 100, Category: "food_and_drink"},
		{ID: "2", Date: "2024-01-05", Amount: 150, Category: "shopping > clothing"},
		{ID: "3", Date: "2023-12-20", Amount: 300, Category: "travel"},
		{ID: "4", Date: "nope", Amount: 1},
	}
	opts := Options{Location: time.UTC, Sign: model.PositiveSpend, Logger: zerolog.Nop()}

	weekly := Summarize(txs, model.Weekly, model.Budgets{}, today, opts)
	if weekly.Start != "2024-01-01" || weekly.End != "2024-01-07" {
		t.Fatalf("window = %s..%s", weekly.Start, weekly.End)
	}
	if weekly.Total != 250 || weekly.Status.Percentage != 50 || weekly.Status.Remaining != 250 {
		t.Fatalf("weekly = %+v", weekly)
	}
	if weekly.Transactions != 2 || weekly.Dropped != 1 {
		t.Fatalf("counts = %d kept, %d dropped", weekly.Transactions, weekly.Dropped)
	}
	if weekly.TopCategory != "Shopping" {
		t.Fatalf("TopCategory = %q, want Shopping", weekly.TopCategory)
	}

	monthly := Summarize(txs, model.Monthly, model.Budgets{}, today, opts)
	if monthly.Total != 550 || len(monthly.Buckets) != 30 {
		t.Fatalf("monthly total = %.2f buckets = %d", monthly.Total, len(monthly.Buckets))
	}
	if monthly.Status.Budget != 2000 {
		t.Fatalf("monthly budget = %.0f, want default 2000", monthly.Status.Budget)
	}

	all := SummarizeAll(txs, model.Budgets{}, today, opts)
	if len(all) != 3 || all[1].Period != model.Biweekly {
		t.Fatalf("SummarizeAll = %d summaries", len(all))
	}
}
