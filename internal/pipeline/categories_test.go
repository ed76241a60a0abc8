package pipeline

import (
	"testing"

	"github.com/theirongolddev/spendburn/internal/model"
)

func TestFormatCategory(t *testing.T) {
	tests := map[string]string{
		"food_and_drink": "Food And Drink",
		"travel":         "Travel",
		"":               "",
		"a__b":           "A  B",
		"Shopping":       "Shopping",
	}
	for in, want := range tests {
		if got := FormatCategory(in); got != want {
			t.Fatalf("FormatCategory(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestTopLevelCategory(t *testing.T) {
	if got := TopLevelCategory("Food and Drink > Restaurants > Fast Food"); got != "Food and Drink" {
		t.Fatalf("TopLevelCategory = %q", got)
	}
	if got := TopLevelCategory(""); got != Uncategorized {
		t.Fatalf("empty = %q, want %q", got, Uncategorized)
	}
}

func TestAggregateCategories(t *testing.T) {
	txs := []model.Transaction{
		{Amount: 30, Category: "food_and_drink"},
		{Amount: 20, Category: "food_and_drink > coffee"},
		{Amount: 50, Category: "travel"},
		{Amount: 25, Category: "shopping"},
		{Amount: -25, Category: "shopping"},
		{Amount: 25, Category: ""},
	}
	cats := AggregateCategories(txs, model.PositiveSpend)
	if len(cats) != 4 {
		t.Fatalf("categories = %d, want 4", len(cats))
	}
	if cats[0].Category != "Food And Drink" || cats[1].Category != "Travel" {
		t.Fatalf("order = %s, %s; want ties broken by name", cats[0].Category, cats[1].Category)
	}
	if cats[0].Count != 2 || cats[0].Total != 50 {
		t.Fatalf("food = %+v", cats[0])
	}
	if cats[0].SharePercent != 40 {
		t.Fatalf("share = %v, want 40", cats[0].SharePercent)
	}
	last := cats[len(cats)-1]
	if last.Category != "Shopping" || last.Total != 0 || last.SharePercent != 0 {
		t.Fatalf("net-zero category = %+v", last)
	}

	if got := TopCategory(txs, model.PositiveSpend); got != "Food And Drink" {
		t.Fatalf("TopCategory = %q", got)
	}
	if got := TopCategory(nil, model.PositiveSpend); got != "" {
		t.Fatalf("TopCategory(nil) = %q, want empty", got)
	}
	if got := LimitCategories(cats, 2); len(got) != 2 {
		t.Fatalf("LimitCategories = %d, want 2", len(got))
	}
}
