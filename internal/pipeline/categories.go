package pipeline

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/spendburn/internal/model"
)

// Uncategorized labels transactions without a category.
const Uncategorized = "Uncategorized"

// FormatCategory turns a snake_case category into display words:
// "food_and_drink" becomes "Food And Drink".
func FormatCategory(category string) string {
	parts := strings.Split(category, "_")
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, " ")
}

// TopLevelCategory returns the first segment of a "Parent > Child" category.
func TopLevelCategory(category string) string {
	top, _, _ := strings.Cut(category, " > ")
	top = strings.TrimSpace(top)
	if top == "" {
		return Uncategorized
	}
	return top
}

// AggregateCategories groups spend by display-formatted top-level category,
// sorted by total descending. Shares are relative to total positive spend.
func AggregateCategories(txs []model.Transaction, conv model.SignConvention) []model.CategoryTotal {
	type acc struct {
		total decimal.Decimal
		count int
	}
	byCat := make(map[string]*acc)
	for _, tx := range txs {
		key := FormatCategory(TopLevelCategory(tx.Category))
		a, ok := byCat[key]
		if !ok {
			a = &acc{}
			byCat[key] = a
		}
		a.total = a.total.Add(decimal.NewFromFloat(conv.Apply(tx.Amount)))
		a.count++
	}

	grand := decimal.Zero
	for _, a := range byCat {
		if a.total.IsPositive() {
			grand = grand.Add(a.total)
		}
	}

	result := make([]model.CategoryTotal, 0, len(byCat))
	for name, a := range byCat {
		ct := model.CategoryTotal{
			Category: name,
			Total:    a.total.InexactFloat64(),
			Count:    a.count,
		}
		if grand.IsPositive() && a.total.IsPositive() {
			ct.SharePercent = a.total.Div(grand).Mul(decimal.NewFromInt(100)).Round(1).InexactFloat64()
		}
		result = append(result, ct)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Total != result[j].Total {
			return result[i].Total > result[j].Total
		}
		return result[i].Category < result[j].Category
	})
	return result
}

// TopCategory returns the category with the highest positive spend, or "".
func TopCategory(txs []model.Transaction, conv model.SignConvention) string {
	cats := AggregateCategories(txs, conv)
	if len(cats) == 0 || cats[0].Total <= 0 {
		return ""
	}
	return cats[0].Category
}

// LimitCategories returns at most n entries; n <= 0 means no limit.
func LimitCategories(cats []model.CategoryTotal, n int) []model.CategoryTotal {
	if n <= 0 || len(cats) <= n {
		return cats
	}
	return cats[:n]
}
