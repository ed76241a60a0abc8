package model

// DailyBucket is one calendar day of aggregated spend.
type DailyBucket struct {
	Date       string  `json:"date"`
	Amount     float64 `json:"amount"`
	Cumulative float64 `json:"cumulative"`
	Predicted  bool    `json:"isPredicted"`
}

// PeriodSummary is the derived view of one budget period.
type PeriodSummary struct {
	Period       Period        `json:"period"`
	Start        string        `json:"start"`
	End          string        `json:"end"`
	Buckets      []DailyBucket `json:"buckets"`
	Total        float64       `json:"total"`
	Status       BudgetStatus  `json:"budget"`
	Transactions int           `json:"transactions"`
	Dropped      int           `json:"dropped"`
	TopCategory  string        `json:"top_category,omitempty"`
}

// CategoryTotal holds spend for one top-level category.
type CategoryTotal struct {
	Category     string  `json:"category"`
	Total        float64 `json:"total"`
	Count        int     `json:"count"`
	SharePercent float64 `json:"share_percent"`
}

// Forecast is a predicted series plus the synthetic transactions behind it, if any.
type Forecast struct {
	Daily        []DailyBucket `json:"daily"`
	Transactions []Transaction `json:"transactions,omitempty"`
	Source       string        `json:"source"`
}
