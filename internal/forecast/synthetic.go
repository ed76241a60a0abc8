package forecast

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"github.com/theirongolddev/spendburn/internal/model"
)

// sampleCategory is a demo category with its typical transaction size.
type sampleCategory struct {
	Name      string
	AvgAmount float64
}

var sampleCategories = []sampleCategory{
	{"Food & Dining", 25},
	{"Shopping", 50},
	{"Transportation", 15},
	{"Entertainment", 35},
	{"Bills & Utilities", 75},
}

const syntheticIDBase = 10000

// Synthetic generates 1-3 random transactions per day across fixed sample
// categories, each at the category average with ±20% jitter.
type Synthetic struct {
	mu  sync.Mutex
	rng *rand.Rand
	now func() time.Time
}

// NewSynthetic creates a generator. A zero seed uses the current time.
func NewSynthetic(seed int64) *Synthetic {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return NewSyntheticWithRand(rand.New(rand.NewSource(seed)))
}

// NewSyntheticWithRand creates a generator drawing from rng.
func NewSyntheticWithRand(rng *rand.Rand) *Synthetic {
	return &Synthetic{rng: rng, now: time.Now}
}

// Predict implements Provider.
func (s *Synthetic) Predict(ctx context.Context, req Request) (model.Forecast, error) {
	if err := ctx.Err(); err != nil {
		return model.Forecast{}, err
	}
	if req.Days <= 0 {
		return model.Forecast{Source: string(KindSynthetic)}, nil
	}

	account := req.AccountID
	if account == "" {
		account = "unknown"
	}
	start := StartDate(req, s.now())

	s.mu.Lock()
	defer s.mu.Unlock()

	var txs []model.Transaction
	for i := 0; i < req.Days; i++ {
		date := start.AddDate(0, 0, i).Format(model.DateLayout)
		perDay := s.rng.Intn(3) + 1
		for j := 0; j < perDay; j++ {
			cat := sampleCategories[s.rng.Intn(len(sampleCategories))]
			amount := cat.AvgAmount * (0.8 + s.rng.Float64()*0.4)
			txs = append(txs, model.Transaction{
				ID:        strconv.Itoa(syntheticIDBase + len(txs)),
				AccountID: account,
				UserID:    req.UserID,
				Date:      date,
				Amount:    amount,
				Category:  cat.Name,
				Vendor:    fmt.Sprintf("Predicted %s", cat.Name),
			})
		}
	}

	return model.Forecast{
		Daily:        dailyFromTransactions(txs),
		Transactions: txs,
		Source:       string(KindSynthetic),
	}, nil
}
