package pipeline

import (
	"errors"
	"fmt"

	"github.com/theirongolddev/spendburn/internal/model"
	"github.com/theirongolddev/spendburn/internal/store"
)

// Scope identifies whose spending to load. Budgets are the config-level
// overrides; stored per-user overrides take precedence over them.
type Scope struct {
	UserID    string
	AccountID string
	Budgets   model.Budgets
}

// Inputs are the raw inputs of one recomputation.
type Inputs struct {
	UserID       string
	AccountID    string
	Transactions []model.Transaction
	Budgets      model.Budgets
}

// LoadInputs resolves scope against the store. A known user contributes its
// linked account and budget overrides. Without any account or user every
// stored transaction is returned.
func LoadInputs(st *store.Store, scope Scope) (Inputs, error) {
	in := Inputs{
		UserID:    scope.UserID,
		AccountID: scope.AccountID,
		Budgets:   scope.Budgets,
	}

	if scope.UserID != "" {
		u, err := st.GetUser(scope.UserID)
		switch {
		case errors.Is(err, store.ErrUserNotFound):
		case err != nil:
			return in, fmt.Errorf("loading user: %w", err)
		default:
			if u.AccountID != "" {
				in.AccountID = u.AccountID
			}
			in.Budgets = u.Budgets.Merge(scope.Budgets)
		}
	}

	q := store.Query{AccountID: in.AccountID}
	if q.AccountID == "" {
		q.UserID = scope.UserID
	}
	txs, err := st.ListTransactions(q)
	if err != nil {
		return in, fmt.Errorf("loading transactions: %w", err)
	}
	in.Transactions = txs
	return in, nil
}
