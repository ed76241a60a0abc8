package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/theirongolddev/spendburn/internal/model"
)

// User links an identity to a bank account and stores budget overrides.
type User struct {
	ID        string
	AccountID string
	Email     string
	Budgets   model.Budgets
	CreatedAt time.Time
	UpdatedAt time.Time
}

// UpsertUser creates or updates a user's account link and email.
// Budget overrides are only written by SetBudgets.
func (s *Store) UpsertUser(u User) error {
	if u.ID == "" {
		return errors.New("user id is required")
	}
	now := s.now().UTC().Format(time.RFC3339)
	_, err := s.db.Exec(`INSERT INTO users (user_id, account_id, email, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			account_id = excluded.account_id,
			email = excluded.email,
			updated_at = excluded.updated_at`,
		u.ID, u.AccountID, u.Email, now, now)
	if err != nil {
		return fmt.Errorf("upserting user %s: %w", u.ID, err)
	}
	return nil
}

// GetUser returns the user with the given id.
func (s *Store) GetUser(id string) (User, error) {
	var u User
	var email sql.NullString
	var weekly, biweekly, monthly sql.NullFloat64
	var created, updated string

	err := s.db.QueryRow(`SELECT user_id, account_id, email, weekly_budget, biweekly_budget,
		monthly_budget, created_at, updated_at FROM users WHERE user_id = ?`, id).
		Scan(&u.ID, &u.AccountID, &email, &weekly, &biweekly, &monthly, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, fmt.Errorf("%w: %s", ErrUserNotFound, id)
	}
	if err != nil {
		return User{}, err
	}

	u.Email = email.String
	u.Budgets = model.Budgets{
		Weekly:   nullFloat(weekly),
		Biweekly: nullFloat(biweekly),
		Monthly:  nullFloat(monthly),
	}
	u.CreatedAt, _ = time.Parse(time.RFC3339, created)
	u.UpdatedAt, _ = time.Parse(time.RFC3339, updated)
	return u, nil
}

// SetBudgets stores the budget overrides that are set in b; nil entries keep
// their current value.
func (s *Store) SetBudgets(userID string, b model.Budgets) error {
	res, err := s.db.Exec(`UPDATE users SET
			weekly_budget = COALESCE(?, weekly_budget),
			biweekly_budget = COALESCE(?, biweekly_budget),
			monthly_budget = COALESCE(?, monthly_budget),
			updated_at = ?
		WHERE user_id = ?`,
		floatArg(b.Weekly), floatArg(b.Biweekly), floatArg(b.Monthly),
		s.now().UTC().Format(time.RFC3339), userID)
	if err != nil {
		return fmt.Errorf("setting budgets for %s: %w", userID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrUserNotFound, userID)
	}
	return nil
}

// ClearBudgets removes every override for the user.
func (s *Store) ClearBudgets(userID string) error {
	_, err := s.db.Exec(`UPDATE users SET weekly_budget = NULL, biweekly_budget = NULL,
		monthly_budget = NULL, updated_at = ? WHERE user_id = ?`,
		s.now().UTC().Format(time.RFC3339), userID)
	return err
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func floatArg(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}
