package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/spendburn/internal/cli"
	"github.com/theirongolddev/spendburn/internal/model"
	"github.com/theirongolddev/spendburn/internal/store"
)

var (
	flagBudgetWeekly   float64
	flagBudgetBiweekly float64
	flagBudgetMonthly  float64
	flagBudgetClear    bool
)

var budgetCmd = &cobra.Command{
	Use:   "budget",
	Short: "Show or change per-period budgets",
	RunE:  runBudgetShow,
}

var budgetSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Store budget overrides for the current user",
	Example: `  spendburn budget set --weekly 250
  spendburn budget set --monthly 1200 --user alice`,
	RunE: runBudgetSet,
}

func init() {
	budgetSetCmd.Flags().Float64Var(&flagBudgetWeekly, "weekly", 0, "Weekly budget")
	budgetSetCmd.Flags().Float64Var(&flagBudgetBiweekly, "biweekly", 0, "Biweekly budget")
	budgetSetCmd.Flags().Float64Var(&flagBudgetMonthly, "monthly", 0, "Monthly budget")
	budgetSetCmd.Flags().BoolVar(&flagBudgetClear, "clear", false, "Remove every stored override")

	budgetCmd.AddCommand(budgetSetCmd)
	rootCmd.AddCommand(budgetCmd)
}

func runBudgetShow(_ *cobra.Command, _ []string) error {
	var stored model.Budgets
	if rt.scope.UserID != "" {
		st, err := openStore()
		if err != nil {
			return err
		}
		u, err := st.GetUser(rt.scope.UserID)
		_ = st.Close()
		switch {
		case err == nil:
			stored = u.Budgets
		case errors.Is(err, store.ErrUserNotFound):
		default:
			return err
		}
	}

	rows := make([][]string, 0, len(model.Periods))
	effective := stored.Merge(rt.cfg.Budget)
	for _, p := range model.Periods {
		src := "default"
		switch {
		case positive(stored.Override(p)):
			src = "user " + rt.scope.UserID
		case positive(rt.cfg.Budget.Override(p)):
			src = "config"
		}
		rows = append(rows, []string{p.Title(), cli.FormatMoney(effective.For(p)), src})
	}

	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "BUDGETS",
		Headers: []string{"Period", "Budget", "Source"},
		Rows:    rows,
	}))
	return nil
}

func runBudgetSet(cmd *cobra.Command, _ []string) error {
	if rt.scope.UserID == "" {
		return errors.New("no user selected: pass --user or set [general] user_id")
	}

	var b model.Budgets
	for _, f := range []struct {
		name   string
		period model.Period
		value  float64
	}{
		{"weekly", model.Weekly, flagBudgetWeekly},
		{"biweekly", model.Biweekly, flagBudgetBiweekly},
		{"monthly", model.Monthly, flagBudgetMonthly},
	} {
		if !cmd.Flags().Changed(f.name) {
			continue
		}
		if f.value <= 0 {
			return fmt.Errorf("--%s must be positive", f.name)
		}
		b.Set(f.period, f.value)
	}
	if !flagBudgetClear && b == (model.Budgets{}) {
		return errors.New("set at least one of --weekly, --biweekly, --monthly or --clear")
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	if _, err := st.GetUser(rt.scope.UserID); errors.Is(err, store.ErrUserNotFound) {
		if err := st.UpsertUser(store.User{ID: rt.scope.UserID, AccountID: rt.scope.AccountID}); err != nil {
			return err
		}
	} else if err != nil {
		return err
	}

	if flagBudgetClear {
		if err := st.ClearBudgets(rt.scope.UserID); err != nil {
			return err
		}
	}
	if b != (model.Budgets{}) {
		if err := st.SetBudgets(rt.scope.UserID, b); err != nil {
			return err
		}
	}

	rt.log.Info().Str("user", rt.scope.UserID).Bool("cleared", flagBudgetClear).Msg("budgets updated")
	return runBudgetShow(cmd, nil)
}

func positive(v *float64) bool {
	return v != nil && *v > 0
}
