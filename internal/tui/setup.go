package tui

import (
	"errors"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/theirongolddev/spendburn/internal/config"
	"github.com/theirongolddev/spendburn/internal/model"
	"github.com/theirongolddev/spendburn/internal/tui/theme"
)

// SetupValues collects the first-run answers. Budgets are kept as text so
// the form can validate them; empty means "use the default".
type SetupValues struct {
	UserID   string
	Weekly   string
	Biweekly string
	Monthly  string
	Period   string
	Theme    string
}

// SetupValuesFrom pre-fills the form from an existing config.
func SetupValuesFrom(cfg config.Config) SetupValues {
	v := SetupValues{
		UserID: cfg.General.UserID,
		Period: string(cfg.Period()),
		Theme:  cfg.Appearance.Theme,
	}
	fmtBudget := func(p *float64) string {
		if p == nil || *p <= 0 {
			return ""
		}
		return strconv.FormatFloat(*p, 'f', -1, 64)
	}
	v.Weekly = fmtBudget(cfg.Budget.Weekly)
	v.Biweekly = fmtBudget(cfg.Budget.Biweekly)
	v.Monthly = fmtBudget(cfg.Budget.Monthly)
	return v
}

// NewSetupForm builds the budget setup form bound to v.
func NewSetupForm(v *SetupValues) *huh.Form {
	periodOpts := make([]huh.Option[string], 0, len(model.Periods))
	for _, p := range model.Periods {
		periodOpts = append(periodOpts, huh.NewOption(p.Title(), string(p)))
	}
	themeOpts := make([]huh.Option[string], 0, len(theme.All))
	for _, t := range theme.All {
		themeOpts = append(themeOpts, huh.NewOption(t.Name, t.Name))
	}

	budgetInput := func(p model.Period, dst *string) *huh.Input {
		return huh.NewInput().
			Title(p.Title() + " budget").
			Placeholder(strconv.FormatFloat(p.DefaultBudget(), 'f', 0, 64)).
			Value(dst).
			Validate(validateBudget)
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Welcome to spendburn").
				Description("Set your spending budgets.\nLeave a budget empty to use the default."),
			huh.NewInput().
				Title("User id").
				Description("Selects whose transactions to show. Empty shows everything imported.").
				Value(&v.UserID),
		),
		huh.NewGroup(
			budgetInput(model.Weekly, &v.Weekly),
			budgetInput(model.Biweekly, &v.Biweekly),
			budgetInput(model.Monthly, &v.Monthly),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Default period").
				Options(periodOpts...).
				Value(&v.Period),
			huh.NewSelect[string]().
				Title("Color theme").
				Options(themeOpts...).
				Value(&v.Theme),
		),
	).WithShowHelp(false)
}

var errBadBudget = errors.New("enter a positive amount or leave empty")

func validateBudget(s string) error {
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "$"))
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f <= 0 {
		return errBadBudget
	}
	return nil
}

// Budgets returns the overrides entered in the form.
func (v SetupValues) Budgets() model.Budgets {
	var b model.Budgets
	set := func(p model.Period, s string) {
		s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "$"))
		if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 {
			b.Set(p, f)
		}
	}
	set(model.Weekly, v.Weekly)
	set(model.Biweekly, v.Biweekly)
	set(model.Monthly, v.Monthly)
	return b
}

// Apply writes the answers into cfg.
func (v SetupValues) Apply(cfg *config.Config) {
	cfg.General.UserID = strings.TrimSpace(v.UserID)
	cfg.Budget = v.Budgets()
	if p, err := model.ParsePeriod(v.Period); err == nil {
		cfg.General.DefaultPeriod = string(p)
	}
	if v.Theme != "" {
		cfg.Appearance.Theme = v.Theme
	}
}
