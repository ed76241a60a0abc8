// Package cmd implements the spendburn CLI commands.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/spendburn/internal/config"
	"github.com/theirongolddev/spendburn/internal/model"
	"github.com/theirongolddev/spendburn/internal/pipeline"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	cfg := rt.cfg

	fmt.Printf("  Config file: %s\n", config.ConfigPath())
	if config.Exists() {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Printf("  Database:    %s\n", rt.dbPath)
	fmt.Println()

	fmt.Println("  [General]")
	fmt.Printf("    User:            %s\n", orNotSet(cfg.General.UserID))
	fmt.Printf("    Account:         %s\n", orNotSet(cfg.General.AccountID))
	fmt.Printf("    Default period:  %s\n", cfg.Period())
	fmt.Printf("    Graph mode:      %s\n", cfg.GraphMode())
	fmt.Printf("    Sign convention: %s\n", rt.sign)
	fmt.Printf("    Timezone:        %s\n", rt.loc)
	dir := cfg.General.ImportDir
	if dir == "" {
		dir = pipeline.DefaultImportDir() + " (default)"
	}
	fmt.Printf("    Import dir:      %s\n", dir)
	fmt.Println()

	fmt.Println("  [Budget]")
	for _, p := range model.Periods {
		if v := cfg.Budget.Override(p); v != nil && *v > 0 {
			fmt.Printf("    %-9s $%.2f\n", p.Title()+":", *v)
		} else {
			fmt.Printf("    %-9s not set (default $%.0f)\n", p.Title()+":", p.DefaultBudget())
		}
	}
	fmt.Println()

	fmt.Println("  [Forecast]")
	fmt.Printf("    Provider: %s\n", cfg.Forecast.Provider)
	if cfg.Forecast.Days > 0 {
		fmt.Printf("    Days:     %d\n", cfg.Forecast.Days)
	}
	fmt.Println()

	fmt.Println("  [Oracle]")
	if url := config.OracleURL(cfg); url != "" {
		fmt.Printf("    Base URL: %s\n", url)
	} else {
		fmt.Println("    Base URL: not configured")
	}
	if key := config.OracleKey(cfg); key != "" {
		fmt.Printf("    API key:  %s\n", maskAPIKey(key))
	}
	fmt.Printf("    Timeout:  %ds, %d retries\n", cfg.Oracle.TimeoutSec, cfg.Oracle.MaxRetries)
	fmt.Println()

	fmt.Println("  [Telemetry]")
	if config.SentryDSN(cfg) != "" {
		fmt.Println("    Error reporting: enabled")
	} else {
		fmt.Println("    Error reporting: off")
	}
	fmt.Println()

	fmt.Println("  [Appearance]")
	fmt.Printf("    Theme: %s\n", cfg.Appearance.Theme)
	fmt.Println()

	fmt.Println("  Run `spendburn setup` to reconfigure.")
	return nil
}

func orNotSet(s string) string {
	if s == "" {
		return "not set"
	}
	return s
}
