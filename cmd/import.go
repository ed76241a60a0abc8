package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/spendburn/internal/cli"
	"github.com/theirongolddev/spendburn/internal/pipeline"
	"github.com/theirongolddev/spendburn/internal/source"
)

var importCmd = &cobra.Command{
	Use:   "import [dir]",
	Short: "Import CSV and JSON transaction exports into the store",
	Long: "Scans dir (default: [general] import_dir, then " + pipeline.DefaultImportDir() + ") " +
		"and re-imports only files that are new or changed since the last run.",
	Args: cobra.MaximumNArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
}

func importDir(args []string) string {
	switch {
	case len(args) > 0:
		return args[0]
	case rt.cfg.General.ImportDir != "":
		return rt.cfg.General.ImportDir
	default:
		return pipeline.DefaultImportDir()
	}
}

// importDefaults are stamped on rows that carry no account or user.
func importDefaults() source.Defaults {
	return source.Defaults{AccountID: rt.scope.AccountID, UserID: rt.scope.UserID}
}

func runImport(_ *cobra.Command, args []string) error {
	dir := importDir(args)

	st, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	if !flagQuiet {
		fmt.Fprintf(os.Stderr, "  Scanning %s...\n", dir)
	}
	progressFn := func(current, total int) {
		if flagQuiet {
			return
		}
		fmt.Fprintf(os.Stderr, "\r  Parsing %s", cli.RenderProgressBar(current, total, 24))
	}

	start := time.Now()
	res, err := pipeline.Import(dir, st, importDefaults(), progressFn)
	if err != nil {
		return err
	}
	if !flagQuiet && res.Reparsed > 0 {
		fmt.Fprintln(os.Stderr)
	}

	total, err := st.TransactionCount()
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "IMPORT",
		Headers: []string{"Metric", "Value"},
		Rows: [][]string{
			{"Files found", cli.FormatNumber(int64(res.TotalFiles))},
			{"Unchanged", cli.FormatNumber(int64(res.CacheHits))},
			{"Parsed", cli.FormatNumber(int64(res.ParsedFiles))},
			{"Removed", cli.FormatNumber(int64(res.Removed))},
			{"Restored", cli.FormatNumber(int64(res.Restored))},
			{"Rows imported", cli.FormatNumber(int64(res.Imported))},
			{cli.Separator},
			{"Transactions stored", cli.FormatNumber(int64(total))},
			{"Took", time.Since(start).Round(time.Millisecond).String()},
		},
	}))

	if res.ParseErrors > 0 || res.FileErrors > 0 {
		fmt.Fprintf(os.Stderr, "\n  %d rows skipped, %d files unreadable\n", res.ParseErrors, res.FileErrors)
	}
	return nil
}
