package source

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writeExport creates a temp export file and returns a DiscoveredFile for it.
func writeExport(t *testing.T, name string, lines ...string) DiscoveredFile {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	f, ok := classify(path)
	if !ok {
		t.Fatalf("classify(%s) failed", name)
	}
	return f
}

func TestParseFile_CSV(t *testing.T) {
	df := writeExport(t, "tx.csv",
		"Transaction_ID,Date,Amount,Category,Merchant_Name",
		"t1,2024-01-01,10.50,food_and_drink,Chipotle",
		"t2,2024-01-03T12:00:00Z,\"1,200.00\",,Delta Air Lines",
		"t3,2024-01-04,abc,shopping,Target",
		",2024-01-05,7,,",
	)

	result := ParseFile(df, Defaults{AccountID: "acct-1", UserID: "user-1"})
	if result.Err != nil {
		t.Fatalf("unexpected error: %v", result.Err)
	}
	if result.ParseErrors != 1 {
		t.Fatalf("ParseErrors = %d, want 1", result.ParseErrors)
	}
	if len(result.Transactions) != 3 {
		t.Fatalf("transactions = %d, want 3", len(result.Transactions))
	}

	first := result.Transactions[0]
	if first.ID != "t1" || first.Amount != 10.5 || first.Vendor != "Chipotle" {
		t.Fatalf("first = %+v", first)
	}
	if first.AccountID != "acct-1" || first.UserID != "user-1" {
		t.Fatalf("defaults not applied: %+v", first)
	}
	if first.SourceFile != df.Path {
		t.Fatalf("SourceFile = %q, want %q", first.SourceFile, df.Path)
	}

	second := result.Transactions[1]
	if second.Amount != 1200 {
		t.Fatalf("Amount = %.2f, want 1200", second.Amount)
	}
	if second.Category != "travel" {
		t.Fatalf("Category = %q, want travel (categorized from merchant)", second.Category)
	}

	third := result.Transactions[2]
	if third.ID == "" {
		t.Fatal("missing transaction_id should be generated")
	}
	if third.Category != "Uncategorized" {
		t.Fatalf("Category = %q, want Uncategorized", third.Category)
	}
}

func TestParseFile_JSONArrayAndWrapper(t *testing.T) {
	arr := writeExport(t, "tx.json",
		`[{"transaction_id": 10001, "date": "2024-02-01", "amount": 12.5, "category": ["Food and Drink", "Restaurants"]},`,
		` {"transaction_id": 10002, "date": "2024-02-02", "amount": "8"}]`,
	)
	result := ParseFile(arr, Defaults{})
	if result.Err != nil {
		t.Fatalf("unexpected error: %v", result.Err)
	}
	if len(result.Transactions) != 2 {
		t.Fatalf("transactions = %d, want 2", len(result.Transactions))
	}
	if result.Transactions[0].ID != "10001" {
		t.Fatalf("numeric id = %q, want 10001", result.Transactions[0].ID)
	}
	if result.Transactions[0].Category != "Food and Drink > Restaurants" {
		t.Fatalf("array category = %q", result.Transactions[0].Category)
	}

	wrapped := writeExport(t, "wrapped.json",
		`{"transactions": [{"id": "a", "date": "2024-02-01", "amount": -3}]}`,
	)
	result = ParseFile(wrapped, Defaults{})
	if result.Err != nil || len(result.Transactions) != 1 || result.Transactions[0].Amount != -3 {
		t.Fatalf("wrapped result = %+v", result)
	}
}

func TestParseFile_JSONLSkipsBadLines(t *testing.T) {
	df := writeExport(t, "tx.jsonl",
		`{"transaction_id":"a","date":"2024-03-01","amount":5}`,
		`not json`,
		``,
		`{"transaction_id":"b","date":"2024-03-02"}`,
		`{"transaction_id":"c","date":"2024-03-03","amount":2.25}`,
	)

	result := ParseFile(df, Defaults{})
	if result.Err != nil {
		t.Fatalf("unexpected error: %v", result.Err)
	}
	if result.ParseErrors != 2 {
		t.Fatalf("ParseErrors = %d, want 2 (bad json + missing amount)", result.ParseErrors)
	}
	if len(result.Transactions) != 2 {
		t.Fatalf("transactions = %d, want 2", len(result.Transactions))
	}
}

func TestParseFile_MissingFile(t *testing.T) {
	result := ParseFile(DiscoveredFile{Path: filepath.Join(t.TempDir(), "nope.csv"), Format: FormatCSV}, Defaults{})
	if result.Err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestScanDir(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.csv", "b.JSON", "c.jsonl", "notes.txt", ".hidden.csv"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	sub := filepath.Join(dir, "2024")
	if err := os.MkdirAll(sub, 0o750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(sub, "d.csv"), []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}

	files, err := ScanDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 4 {
		t.Fatalf("files = %d, want 4: %+v", len(files), files)
	}

	missing, err := ScanDir(filepath.Join(dir, "missing"))
	if err != nil || missing != nil {
		t.Fatalf("missing dir = %v, %v; want nil, nil", missing, err)
	}
}

func TestCategorize(t *testing.T) {
	tests := map[string]string{
		"STARBUCKS #1234":   "food_and_drink",
		"Uber Eats":         "food_and_drink",
		"Uber Trip":         "travel",
		"Trader Joe's":      "groceries",
		"Netflix.com":       "entertainment",
		"CVS Pharmacy":      "healthcare",
		"Some Local Vendor": "other",
		"":                  "other",
	}
	for vendor, want := range tests {
		if got := Categorize(vendor); got != want {
			t.Fatalf("Categorize(%q) = %q, want %q", vendor, got, want)
		}
	}
}
