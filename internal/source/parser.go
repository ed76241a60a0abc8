// Package source discovers and parses transaction exports (CSV, JSON, JSONL).
package source

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/theirongolddev/spendburn/internal/model"
)

// ParseResult holds the output of parsing a single export file.
type ParseResult struct {
	Transactions []model.Transaction
	ParseErrors  int
	Err          error
}

// Field aliases accepted in exports, most specific first.
var (
	keyID       = []string{"transaction_id", "id", "_id"}
	keyAccount  = []string{"account_id", "accountid", "account"}
	keyUser     = []string{"user_id", "userid"}
	keyDate     = []string{"date", "authorized_date", "posted_date"}
	keyTime     = []string{"time"}
	keyAmount   = []string{"amount", "value"}
	keyCategory = []string{"category", "category_functional"}
	keyVendor   = []string{"vendor_name", "merchant_name", "merchant", "vendor", "name"}
	keyType     = []string{"type", "transaction_type"}
	keyActivity = []string{"activity", "description"}
)

// ParseFile reads an export and converts each row into a transaction.
// Rows that cannot be converted are counted in ParseErrors and skipped;
// Err is set only when the file itself cannot be read or decoded.
func ParseFile(df DiscoveredFile, defaults Defaults) ParseResult {
	f, err := os.Open(df.Path)
	if err != nil {
		return ParseResult{Err: err}
	}
	defer func() { _ = f.Close() }()

	var records []rawRecord
	var result ParseResult

	switch df.Format {
	case FormatCSV:
		records, err = readCSV(f)
	case FormatJSON:
		records, result.ParseErrors, err = readJSON(f)
	case FormatJSONL:
		records, result.ParseErrors, err = readJSONL(f)
	default:
		err = fmt.Errorf("unsupported format %q", df.Format)
	}
	if err != nil {
		result.Err = fmt.Errorf("reading %s: %w", df.Path, err)
		return result
	}

	for _, rec := range records {
		tx, err := buildTransaction(rec, defaults)
		if err != nil {
			result.ParseErrors++
			continue
		}
		tx.SourceFile = df.Path
		result.Transactions = append(result.Transactions, tx)
	}
	return result
}

func readCSV(r io.Reader) ([]rawRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, err
	}
	for i, h := range header {
		header[i] = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
	}

	var records []rawRecord
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return records, err
		}
		rec := make(rawRecord, len(header))
		empty := true
		for i, v := range row {
			if i >= len(header) {
				break
			}
			v = strings.TrimSpace(v)
			if v != "" {
				empty = false
			}
			rec[header[i]] = v
		}
		if !empty {
			records = append(records, rec)
		}
	}
	return records, nil
}

// readJSON accepts either a top-level array or an object with a "transactions" array.
func readJSON(r io.Reader) ([]rawRecord, int, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, 0, err
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, 0, nil
	}

	var items []json.RawMessage
	if data[0] == '{' {
		var wrapper struct {
			Transactions []json.RawMessage `json:"transactions"`
		}
		if err := json.Unmarshal(data, &wrapper); err != nil {
			return nil, 0, err
		}
		items = wrapper.Transactions
	} else if err := json.Unmarshal(data, &items); err != nil {
		return nil, 0, err
	}

	var records []rawRecord
	bad := 0
	for _, item := range items {
		rec, err := decodeObject(item)
		if err != nil {
			bad++
			continue
		}
		records = append(records, rec)
	}
	return records, bad, nil
}

func readJSONL(r io.Reader) ([]rawRecord, int, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var records []rawRecord
	bad := 0
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		rec, err := decodeObject(line)
		if err != nil {
			bad++
			continue
		}
		records = append(records, rec)
	}
	return records, bad, scanner.Err()
}

// decodeObject flattens a JSON object's scalar fields into a rawRecord.
func decodeObject(data []byte) (rawRecord, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var obj map[string]any
	if err := dec.Decode(&obj); err != nil {
		return nil, err
	}

	rec := make(rawRecord, len(obj))
	for k, v := range obj {
		key := strings.ToLower(k)
		switch val := v.(type) {
		case string:
			rec[key] = strings.TrimSpace(val)
		case json.Number:
			rec[key] = val.String()
		case bool:
			rec[key] = strconv.FormatBool(val)
		case []any:
			// Plaid-style category arrays: ["Food and Drink", "Restaurants"].
			parts := make([]string, 0, len(val))
			for _, p := range val {
				if s, ok := p.(string); ok && s != "" {
					parts = append(parts, s)
				}
			}
			rec[key] = strings.Join(parts, " > ")
		}
	}
	return rec, nil
}

func buildTransaction(rec rawRecord, defaults Defaults) (model.Transaction, error) {
	amountStr := strings.NewReplacer("$", "", ",", "").Replace(rec.get(keyAmount...))
	if amountStr == "" {
		return model.Transaction{}, errors.New("missing amount")
	}
	amount, err := strconv.ParseFloat(amountStr, 64)
	if err != nil {
		return model.Transaction{}, fmt.Errorf("parsing amount %q: %w", amountStr, err)
	}

	tx := model.Transaction{
		ID:        rec.get(keyID...),
		AccountID: rec.get(keyAccount...),
		UserID:    rec.get(keyUser...),
		Date:      rec.get(keyDate...),
		Time:      rec.get(keyTime...),
		Amount:    amount,
		Category:  rec.get(keyCategory...),
		Vendor:    rec.get(keyVendor...),
		Type:      rec.get(keyType...),
		Activity:  rec.get(keyActivity...),
	}
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	if tx.AccountID == "" {
		tx.AccountID = defaults.AccountID
	}
	if tx.UserID == "" {
		tx.UserID = defaults.UserID
	}
	if tx.Category == "" {
		tx.Category = "Uncategorized"
		if tx.Vendor != "" {
			tx.Category = Categorize(tx.Vendor)
		}
	}
	return tx, nil
}
