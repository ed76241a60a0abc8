package source

// Format identifies a transaction export format.
type Format string

const (
	FormatCSV   Format = "csv"
	FormatJSON  Format = "json"
	FormatJSONL Format = "jsonl"
)

// DiscoveredFile is a transaction export found during directory scanning.
type DiscoveredFile struct {
	Path   string
	Format Format
}

// Defaults fills fields an export leaves blank.
type Defaults struct {
	AccountID string
	UserID    string
}

// rawRecord is one row or object from an export, keyed by lowercased field name.
type rawRecord map[string]string

// get returns the first non-empty value among keys.
func (r rawRecord) get(keys ...string) string {
	for _, k := range keys {
		if v := r[k]; v != "" {
			return v
		}
	}
	return ""
}
