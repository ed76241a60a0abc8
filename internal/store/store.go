// Package store provides SQLite-backed storage for transactions, users and
// import bookkeeping.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/theirongolddev/spendburn/internal/model"

	_ "modernc.org/sqlite" // register sqlite driver
)

// ErrUserNotFound is returned when a user id has no row.
var ErrUserNotFound = errors.New("user not found")

// Store wraps the SQLite database.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates the database at the given path.
func Open(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating store dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening store db: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Store{db: db, now: time.Now}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// FileInfo holds the tracked mtime and size for an imported file.
type FileInfo struct {
	MtimeNs   int64
	SizeBytes int64
}

// GetTrackedFiles returns a map of file_path -> FileInfo for all tracked files.
func (s *Store) GetTrackedFiles() (map[string]FileInfo, error) {
	rows, err := s.db.Query("SELECT file_path, mtime_ns, size_bytes FROM file_tracker")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	result := make(map[string]FileInfo)
	for rows.Next() {
		var path string
		var fi FileInfo
		if err := rows.Scan(&path, &fi.MtimeNs, &fi.SizeBytes); err != nil {
			return nil, err
		}
		result[path] = fi
	}
	return result, rows.Err()
}

// SaveFile replaces every transaction previously imported from filePath with
// txs and updates the file tracker, all in one transaction. An id already
// owned by another file is skipped; filePath is still recorded as a source
// of it so the row can be restored if the owner goes away.
// It returns how many rows were inserted.
func (s *Store) SaveFile(filePath string, txs []model.Transaction, mtimeNs, sizeBytes int64) (int, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec("DELETE FROM transactions WHERE source_file = ?", filePath); err != nil {
		return 0, err
	}
	if _, err := tx.Exec("DELETE FROM transaction_sources WHERE file_path = ?", filePath); err != nil {
		return 0, err
	}

	stmt, err := tx.Prepare(`INSERT INTO transactions
		(transaction_id, account_id, user_id, date, time, amount, category,
		 vendor_name, type, activity, source_file, imported_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(transaction_id) DO NOTHING`)
	if err != nil {
		return 0, err
	}
	defer func() { _ = stmt.Close() }()

	srcStmt, err := tx.Prepare(`INSERT OR IGNORE INTO transaction_sources (transaction_id, file_path)
		VALUES (?, ?)`)
	if err != nil {
		return 0, err
	}
	defer func() { _ = srcStmt.Close() }()

	now := s.now().UTC().Format(time.RFC3339)
	inserted := 0
	for _, t := range txs {
		res, err := stmt.Exec(t.ID, t.AccountID, t.UserID, t.Date, t.Time, t.Amount, t.Category,
			t.Vendor, t.Type, t.Activity, filePath, now)
		if err != nil {
			return 0, fmt.Errorf("saving transaction %s: %w", t.ID, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			inserted++
		}
		if _, err := srcStmt.Exec(t.ID, filePath); err != nil {
			return 0, fmt.Errorf("recording source of %s: %w", t.ID, err)
		}
	}

	_, err = tx.Exec(`INSERT OR REPLACE INTO file_tracker (file_path, mtime_ns, size_bytes)
		VALUES (?, ?, ?)`, filePath, mtimeNs, sizeBytes)
	if err != nil {
		return 0, err
	}

	return inserted, tx.Commit()
}

// OrphanedFiles returns the files that contain an id with no stored row,
// which happens when the file that owned the row was removed or no longer
// lists it. Re-saving such a file restores the rows.
func (s *Store) OrphanedFiles() ([]string, error) {
	rows, err := s.db.Query(`SELECT DISTINCT src.file_path
		FROM transaction_sources src
		LEFT JOIN transactions t ON t.transaction_id = src.transaction_id
		WHERE t.transaction_id IS NULL
		ORDER BY src.file_path`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var files []string
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			return nil, err
		}
		files = append(files, path)
	}
	return files, rows.Err()
}

// Query selects transactions. Empty fields match everything.
type Query struct {
	AccountID string
	UserID    string
}

// ListTransactions returns transactions matching q, ordered by date then id.
func (s *Store) ListTransactions(q Query) ([]model.Transaction, error) {
	stmt := `SELECT transaction_id, account_id, user_id, date, time, amount, category,
		vendor_name, type, activity, source_file
		FROM transactions WHERE 1=1`
	var args []any
	if q.AccountID != "" {
		stmt += " AND account_id = ?"
		args = append(args, q.AccountID)
	}
	if q.UserID != "" {
		stmt += " AND user_id = ?"
		args = append(args, q.UserID)
	}
	stmt += " ORDER BY date, transaction_id"

	rows, err := s.db.Query(stmt, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var txs []model.Transaction
	for rows.Next() {
		var t model.Transaction
		var tm, vendor, typ, activity sql.NullString
		if err := rows.Scan(&t.ID, &t.AccountID, &t.UserID, &t.Date, &tm, &t.Amount, &t.Category,
			&vendor, &typ, &activity, &t.SourceFile); err != nil {
			return nil, err
		}
		t.Time = tm.String
		t.Vendor = vendor.String
		t.Type = typ.String
		t.Activity = activity.String
		txs = append(txs, t)
	}
	return txs, rows.Err()
}

// DeleteFile removes a file's transactions and its tracker entry. Rows it
// owned that other files also list show up in OrphanedFiles afterwards.
func (s *Store) DeleteFile(filePath string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec("DELETE FROM transactions WHERE source_file = ?", filePath); err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM transaction_sources WHERE file_path = ?", filePath); err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM file_tracker WHERE file_path = ?", filePath); err != nil {
		return err
	}
	return tx.Commit()
}

// TransactionCount returns the number of stored transactions.
func (s *Store) TransactionCount() (int, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM transactions").Scan(&count)
	return count, err
}
