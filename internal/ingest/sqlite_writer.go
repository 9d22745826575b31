package ingest

import (
	"database/sql"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"
)

// SQLiteHintWriter packs hint bodies into a database that SQLiteHintSource
// can serve. Rows are written in one transaction committed by Close.
type SQLiteHintWriter struct {
	db    *sql.DB
	tx    *sql.Tx
	stmt  *sql.Stmt
	count int
	mu    sync.Mutex
}

// NewSQLiteHintWriter creates dbPath (or opens it) and initializes the schema.
func NewSQLiteHintWriter(dbPath string) (*SQLiteHintWriter, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}

	// Performance tuning for bulk insert
	if _, err := db.Exec("PRAGMA synchronous = OFF"); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.Exec("PRAGMA journal_mode = MEMORY"); err != nil {
		_ = db.Close()
		return nil, err
	}

	schema := `
	CREATE TABLE IF NOT EXISTS hints (
		segment TEXT PRIMARY KEY,
		body TEXT NOT NULL
	);
	`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	w := &SQLiteHintWriter{db: db}
	w.tx, err = db.Begin()
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	w.stmt, err = w.tx.Prepare(`INSERT OR REPLACE INTO hints (segment, body) VALUES (?, ?)`)
	if err != nil {
		_ = w.tx.Rollback()
		_ = db.Close()
		return nil, err
	}
	return w, nil
}

// Put implements HintTarget. A later Put for the same segment replaces it.
func (w *SQLiteHintWriter) Put(segment string, body []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := w.stmt.Exec(segment, string(body)); err != nil {
		return fmt.Errorf("insert hint %s: %w", segment, err)
	}
	w.count++
	return nil
}

// Count returns how many rows were written so far.
func (w *SQLiteHintWriter) Count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.count
}

// Close commits every Put and closes the database.
func (w *SQLiteHintWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	_ = w.stmt.Close()
	if err := w.tx.Commit(); err != nil {
		_ = w.db.Close()
		return fmt.Errorf("commit hints: %w", err)
	}
	return w.db.Close()
}
