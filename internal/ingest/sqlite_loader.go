package ingest

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/agentic-research/lifecards/api"
	_ "modernc.org/sqlite"
)

// SQLiteHintSource serves hints packed by the build command into a single
// database: one row per segment in hints(segment, body).
type SQLiteHintSource struct {
	db  *sql.DB
	dec *Decoder
}

// OpenSQLiteHints opens dbPath read-only. A nil decoder decodes whole bodies.
func OpenSQLiteHints(dbPath string, dec *Decoder) (*SQLiteHintSource, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}
	db.SetMaxOpenConns(4)
	if _, err := db.Exec("PRAGMA query_only=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set query_only: %w", err)
	}
	var n int
	if err := db.QueryRow("SELECT count(*) FROM hints").Scan(&n); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open hint table in %s: %w", dbPath, err)
	}
	if dec == nil {
		dec = &Decoder{}
	}
	return &SQLiteHintSource{db: db, dec: dec}, nil
}

// Fetch implements graph.HintSource.
func (s *SQLiteHintSource) Fetch(ctx context.Context, segment string) ([]api.Record, error) {
	var body string
	err := s.db.QueryRowContext(ctx, "SELECT body FROM hints WHERE segment = ?", segment).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", segment, ErrHintNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("fetch hint %s: %w", segment, err)
	}
	recs, err := s.dec.Decode([]byte(body))
	if err != nil {
		return nil, fmt.Errorf("decode hint %s: %w", segment, err)
	}
	return recs, nil
}

// Segments lists every packed segment in key order.
func (s *SQLiteHintSource) Segments(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT segment FROM hints ORDER BY segment")
	if err != nil {
		return nil, fmt.Errorf("query hints: %w", err)
	}
	defer func() { _ = rows.Close() }() // safe to ignore

	var out []string
	for rows.Next() {
		var seg string
		if err := rows.Scan(&seg); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		out = append(out, seg)
	}
	return out, rows.Err()
}

// Close closes the database.
func (s *SQLiteHintSource) Close() error {
	return s.db.Close()
}
