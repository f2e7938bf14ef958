package internal

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	_ "modernc.org/sqlite"
)

// History is an optional SQLite journal of pipeline and probe outcomes.
// It records run metadata only: aliases, endpoints, step messages, and
// errors. Certificate and key material is never written to it.
type History struct {
	*sqlx.DB
}

// RunRecord is one journaled pipeline or probe run.
type RunRecord struct {
	ID        int64          `db:"id"`
	StartedAt time.Time      `db:"started_at"`
	Kind      string         `db:"kind"`
	Alias     string         `db:"alias"`
	Bootstrap string         `db:"bootstrap"`
	Success   bool           `db:"success"`
	InfoJSON  types.JSONText `db:"info"`
	ErrorJSON types.JSONText `db:"errors"`
}

// NewHistory opens (or creates) the journal database. An empty path selects
// an in-memory database, useful when journaling is wanted for one session
// only.
func NewHistory(path string) (*History, error) {
	dsn := "file::memory:?_pragma=temp_store(2)&_pragma=journal_mode(off)&_pragma=synchronous(off)"
	if path != "" {
		dsn = path
	}

	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			id         integer PRIMARY KEY AUTOINCREMENT,
			started_at timestamp NOT NULL,
			kind       text NOT NULL,
			alias      text NOT NULL DEFAULT '',
			bootstrap  text NOT NULL DEFAULT '',
			success    boolean NOT NULL,
			info       text NOT NULL DEFAULT '[]',
			errors     text NOT NULL DEFAULT '[]'
		)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initializing history schema: %w", err)
	}

	return &History{DB: db}, nil
}

// RecordRun journals one run outcome. Info and errs are stored as JSON
// arrays so RecentRuns can return them structured.
func (h *History) RecordRun(kind, alias, bootstrap string, success bool, info, errs []string) error {
	infoJSON, err := json.Marshal(orEmpty(info))
	if err != nil {
		return fmt.Errorf("marshaling info messages: %w", err)
	}
	errJSON, err := json.Marshal(orEmpty(errs))
	if err != nil {
		return fmt.Errorf("marshaling error messages: %w", err)
	}

	_, err = h.Exec(
		`INSERT INTO runs (started_at, kind, alias, bootstrap, success, info, errors) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		time.Now().UTC(), kind, alias, bootstrap, success, string(infoJSON), string(errJSON))
	if err != nil {
		return fmt.Errorf("recording %s run: %w", kind, err)
	}
	return nil
}

// RecentRuns returns the newest journaled runs, most recent first.
func (h *History) RecentRuns(limit int) ([]RunRecord, error) {
	var runs []RunRecord
	err := h.Select(&runs, `SELECT * FROM runs ORDER BY started_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("getting recent runs: %w", err)
	}
	return runs, nil
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
