// Package ledger keeps a local SQLite history of pipeline runs. The
// sheet is the durable source of truth for outcomes; the ledger only
// backs the status command and debugging.
package ledger

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/calebhart/jobsift/internal/pipeline"
)

// Ledger records one row per run.
type Ledger struct {
	db *sql.DB
}

// Open opens (or creates) the ledger database at path.
func Open(path string) (*Ledger, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open ledger database: %w", err)
	}

	// WAL allows a reader (status) while a run is writing.
	// busy_timeout reduces SQLITE_BUSY errors under contention.
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy_timeout: %w", err)
	}

	l, err := New(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return l, nil
}

// New wraps an existing database handle, creating the runs table if
// needed. Tests pass an in-memory handle here.
func New(db *sql.DB) (*Ledger, error) {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			started_at INTEGER NOT NULL,
			finished_at INTEGER NOT NULL,
			conversations_scanned INTEGER NOT NULL,
			conversations_completed INTEGER NOT NULL,
			messages_attempted INTEGER NOT NULL,
			records_written INTEGER NOT NULL,
			error_rows_written INTEGER NOT NULL,
			stopped_by TEXT NOT NULL,
			run_error TEXT
		)
	`)
	if err != nil {
		return nil, fmt.Errorf("ensure runs table: %w", err)
	}
	return &Ledger{db: db}, nil
}

// Close closes the underlying database.
func (l *Ledger) Close() error {
	return l.db.Close()
}

// Entry is one recorded run.
type Entry struct {
	ID                     string    `json:"id"`
	StartedAt              time.Time `json:"started_at"`
	FinishedAt             time.Time `json:"finished_at"`
	ConversationsScanned   int       `json:"conversations_scanned"`
	ConversationsCompleted int       `json:"conversations_completed"`
	MessagesAttempted      int       `json:"messages_attempted"`
	RecordsWritten         int       `json:"records_written"`
	ErrorRowsWritten       int       `json:"error_rows_written"`
	StoppedBy              string    `json:"stopped_by"`
	RunError               string    `json:"run_error,omitempty"`
}

// RecordRun persists one run outcome. res may be nil when the run
// failed before producing a result; runErr carries the failure.
func (l *Ledger) RecordRun(res *pipeline.Result, runErr error) (string, error) {
	id := uuid.NewString()
	e := Entry{ID: id}
	if res != nil {
		e.StartedAt = res.StartedAt
		e.FinishedAt = res.FinishedAt
		e.ConversationsScanned = res.ConversationsScanned
		e.ConversationsCompleted = res.ConversationsCompleted
		e.MessagesAttempted = res.MessagesAttempted
		e.RecordsWritten = res.RecordsWritten
		e.ErrorRowsWritten = res.ErrorRowsWritten
		e.StoppedBy = res.StoppedBy
	} else {
		now := time.Now()
		e.StartedAt = now
		e.FinishedAt = now
		e.StoppedBy = "aborted"
	}

	var errText sql.NullString
	if runErr != nil {
		errText = sql.NullString{String: runErr.Error(), Valid: true}
	}

	_, err := l.db.Exec(`
		INSERT INTO runs (
			id, started_at, finished_at,
			conversations_scanned, conversations_completed,
			messages_attempted, records_written, error_rows_written,
			stopped_by, run_error
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, e.ID, e.StartedAt.Unix(), e.FinishedAt.Unix(),
		e.ConversationsScanned, e.ConversationsCompleted,
		e.MessagesAttempted, e.RecordsWritten, e.ErrorRowsWritten,
		e.StoppedBy, errText)
	if err != nil {
		return "", fmt.Errorf("record run: %w", err)
	}
	return id, nil
}

// RecentRuns returns up to n runs, newest first.
func (l *Ledger) RecentRuns(n int) ([]Entry, error) {
	if n <= 0 {
		n = 10
	}
	rows, err := l.db.Query(`
		SELECT id, started_at, finished_at,
			conversations_scanned, conversations_completed,
			messages_attempted, records_written, error_rows_written,
			stopped_by, run_error
		FROM runs
		ORDER BY started_at DESC, id
		LIMIT ?
	`, n)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var started, finished int64
		var errText sql.NullString
		if err := rows.Scan(&e.ID, &started, &finished,
			&e.ConversationsScanned, &e.ConversationsCompleted,
			&e.MessagesAttempted, &e.RecordsWritten, &e.ErrorRowsWritten,
			&e.StoppedBy, &errText); err != nil {
			return nil, fmt.Errorf("scan run row: %w", err)
		}
		e.StartedAt = time.Unix(started, 0)
		e.FinishedAt = time.Unix(finished, 0)
		e.RunError = errText.String
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
