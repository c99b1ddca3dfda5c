package manifest

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/mattn/go-sqlite3"
)

// Run statuses.
const (
	StatusOK      = "ok"
	StatusPartial = "partial" // some entries failed
	StatusFailed  = "failed"  // no entry succeeded or the run aborted
)

// timeLayout has fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Run is one recorded pipeline invocation.
type Run struct {
	ID            string
	StartedAt     time.Time
	FinishedAt    time.Time
	Status        string
	EntriesOK     int
	EntriesFailed int
	Diagnostics   int
	Entries       []EntryRecord
}

// EntryRecord is the outcome for one entry unit within a run.
type EntryRecord struct {
	Entry   string
	Output  string
	Symbols int
	Error   string
}

// Store reads and writes the ledger.
type Store struct {
	db *sql.DB
}

// Open opens (creating when needed) the ledger database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create ledger directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger %s: %w", path, err)
	}
	store, err := New(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// New wraps an open database, enabling foreign keys and creating the schema.
func New(db *sql.DB) (*Store, error) {
	// SQLite disables foreign keys by default for backward compatibility
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if err := CreateSchema(db); err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying database.
func (s *Store) DB() *sql.DB {
	return s.db
}

// RecordRun writes a run and its entries in a single transaction.
func (s *Store) RecordRun(run *Run) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // Safe to call even after commit

	_, err = sq.Insert("runs").
		Columns("id", "started_at", "finished_at", "status", "entries_ok", "entries_failed", "diagnostics").
		Values(
			run.ID,
			run.StartedAt.UTC().Format(timeLayout),
			run.FinishedAt.UTC().Format(timeLayout),
			run.Status,
			run.EntriesOK,
			run.EntriesFailed,
			run.Diagnostics,
		).
		Options("OR REPLACE").
		RunWith(tx).
		Exec()
	if err != nil {
		return fmt.Errorf("failed to write run %s: %w", run.ID, err)
	}

	for _, e := range run.Entries {
		_, err := sq.Insert("entries").
			Columns("run_id", "entry", "output", "symbols", "error").
			Values(run.ID, e.Entry, e.Output, e.Symbols, e.Error).
			Options("OR REPLACE").
			RunWith(tx).
			Exec()
		if err != nil {
			return fmt.Errorf("failed to write entry %s: %w", e.Entry, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run %s: %w", run.ID, err)
	}
	return nil
}

// ListRuns returns up to limit runs, newest first, with their entries.
// A limit of zero or less returns every run.
func (s *Store) ListRuns(limit int) ([]*Run, error) {
	query := sq.Select("id", "started_at", "finished_at", "status", "entries_ok", "entries_failed", "diagnostics").
		From("runs").
		OrderBy("started_at DESC", "id DESC")
	if limit > 0 {
		query = query.Limit(uint64(limit))
	}

	rows, err := query.RunWith(s.db).Query()
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run := &Run{}
		var startedAt, finishedAt string
		if err := rows.Scan(&run.ID, &startedAt, &finishedAt, &run.Status, &run.EntriesOK, &run.EntriesFailed, &run.Diagnostics); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		run.StartedAt, _ = time.Parse(timeLayout, startedAt)
		run.FinishedAt, _ = time.Parse(timeLayout, finishedAt)
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}
	rows.Close()

	for _, run := range runs {
		if run.Entries, err = s.entries(run.ID); err != nil {
			return nil, err
		}
	}
	return runs, nil
}

func (s *Store) entries(runID string) ([]EntryRecord, error) {
	rows, err := sq.Select("entry", "output", "symbols", "error").
		From("entries").
		Where(sq.Eq{"run_id": runID}).
		OrderBy("entry").
		RunWith(s.db).
		Query()
	if err != nil {
		return nil, fmt.Errorf("failed to query entries for run %s: %w", runID, err)
	}
	defer rows.Close()

	var out []EntryRecord
	for rows.Next() {
		var e EntryRecord
		if err := rows.Scan(&e.Entry, &e.Output, &e.Symbols, &e.Error); err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
