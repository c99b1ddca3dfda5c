// Package manifest keeps the build ledger: one row per pipeline run, one row
// per entry built in it, and the file modification times seen by the last
// successful run.
package manifest

import (
	"database/sql"
	"fmt"
)

const createRunsTable = `
CREATE TABLE IF NOT EXISTS runs (
	id             TEXT PRIMARY KEY,
	started_at     TEXT NOT NULL,
	finished_at    TEXT NOT NULL,
	status         TEXT NOT NULL,
	entries_ok     INTEGER NOT NULL DEFAULT 0,
	entries_failed INTEGER NOT NULL DEFAULT 0,
	diagnostics    INTEGER NOT NULL DEFAULT 0
)`

const createEntriesTable = `
CREATE TABLE IF NOT EXISTS entries (
	run_id  TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	entry   TEXT NOT NULL,
	output  TEXT NOT NULL DEFAULT '',
	symbols INTEGER NOT NULL DEFAULT 0,
	error   TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (run_id, entry)
)`

const createSnapshotsTable = `
CREATE TABLE IF NOT EXISTS snapshots (
	path  TEXT PRIMARY KEY,
	mtime INTEGER NOT NULL
)`

// CreateSchema creates the ledger tables and indexes.
// Uses a transaction so all schema creation succeeds or fails together.
func CreateSchema(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin schema transaction: %w", err)
	}
	defer tx.Rollback() // Safe to call even after commit

	tables := []struct {
		name string
		ddl  string
	}{
		{"runs", createRunsTable},
		{"entries", createEntriesTable},
		{"snapshots", createSnapshotsTable},
	}

	for _, table := range tables {
		if _, err := tx.Exec(table.ddl); err != nil {
			return fmt.Errorf("failed to create %s table: %w", table.name, err)
		}
	}

	if _, err := tx.Exec(`CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at)`); err != nil {
		return fmt.Errorf("failed to create runs index: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit schema transaction: %w", err)
	}
	return nil
}
