package manifest

import (
	"fmt"
	"os"
	"sort"

	sq "github.com/Masterminds/squirrel"
	"github.com/spf13/afero"
)

// Snapshot maps a file path to its modification time in Unix nanoseconds.
type Snapshot map[string]int64

// ChangeSet contains the result of comparing two snapshots.
type ChangeSet struct {
	Added    []string // Files not in the previous snapshot
	Modified []string // Files with a different mtime
	Deleted  []string // Files in the previous snapshot but not on disk
}

// Empty reports whether nothing changed.
func (c *ChangeSet) Empty() bool {
	return len(c.Added) == 0 && len(c.Modified) == 0 && len(c.Deleted) == 0
}

// Paths returns every changed path in lexical order.
func (c *ChangeSet) Paths() []string {
	out := make([]string, 0, len(c.Added)+len(c.Modified)+len(c.Deleted))
	out = append(out, c.Added...)
	out = append(out, c.Modified...)
	out = append(out, c.Deleted...)
	sort.Strings(out)
	return out
}

// TakeSnapshot records the mtime of every regular file under paths. A path
// may name a directory or a single file; paths that do not exist are skipped.
func TakeSnapshot(fs afero.Fs, paths ...string) (Snapshot, error) {
	snap := Snapshot{}
	for _, root := range paths {
		info, err := fs.Stat(root)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", root, err)
		}
		if !info.IsDir() {
			if info.Mode().IsRegular() {
				snap[root] = info.ModTime().UnixNano()
			}
			continue
		}

		err = afero.Walk(fs, root, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if info.Mode().IsRegular() {
				snap[path] = info.ModTime().UnixNano()
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to walk %s: %w", root, err)
		}
	}
	return snap, nil
}

// Diff compares prev to cur. Every slice is sorted.
func Diff(prev, cur Snapshot) *ChangeSet {
	changes := &ChangeSet{
		Added:    []string{},
		Modified: []string{},
		Deleted:  []string{},
	}

	for path, mtime := range cur {
		old, ok := prev[path]
		switch {
		case !ok:
			changes.Added = append(changes.Added, path)
		case old != mtime:
			changes.Modified = append(changes.Modified, path)
		}
	}
	for path := range prev {
		if _, ok := cur[path]; !ok {
			changes.Deleted = append(changes.Deleted, path)
		}
	}

	sort.Strings(changes.Added)
	sort.Strings(changes.Modified)
	sort.Strings(changes.Deleted)
	return changes
}

// LastSnapshot returns the snapshot saved by the last successful run.
// A ledger that never saved one returns an empty snapshot.
func (s *Store) LastSnapshot() (Snapshot, error) {
	rows, err := sq.Select("path", "mtime").
		From("snapshots").
		RunWith(s.db).
		Query()
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshot: %w", err)
	}
	defer rows.Close()

	snap := Snapshot{}
	for rows.Next() {
		var path string
		var mtime int64
		if err := rows.Scan(&path, &mtime); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot row: %w", err)
		}
		snap[path] = mtime
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate snapshot: %w", err)
	}
	return snap, nil
}

// SaveSnapshot replaces the stored snapshot.
func (s *Store) SaveSnapshot(snap Snapshot) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // Safe to call even after commit

	if _, err := sq.Delete("snapshots").RunWith(tx).Exec(); err != nil {
		return fmt.Errorf("failed to clear snapshot: %w", err)
	}

	paths := make([]string, 0, len(snap))
	for path := range snap {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	for _, path := range paths {
		_, err := sq.Insert("snapshots").
			Columns("path", "mtime").
			Values(path, snap[path]).
			RunWith(tx).
			Exec()
		if err != nil {
			return fmt.Errorf("failed to write snapshot row %s: %w", path, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshot: %w", err)
	}
	return nil
}
