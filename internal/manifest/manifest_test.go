package manifest

// Test Plan for the build ledger:
// - Open creates the database file and its parent directory
// - RecordRun stores a run and its entries; ListRuns returns newest first
// - ListRuns honors the limit and returns an empty result for a fresh ledger
// - RecordRun replaces a run recorded twice under the same id
// - TakeSnapshot records regular files under directories and single files, skipping missing paths
// - Diff reports added, modified and deleted paths in sorted order
// - SaveSnapshot replaces the stored snapshot; LastSnapshot reads it back

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_CreatesDatabase(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", ".stitch", "manifest.db")
	store, err := Open(path)
	require.NoError(t, err)
	defer store.Close()

	assert.FileExists(t, path)

	runs, err := store.ListRuns(0)
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestRecordRun_ListRuns(t *testing.T) {
	t.Parallel()

	store := NewTestStore(t)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	older := &Run{
		ID:            "run-1",
		StartedAt:     base,
		FinishedAt:    base.Add(time.Second),
		Status:        StatusOK,
		EntriesOK:     1,
		EntriesFailed: 0,
		Entries:       []EntryRecord{{Entry: "init_app.js", Output: "static/data/app.js", Symbols: 4}},
	}
	newer := &Run{
		ID:            "run-2",
		StartedAt:     base.Add(time.Minute),
		FinishedAt:    base.Add(time.Minute + 500*time.Millisecond),
		Status:        StatusPartial,
		EntriesOK:     1,
		EntriesFailed: 1,
		Diagnostics:   3,
		Entries: []EntryRecord{
			{Entry: "init_zed.js", Error: "inheritance cycle"},
			{Entry: "init_app.js", Output: "static/data/app.js", Symbols: 5},
		},
	}
	require.NoError(t, store.RecordRun(older))
	require.NoError(t, store.RecordRun(newer))

	runs, err := store.ListRuns(0)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	// Test: newest first
	assert.Equal(t, "run-2", runs[0].ID)
	assert.Equal(t, "run-1", runs[1].ID)

	got := runs[0]
	assert.Equal(t, StatusPartial, got.Status)
	assert.Equal(t, 1, got.EntriesFailed)
	assert.Equal(t, 3, got.Diagnostics)
	assert.True(t, got.StartedAt.Equal(newer.StartedAt))
	assert.True(t, got.FinishedAt.Equal(newer.FinishedAt))

	// Test: entries come back sorted by entry name
	require.Len(t, got.Entries, 2)
	assert.Equal(t, "init_app.js", got.Entries[0].Entry)
	assert.Equal(t, 5, got.Entries[0].Symbols)
	assert.Equal(t, "init_zed.js", got.Entries[1].Entry)
	assert.Equal(t, "inheritance cycle", got.Entries[1].Error)

	// Test: limit
	runs, err = store.ListRuns(1)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "run-2", runs[0].ID)
}

func TestRecordRun_SubSecondOrdering(t *testing.T) {
	t.Parallel()

	store := NewTestStore(t)
	base := time.Date(2026, 3, 1, 12, 0, 5, 0, time.UTC)

	// A whole-second timestamp must not sort after a fractional one.
	require.NoError(t, store.RecordRun(&Run{ID: "a", StartedAt: base, FinishedAt: base, Status: StatusOK}))
	require.NoError(t, store.RecordRun(&Run{ID: "b", StartedAt: base.Add(100 * time.Millisecond), FinishedAt: base, Status: StatusOK}))

	runs, err := store.ListRuns(0)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "b", runs[0].ID)
}

func TestRecordRun_Replaces(t *testing.T) {
	t.Parallel()

	store := NewTestStore(t)
	now := time.Now()

	run := &Run{ID: "same", StartedAt: now, FinishedAt: now, Status: StatusFailed}
	require.NoError(t, store.RecordRun(run))

	run.Status = StatusOK
	run.EntriesOK = 2
	require.NoError(t, store.RecordRun(run))

	runs, err := store.ListRuns(0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, StatusOK, runs[0].Status)
	assert.Equal(t, 2, runs[0].EntriesOK)
}

func TestTakeSnapshot(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/proj/src/class/A.js", []byte("class A {}"), 0644))
	require.NoError(t, afero.WriteFile(fs, "/proj/src/class/ui/B.js", []byte("class B {}"), 0644))
	require.NoError(t, afero.WriteFile(fs, "/proj/src/config/init_app.js", []byte("new A();"), 0644))

	mtime := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, fs.Chtimes("/proj/src/class/A.js", mtime, mtime))

	require.NoError(t, afero.WriteFile(fs, "/proj/.stitch/config.yml", []byte("minify: true"), 0644))

	snap, err := TakeSnapshot(fs, "/proj/src/class", "/proj/src/config", "/proj/missing",
		"/proj/.stitch/config.yml", "/proj/.stitch/config.yaml")
	require.NoError(t, err)

	assert.Len(t, snap, 4)
	assert.Contains(t, snap, "/proj/.stitch/config.yml")
	assert.Equal(t, mtime.UnixNano(), snap["/proj/src/class/A.js"])
	assert.Contains(t, snap, "/proj/src/class/ui/B.js")
	assert.Contains(t, snap, "/proj/src/config/init_app.js")
}

func TestDiff(t *testing.T) {
	t.Parallel()

	prev := Snapshot{"/a.js": 1, "/b.js": 2, "/gone.js": 3}
	cur := Snapshot{"/a.js": 1, "/b.js": 5, "/z.js": 9, "/new.js": 4}

	changes := Diff(prev, cur)
	assert.Equal(t, []string{"/new.js", "/z.js"}, changes.Added)
	assert.Equal(t, []string{"/b.js"}, changes.Modified)
	assert.Equal(t, []string{"/gone.js"}, changes.Deleted)
	assert.False(t, changes.Empty())
	assert.Equal(t, []string{"/b.js", "/gone.js", "/new.js", "/z.js"}, changes.Paths())

	// Test: identical snapshots produce an empty change set
	assert.True(t, Diff(cur, cur).Empty())
	// Test: everything is added against an empty snapshot
	assert.Len(t, Diff(Snapshot{}, cur).Added, 4)
}

func TestSnapshot_SaveAndLoad(t *testing.T) {
	t.Parallel()

	store := NewTestStore(t)

	snap, err := store.LastSnapshot()
	require.NoError(t, err)
	assert.Empty(t, snap)

	require.NoError(t, store.SaveSnapshot(Snapshot{"/a.js": 10, "/b.js": 20}))
	require.NoError(t, store.SaveSnapshot(Snapshot{"/b.js": 21, "/c.js": 30}))

	// Test: a save replaces rather than merges
	snap, err = store.LastSnapshot()
	require.NoError(t, err)
	assert.Equal(t, Snapshot{"/b.js": 21, "/c.js": 30}, snap)
}
