package diag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// Test Plan for diagnostics:
// - Collector keeps report order and drops exact duplicates
// - OfKind and Counts filter by kind
// - WithEntry stamps entry names without overwriting existing ones
// - Tee fans out to every sink
// - LogSink logs warnings and errors with structured fields

func TestCollector_OrderAndDedup(t *testing.T) {
	t.Parallel()

	c := NewCollector()
	a := Diagnostic{Kind: UnresolvedDependency, Severity: Warning, Symbol: "X", Message: "no provider"}
	b := Diagnostic{Kind: AmbiguousSymbol, Severity: Warning, Symbol: "Y", Message: "two units"}

	c.Report(a)
	c.Report(b)
	c.Report(a)

	assert.Equal(t, []Diagnostic{a, b}, c.All())
	assert.Equal(t, []Diagnostic{b}, c.OfKind(AmbiguousSymbol))
	assert.Equal(t, map[Kind]int{UnresolvedDependency: 1, AmbiguousSymbol: 1}, c.Counts())
	assert.Equal(t, []Kind{AmbiguousSymbol, UnresolvedDependency}, SortedKinds(c.Counts()))
}

func TestWithEntryAndTee(t *testing.T) {
	t.Parallel()

	first, second := NewCollector(), NewCollector()
	sink := WithEntry(Tee(first, second), "init_chat.js")

	sink.Report(Diagnostic{Kind: UnresolvedDependency, Symbol: "X"})
	sink.Report(Diagnostic{Kind: MissingEntry, Entry: "init_other.js"})

	for _, c := range []*Collector{first, second} {
		all := c.All()
		require.Len(t, all, 2)
		assert.Equal(t, "init_chat.js", all[0].Entry)
		assert.Equal(t, "init_other.js", all[1].Entry)
	}
}

func TestLogSink(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.DebugLevel)
	sink := NewLogSink(zap.New(core))

	sink.Report(Diagnostic{Kind: UnresolvedDependency, Severity: Warning, Entry: "init_chat.js", Symbol: "X", Message: "no provider"})
	sink.Report(Diagnostic{Kind: InheritanceCycle, Severity: Error, Message: "cycle"})

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, zap.WarnLevel, entries[0].Level)
	assert.Equal(t, "no provider", entries[0].Message)
	assert.Equal(t, "X", entries[0].ContextMap()["symbol"])
	assert.Equal(t, zap.ErrorLevel, entries[1].Level)
}

func TestDiagnosticString(t *testing.T) {
	t.Parallel()

	d := Diagnostic{Kind: UnresolvedDependency, Severity: Warning, Entry: "init_chat.js", Symbol: "X", Message: "no provider"}
	assert.Equal(t, "[warning] unresolved-dependency entry=init_chat.js symbol=X: no provider", d.String())
}
