package symbols

import (
	"errors"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/stitch/internal/diag"
)

// Test Plan for the symbol index:
// - Discovery returns matching files in lexical order, honoring ignore globs
// - Discovery of a missing directory returns nothing
// - Load derives the symbol from the file stem and applies aliases
// - Build records extends edges from tokens only (not strings or comments)
// - Build records edges whose base has no provider
// - Collision policies: first-wins, last-wins (diagnostic) and error (typed error)
// - IsSymbolShaped accepts capitalized identifiers only

func writeFiles(t *testing.T, fs afero.Fs, files map[string]string) {
	t.Helper()
	for path, content := range files {
		require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0644))
	}
}

func TestDiscovery_Files(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	writeFiles(t, fs, map[string]string{
		"/proj/src/class/Zeta.js":             "class Zeta {}",
		"/proj/src/class/Alpha.js":            "class Alpha {}",
		"/proj/src/class/ui/Panel.js":         "class Panel {}",
		"/proj/src/class/notes.txt":           "not a unit",
		"/proj/src/class/vendor/Lib.js":       "class Lib {}",
		"/proj/src/class/ui/Panel.test.js":    "test",
		"/proj/src/class/vendor/deep/Deep.js": "class Deep {}",
	})

	d, err := NewDiscovery(fs, "/proj/src/class", []string{"**/*.js"}, []string{"vendor/**", "**/*.test.js"})
	require.NoError(t, err)

	files, err := d.Files()
	require.NoError(t, err)

	// Test: root-level files match "**/" patterns and results are sorted
	assert.Equal(t, []string{
		"/proj/src/class/Alpha.js",
		"/proj/src/class/Zeta.js",
		"/proj/src/class/ui/Panel.js",
	}, files)
}

func TestDiscovery_MissingRoot(t *testing.T) {
	t.Parallel()

	d, err := NewDiscovery(afero.NewMemMapFs(), "/nowhere", []string{"*.js"}, nil)
	require.NoError(t, err)

	files, err := d.Files()
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestDiscovery_InvalidPattern(t *testing.T) {
	t.Parallel()

	_, err := NewDiscovery(afero.NewMemMapFs(), "/src", []string{"[unclosed"}, nil)
	require.Error(t, err)
}

func TestLoad_Aliases(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	writeFiles(t, fs, map[string]string{
		"/src/chat_manager.js": "class ChatManager {}",
		"/src/Store.js":        "class Store {}",
		"/src/UIKit.js":        "class UiKit {}",
	})

	units, err := Load(fs, "/src", []string{"/src/Store.js", "/src/chat_manager.js", "/src/UIKit.js"},
		map[string]string{"chat_manager": "ChatManager", "uikit": "UiKit"})
	require.NoError(t, err)
	require.Len(t, units, 3)

	// Test: alias keys match lower-cased stems
	assert.Equal(t, "UiKit", units[2].Symbol)

	assert.Equal(t, "Store", units[0].Symbol)
	assert.Equal(t, "Store.js", units[0].Name)
	assert.Equal(t, "ChatManager", units[1].Symbol)
	assert.Equal(t, "class ChatManager {}", units[1].Content)
}

func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := Load(afero.NewMemMapFs(), "/src", []string{"/src/Gone.js"}, nil)
	require.Error(t, err)
}

func TestBuild_InheritanceEdges(t *testing.T) {
	t.Parallel()

	units := []*SourceUnit{
		{Symbol: "Base", Path: "/src/Base.js", Content: "class Base {}"},
		{Symbol: "Child", Path: "/src/Child.js", Content: "// class Child extends Fake\nclass Child extends Base {\n}"},
		{Symbol: "Quoted", Path: "/src/Quoted.js", Content: "const s = 'class Quoted extends Base';"},
		{Symbol: "Orphan", Path: "/src/Orphan.js", Content: "class Orphan extends Missing {}"},
		{Symbol: "Other", Path: "/src/Other.js", Content: "class Helper extends Base {}\nclass Other {}"},
	}

	ix, err := Build(units, FirstWins, nil)
	require.NoError(t, err)

	// Test: comment text is not an edge, the real declaration is
	base, ok := ix.Base("Child")
	require.True(t, ok)
	assert.Equal(t, "Base", base)

	// Test: string content is not an edge
	_, ok = ix.Base("Quoted")
	assert.False(t, ok)

	// Test: edge recorded without checking base existence
	base, ok = ix.Base("Orphan")
	require.True(t, ok)
	assert.Equal(t, "Missing", base)
	assert.False(t, ix.Has("Missing"))

	// Test: only the unit's own symbol contributes an edge
	_, ok = ix.Base("Other")
	assert.False(t, ok)

	assert.Equal(t, []string{"Base", "Child", "Orphan", "Other", "Quoted"}, ix.Symbols())
}

func collidingUnits() []*SourceUnit {
	// Deliberately out of path order.
	return []*SourceUnit{
		{Symbol: "Shared", Path: "/src/b/Shared.js", Content: "class Shared { b() {} }"},
		{Symbol: "Shared", Path: "/src/a/Shared.js", Content: "class Shared { a() {} }"},
		{Symbol: "Solo", Path: "/src/Solo.js", Content: "class Solo {}"},
	}
}

func TestBuild_CollisionPolicies(t *testing.T) {
	t.Parallel()

	t.Run("first-wins", func(t *testing.T) {
		t.Parallel()
		sink := diag.NewCollector()
		ix, err := Build(collidingUnits(), FirstWins, sink)
		require.NoError(t, err)

		unit, ok := ix.Unit("Shared")
		require.True(t, ok)
		assert.Equal(t, "/src/a/Shared.js", unit.Path)

		ambiguous := sink.OfKind(diag.AmbiguousSymbol)
		require.Len(t, ambiguous, 1)
		assert.Equal(t, "Shared", ambiguous[0].Symbol)
	})

	t.Run("last-wins", func(t *testing.T) {
		t.Parallel()
		sink := diag.NewCollector()
		ix, err := Build(collidingUnits(), LastWins, sink)
		require.NoError(t, err)

		unit, ok := ix.Unit("Shared")
		require.True(t, ok)
		assert.Equal(t, "/src/b/Shared.js", unit.Path)
		assert.Len(t, sink.OfKind(diag.AmbiguousSymbol), 1)
	})

	t.Run("error", func(t *testing.T) {
		t.Parallel()
		_, err := Build(collidingUnits(), FailOnConflict, nil)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrAmbiguousSymbol))

		var ambiguous *AmbiguousSymbolError
		require.True(t, errors.As(err, &ambiguous))
		assert.Equal(t, "Shared", ambiguous.Symbol)
		assert.Equal(t, []string{"/src/a/Shared.js", "/src/b/Shared.js"}, ambiguous.Paths)
	})
}

func TestParseCollisionPolicy(t *testing.T) {
	t.Parallel()

	p, err := ParseCollisionPolicy(" Last-Wins ")
	require.NoError(t, err)
	assert.Equal(t, LastWins, p)

	_, err = ParseCollisionPolicy("random")
	assert.ErrorIs(t, err, ErrInvalidPolicy)
}

func TestIsSymbolShaped(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want bool
	}{
		{"ChatManager", true},
		{"A", true},
		{"HTTP_2", true},
		{"chatManager", false},
		{"_Private", false},
		{"", false},
		{"Foo-Bar", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsSymbolShaped(tt.in), tt.in)
	}
}
