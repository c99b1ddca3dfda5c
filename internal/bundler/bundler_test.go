package bundler

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/stitch/internal/symbols"
)

// Test Plan for the bundler:
// - Units appear in order with markers, then the entry, then tail units
// - Tail units are dropped when minifying and never repeated
// - Minify routes through the configured compactor and surfaces its errors
// - The default JS compactor removes comments
// - OutputName strips the prefix only at the start of the stem

func testIndex(t *testing.T) *symbols.Index {
	t.Helper()
	ix, err := symbols.Build([]*symbols.SourceUnit{
		{Symbol: "A", Path: "/src/A.js", Name: "A.js", Content: "class A {}\n"},
		{Symbol: "B", Path: "/src/B.js", Name: "B.js", Content: "class B {}"},
		{Symbol: "Tests", Path: "/src/Tests.js", Name: "Tests.js", Content: "runTests();"},
	}, symbols.FirstWins, nil)
	require.NoError(t, err)
	return ix
}

func TestBundle_Layout(t *testing.T) {
	t.Parallel()

	ix := testIndex(t)
	tests, _ := ix.Unit("Tests")

	out, err := Bundle([]string{"A", "B"}, ix, Entry{Name: "init_chat.js", Content: "new B();"},
		[]*symbols.SourceUnit{tests}, Options{})
	require.NoError(t, err)

	want := "// 📦 A.js\nclass A {}\n" +
		"// 📦 B.js\nclass B {}\n" +
		"// 🚀 init_chat.js\nnew B();\n" +
		"// 📦 Tests.js\nrunTests();\n"
	assert.Equal(t, want, out)
}

func TestBundle_TailAlreadyOrdered(t *testing.T) {
	t.Parallel()

	ix := testIndex(t)
	tests, _ := ix.Unit("Tests")

	out, err := Bundle([]string{"Tests"}, ix, Entry{Name: "init_x.js", Content: "x();"},
		[]*symbols.SourceUnit{tests}, Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(out, "runTests();"))
}

func TestBundle_Minify(t *testing.T) {
	t.Parallel()

	ix := testIndex(t)
	tests, _ := ix.Unit("Tests")

	var seen string
	upper := CompactorFunc(func(src string) (string, error) {
		seen = src
		return strings.ToUpper(src), nil
	})

	out, err := Bundle([]string{"A"}, ix, Entry{Name: "init_x.js", Content: "x();"},
		[]*symbols.SourceUnit{tests}, Options{Minify: true, Compactor: upper})
	require.NoError(t, err)

	// Test: tail units are excluded when minifying
	assert.NotContains(t, seen, "runTests")
	assert.Equal(t, strings.ToUpper(seen), out)

	failing := CompactorFunc(func(string) (string, error) { return "", errors.New("boom") })
	_, err = Bundle([]string{"A"}, ix, Entry{Name: "init_x.js"}, nil, Options{Minify: true, Compactor: failing})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestBundle_MissingProvider(t *testing.T) {
	t.Parallel()

	_, err := Bundle([]string{"Nope"}, testIndex(t), Entry{Name: "init_x.js"}, nil, Options{})
	assert.ErrorIs(t, err, ErrMissingProvider)
}

func TestJSCompactor(t *testing.T) {
	t.Parallel()

	out, err := NewJSCompactor().Compact("// comment\nfunction add(a, b) {\n  /* block */\n  return a + b;\n}\n")
	require.NoError(t, err)
	assert.NotContains(t, out, "comment")
	assert.NotContains(t, out, "block")
	assert.Contains(t, out, "return a+b")
}

func TestOutputName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		entry, prefix, want string
	}{
		{"init_chat.js", "init_", "chat.js"},
		{"/src/config/init_admin_panel.js", "init_", "admin_panel.js"},
		{"main_init_x.js", "init_", "main_init_x.js"},
		{"init_.js", "init_", "init_.js"},
		{"init_app", "init_", "app.js"},
		{"chat.js", "", "chat.js"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, OutputName(tt.entry, tt.prefix), tt.entry)
	}
}
