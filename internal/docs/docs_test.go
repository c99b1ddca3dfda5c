package docs

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/stitch/internal/diag"
	"github.com/mvp-joe/stitch/internal/symbols"
)

// Test Plan for documentation:
// - A single documented function renders heading, prose, fenced body and source
// - The block construct named like the symbol becomes the page title with
//   title and decoration lines removed
// - Headings per declaration kind, tags, and <...> sanitizing
// - Bodies containing backtick fences get a longer fence
// - Unclosed declarations are skipped and reported
// - Navigation and index are sorted and deduplicated
// - Generate and Write are idempotent byte for byte
// - Page lookups reject names that are paths

const storeUnit = `/**
 * Store
 * ===
 * Keeps <Record> items.
 */
class Store extends Base {
  /**
   * @param {string} name - store name
   */
  constructor(name) {
    super();
    /** @type {Map<string, Record>} */
    this.items = new Map();
  }

  /** Item count. */
  get size() {
    return this.items.size;
  }

  /**
   * Finds a record.
   * @param {string} id
   * @returns {Record|null} the record
   */
  find(id) {
    return this.items.get(id) || null;
  }

  /** Default capacity. */
  static capacity = 10;
}

/** Internal helper. */
class Cursor {
  next() {}
}
`

func TestRender_Function(t *testing.T) {
	t.Parallel()

	text := "/** Adds numbers. */\nfunction add(a, b) {\n  return a + b;\n}\n"
	got, failures := Render("Add", text, RenderOptions{})
	require.Empty(t, failures)

	want := "# Add\n\n" +
		"## add()\n\n" +
		"Adds numbers.\n\n" +
		"```javascript\nfunction add(a, b) {\n  return a + b;\n}\n```\n\n" +
		"---\n\n" +
		"## Source\n\n" +
		"```javascript\nfunction add(a, b) {\n  return a + b;\n}\n```\n\n"
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Render() mismatch (-want +got):\n%s", diff)
	}
}

func TestRender_ClassPage(t *testing.T) {
	t.Parallel()

	got, failures := Render("Store", storeUnit, RenderOptions{CodeFence: "js"})
	require.Empty(t, failures)

	// Test: title and decoration lines are dropped from the class doc
	assert.Contains(t, got, "# Store\n\nKeeps `<Record>` items.\n\n---\n\n")
	assert.NotContains(t, got, "===")

	assert.Contains(t, got, "## constructor\n\n- **@param** `{string}` **name** store name\n\n```js\nconstructor(name) {")
	assert.Contains(t, got, "### this.items\n\n**@type** `{Map<string, Record>}`\n\n```js\nthis.items = new Map();\n```")
	assert.Contains(t, got, "## get size\n\nItem count.\n\n")
	assert.Contains(t, got, "## find()\n\nFinds a record.\n\n- **@param** `{string}` **id**\n\n**@returns** `{Record|null}` the record\n\n")
	assert.Contains(t, got, "### capacity\n\nDefault capacity.\n\n```js\nstatic capacity = 10;\n```")
	assert.Contains(t, got, "## class Cursor\n\nInternal helper.\n\n")

	// Test: source section carries the unit without comments
	assert.Contains(t, got, "## Source\n\n```js\nclass Store extends Base {")
	assert.NotContains(t, got[len(got)-200:], "Default capacity.")
}

func TestRender_SectionOrder(t *testing.T) {
	t.Parallel()

	got, _ := Render("Store", storeUnit, RenderOptions{})
	order := []string{"# Store", "## constructor", "### this.items", "## get size", "## find()", "### capacity", "## class Cursor", "## Source"}
	last := -1
	for _, heading := range order {
		idx := indexOf(got, heading+"\n")
		require.Greater(t, idx, last, heading)
		last = idx
	}
}

func TestRender_LongFence(t *testing.T) {
	t.Parallel()

	text := "/** Template. */\nconst md = \"```\";\n"
	got, failures := Render("Md", text, RenderOptions{})
	require.Empty(t, failures)
	assert.Contains(t, got, "````javascript\nconst md = \"```\"")
}

func TestRender_ExtractionFailure(t *testing.T) {
	t.Parallel()

	text := "/** Fine. */\nfunction ok() {}\n\n/** Broken. */\nfunction broken() {\n  if (x) {\n"
	got, failures := Render("Ok", text, RenderOptions{})
	require.Len(t, failures, 1)
	assert.Contains(t, got, "## ok()")
	assert.NotContains(t, got, "## broken()")
}

func TestSanitize(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Returns `<Promise>` or `<T>`.", sanitize("Returns <Promise> or <T>."))
	assert.Equal(t, "Already `<ok>` here.", sanitize("Already `<ok>` here."))
	assert.Equal(t, "a < b and c > d", sanitize("a < b and c > d"))
}

func TestNavigationAndIndex(t *testing.T) {
	t.Parallel()

	syms := []string{"Store", "App", "Store", "Router"}
	assert.Equal(t,
		"# App: https://docs.example.com/pages/App.md\n"+
			"# Router: https://docs.example.com/pages/Router.md\n"+
			"# Store: https://docs.example.com/pages/Store.md\n",
		Navigation(syms, "https://docs.example.com/pages/"))
	assert.Equal(t, "# App: App.md\n", Navigation([]string{"App"}, ""))
	assert.Equal(t, "# App\n# Router\n# Store\n", Index(syms))
}

func testIndex(t *testing.T) *symbols.Index {
	t.Helper()
	ix, err := symbols.Build([]*symbols.SourceUnit{
		{Symbol: "Store", Path: "/src/Store.js", Name: "Store.js", Content: storeUnit},
		{Symbol: "Base", Path: "/src/Base.js", Name: "Base.js", Content: "/** Root. */\nclass Base {}\n"},
		{Symbol: "Broken", Path: "/src/Broken.js", Name: "Broken.js", Content: "/** Open. */\nfunction open() {\n"},
	}, symbols.FirstWins, nil)
	require.NoError(t, err)
	return ix
}

func TestGenerator_GenerateAndWrite(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	gen := NewGenerator(fs, "/docs/pages", Options{BaseURL: "https://x.test/pages"})
	ix := testIndex(t)

	res := gen.Generate([]string{"Base", "Store", "Broken"}, ix)
	require.Len(t, res.Pages, 3)
	assert.Equal(t, "Base.md", res.Pages[0].Name)
	require.Len(t, res.Failures, 1)

	sink := diag.NewCollector()
	Report(res, sink)
	failures := sink.OfKind(diag.ExtractionFailure)
	require.Len(t, failures, 1)
	assert.Equal(t, "open", failures[0].Symbol)

	paths, err := gen.Write(res)
	require.NoError(t, err)
	assert.Len(t, paths, 5)

	syms, err := gen.Symbols()
	require.NoError(t, err)
	assert.Equal(t, []string{"Base", "Broken", "Store"}, syms)

	page, err := gen.Page("Store")
	require.NoError(t, err)
	assert.Equal(t, res.Pages[1].Content, page)

	_, err = gen.Page("Nope")
	assert.Error(t, err)

	// Test: names that would leave the docs directory are rejected
	require.NoError(t, afero.WriteFile(fs, "/docs/secret.md", []byte("secret"), 0644))
	for _, name := range []string{"../secret", "..", "", `..\secret`, "pages/Store"} {
		_, err = gen.Page(name)
		assert.ErrorIs(t, err, ErrInvalidSymbol, name)
	}
}

func TestGenerator_Idempotent(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	gen := NewGenerator(fs, "/docs", Options{})
	ix := testIndex(t)

	read := func() map[string]string {
		out := make(map[string]string)
		entries, err := afero.ReadDir(fs, "/docs")
		require.NoError(t, err)
		for _, e := range entries {
			data, err := afero.ReadFile(fs, "/docs/"+e.Name())
			require.NoError(t, err)
			out[e.Name()] = string(data)
		}
		return out
	}

	_, err := gen.Write(gen.Generate([]string{"Store", "Base"}, ix))
	require.NoError(t, err)
	first := read()

	_, err = gen.Write(gen.Generate([]string{"Store", "Base"}, ix))
	require.NoError(t, err)

	if diff := cmp.Diff(first, read()); diff != "" {
		t.Errorf("second run changed artifacts (-first +second):\n%s", diff)
	}
}

func indexOf(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}
