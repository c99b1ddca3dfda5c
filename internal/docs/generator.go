package docs

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"

	"github.com/mvp-joe/stitch/internal/artifact"
	"github.com/mvp-joe/stitch/internal/diag"
	"github.com/mvp-joe/stitch/internal/scanner"
	"github.com/mvp-joe/stitch/internal/symbols"
)

const (
	// NavigationFile lists every documented symbol with its page URL.
	NavigationFile = "_navigation.md"
	// IndexFile lists every documented symbol.
	IndexFile = "_index.md"
)

// Artifact is one rendered markdown file.
type Artifact struct {
	Symbol  string // empty for aggregate artifacts
	Name    string
	Content string
}

// Result holds everything one generation produced.
type Result struct {
	Pages      []Artifact
	Navigation Artifact
	Index      Artifact
	Failures   []error
}

// Artifacts returns pages followed by the aggregate artifacts.
func (r *Result) Artifacts() []Artifact {
	out := make([]Artifact, 0, len(r.Pages)+2)
	out = append(out, r.Pages...)
	return append(out, r.Navigation, r.Index)
}

// PageName returns the file name of a symbol page.
func PageName(symbol string) string {
	return symbol + ".md"
}

// Navigation lists symbols in lexical order, one "# S: <url>" line each.
func Navigation(syms []string, baseURL string) string {
	base := strings.TrimRight(baseURL, "/")
	var b strings.Builder
	for _, s := range sortedUnique(syms) {
		url := PageName(s)
		if base != "" {
			url = base + "/" + url
		}
		fmt.Fprintf(&b, "# %s: %s\n", s, url)
	}
	return b.String()
}

// Index lists symbols in lexical order, one "# S" line each.
func Index(syms []string) string {
	var b strings.Builder
	for _, s := range sortedUnique(syms) {
		fmt.Fprintf(&b, "# %s\n", s)
	}
	return b.String()
}

func sortedUnique(syms []string) []string {
	out := dedupe(syms)
	sort.Strings(out)
	return out
}

// Options configures a Generator.
type Options struct {
	BaseURL   string
	CodeFence string
}

// Generator renders and writes documentation under one directory.
type Generator struct {
	fs   afero.Fs
	dir  string
	opts Options
}

// NewGenerator creates a generator writing to dir on fs.
func NewGenerator(fs afero.Fs, dir string, opts Options) *Generator {
	return &Generator{fs: fs, dir: dir, opts: opts}
}

// Dir returns the output directory.
func (g *Generator) Dir() string {
	return g.dir
}

// Generate renders a page for every symbol in order plus the aggregate
// artifacts. Pages follow the given order; aggregates are sorted.
func (g *Generator) Generate(order []string, index *symbols.Index) *Result {
	res := &Result{}
	for _, s := range dedupe(order) {
		unit, ok := index.Unit(s)
		if !ok {
			continue
		}
		content, failures := Render(s, unit.Content, RenderOptions{CodeFence: g.opts.CodeFence})
		for _, f := range failures {
			res.Failures = append(res.Failures, fmt.Errorf("%s: %w", unit.Name, f))
		}
		res.Pages = append(res.Pages, Artifact{Symbol: s, Name: PageName(s), Content: content})
	}

	res.Navigation = Artifact{Name: NavigationFile, Content: Navigation(order, g.opts.BaseURL)}
	res.Index = Artifact{Name: IndexFile, Content: Index(order)}
	return res
}

// Report sends each extraction failure in res to sink.
func Report(res *Result, sink diag.Sink) {
	for _, f := range res.Failures {
		d := diag.Diagnostic{
			Kind:     diag.ExtractionFailure,
			Severity: diag.Warning,
			Message:  f.Error(),
		}
		var ee *scanner.ExtractionError
		if errors.As(f, &ee) {
			d.Symbol = ee.Name
		}
		sink.Report(d)
	}
}

// Write writes every artifact in res and returns the written paths.
func (g *Generator) Write(res *Result) ([]string, error) {
	var paths []string
	for _, a := range res.Artifacts() {
		path, err := artifact.Write(g.fs, g.dir, a.Name, a.Content)
		if err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// ErrInvalidSymbol indicates a page lookup named something that cannot be a
// symbol, such as a path.
var ErrInvalidSymbol = errors.New("invalid symbol name")

// Page reads a previously written symbol page. Names containing a path
// separator or consisting of dots are rejected.
func (g *Generator) Page(symbol string) (string, error) {
	if symbol == "" || strings.ContainsAny(symbol, `/\`) || strings.Trim(symbol, ".") == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidSymbol, symbol)
	}
	data, err := afero.ReadFile(g.fs, filepath.Join(g.dir, PageName(symbol)))
	if err != nil {
		return "", fmt.Errorf("no documentation for %s: %w", symbol, err)
	}
	return string(data), nil
}

// Symbols lists the symbols recorded in a previously written index file.
func (g *Generator) Symbols() ([]string, error) {
	data, err := afero.ReadFile(g.fs, filepath.Join(g.dir, IndexFile))
	if err != nil {
		return nil, fmt.Errorf("failed to read documentation index: %w", err)
	}
	var out []string
	for _, line := range strings.Split(string(data), "\n") {
		if s := strings.TrimSpace(strings.TrimPrefix(line, "# ")); s != "" {
			out = append(out, s)
		}
	}
	return out, nil
}

func dedupe(syms []string) []string {
	seen := make(map[string]bool, len(syms))
	out := make([]string, 0, len(syms))
	for _, s := range syms {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

