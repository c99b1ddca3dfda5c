// Package bundler concatenates resolved source units and an entry unit into
// a single output script.
package bundler

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mvp-joe/stitch/internal/symbols"
)

const (
	// UnitMarker precedes every source unit in a bundle.
	UnitMarker = "// 📦"
	// EntryMarker precedes the entry unit.
	EntryMarker = "// 🚀"
)

// ErrMissingProvider indicates an ordered symbol has no unit in the index.
var ErrMissingProvider = errors.New("ordered symbol has no provider")

// Entry is the unit an output bundle is built for.
type Entry struct {
	Name    string // file name used in the marker and for the output name
	Content string
}

// Options controls bundle assembly.
type Options struct {
	// Minify compacts the result and drops tail units.
	Minify bool
	// Compactor used when Minify is set; nil selects the JS minifier.
	Compactor Compactor
}

// Bundle joins each ordered unit, the entry, and then the tail units when
// not minifying. Tail units already emitted in order are not repeated.
func Bundle(order []string, index *symbols.Index, entry Entry, tails []*symbols.SourceUnit, opts Options) (string, error) {
	var b strings.Builder
	emitted := make(map[string]bool, len(order))

	for _, symbol := range order {
		unit, ok := index.Unit(symbol)
		if !ok {
			return "", fmt.Errorf("%w: %s", ErrMissingProvider, symbol)
		}
		writeUnit(&b, UnitMarker, unit.Name, unit.Content)
		emitted[symbol] = true
	}

	writeUnit(&b, EntryMarker, entry.Name, entry.Content)

	if !opts.Minify {
		for _, tail := range tails {
			if emitted[tail.Symbol] {
				continue
			}
			writeUnit(&b, UnitMarker, tail.Name, tail.Content)
			emitted[tail.Symbol] = true
		}
		return b.String(), nil
	}

	compactor := opts.Compactor
	if compactor == nil {
		compactor = NewJSCompactor()
	}
	out, err := compactor.Compact(b.String())
	if err != nil {
		return "", fmt.Errorf("failed to compact bundle for %s: %w", entry.Name, err)
	}
	return out, nil
}

func writeUnit(b *strings.Builder, marker, name, content string) {
	b.WriteString(marker)
	b.WriteString(" ")
	b.WriteString(name)
	b.WriteString("\n")
	b.WriteString(content)
	if !strings.HasSuffix(content, "\n") {
		b.WriteString("\n")
	}
}

// OutputName derives the bundle file name from an entry file name by
// removing prefix from its base name. "init_chat.js" becomes "chat.js".
func OutputName(entryFile, prefix string) string {
	base := filepath.Base(entryFile)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)

	if trimmed := strings.TrimPrefix(stem, prefix); trimmed != "" {
		stem = trimmed
	}
	if ext == "" {
		ext = ".js"
	}
	return stem + ext
}
