// Package symbols builds the provider index: which source unit supplies
// which public symbol, and which units extend which base symbols.
package symbols

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// SourceUnit is one physical input file and the public symbol it supplies.
type SourceUnit struct {
	Symbol  string
	Path    string // path on the file system layer
	Name    string // path relative to the source directory, slash separated
	Content string
}

// StorageName returns the file stem used as the default symbol.
func StorageName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Load reads every path into a SourceUnit. The symbol is the file stem,
// remapped through aliases when the stem has an entry. Alias keys also match
// the lower-cased stem, since config keys arrive lower-cased.
func Load(fs afero.Fs, rootDir string, paths []string, aliases map[string]string) ([]*SourceUnit, error) {
	units := make([]*SourceUnit, 0, len(paths))
	for _, path := range paths {
		content, err := afero.ReadFile(fs, path)
		if err != nil {
			return nil, fmt.Errorf("failed to read source unit %s: %w", path, err)
		}

		name := filepath.Base(path)
		if rel, err := filepath.Rel(rootDir, path); err == nil {
			name = filepath.ToSlash(rel)
		}

		stem := StorageName(path)
		symbol := stem
		if alias := lookupAlias(aliases, stem); alias != "" {
			symbol = alias
		}

		units = append(units, &SourceUnit{
			Symbol:  symbol,
			Path:    path,
			Name:    name,
			Content: string(content),
		})
	}
	return units, nil
}

func lookupAlias(aliases map[string]string, stem string) string {
	if alias, ok := aliases[stem]; ok {
		return alias
	}
	return aliases[strings.ToLower(stem)]
}

// IsSymbolShaped reports whether s has the capitalized identifier shape used
// for public symbols: an ASCII capital followed by letters, digits or '_'.
func IsSymbolShaped(s string) bool {
	if s == "" || s[0] < 'A' || s[0] > 'Z' {
		return false
	}
	for i := 1; i < len(s); i++ {
		c := s[i]
		if !(c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')) {
			return false
		}
	}
	return true
}
