package symbols

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/mvp-joe/stitch/internal/diag"
	"github.com/mvp-joe/stitch/internal/scanner"
)

// CollisionPolicy decides which unit supplies a symbol claimed by several units.
// "First" and "last" refer to lexical order of unit paths.
type CollisionPolicy string

const (
	FirstWins      CollisionPolicy = "first-wins"
	LastWins       CollisionPolicy = "last-wins"
	FailOnConflict CollisionPolicy = "error"
)

var (
	// ErrAmbiguousSymbol indicates two units claim the same public symbol.
	ErrAmbiguousSymbol = errors.New("ambiguous symbol")

	// ErrInvalidPolicy indicates an unknown collision policy name.
	ErrInvalidPolicy = errors.New("invalid collision policy")
)

// ParseCollisionPolicy validates a policy name.
func ParseCollisionPolicy(s string) (CollisionPolicy, error) {
	switch p := CollisionPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case FirstWins, LastWins, FailOnConflict:
		return p, nil
	}
	return "", fmt.Errorf("%w: %q (valid: first-wins, last-wins, error)", ErrInvalidPolicy, s)
}

// AmbiguousSymbolError lists every unit claiming a symbol.
type AmbiguousSymbolError struct {
	Symbol string
	Paths  []string
}

func (e *AmbiguousSymbolError) Error() string {
	return fmt.Sprintf("%s: %s is supplied by %s", ErrAmbiguousSymbol, e.Symbol, strings.Join(e.Paths, ", "))
}

func (e *AmbiguousSymbolError) Unwrap() error { return ErrAmbiguousSymbol }

// Index maps public symbols to their providers and derived symbols to bases.
type Index struct {
	Providers map[string]*SourceUnit
	Bases     map[string]string // derived symbol -> base symbol, as written in the unit
}

// Has reports whether symbol has a provider.
func (ix *Index) Has(symbol string) bool {
	_, ok := ix.Providers[symbol]
	return ok
}

// Unit returns the provider of symbol.
func (ix *Index) Unit(symbol string) (*SourceUnit, bool) {
	u, ok := ix.Providers[symbol]
	return u, ok
}

// Base returns the base symbol recorded for symbol.
func (ix *Index) Base(symbol string) (string, bool) {
	b, ok := ix.Bases[symbol]
	return b, ok
}

// Symbols returns every provided symbol in lexical order.
func (ix *Index) Symbols() []string {
	out := make([]string, 0, len(ix.Providers))
	for s := range ix.Providers {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// Build indexes units. Collisions are resolved by policy over the units
// sorted by path; first-wins and last-wins report an AmbiguousSymbol
// diagnostic, FailOnConflict returns an *AmbiguousSymbolError.
//
// Inheritance edges are recorded for the winning unit of each symbol when its
// text declares "class <Symbol> extends <Base>". The base is not required to
// have a provider.
func Build(units []*SourceUnit, policy CollisionPolicy, sink diag.Sink) (*Index, error) {
	if sink == nil {
		sink = diag.Discard
	}

	sorted := make([]*SourceUnit, len(units))
	copy(sorted, units)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Path < sorted[j].Path })

	claims := make(map[string][]*SourceUnit)
	var order []string
	for _, u := range sorted {
		if _, ok := claims[u.Symbol]; !ok {
			order = append(order, u.Symbol)
		}
		claims[u.Symbol] = append(claims[u.Symbol], u)
	}

	ix := &Index{
		Providers: make(map[string]*SourceUnit, len(order)),
		Bases:     make(map[string]string),
	}

	var conflicts []error
	for _, symbol := range order {
		candidates := claims[symbol]
		winner := candidates[0]

		if len(candidates) > 1 {
			paths := make([]string, len(candidates))
			for i, c := range candidates {
				paths[i] = c.Path
			}

			switch policy {
			case LastWins:
				winner = candidates[len(candidates)-1]
			case FailOnConflict:
				conflicts = append(conflicts, &AmbiguousSymbolError{Symbol: symbol, Paths: paths})
				continue
			}

			sink.Report(diag.Diagnostic{
				Kind:     diag.AmbiguousSymbol,
				Severity: diag.Warning,
				Symbol:   symbol,
				Message:  fmt.Sprintf("supplied by %s; using %s (%s)", strings.Join(paths, ", "), winner.Path, policy),
			})
		}

		ix.Providers[symbol] = winner
		if base, ok := FindBase(winner.Content, symbol); ok {
			ix.Bases[symbol] = base
		}
	}

	if len(conflicts) > 0 {
		return nil, errors.Join(conflicts...)
	}
	return ix, nil
}

// FindBase looks for "class <symbol> extends <Base>" in text outside strings
// and comments and returns Base.
func FindBase(text, symbol string) (string, bool) {
	toks := scanner.SignificantTokens(scanner.Tokenize(text))
	for i := 0; i+3 < len(toks); i++ {
		if toks[i].Kind != scanner.Ident || toks[i].Text != "class" {
			continue
		}
		if toks[i+1].Text != symbol || toks[i+2].Text != "extends" {
			continue
		}
		if base := toks[i+3]; base.Kind == scanner.Ident && IsSymbolShaped(base.Text) {
			return base.Text, true
		}
	}
	return "", false
}
