// Package resolver computes the set of source units an entry needs and the
// order they must be emitted in.
package resolver

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/dominikbraun/graph"
	"github.com/maypok86/otter"

	"github.com/mvp-joe/stitch/internal/diag"
	"github.com/mvp-joe/stitch/internal/symbols"
)

var (
	// ErrInheritanceCycle indicates base relations among needed symbols loop.
	ErrInheritanceCycle = errors.New("inheritance cycle")

	// ErrLeaderOrder indicates a pinned leader cannot be moved to the front
	// without placing it ahead of its base.
	ErrLeaderOrder = errors.New("pinned leader depends on a later symbol")
)

// CycleError names every symbol that takes part in an inheritance cycle.
type CycleError struct {
	Symbols []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("%s among %s", ErrInheritanceCycle, strings.Join(e.Symbols, ", "))
}

func (e *CycleError) Unwrap() error { return ErrInheritanceCycle }

// LeaderError reports a pinned leader whose base is unresolved or is not
// pinned ahead of it.
type LeaderError struct {
	Leader string
	Base   string
	Reason string
}

func (e *LeaderError) Error() string {
	return fmt.Sprintf("%s: %s extends %s, which %s", ErrLeaderOrder, e.Leader, e.Base, e.Reason)
}

func (e *LeaderError) Unwrap() error { return ErrLeaderOrder }

// Options configures resolution.
type Options struct {
	// Leaders are moved to the front of the order, in this order, when needed.
	Leaders []string
	// IgnoreSymbols extend the built-in blacklist.
	IgnoreSymbols []string
	// Sink receives diagnostics; nil discards them.
	Sink diag.Sink
}

// Resolution is the outcome of resolving one seed set.
type Resolution struct {
	Seeds  []string
	Needed []string // lexical order
	Order  []string // emission order
}

type unitRefs struct {
	refs    []string
	missing []string
}

// Resolver resolves seed sets against one index. References of each unit are
// memoized for the lifetime of the Resolver; create one per run and Close it.
type Resolver struct {
	index     *symbols.Index
	blacklist map[string]bool
	leaders   []string
	memo      otter.Cache[string, unitRefs]
}

// New creates a Resolver for index.
func New(index *symbols.Index, opts Options) (*Resolver, error) {
	memo, err := otter.MustBuilder[string, unitRefs](len(index.Providers) + 16).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to create reference cache: %w", err)
	}
	return &Resolver{
		index:     index,
		blacklist: Blacklist(opts.IgnoreSymbols),
		leaders:   opts.Leaders,
		memo:      memo,
	}, nil
}

// Close releases the reference cache.
func (r *Resolver) Close() {
	r.memo.Close()
}

// Seeds returns the provider symbols an entry text refers to and the
// symbol-shaped names it uses that nothing provides.
func (r *Resolver) Seeds(text string) (seeds, missing []string) {
	return scan(text, r.index, r.blacklist)
}

func (r *Resolver) references(symbol string) unitRefs {
	if cached, ok := r.memo.Get(symbol); ok {
		return cached
	}
	unit, _ := r.index.Unit(symbol)
	refs, missing := scan(unit.Content, r.index, r.blacklist)
	result := unitRefs{refs: refs, missing: missing}
	r.memo.Set(symbol, result)
	return result
}

// Resolve is a one-shot convenience around New and Resolver.Resolve.
func Resolve(seeds []string, index *symbols.Index, opts Options) (*Resolution, error) {
	r, err := New(index, opts)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return r.Resolve(seeds, opts.Sink)
}

// Resolve computes the closure of seeds and orders it so that every base
// precedes the symbols extending it, with pinned leaders first. Seeds
// without a provider are reported and dropped.
func (r *Resolver) Resolve(seeds []string, sink diag.Sink) (*Resolution, error) {
	if sink == nil {
		sink = diag.Discard
	}

	needed := r.closure(seeds, sink)

	g, err := r.inheritanceGraph(needed)
	if err != nil {
		return nil, err
	}

	if err := detectCycles(g, needed, r.index); err != nil {
		sink.Report(diag.Diagnostic{
			Kind:     diag.InheritanceCycle,
			Severity: diag.Error,
			Message:  err.Error(),
		})
		return nil, err
	}

	order, err := graph.StableTopologicalSort(g, func(a, b string) bool { return a < b })
	if err != nil {
		return nil, fmt.Errorf("failed to order symbols: %w", err)
	}

	order, err = r.pinLeaders(order, needed)
	if err != nil {
		sink.Report(diag.Diagnostic{
			Kind:     diag.LeaderOrder,
			Severity: diag.Error,
			Symbol:   leaderOf(err),
			Message:  err.Error(),
		})
		return nil, err
	}

	sortedSeeds := make([]string, 0, len(seeds))
	for _, s := range seeds {
		if r.index.Has(s) {
			sortedSeeds = append(sortedSeeds, s)
		}
	}
	sort.Strings(sortedSeeds)

	return &Resolution{
		Seeds:  sortedSeeds,
		Needed: sortedKeys(needed),
		Order:  order,
	}, nil
}

// closure grows the needed set from seeds until no unit adds a new symbol.
func (r *Resolver) closure(seeds []string, sink diag.Sink) map[string]bool {
	needed := make(map[string]bool)
	var queue []string

	add := func(symbol string) {
		if !needed[symbol] {
			needed[symbol] = true
			queue = append(queue, symbol)
		}
	}

	for _, s := range seeds {
		if r.index.Has(s) {
			add(s)
			continue
		}
		sink.Report(diag.Diagnostic{
			Kind:     diag.UnresolvedDependency,
			Severity: diag.Warning,
			Symbol:   s,
			Message:  "seed symbol has no provider",
		})
	}

	for len(queue) > 0 {
		symbol := queue[0]
		queue = queue[1:]

		base, hasBase := r.index.Base(symbol)
		refs := r.references(symbol)
		for _, ref := range refs.refs {
			add(ref)
		}
		for _, name := range refs.missing {
			if hasBase && name == base {
				continue
			}
			sink.Report(diag.Diagnostic{
				Kind:     diag.UnresolvedDependency,
				Severity: diag.Warning,
				Symbol:   name,
				Message:  fmt.Sprintf("referenced by %s but has no provider", symbol),
			})
		}

		if hasBase {
			if r.index.Has(base) {
				add(base)
			} else {
				sink.Report(diag.Diagnostic{
					Kind:     diag.UnresolvedDependency,
					Severity: diag.Warning,
					Symbol:   base,
					Message:  fmt.Sprintf("base of %s has no provider", symbol),
				})
			}
		}
	}
	return needed
}

// inheritanceGraph builds base -> derived edges between needed symbols.
func (r *Resolver) inheritanceGraph(needed map[string]bool) (graph.Graph[string, string], error) {
	g := graph.New(graph.StringHash, graph.Directed())
	for _, symbol := range sortedKeys(needed) {
		if err := g.AddVertex(symbol); err != nil {
			return nil, fmt.Errorf("failed to add symbol %s: %w", symbol, err)
		}
	}
	for _, symbol := range sortedKeys(needed) {
		base, ok := r.index.Base(symbol)
		if !ok || !needed[base] || base == symbol {
			continue
		}
		if err := g.AddEdge(base, symbol); err != nil && !errors.Is(err, graph.ErrEdgeAlreadyExists) {
			return nil, fmt.Errorf("failed to add edge %s -> %s: %w", base, symbol, err)
		}
	}
	return g, nil
}

// detectCycles returns a *CycleError naming every symbol on any cycle,
// including units that extend themselves.
func detectCycles(g graph.Graph[string, string], needed map[string]bool, index *symbols.Index) error {
	components, err := graph.StronglyConnectedComponents(g)
	if err != nil {
		return fmt.Errorf("failed to compute components: %w", err)
	}

	var members []string
	for _, component := range components {
		if len(component) > 1 {
			members = append(members, component...)
		}
	}
	for symbol := range needed {
		if base, ok := index.Base(symbol); ok && base == symbol {
			members = append(members, symbol)
		}
	}

	if len(members) == 0 {
		return nil
	}
	sort.Strings(members)
	return &CycleError{Symbols: members}
}

// pinLeaders moves needed leaders to the front in configured order. A leader
// may only extend a leader placed before it.
func (r *Resolver) pinLeaders(order []string, needed map[string]bool) ([]string, error) {
	var leaders []string
	pinned := make(map[string]bool)

	for _, leader := range r.leaders {
		if !needed[leader] || pinned[leader] {
			continue
		}
		if base, ok := r.index.Base(leader); ok {
			switch {
			case !r.index.Has(base):
				return nil, &LeaderError{Leader: leader, Base: base, Reason: "has no provider"}
			case !pinned[base]:
				return nil, &LeaderError{Leader: leader, Base: base, Reason: "is not pinned before it"}
			}
		}
		pinned[leader] = true
		leaders = append(leaders, leader)
	}

	out := make([]string, 0, len(order))
	out = append(out, leaders...)
	for _, symbol := range order {
		if !pinned[symbol] {
			out = append(out, symbol)
		}
	}
	return out, nil
}

func leaderOf(err error) string {
	var le *LeaderError
	if errors.As(err, &le) {
		return le.Leader
	}
	return ""
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
