// Package diag carries recoverable build conditions separately from the
// errors that abort an entry.
package diag

import (
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// Kind identifies a class of diagnostic.
type Kind string

const (
	MissingEntry         Kind = "missing-entry"
	AmbiguousSymbol      Kind = "ambiguous-symbol"
	UnresolvedDependency Kind = "unresolved-dependency"
	InheritanceCycle     Kind = "inheritance-cycle"
	LeaderOrder          Kind = "leader-order"
	ExtractionFailure    Kind = "extraction-failure"
)

// Severity of a diagnostic.
type Severity string

const (
	Warning Severity = "warning"
	Error   Severity = "error"
)

// Diagnostic is one reported condition.
type Diagnostic struct {
	Kind     Kind
	Severity Severity
	Entry    string // entry unit being built, empty for run-wide conditions
	Symbol   string
	Message  string
}

func (d Diagnostic) String() string {
	s := fmt.Sprintf("[%s] %s", d.Severity, d.Kind)
	if d.Entry != "" {
		s += " entry=" + d.Entry
	}
	if d.Symbol != "" {
		s += " symbol=" + d.Symbol
	}
	return s + ": " + d.Message
}

// Sink receives diagnostics.
type Sink interface {
	Report(d Diagnostic)
}

// Discard drops every diagnostic.
var Discard Sink = discard{}

type discard struct{}

func (discard) Report(Diagnostic) {}

// Collector accumulates diagnostics in report order. Duplicates are dropped.
type Collector struct {
	mu    sync.Mutex
	items []Diagnostic
	seen  map[Diagnostic]bool
}

// NewCollector creates an empty collector.
func NewCollector() *Collector {
	return &Collector{seen: make(map[Diagnostic]bool)}
}

// Report implements Sink.
func (c *Collector) Report(d Diagnostic) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.seen[d] {
		return
	}
	c.seen[d] = true
	c.items = append(c.items, d)
}

// All returns a copy of the collected diagnostics.
func (c *Collector) All() []Diagnostic {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Diagnostic, len(c.items))
	copy(out, c.items)
	return out
}

// OfKind returns the collected diagnostics of kind k.
func (c *Collector) OfKind(k Kind) []Diagnostic {
	var out []Diagnostic
	for _, d := range c.All() {
		if d.Kind == k {
			out = append(out, d)
		}
	}
	return out
}

// Counts returns the number of diagnostics per kind.
func (c *Collector) Counts() map[Kind]int {
	counts := make(map[Kind]int)
	for _, d := range c.All() {
		counts[d.Kind]++
	}
	return counts
}

// SortedKinds returns the kinds present in counts in lexical order.
func SortedKinds(counts map[Kind]int) []Kind {
	kinds := make([]Kind, 0, len(counts))
	for k := range counts {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// LogSink writes diagnostics to a zap logger.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink creates a sink that logs at warn or error level by severity.
func NewLogSink(logger *zap.Logger) *LogSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSink{logger: logger}
}

// Report implements Sink.
func (s *LogSink) Report(d Diagnostic) {
	fields := []zap.Field{zap.String("kind", string(d.Kind))}
	if d.Entry != "" {
		fields = append(fields, zap.String("entry", d.Entry))
	}
	if d.Symbol != "" {
		fields = append(fields, zap.String("symbol", d.Symbol))
	}
	if d.Severity == Error {
		s.logger.Error(d.Message, fields...)
		return
	}
	s.logger.Warn(d.Message, fields...)
}

// Tee fans a diagnostic out to several sinks.
func Tee(sinks ...Sink) Sink {
	return tee(sinks)
}

type tee []Sink

func (t tee) Report(d Diagnostic) {
	for _, s := range t {
		s.Report(d)
	}
}

// WithEntry returns a sink that stamps every diagnostic with entry.
func WithEntry(s Sink, entry string) Sink {
	return entrySink{next: s, entry: entry}
}

type entrySink struct {
	next  Sink
	entry string
}

func (e entrySink) Report(d Diagnostic) {
	if d.Entry == "" {
		d.Entry = e.entry
	}
	e.next.Report(d)
}
