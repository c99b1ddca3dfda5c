// Package pipeline runs a complete build: discover units, index them, resolve
// and bundle each entry, then document every symbol that was resolved.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/mvp-joe/stitch/internal/artifact"
	"github.com/mvp-joe/stitch/internal/bundler"
	"github.com/mvp-joe/stitch/internal/config"
	"github.com/mvp-joe/stitch/internal/diag"
	"github.com/mvp-joe/stitch/internal/docs"
	"github.com/mvp-joe/stitch/internal/manifest"
	"github.com/mvp-joe/stitch/internal/resolver"
	"github.com/mvp-joe/stitch/internal/symbols"
)

var (
	// ErrMissingEntry indicates a configured entry unit does not exist.
	ErrMissingEntry = errors.New("entry unit not found")
	// ErrUnknownEntry indicates a lookup named an entry that is not configured.
	ErrUnknownEntry = errors.New("unknown entry")
)

// EntryResult is the outcome of building one entry unit.
type EntryResult struct {
	Entry  string   // entry name relative to the entry directory
	Path   string   // entry path on the file system layer
	Output string   // written bundle path, empty on failure
	Order  []string // emission order of the resolved symbols
	Err    error
}

// Report summarizes one run.
type Report struct {
	RunID       string
	StartedAt   time.Time
	FinishedAt  time.Time
	Units       int
	Entries     []*EntryResult
	DocPaths    []string
	Diagnostics []diag.Diagnostic
	Skipped     bool // inputs unchanged since the last successful run
}

// OK returns the number of entries that produced a bundle.
func (r *Report) OK() int {
	n := 0
	for _, e := range r.Entries {
		if e.Err == nil {
			n++
		}
	}
	return n
}

// Failed returns the number of entries that did not produce a bundle.
func (r *Report) Failed() int {
	return len(r.Entries) - r.OK()
}

// Status classifies the run for the ledger.
func (r *Report) Status() string {
	switch {
	case r.Skipped || (r.OK() > 0 && r.Failed() == 0):
		return manifest.StatusOK
	case r.OK() > 0:
		return manifest.StatusPartial
	default:
		return manifest.StatusFailed
	}
}

// Symbols returns the union of resolved symbols over successful entries,
// in order of first emission.
func (r *Report) Symbols() []string {
	seen := make(map[string]bool)
	var out []string
	for _, e := range r.Entries {
		if e.Err != nil {
			continue
		}
		for _, s := range e.Order {
			if !seen[s] {
				seen[s] = true
				out = append(out, s)
			}
		}
	}
	return out
}

// Project is the indexed view of the source tree for one run.
type Project struct {
	Index   *symbols.Index
	Units   int
	Entries []string // configured order, or lexical when discovered
}

// Pipeline builds bundles and documentation for one project configuration.
type Pipeline struct {
	cfg       *config.Config
	rootDir   string
	fs        afero.Fs
	logger    *zap.Logger
	progress  ProgressReporter
	ledger    *manifest.Store
	sink      diag.Sink
	compactor bundler.Compactor
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithFs sets the file system layer. Defaults to the OS file system.
func WithFs(fs afero.Fs) Option {
	return func(p *Pipeline) { p.fs = fs }
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(p *Pipeline) { p.logger = logger }
}

// WithProgress sets the progress reporter.
func WithProgress(progress ProgressReporter) Option {
	return func(p *Pipeline) { p.progress = progress }
}

// WithLedger records every run in store and enables change detection.
func WithLedger(store *manifest.Store) Option {
	return func(p *Pipeline) { p.ledger = store }
}

// WithSink forwards diagnostics to sink in addition to the run report.
func WithSink(sink diag.Sink) Option {
	return func(p *Pipeline) { p.sink = sink }
}

// WithCompactor replaces the JS minifier used when minify is enabled.
func WithCompactor(c bundler.Compactor) Option {
	return func(p *Pipeline) { p.compactor = c }
}

// New creates a pipeline for cfg with relative paths resolved against rootDir.
func New(cfg *config.Config, rootDir string, opts ...Option) *Pipeline {
	p := &Pipeline{
		cfg:      cfg,
		rootDir:  rootDir,
		fs:       afero.NewOsFs(),
		logger:   zap.NewNop(),
		progress: &NoOpProgressReporter{},
		sink:     diag.Discard,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.sink == nil {
		p.sink = diag.Discard
	}
	return p
}

// Config returns the configuration the pipeline was created with.
func (p *Pipeline) Config() *config.Config { return p.cfg }

// Fs returns the file system layer.
func (p *Pipeline) Fs() afero.Fs { return p.fs }

// SourceDir returns the resolved source unit directory.
func (p *Pipeline) SourceDir() string { return config.Resolve(p.rootDir, p.cfg.SourceDir) }

// EntryDir returns the resolved entry unit directory.
func (p *Pipeline) EntryDir() string { return config.Resolve(p.rootDir, p.cfg.EntryDir) }

// OutputDir returns the resolved bundle directory.
func (p *Pipeline) OutputDir() string { return config.Resolve(p.rootDir, p.cfg.OutputDir) }

// DocsDir returns the resolved documentation directory.
func (p *Pipeline) DocsDir() string { return config.Resolve(p.rootDir, p.cfg.DocsOutputDir) }

// InputDirs returns the directories whose contents determine the output.
func (p *Pipeline) InputDirs() []string {
	dirs := []string{p.SourceDir()}
	if entryDir := p.EntryDir(); entryDir != dirs[0] {
		dirs = append(dirs, entryDir)
	}
	return dirs
}

// Inputs returns every path whose contents determine the output: the
// input directories and the project config file.
func (p *Pipeline) Inputs() []string {
	return append(p.InputDirs(), p.cfg.FilePaths(p.rootDir)...)
}

// Docs returns a documentation generator for the configured docs directory.
func (p *Pipeline) Docs() *docs.Generator {
	return docs.NewGenerator(p.fs, p.DocsDir(), docs.Options{
		BaseURL:   p.cfg.DocsBaseURL,
		CodeFence: p.cfg.CodeFence,
	})
}

// Changed reports whether the inputs differ from the snapshot of the last
// successful run. Without a ledger every call reports a change.
func (p *Pipeline) Changed() (bool, *manifest.ChangeSet, error) {
	cur, err := manifest.TakeSnapshot(p.fs, p.Inputs()...)
	if err != nil {
		return false, nil, err
	}
	if p.ledger == nil {
		return true, manifest.Diff(manifest.Snapshot{}, cur), nil
	}
	prev, err := p.ledger.LastSnapshot()
	if err != nil {
		return false, nil, err
	}
	changes := manifest.Diff(prev, cur)
	return !changes.Empty(), changes, nil
}

// Load discovers and indexes the source units and lists the entry units.
func (p *Pipeline) Load(sink diag.Sink) (*Project, error) {
	if sink == nil {
		sink = diag.Discard
	}

	srcDir := p.SourceDir()
	discovery, err := symbols.NewDiscovery(p.fs, srcDir, p.cfg.SourcePatterns, p.cfg.Ignore)
	if err != nil {
		return nil, err
	}
	files, err := discovery.Files()
	if err != nil {
		return nil, fmt.Errorf("failed to discover source units: %w", err)
	}
	units, err := symbols.Load(p.fs, srcDir, files, p.cfg.Aliases)
	if err != nil {
		return nil, err
	}

	policy, err := symbols.ParseCollisionPolicy(p.cfg.CollisionPolicy)
	if err != nil {
		return nil, err
	}
	index, err := symbols.Build(units, policy, sink)
	if err != nil {
		return nil, err
	}

	entries, err := p.entryPaths(sink)
	if err != nil {
		return nil, err
	}

	return &Project{Index: index, Units: len(units), Entries: entries}, nil
}

// entryPaths returns the explicit entries when configured, otherwise every
// file in the entry directory matching the entry pattern.
func (p *Pipeline) entryPaths(sink diag.Sink) ([]string, error) {
	entryDir := p.EntryDir()

	if len(p.cfg.Entries) > 0 {
		paths := make([]string, 0, len(p.cfg.Entries))
		for _, e := range p.cfg.Entries {
			paths = append(paths, config.Resolve(entryDir, e))
		}
		return paths, nil
	}

	discovery, err := symbols.NewDiscovery(p.fs, entryDir, []string{p.cfg.EntryPattern}, nil)
	if err != nil {
		return nil, err
	}
	paths, err := discovery.Files()
	if err != nil {
		return nil, fmt.Errorf("failed to discover entry units: %w", err)
	}
	if len(paths) == 0 {
		sink.Report(diag.Diagnostic{
			Kind:     diag.MissingEntry,
			Severity: diag.Error,
			Message:  fmt.Sprintf("no entry units match %q in %s", p.cfg.EntryPattern, entryDir),
		})
	}
	return paths, nil
}

// EntryName returns the name of an entry path relative to the entry directory.
func (p *Pipeline) EntryName(path string) string {
	rel, err := filepath.Rel(p.EntryDir(), path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return filepath.Base(path)
	}
	return filepath.ToSlash(rel)
}

// Run performs one full build. Entry failures are recorded in the report and
// do not stop other entries; the returned error covers run-wide failures
// such as an ambiguous symbol under the error policy or a failed docs write.
func (p *Pipeline) Run(ctx context.Context) (*Report, error) {
	collector := diag.NewCollector()
	sink := diag.Tee(collector, diag.NewLogSink(p.logger), p.sink)

	report := &Report{
		RunID:     uuid.New().String(),
		StartedAt: time.Now(),
	}
	logger := p.logger.With(zap.String("run_id", report.RunID))

	snapshot, err := manifest.TakeSnapshot(p.fs, p.Inputs()...)
	if err != nil {
		return p.finish(report, collector, nil, err)
	}

	p.progress.OnDiscoveryStart()
	proj, err := p.Load(sink)
	if err != nil {
		return p.finish(report, collector, nil, err)
	}
	report.Units = proj.Units
	p.progress.OnDiscoveryComplete(proj.Units, len(proj.Entries))
	logger.Info("indexed source units",
		zap.Int("units", proj.Units),
		zap.Int("symbols", len(proj.Index.Providers)),
		zap.Int("entries", len(proj.Entries)))

	r, err := resolver.New(proj.Index, resolver.Options{
		Leaders:       p.cfg.PinnedLeaders,
		IgnoreSymbols: p.cfg.IgnoreSymbols,
	})
	if err != nil {
		return p.finish(report, collector, nil, err)
	}
	defer r.Close()

	tails := p.tailUnits(proj.Index, sink)

	p.progress.OnEntryProcessingStart(len(proj.Entries))
	for _, path := range proj.Entries {
		if err := ctx.Err(); err != nil {
			return p.finish(report, collector, nil, err)
		}

		res := p.buildEntry(r, proj, path, tails, sink)
		report.Entries = append(report.Entries, res)
		p.progress.OnEntryProcessed(res.Entry)

		if res.Err != nil {
			logger.Error("entry failed", zap.String("entry", res.Entry), zap.Error(res.Err))
			continue
		}
		logger.Info("bundle written",
			zap.String("entry", res.Entry),
			zap.String("output", res.Output),
			zap.Int("symbols", len(res.Order)))
	}

	if p.cfg.GenerateDocs && report.OK() > 0 {
		paths, err := p.writeDocs(report.Symbols(), proj.Index, sink)
		report.DocPaths = paths
		if err != nil {
			return p.finish(report, collector, nil, err)
		}
		logger.Info("documentation written", zap.Int("files", len(paths)), zap.String("dir", p.DocsDir()))
	}

	return p.finish(report, collector, snapshot, nil)
}

// buildEntry resolves, bundles and writes one entry. It never panics on a
// bad entry; every failure lands in the result.
func (p *Pipeline) buildEntry(r *resolver.Resolver, proj *Project, path string, tails []*symbols.SourceUnit, sink diag.Sink) *EntryResult {
	name := p.EntryName(path)
	res := &EntryResult{Entry: name, Path: path}
	sink = diag.WithEntry(sink, name)

	content, err := p.readEntry(path, name, sink)
	if err != nil {
		res.Err = err
		return res
	}

	resolution, err := p.resolveText(r, content, sink)
	if err != nil {
		res.Err = err
		return res
	}

	text, err := bundler.Bundle(resolution.Order, proj.Index, bundler.Entry{Name: name, Content: content}, tails, bundler.Options{
		Minify:    p.cfg.Minify,
		Compactor: p.compactor,
	})
	if err != nil {
		res.Err = err
		return res
	}

	out, err := artifact.Write(p.fs, p.OutputDir(), bundler.OutputName(name, p.cfg.EntryPrefix), text)
	if err != nil {
		res.Err = err
		return res
	}

	res.Output = out
	res.Order = resolution.Order
	return res
}

func (p *Pipeline) readEntry(path, name string, sink diag.Sink) (string, error) {
	data, err := afero.ReadFile(p.fs, path)
	if err == nil {
		return string(data), nil
	}
	if errors.Is(err, os.ErrNotExist) {
		sink.Report(diag.Diagnostic{
			Kind:     diag.MissingEntry,
			Severity: diag.Error,
			Message:  fmt.Sprintf("entry unit %s not found", path),
		})
		return "", fmt.Errorf("%w: %s", ErrMissingEntry, name)
	}
	return "", fmt.Errorf("failed to read entry %s: %w", name, err)
}

// resolveText seeds the resolver from entry text and resolves the closure.
func (p *Pipeline) resolveText(r *resolver.Resolver, content string, sink diag.Sink) (*resolver.Resolution, error) {
	seeds, missing := r.Seeds(content)
	for _, name := range missing {
		sink.Report(diag.Diagnostic{
			Kind:     diag.UnresolvedDependency,
			Severity: diag.Warning,
			Symbol:   name,
			Message:  "referenced by entry but has no provider",
		})
	}
	return r.Resolve(seeds, sink)
}

// tailUnits looks up the configured tail symbols. Tails without a provider
// are reported and skipped.
func (p *Pipeline) tailUnits(index *symbols.Index, sink diag.Sink) []*symbols.SourceUnit {
	var tails []*symbols.SourceUnit
	for _, symbol := range p.cfg.TailUnits {
		unit, ok := index.Unit(symbol)
		if !ok {
			sink.Report(diag.Diagnostic{
				Kind:     diag.UnresolvedDependency,
				Severity: diag.Warning,
				Symbol:   symbol,
				Message:  "tail unit has no provider",
			})
			continue
		}
		tails = append(tails, unit)
	}
	return tails
}

func (p *Pipeline) writeDocs(order []string, index *symbols.Index, sink diag.Sink) ([]string, error) {
	gen := p.Docs()
	res := gen.Generate(order, index)
	docs.Report(res, sink)
	p.progress.OnDocsStart(len(res.Pages))
	return gen.Write(res)
}

// Resolve resolves a single configured entry without writing anything.
// entry may be the entry name, its base name or its path.
func (p *Pipeline) Resolve(entry string) (*resolver.Resolution, []diag.Diagnostic, error) {
	collector := diag.NewCollector()
	proj, err := p.Load(collector)
	if err != nil {
		return nil, collector.All(), err
	}

	path := ""
	for _, candidate := range proj.Entries {
		name := p.EntryName(candidate)
		if entry == candidate || entry == name || entry == filepath.Base(candidate) {
			path = candidate
			break
		}
	}
	if path == "" {
		return nil, collector.All(), fmt.Errorf("%w: %s", ErrUnknownEntry, entry)
	}

	r, err := resolver.New(proj.Index, resolver.Options{
		Leaders:       p.cfg.PinnedLeaders,
		IgnoreSymbols: p.cfg.IgnoreSymbols,
	})
	if err != nil {
		return nil, collector.All(), err
	}
	defer r.Close()

	sink := diag.WithEntry(collector, p.EntryName(path))
	content, err := p.readEntry(path, p.EntryName(path), sink)
	if err != nil {
		return nil, collector.All(), err
	}
	resolution, err := p.resolveText(r, content, sink)
	return resolution, collector.All(), err
}

// finish stamps the report, records it in the ledger and saves the input
// snapshot when at least one entry succeeded and no run-wide error occurred.
func (p *Pipeline) finish(report *Report, collector *diag.Collector, snapshot manifest.Snapshot, runErr error) (*Report, error) {
	report.FinishedAt = time.Now()
	report.Diagnostics = collector.All()

	if p.ledger != nil {
		if err := p.ledger.RecordRun(p.ledgerRun(report, runErr)); err != nil {
			p.logger.Warn("failed to record run", zap.String("run_id", report.RunID), zap.Error(err))
		}
		if runErr == nil && snapshot != nil && report.OK() > 0 {
			if err := p.ledger.SaveSnapshot(snapshot); err != nil {
				p.logger.Warn("failed to save input snapshot", zap.Error(err))
			}
		}
	}

	p.progress.OnComplete(report)
	return report, runErr
}

func (p *Pipeline) ledgerRun(report *Report, runErr error) *manifest.Run {
	status := report.Status()
	if runErr != nil {
		status = manifest.StatusFailed
	}
	run := &manifest.Run{
		ID:            report.RunID,
		StartedAt:     report.StartedAt,
		FinishedAt:    report.FinishedAt,
		Status:        status,
		EntriesOK:     report.OK(),
		EntriesFailed: report.Failed(),
		Diagnostics:   len(report.Diagnostics),
	}
	for _, e := range report.Entries {
		rec := manifest.EntryRecord{Entry: e.Entry, Output: e.Output, Symbols: len(e.Order)}
		if e.Err != nil {
			rec.Error = e.Err.Error()
		}
		run.Entries = append(run.Entries, rec)
	}
	return run
}

// RunIfChanged runs the pipeline only when the inputs changed since the last
// successful run. A skipped run returns a report with Skipped set and is
// not recorded.
func (p *Pipeline) RunIfChanged(ctx context.Context) (*Report, error) {
	changed, changes, err := p.Changed()
	if err != nil {
		return nil, err
	}
	if !changed {
		now := time.Now()
		p.logger.Info("inputs unchanged, skipping build")
		return &Report{StartedAt: now, FinishedAt: now, Skipped: true}, nil
	}
	p.logger.Debug("inputs changed",
		zap.Int("added", len(changes.Added)),
		zap.Int("modified", len(changes.Modified)),
		zap.Int("deleted", len(changes.Deleted)))
	return p.Run(ctx)
}
