package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gobwas/glob"

	"github.com/mvp-joe/stitch/internal/symbols"
)

var (
	// ErrEmptySourceDir indicates a missing source_dir
	ErrEmptySourceDir = errors.New("empty source directory")

	// ErrNoPatterns indicates no source patterns are configured
	ErrNoPatterns = errors.New("no source patterns")

	// ErrInvalidPattern indicates a glob that does not compile
	ErrInvalidPattern = errors.New("invalid glob pattern")

	// ErrNoEntries indicates neither entries nor entry_pattern is set
	ErrNoEntries = errors.New("no entry units configured")

	// ErrEmptyOutputDir indicates a missing output directory
	ErrEmptyOutputDir = errors.New("empty output directory")

	// ErrInvalidAlias indicates an alias whose target is not a symbol name
	ErrInvalidAlias = errors.New("invalid alias")

	// ErrDuplicateLeader indicates a pinned leader listed twice
	ErrDuplicateLeader = errors.New("duplicate pinned leader")

	// ErrInvalidWatch indicates non-positive watch intervals
	ErrInvalidWatch = errors.New("invalid watch settings")
)

// Validate checks that the configuration is valid and complete.
func Validate(cfg *Config) error {
	var errs []error

	if err := validateSources(cfg); err != nil {
		errs = append(errs, err)
	}

	if err := validateEntries(cfg); err != nil {
		errs = append(errs, err)
	}

	if err := validateResolution(cfg); err != nil {
		errs = append(errs, err)
	}

	if err := validateOutput(cfg); err != nil {
		errs = append(errs, err)
	}

	if cfg.Watch.DebounceMs <= 0 || cfg.Watch.PollIntervalMs <= 0 {
		errs = append(errs, fmt.Errorf("%w: debounce_ms and poll_interval_ms must be positive, got %d and %d",
			ErrInvalidWatch, cfg.Watch.DebounceMs, cfg.Watch.PollIntervalMs))
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}

	return nil
}

func validateSources(cfg *Config) error {
	var errs []error

	if strings.TrimSpace(cfg.SourceDir) == "" {
		errs = append(errs, fmt.Errorf("%w: source_dir is required", ErrEmptySourceDir))
	}
	if len(cfg.SourcePatterns) == 0 {
		errs = append(errs, fmt.Errorf("%w: at least one source pattern required", ErrNoPatterns))
	}
	errs = append(errs, checkGlobs("source_patterns", cfg.SourcePatterns)...)
	errs = append(errs, checkGlobs("ignore", cfg.Ignore)...)

	if len(errs) > 0 {
		return joinErrors(errs)
	}
	return nil
}

func validateEntries(cfg *Config) error {
	if len(cfg.Entries) == 0 && strings.TrimSpace(cfg.EntryPattern) == "" {
		return fmt.Errorf("%w: set entries or entry_pattern", ErrNoEntries)
	}
	if len(cfg.Entries) == 0 {
		if errs := checkGlobs("entry_pattern", []string{cfg.EntryPattern}); len(errs) > 0 {
			return errs[0]
		}
	}
	return nil
}

func validateResolution(cfg *Config) error {
	var errs []error

	if _, err := symbols.ParseCollisionPolicy(cfg.CollisionPolicy); err != nil {
		errs = append(errs, err)
	}

	for stem, symbol := range cfg.Aliases {
		if !symbols.IsSymbolShaped(symbol) {
			errs = append(errs, fmt.Errorf("%w: %s -> %q is not a capitalized identifier", ErrInvalidAlias, stem, symbol))
		}
	}

	seen := make(map[string]bool)
	for _, leader := range cfg.PinnedLeaders {
		if seen[leader] {
			errs = append(errs, fmt.Errorf("%w: %s", ErrDuplicateLeader, leader))
		}
		seen[leader] = true
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}
	return nil
}

func validateOutput(cfg *Config) error {
	var errs []error

	if strings.TrimSpace(cfg.OutputDir) == "" {
		errs = append(errs, fmt.Errorf("%w: output_dir is required", ErrEmptyOutputDir))
	}
	if cfg.GenerateDocs && strings.TrimSpace(cfg.DocsOutputDir) == "" {
		errs = append(errs, fmt.Errorf("%w: docs_output_dir is required when generate_docs is set", ErrEmptyOutputDir))
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}
	return nil
}

func checkGlobs(key string, patterns []string) []error {
	var errs []error
	for _, p := range patterns {
		if _, err := glob.Compile(p, '/'); err != nil {
			errs = append(errs, fmt.Errorf("%w: %s entry %q: %v", ErrInvalidPattern, key, p, err))
		}
	}
	return errs
}

// joinErrors combines multiple errors into a single error with clear formatting.
// Every error stays reachable through errors.Is and errors.As.
func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}

	if len(errs) == 1 {
		return errs[0]
	}

	format := "validation failed:" + strings.Repeat("\n  - %w", len(errs))
	args := make([]any, len(errs))
	for i, err := range errs {
		args[i] = err
	}
	return fmt.Errorf(format, args...)
}
