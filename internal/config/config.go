// Package config provides configuration loading for stitch.
//
// Configuration Hierarchy (highest to lowest priority):
//  1. Environment variables (STITCH_*)
//  2. Project config (.stitch/config.yml or .stitch/config.yaml, or --config)
//  3. Built-in defaults
//
// Relative paths are resolved against the project root passed to the loader.
package config

import (
	"path/filepath"
	"time"
)

// ConfigDir is the project directory holding config and the build ledger.
const ConfigDir = ".stitch"

// Config represents the complete stitch configuration.
type Config struct {
	// Source units: one public symbol per file.
	SourceDir      string   `yaml:"source_dir" mapstructure:"source_dir"`
	SourcePatterns []string `yaml:"source_patterns" mapstructure:"source_patterns"` // glob patterns relative to source_dir
	Ignore         []string `yaml:"ignore" mapstructure:"ignore"`                   // glob patterns to skip

	// Entry units: one output bundle each.
	EntryDir     string   `yaml:"entry_dir" mapstructure:"entry_dir"`
	EntryPattern string   `yaml:"entry_pattern" mapstructure:"entry_pattern"` // e.g. "init_*.js"
	EntryPrefix  string   `yaml:"entry_prefix" mapstructure:"entry_prefix"`   // stripped from output names
	Entries      []string `yaml:"entries" mapstructure:"entries"`             // explicit entry files; overrides entry_pattern

	// Resolution.
	PinnedLeaders   []string          `yaml:"pinned_leaders" mapstructure:"pinned_leaders"`
	Aliases         map[string]string `yaml:"aliases" mapstructure:"aliases"` // file stem -> public symbol
	TailUnits       []string          `yaml:"tail_units" mapstructure:"tail_units"`
	IgnoreSymbols   []string          `yaml:"ignore_symbols" mapstructure:"ignore_symbols"`
	CollisionPolicy string            `yaml:"collision_policy" mapstructure:"collision_policy"` // first-wins, last-wins or error

	// Output.
	Minify        bool   `yaml:"minify" mapstructure:"minify"`
	GenerateDocs  bool   `yaml:"generate_docs" mapstructure:"generate_docs"`
	OutputDir     string `yaml:"output_dir" mapstructure:"output_dir"`
	DocsOutputDir string `yaml:"docs_output_dir" mapstructure:"docs_output_dir"`
	DocsBaseURL   string `yaml:"docs_base_url" mapstructure:"docs_base_url"`
	CodeFence     string `yaml:"code_fence" mapstructure:"code_fence"`

	ManifestPath string      `yaml:"manifest_path" mapstructure:"manifest_path"`
	Watch        WatchConfig `yaml:"watch" mapstructure:"watch"`

	// File is the config file that was read, empty when none was found.
	File string `yaml:"-" mapstructure:"-"`
}

// WatchConfig controls watch mode.
type WatchConfig struct {
	DebounceMs     int `yaml:"debounce_ms" mapstructure:"debounce_ms"`
	PollIntervalMs int `yaml:"poll_interval_ms" mapstructure:"poll_interval_ms"`
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		SourceDir:      "src/class",
		SourcePatterns: []string{"**/*.js"},
		Ignore: []string{
			"**/*.min.js",
			"node_modules/**",
		},
		EntryDir:        "src/config",
		EntryPattern:    "init_*.js",
		EntryPrefix:     "init_",
		Entries:         []string{},
		PinnedLeaders:   []string{},
		Aliases:         map[string]string{},
		TailUnits:       []string{},
		IgnoreSymbols:   []string{},
		CollisionPolicy: "first-wins",
		Minify:          false,
		GenerateDocs:    true,
		OutputDir:       "static/data",
		DocsOutputDir:   "documentation/pages",
		DocsBaseURL:     "",
		CodeFence:       "javascript",
		ManifestPath:    filepath.Join(ConfigDir, "manifest.db"),
		Watch: WatchConfig{
			DebounceMs:     500,
			PollIntervalMs: 500,
		},
	}
}

// FilePaths returns the config files that determine cfg: the file that was
// read, or the default locations under rootDir when none was found.
func (c *Config) FilePaths(rootDir string) []string {
	if c.File != "" {
		return []string{c.File}
	}
	dir := filepath.Join(rootDir, ConfigDir)
	return []string{filepath.Join(dir, "config.yml"), filepath.Join(dir, "config.yaml")}
}

// Resolve returns p joined to rootDir unless p is absolute.
func Resolve(rootDir, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(rootDir, p)
}

// Debounce returns the watch debounce interval.
func (w WatchConfig) Debounce() time.Duration {
	return time.Duration(w.DebounceMs) * time.Millisecond
}

// PollInterval returns the polling interval used when file events are unavailable.
func (w WatchConfig) PollInterval() time.Duration {
	return time.Duration(w.PollIntervalMs) * time.Millisecond
}
