package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

// Loader provides configuration loading capabilities.
type Loader interface {
	// Load loads configuration from file and environment variables.
	// Priority: defaults → config file → environment variables (env wins)
	Load() (*Config, error)
}

// LoaderOption customizes a loader.
type LoaderOption func(*loader)

// WithFs reads the config file from fs instead of the OS file system.
func WithFs(fs afero.Fs) LoaderOption {
	return func(l *loader) { l.fs = fs }
}

// WithConfigFile reads exactly this file. A missing file is an error.
func WithConfigFile(path string) LoaderOption {
	return func(l *loader) { l.configFile = path }
}

type loader struct {
	rootDir    string
	configFile string
	fs         afero.Fs
}

// NewLoader creates a new configuration loader for the given root directory.
func NewLoader(rootDir string, opts ...LoaderOption) Loader {
	l := &loader{rootDir: rootDir}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load loads configuration with the following priority (highest to lowest):
// 1. Environment variables (STITCH_*)
// 2. Config file (.stitch/config.yml or .stitch/config.yaml)
// 3. Default values
func (l *loader) Load() (*Config, error) {
	v := viper.New()
	if l.fs != nil {
		v.SetFs(l.fs)
	}

	if l.configFile != "" {
		v.SetConfigFile(l.configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(filepath.Join(l.rootDir, ConfigDir))
	}

	// Enable environment variable overrides
	v.SetEnvPrefix("STITCH")
	v.AutomaticEnv()
	// Replace . with _ in env var names (e.g., STITCH_WATCH_DEBOUNCE_MS)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Bind environment variables to config keys
	for _, key := range []string{
		"source_dir", "source_patterns", "ignore",
		"entry_dir", "entry_pattern", "entry_prefix", "entries",
		"pinned_leaders", "tail_units", "ignore_symbols", "collision_policy",
		"minify", "generate_docs", "output_dir", "docs_output_dir", "docs_base_url", "code_fence",
		"manifest_path", "watch.debounce_ms", "watch.poll_interval_ms",
	} {
		v.BindEnv(key)
	}

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// Config file not found is acceptable - we'll use defaults + env vars
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || l.configFile != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if cfg.Aliases == nil {
		cfg.Aliases = map[string]string{}
	}
	cfg.File = v.ConfigFileUsed()

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setDefaults configures viper with default values.
func setDefaults(v *viper.Viper) {
	defaults := Default()

	v.SetDefault("source_dir", defaults.SourceDir)
	v.SetDefault("source_patterns", defaults.SourcePatterns)
	v.SetDefault("ignore", defaults.Ignore)

	v.SetDefault("entry_dir", defaults.EntryDir)
	v.SetDefault("entry_pattern", defaults.EntryPattern)
	v.SetDefault("entry_prefix", defaults.EntryPrefix)
	v.SetDefault("entries", defaults.Entries)

	v.SetDefault("pinned_leaders", defaults.PinnedLeaders)
	v.SetDefault("aliases", defaults.Aliases)
	v.SetDefault("tail_units", defaults.TailUnits)
	v.SetDefault("ignore_symbols", defaults.IgnoreSymbols)
	v.SetDefault("collision_policy", defaults.CollisionPolicy)

	v.SetDefault("minify", defaults.Minify)
	v.SetDefault("generate_docs", defaults.GenerateDocs)
	v.SetDefault("output_dir", defaults.OutputDir)
	v.SetDefault("docs_output_dir", defaults.DocsOutputDir)
	v.SetDefault("docs_base_url", defaults.DocsBaseURL)
	v.SetDefault("code_fence", defaults.CodeFence)

	v.SetDefault("manifest_path", defaults.ManifestPath)
	v.SetDefault("watch.debounce_ms", defaults.Watch.DebounceMs)
	v.SetDefault("watch.poll_interval_ms", defaults.Watch.PollIntervalMs)
}
