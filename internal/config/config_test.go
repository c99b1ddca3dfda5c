package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/mvp-joe/stitch/internal/symbols"
)

// Test Plan for Config System:
// - Default() returns valid configuration with all expected defaults
// - Load() uses defaults when no config file exists
// - Load() loads from .stitch/config.yml and .stitch/config.yaml
// - Load() merges config file with defaults
// - Environment variables override config file values and defaults
// - Load() reads an explicit config file and fails when it is missing
// - Load() returns error for malformed YAML and invalid values
// - Load() reads from an afero file system
// - Validate() rejects each invalid field with its sentinel
// - Validate() returns multiple errors for multiple invalid fields
// - WriteDefault() writes a loadable file and refuses to overwrite without force

func TestDefault_ReturnsValidConfiguration(t *testing.T) {
	// Test: Default() returns valid configuration
	cfg := Default()

	require.NotNil(t, cfg)
	assert.Equal(t, "src/class", cfg.SourceDir)
	assert.Equal(t, []string{"**/*.js"}, cfg.SourcePatterns)
	assert.Equal(t, "src/config", cfg.EntryDir)
	assert.Equal(t, "init_*.js", cfg.EntryPattern)
	assert.Equal(t, "init_", cfg.EntryPrefix)
	assert.Equal(t, "first-wins", cfg.CollisionPolicy)
	assert.False(t, cfg.Minify)
	assert.True(t, cfg.GenerateDocs)
	assert.Equal(t, "static/data", cfg.OutputDir)
	assert.Equal(t, "javascript", cfg.CodeFence)
	assert.Equal(t, filepath.Join(".stitch", "manifest.db"), cfg.ManifestPath)
	assert.Equal(t, 500, cfg.Watch.DebounceMs)
	assert.Equal(t, 500, cfg.Watch.PollIntervalMs)

	assert.NoError(t, Validate(cfg))
}

func TestLoader_UsesDefaultsWhenNoConfigFile(t *testing.T) {
	// Test: Load from directory with no config file returns defaults
	tempDir := t.TempDir()

	cfg, err := NewLoader(tempDir).Load()
	require.NoError(t, err)

	expected := Default()
	assert.Equal(t, expected.SourceDir, cfg.SourceDir)
	assert.Equal(t, expected.SourcePatterns, cfg.SourcePatterns)
	assert.Equal(t, expected.Watch, cfg.Watch)
	assert.NotNil(t, cfg.Aliases)

	// Test: without a file the default locations are the config inputs
	assert.Empty(t, cfg.File)
	assert.Equal(t, []string{
		filepath.Join(tempDir, ".stitch", "config.yml"),
		filepath.Join(tempDir, ".stitch", "config.yaml"),
	}, cfg.FilePaths(tempDir))
}

func writeConfig(t *testing.T, dir, name, content string) {
	t.Helper()
	stitchDir := filepath.Join(dir, ".stitch")
	require.NoError(t, os.MkdirAll(stitchDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(stitchDir, name), []byte(content), 0644))
}

func TestLoader_LoadsFromConfigYml(t *testing.T) {
	// Test: Load from .stitch/config.yml
	tempDir := t.TempDir()
	writeConfig(t, tempDir, "config.yml", `
source_dir: app/classes
pinned_leaders: [Diagnostics, Context]
aliases:
  chat_manager: ChatManager
tail_units: [DiagnosticsTests]
collision_policy: error
minify: true
watch:
  debounce_ms: 250
`)

	cfg, err := NewLoader(tempDir).Load()
	require.NoError(t, err)

	assert.Equal(t, "app/classes", cfg.SourceDir)
	assert.Equal(t, []string{"Diagnostics", "Context"}, cfg.PinnedLeaders)
	assert.Equal(t, map[string]string{"chat_manager": "ChatManager"}, cfg.Aliases)
	assert.Equal(t, []string{"DiagnosticsTests"}, cfg.TailUnits)
	assert.Equal(t, "error", cfg.CollisionPolicy)
	assert.True(t, cfg.Minify)
	assert.Equal(t, 250, cfg.Watch.DebounceMs)

	// Test: unset keys keep their defaults
	assert.Equal(t, 500, cfg.Watch.PollIntervalMs)
	assert.Equal(t, "init_", cfg.EntryPrefix)

	// Test: the file that was read is recorded
	path := filepath.Join(tempDir, ".stitch", "config.yml")
	assert.Equal(t, path, cfg.File)
	assert.Equal(t, []string{path}, cfg.FilePaths(tempDir))
}

func TestLoader_LoadsFromConfigYaml(t *testing.T) {
	// Test: Load from .stitch/config.yaml
	tempDir := t.TempDir()
	writeConfig(t, tempDir, "config.yaml", "output_dir: public/js\n")

	cfg, err := NewLoader(tempDir).Load()
	require.NoError(t, err)
	assert.Equal(t, "public/js", cfg.OutputDir)
}

func TestLoader_EnvOverridesFile(t *testing.T) {
	// Test: STITCH_* variables win over the config file
	tempDir := t.TempDir()
	writeConfig(t, tempDir, "config.yml", "output_dir: from-file\nminify: false\n")

	t.Setenv("STITCH_OUTPUT_DIR", "from-env")
	t.Setenv("STITCH_MINIFY", "true")
	t.Setenv("STITCH_WATCH_DEBOUNCE_MS", "900")
	t.Setenv("STITCH_PINNED_LEADERS", "Diagnostics,Context")

	cfg, err := NewLoader(tempDir).Load()
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.OutputDir)
	assert.True(t, cfg.Minify)
	assert.Equal(t, 900, cfg.Watch.DebounceMs)
	assert.Equal(t, []string{"Diagnostics", "Context"}, cfg.PinnedLeaders)
}

func TestLoader_ExplicitFile(t *testing.T) {
	tempDir := t.TempDir()
	path := filepath.Join(tempDir, "custom.yml")
	require.NoError(t, os.WriteFile(path, []byte("entry_prefix: page_\n"), 0644))

	cfg, err := NewLoader(tempDir, WithConfigFile(path)).Load()
	require.NoError(t, err)
	assert.Equal(t, "page_", cfg.EntryPrefix)

	// Test: a missing explicit file is an error, not a silent fallback
	_, err = NewLoader(tempDir, WithConfigFile(filepath.Join(tempDir, "missing.yml"))).Load()
	require.Error(t, err)
}

func TestLoader_MalformedYAML(t *testing.T) {
	tempDir := t.TempDir()
	writeConfig(t, tempDir, "config.yml", "source_dir: [unclosed\n")

	_, err := NewLoader(tempDir).Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoader_InvalidValues(t *testing.T) {
	tempDir := t.TempDir()
	writeConfig(t, tempDir, "config.yml", "collision_policy: newest\n")

	_, err := NewLoader(tempDir).Load()
	require.Error(t, err)
	assert.ErrorIs(t, err, symbols.ErrInvalidPolicy)
}

func TestLoader_AferoFs(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/proj/.stitch/config.yml", []byte("docs_base_url: https://docs.test/pages\n"), 0644))

	cfg, err := NewLoader("/proj", WithFs(fs)).Load()
	require.NoError(t, err)
	assert.Equal(t, "https://docs.test/pages", cfg.DocsBaseURL)
}

func TestValidate_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"empty source dir", func(c *Config) { c.SourceDir = " " }, ErrEmptySourceDir},
		{"no patterns", func(c *Config) { c.SourcePatterns = nil }, ErrNoPatterns},
		{"bad pattern", func(c *Config) { c.Ignore = []string{"[oops"} }, ErrInvalidPattern},
		{"no entries", func(c *Config) { c.EntryPattern = ""; c.Entries = nil }, ErrNoEntries},
		{"bad policy", func(c *Config) { c.CollisionPolicy = "random" }, symbols.ErrInvalidPolicy},
		{"bad alias", func(c *Config) { c.Aliases = map[string]string{"x": "lower"} }, ErrInvalidAlias},
		{"duplicate leader", func(c *Config) { c.PinnedLeaders = []string{"A", "A"} }, ErrDuplicateLeader},
		{"no output", func(c *Config) { c.OutputDir = "" }, ErrEmptyOutputDir},
		{"no docs output", func(c *Config) { c.DocsOutputDir = "" }, ErrEmptyOutputDir},
		{"bad watch", func(c *Config) { c.Watch.DebounceMs = 0 }, ErrInvalidWatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.ErrorIs(t, Validate(cfg), tt.want)
		})
	}
}

func TestValidate_DocsDirOptionalWithoutDocs(t *testing.T) {
	cfg := Default()
	cfg.GenerateDocs = false
	cfg.DocsOutputDir = ""
	assert.NoError(t, Validate(cfg))
}

func TestValidate_MultipleErrors(t *testing.T) {
	cfg := Default()
	cfg.SourceDir = ""
	cfg.OutputDir = ""
	cfg.CollisionPolicy = "nope"

	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
	assert.ErrorIs(t, err, ErrEmptySourceDir)
	assert.ErrorIs(t, err, ErrEmptyOutputDir)
	assert.ErrorIs(t, err, symbols.ErrInvalidPolicy)
}

func TestWriteDefault(t *testing.T) {
	fs := afero.NewMemMapFs()

	path, err := WriteDefault(fs, "/proj", false)
	require.NoError(t, err)
	assert.Equal(t, "/proj/.stitch/config.yml", path)

	data, err := afero.ReadFile(fs, path)
	require.NoError(t, err)

	var decoded Config
	require.NoError(t, yaml.Unmarshal(data, &decoded))
	assert.Equal(t, Default().SourceDir, decoded.SourceDir)
	assert.Equal(t, Default().Watch, decoded.Watch)

	// Test: the written file loads back to the defaults
	cfg, err := NewLoader("/proj", WithFs(fs)).Load()
	require.NoError(t, err)
	assert.Equal(t, Default().EntryPattern, cfg.EntryPattern)

	_, err = WriteDefault(fs, "/proj", false)
	assert.ErrorIs(t, err, ErrConfigExists)

	_, err = WriteDefault(fs, "/proj", true)
	assert.NoError(t, err)
}
