package symbols

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"
	"github.com/spf13/afero"
)

// compiledPattern holds both the pattern string and compiled glob
type compiledPattern struct {
	pattern string
	glob    glob.Glob
}

// Discovery finds files under a directory matching include globs and not
// matching ignore globs. Patterns are matched against slash-separated paths
// relative to the directory.
type Discovery struct {
	fs             afero.Fs
	rootDir        string
	patterns       []compiledPattern
	ignorePatterns []compiledPattern
}

// NewDiscovery compiles patterns for rootDir.
func NewDiscovery(fs afero.Fs, rootDir string, patterns, ignorePatterns []string) (*Discovery, error) {
	d := &Discovery{fs: fs, rootDir: rootDir}

	var err error
	if d.patterns, err = compilePatterns(patterns); err != nil {
		return nil, err
	}
	if d.ignorePatterns, err = compilePatterns(ignorePatterns); err != nil {
		return nil, err
	}
	return d, nil
}

func compilePatterns(patterns []string) ([]compiledPattern, error) {
	out := make([]compiledPattern, 0, len(patterns))
	for _, pattern := range patterns {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, fmt.Errorf("invalid glob pattern %q: %w", pattern, err)
		}
		out = append(out, compiledPattern{pattern: pattern, glob: g})
	}
	return out, nil
}

// Files walks the root directory and returns matching file paths in lexical
// order. A missing root directory yields no files and no error.
func (d *Discovery) Files() ([]string, error) {
	if _, err := d.fs.Stat(d.rootDir); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to stat %s: %w", d.rootDir, err)
	}

	var files []string
	err := afero.Walk(d.fs, d.rootDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		relPath, err := filepath.Rel(d.rootDir, path)
		if err != nil {
			return err
		}
		relPath = filepath.ToSlash(relPath)

		if info.IsDir() {
			if relPath != "." && d.ShouldIgnore(relPath) {
				return filepath.SkipDir
			}
			return nil
		}

		if d.ShouldIgnore(relPath) {
			return nil
		}
		if d.Matches(relPath) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", d.rootDir, err)
	}

	sort.Strings(files)
	return files, nil
}

// Matches reports whether relPath matches any include pattern.
func (d *Discovery) Matches(relPath string) bool {
	return matchesAnyPattern(relPath, d.patterns)
}

// ShouldIgnore reports whether relPath matches an ignore pattern, either
// directly or as a directory matched by a "dir/**" pattern.
func (d *Discovery) ShouldIgnore(relPath string) bool {
	if matchesAnyPattern(relPath, d.ignorePatterns) {
		return true
	}
	return matchesAnyPattern(relPath+"/**", d.ignorePatterns)
}

// Root returns the directory the discovery walks.
func (d *Discovery) Root() string {
	return d.rootDir
}

// matchesAnyPattern checks if a path matches any of the given patterns.
func matchesAnyPattern(path string, patterns []compiledPattern) bool {
	for _, cp := range patterns {
		if cp.glob.Match(path) {
			return true
		}
	}

	// Files at the root also match "**/" patterns with the prefix removed, so
	// "**/*.js" matches both "App.js" and "ui/Panel.js".
	if !strings.Contains(path, "/") {
		for _, cp := range patterns {
			if !strings.HasPrefix(cp.pattern, "**/") {
				continue
			}
			if g, err := glob.Compile(strings.TrimPrefix(cp.pattern, "**/"), '/'); err == nil && g.Match(path) {
				return true
			}
		}
	}
	return false
}
