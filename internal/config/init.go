package config

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// ErrConfigExists indicates WriteDefault would overwrite an existing file.
var ErrConfigExists = errors.New("config file already exists")

// WriteDefault writes the default configuration to .stitch/config.yml under
// rootDir and returns its path. An existing file is kept unless force is set.
func WriteDefault(fs afero.Fs, rootDir string, force bool) (string, error) {
	dir := filepath.Join(rootDir, ConfigDir)
	path := filepath.Join(dir, "config.yml")

	if exists, err := afero.Exists(fs, path); err != nil {
		return "", fmt.Errorf("failed to check %s: %w", path, err)
	} else if exists && !force {
		return "", fmt.Errorf("%w: %s", ErrConfigExists, path)
	}

	data, err := yaml.Marshal(Default())
	if err != nil {
		return "", fmt.Errorf("failed to encode default config: %w", err)
	}

	if err := fs.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", dir, err)
	}
	if err := afero.WriteFile(fs, path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}
