// Package artifact writes build outputs.
package artifact

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
)

// Write replaces dir/name with content. The directory is created when
// missing and the file is swapped in by rename, so a failed write leaves the
// previous artifact intact.
func Write(fs afero.Fs, dir, name, content string) (string, error) {
	if err := fs.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	dest := filepath.Join(dir, name)
	tmp, err := afero.TempFile(fs, dir, ".tmp-"+name+"-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file in %s: %w", dir, err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		fs.Remove(tmpPath)
		return "", fmt.Errorf("failed to write %s: %w", dest, err)
	}
	if err := tmp.Close(); err != nil {
		fs.Remove(tmpPath)
		return "", fmt.Errorf("failed to close %s: %w", dest, err)
	}
	if err := fs.Chmod(tmpPath, 0644); err != nil {
		fs.Remove(tmpPath)
		return "", fmt.Errorf("failed to set mode on %s: %w", dest, err)
	}
	if err := fs.Rename(tmpPath, dest); err != nil {
		fs.Remove(tmpPath)
		return "", fmt.Errorf("failed to replace %s: %w", dest, err)
	}
	return dest, nil
}
