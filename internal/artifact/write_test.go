package artifact

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for artifact writes:
// - Write creates directories, overwrites whole files and leaves no temp files
// - A failed write keeps the previous artifact

func TestWrite(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()

	path, err := Write(fs, "/out/static", "chat.js", "first version, longer")
	require.NoError(t, err)
	assert.Equal(t, "/out/static/chat.js", path)

	_, err = Write(fs, "/out/static", "chat.js", "second")
	require.NoError(t, err)

	data, err := afero.ReadFile(fs, path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))

	entries, err := afero.ReadDir(fs, "/out/static")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "chat.js", entries[0].Name())
}

func TestWrite_FailureKeepsPrevious(t *testing.T) {
	t.Parallel()

	base := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(base, "/out/chat.js", []byte("previous"), 0644))

	_, err := Write(afero.NewReadOnlyFs(base), "/out", "chat.js", "next")
	require.Error(t, err)

	data, err := afero.ReadFile(base, "/out/chat.js")
	require.NoError(t, err)
	assert.Equal(t, "previous", string(data))
}
