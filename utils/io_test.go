package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "results", "FH_results.json")

	require.NoError(t, WriteFileAtomic(path, []byte(`{"status":"failed"}`), 0o644))
	require.NoError(t, WriteFileAtomic(path, []byte(`{"status":"succeeded"}`), 0o644))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `{"status":"succeeded"}`, string(data))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	assert.True(t, FileExists(path))
	assert.False(t, FileExists(filepath.Dir(path)))
}
