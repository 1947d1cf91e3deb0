package filterstore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheFile_WriteReadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.txt")
	lines := []string{"||ads.test^", "/banner/*", "|http://x.test/ad|"}

	require.NoError(t, writeCacheFile(path, lines))

	got, err := readCacheFile(path)
	require.NoError(t, err)
	assert.Equal(t, lines, got)
}

func TestCacheFile_ReadSkipsCommentsAndBlanks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.txt")
	content := "! header comment\n\n||ads.test^\n   \n! another\n/banner/\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	got, err := readCacheFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"||ads.test^", "/banner/"}, got)
}

func TestCacheFile_WriteReplacesAtomically(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.txt")
	require.NoError(t, writeCacheFile(path, []string{"old.rule"}))
	require.NoError(t, writeCacheFile(path, []string{"new.rule"}))

	got, err := readCacheFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"new.rule"}, got)

	// No temp files left behind.
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestCacheFile_ReadMissing(t *testing.T) {
	_, err := readCacheFile(filepath.Join(t.TempDir(), "nope.txt"))
	assert.Error(t, err)
}
