package retention

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeAged creates a file and backdates its mtime by age.
func writeAged(t *testing.T, dir, name string, age time.Duration) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(name), 0o644))
	stamp := time.Now().Add(-age)
	require.NoError(t, os.Chtimes(path, stamp, stamp))
}

func names(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Name())
	}
	return out
}

func TestCleanBelowMaxIsNoOp(t *testing.T) {
	dir := t.TempDir()
	writeAged(t, dir, "a.jpg", 3*time.Hour)
	writeAged(t, dir, "b.jpg", 2*time.Hour)

	deleted, err := Clean(dir, ".jpg", 5, 2)
	require.NoError(t, err)
	assert.Nil(t, deleted)
	assert.Len(t, names(t, dir), 2)
}

func TestCleanDeletesOldestBeyondKeep(t *testing.T) {
	dir := t.TempDir()
	writeAged(t, dir, "oldest.jpg", 4*time.Hour)
	writeAged(t, dir, "older.jpg", 3*time.Hour)
	writeAged(t, dir, "newer.jpg", 2*time.Hour)
	writeAged(t, dir, "newest.jpg", 1*time.Hour)

	deleted, err := Clean(dir, ".jpg", 3, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"oldest.jpg", "older.jpg"}, deleted)

	remaining := names(t, dir)
	assert.ElementsMatch(t, []string{"newer.jpg", "newest.jpg"}, remaining)
}

func TestCleanHonoursExtensionFilter(t *testing.T) {
	dir := t.TempDir()
	writeAged(t, dir, "a.jpg", 4*time.Hour)
	writeAged(t, dir, "b.jpg", 3*time.Hour)
	writeAged(t, dir, "keep.txt", 5*time.Hour)

	deleted, err := Clean(dir, ".jpg", 1, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.jpg"}, deleted)
	assert.Contains(t, names(t, dir), "keep.txt")
}

func TestCleanKeepAboveMaxIsClamped(t *testing.T) {
	dir := t.TempDir()
	writeAged(t, dir, "a.jpg", 2*time.Hour)
	writeAged(t, dir, "b.jpg", 1*time.Hour)

	deleted, err := Clean(dir, ".jpg", 1, 9)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.jpg"}, deleted)
}

func TestCleanMissingDirectory(t *testing.T) {
	_, err := Clean(filepath.Join(t.TempDir(), "absent"), ".jpg", 1, 1)
	assert.Error(t, err)
}
