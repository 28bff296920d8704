package output_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbckr/staticscan/internal/output"
)

func TestWriteCategoryFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "results")
	paths, err := output.WriteCategoryFiles(dir, []string{"github", "netlify", "others"}, map[string][]string{
		"github":  {"a.example", "b.example"},
		"netlify": {},
		"others":  {"", "junk"},
	})
	require.NoError(t, err)
	require.Len(t, paths, 3)
	assert.Equal(t, filepath.Join(dir, "github.txt"), paths[0])

	gh, err := os.ReadFile(paths[0])
	require.NoError(t, err)
	assert.Equal(t, "a.example\nb.example", string(gh))

	nl, err := os.ReadFile(paths[1])
	require.NoError(t, err)
	assert.Empty(t, nl)

	ot, err := os.ReadFile(paths[2])
	require.NoError(t, err)
	assert.Equal(t, "\njunk", string(ot))
}

func TestWriteCategoryFiles_SkipsMissingBuckets(t *testing.T) {
	dir := t.TempDir()
	paths, err := output.WriteCategoryFiles(dir, []string{"github", "netlify"}, map[string][]string{
		"netlify": {"n.example"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "netlify.txt")}, paths)
	_, err = os.Stat(filepath.Join(dir, "github.txt"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestWriteCategoryFiles_NilBucketWritesEmptyFile(t *testing.T) {
	dir := t.TempDir()
	paths, err := output.WriteCategoryFiles(dir, []string{"github"}, map[string][]string{"github": nil})
	require.NoError(t, err)
	require.Equal(t, []string{filepath.Join(dir, "github.txt")}, paths)

	data, err := os.ReadFile(paths[0])
	require.NoError(t, err)
	assert.Empty(t, data)
}
