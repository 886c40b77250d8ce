package batch

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	return path
}

func TestDiscoverPDFs_DirectoryNonRecursive(t *testing.T) {
	dir := t.TempDir()
	a := touch(t, filepath.Join(dir, "a.pdf"))
	b := touch(t, filepath.Join(dir, "b.PDF"))
	touch(t, filepath.Join(dir, "notes.txt"))
	touch(t, filepath.Join(dir, "sub", "nested.pdf"))

	files, err := DiscoverPDFs([]string{dir}, Config{})
	require.NoError(t, err)
	assert.Equal(t, []string{a, b}, files)
}

func TestDiscoverPDFs_Recursive(t *testing.T) {
	dir := t.TempDir()
	a := touch(t, filepath.Join(dir, "a.pdf"))
	nested := touch(t, filepath.Join(dir, "sub", "deep", "nested.pdf"))

	files, err := DiscoverPDFs([]string{dir}, Config{Recursive: true})
	require.NoError(t, err)
	assert.Equal(t, []string{a, nested}, files)
}

func TestDiscoverPDFs_Patterns(t *testing.T) {
	dir := t.TempDir()
	plan := touch(t, filepath.Join(dir, "plan_01.pdf"))
	touch(t, filepath.Join(dir, "plan_02_draft.pdf"))
	touch(t, filepath.Join(dir, "misc.pdf"))

	files, err := DiscoverPDFs([]string{dir}, Config{
		IncludePatterns: []string{"plan_*.pdf"},
		ExcludePatterns: []string{"*draft*"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{plan}, files)
}

func TestDiscoverPDFs_ExplicitFile(t *testing.T) {
	dir := t.TempDir()
	a := touch(t, filepath.Join(dir, "a.pdf"))
	txt := touch(t, filepath.Join(dir, "a.txt"))

	files, err := DiscoverPDFs([]string{a, txt}, Config{})
	require.NoError(t, err)
	assert.Equal(t, []string{a}, files)
}

func TestDiscoverPDFs_MissingPath(t *testing.T) {
	_, err := DiscoverPDFs([]string{filepath.Join(t.TempDir(), "nope")}, Config{})
	assert.ErrorContains(t, err, "cannot access")
}
