package models

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDir(t *testing.T) {
	assert.Equal(t, "/opt/models", Dir("/opt/models"))

	t.Setenv(EnvModelsDir, "/env/models")
	assert.Equal(t, "/env/models", Dir(""))

	t.Setenv(EnvModelsDir, "")
	assert.Equal(t, DefaultDir, Dir(""))
}

func TestResolve_ExplicitPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "det.onnx")
	require.NoError(t, os.WriteFile(path, []byte("onnx"), 0o644))

	got, err := Resolve(path)
	require.NoError(t, err)
	assert.Equal(t, path, got)
}

func TestResolve_BareNameUsesModelsDir(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(EnvModelsDir, dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, SymbolDetector), []byte("onnx"), 0o644))

	got, err := Resolve(SymbolDetector)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, SymbolDetector), got)
}

func TestResolve_Missing(t *testing.T) {
	t.Setenv(EnvModelsDir, t.TempDir())
	_, err := Resolve("nope.onnx")
	assert.ErrorContains(t, err, "not found")
}

func TestResolve_Directory(t *testing.T) {
	dir := t.TempDir()
	_, err := Resolve(dir)
	assert.ErrorContains(t, err, "directory")
}
