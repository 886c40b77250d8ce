package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestWriteYAML_RoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LogLevel = "debug"
	cfg.Server.Port = 9090

	var buf bytes.Buffer
	require.NoError(t, cfg.WriteYAML(&buf))

	var got Config
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "debug", got.LogLevel)
	assert.Equal(t, 9090, got.Server.Port)
	assert.Equal(t, cfg.Pipeline.DPI, got.Pipeline.DPI)
	assert.Equal(t, cfg.Store.Backend, got.Store.Backend)
}

func TestWriteDefaultFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "symscan.yaml")
	require.NoError(t, WriteDefaultFile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "log_level: info")
	assert.Contains(t, string(data), "pipeline:")

	err = WriteDefaultFile(path)
	assert.ErrorContains(t, err, "already exists")
}
