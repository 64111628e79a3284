package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v2"

	"gomemscan/scanner"
)

func TestDefaultConfigDecodes(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeDefaultConfig(&buf))

	var c Config
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &c))
	assert.Nil(t, c.Workers)
	assert.Nil(t, c.ChunkSize)
	assert.Equal(t, 0, c.PrintLimit)
	assert.False(t, c.NoColor)
	assert.Empty(t, c.Options())
}

func TestLoadConfigFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(file, []byte(`
aliases:
  scan: ["s"]
workers: 8
chunk-size: 4096
page-size: 8192
page-cache-entries: 16
batch-size: 64
flush-threshold: 1024
print-limit: 20
no-color: true
`), 0600))

	c, err := LoadConfigFile(file)
	require.NoError(t, err)

	assert.Equal(t, []string{"s"}, c.Aliases["scan"])
	require.NotNil(t, c.Workers)
	assert.Equal(t, 8, *c.Workers)
	assert.Equal(t, uint(4096), *c.ChunkSize)
	assert.Equal(t, uint(8192), *c.PageSize)
	assert.Equal(t, 16, *c.PageCacheEntries)
	assert.Equal(t, 64, *c.BatchSize)
	assert.Equal(t, 1024, *c.FlushThreshold)
	assert.True(t, c.NoColor)

	s := scanner.New[int32](append(c.Options(), scanner.WithOutput(nil))...)
	cfg := s.Config()
	assert.Equal(t, 8, cfg.Workers)
	assert.EqualValues(t, 4096, cfg.ChunkSize)
	assert.EqualValues(t, 8192, cfg.PageSize)
	assert.Equal(t, 16, cfg.PageCacheEntries)
	assert.Equal(t, 64, cfg.BatchSize)
	assert.Equal(t, 1024, cfg.FlushThreshold)
	assert.Equal(t, 20, cfg.PrintLimit)
}

func TestLoadConfigFile_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadConfigFile(filepath.Join(dir, "missing.yml"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.yml")
	require.NoError(t, os.WriteFile(bad, []byte("workers: [1, 2\n"), 0600))
	_, err = LoadConfigFile(bad)
	assert.ErrorContains(t, err, "unable to decode config file")
}

func TestSaveConfigRoundTrip(t *testing.T) {
	workers := 2
	file := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, SaveConfig(&Config{Workers: &workers, NoColor: true}, file))

	c, err := LoadConfigFile(file)
	require.NoError(t, err)
	require.NotNil(t, c.Workers)
	assert.Equal(t, 2, *c.Workers)
	assert.Nil(t, c.PageSize)
	assert.True(t, c.NoColor)
}
