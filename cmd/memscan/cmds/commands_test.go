package cmds

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gomemscan/config"
	"gomemscan/scanner"
)

func TestApplyFlagsOverridesOnlyGivenFlags(t *testing.T) {
	cmd := New()
	require.NoError(t, cmd.ParseFlags([]string{"--workers", "8", "--print-limit=5", "--no-color"}))

	seven := 7
	conf := &config.Config{PageCacheEntries: &seven}
	applyFlags(cmd.Flags(), conf)

	require.NotNil(t, conf.Workers)
	assert.Equal(t, 8, *conf.Workers)
	assert.Equal(t, 5, conf.PrintLimit)
	assert.True(t, conf.NoColor)
	assert.Nil(t, conf.ChunkSize)
	assert.Equal(t, 7, *conf.PageCacheEntries)

	s := scanner.New[int32](append(conf.Options(), scanner.WithOutput(nil))...)
	assert.Equal(t, 8, s.Config().Workers)
	assert.Equal(t, 7, s.Config().PageCacheEntries)
	assert.Equal(t, 5, s.Config().PrintLimit)
}

func TestLoadConfigFromFlag(t *testing.T) {
	file := filepath.Join(t.TempDir(), "memscan.yml")
	require.NoError(t, os.WriteFile(file, []byte("workers: 3\n"), 0600))

	cmd := New()
	require.NoError(t, cmd.ParseFlags([]string{"--config", file}))
	t.Cleanup(func() { configFile = "" })

	conf, err := loadConfig()
	require.NoError(t, err)
	require.NotNil(t, conf.Workers)
	assert.Equal(t, 3, *conf.Workers)
}

func TestVersionCommand(t *testing.T) {
	cmd := New()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "Version: ")
}

func TestDumpAndProcessAreExclusive(t *testing.T) {
	cmd := New()
	cmd.SetArgs([]string{"--dump", t.TempDir(), "1234"})
	cmd.SetErr(&bytes.Buffer{})
	t.Cleanup(func() { dumpDir = "" })

	err := cmd.Execute()
	assert.ErrorContains(t, err, "mutually exclusive")
}
