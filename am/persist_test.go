package am

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteConfig_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "am.toml")
	cfg := DefaultConfig()
	cfg.Matcher.Enabled = true

	require.NoError(t, WriteConfig(path, cfg, false))

	loaded, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)

	err = WriteConfig(path, cfg, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	require.NoError(t, WriteConfig(path, DefaultConfig(), true))
	_, err = os.Stat(path + ".back1")
	assert.NoError(t, err, "overwrite keeps a backup")
}

func TestSetValue(t *testing.T) {
	path := filepath.Join(t.TempDir(), "am.toml")

	require.NoError(t, SetValue(path, "matcher.enabled", "true"))
	require.NoError(t, SetValue(path, "matcher.debounce_ms", "40"))
	require.NoError(t, SetValue(path, "oracle.provider", "gemini"))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.True(t, cfg.Matcher.Enabled)
	assert.Equal(t, 40, cfg.Matcher.DebounceMS)
	assert.Equal(t, ProviderGemini, cfg.Oracle.Provider)

	assert.Error(t, SetValue(path, "matcher..enabled", "true"))
}

func TestRotateBackups(t *testing.T) {
	path := filepath.Join(t.TempDir(), "am.toml")
	for i := 0; i < 5; i++ {
		require.NoError(t, writeWithBackup(path, []byte{byte('a' + i)}))
	}

	read := func(p string) string {
		b, err := os.ReadFile(p)
		require.NoError(t, err)
		return string(b)
	}
	assert.Equal(t, "e", read(path))
	assert.Equal(t, "d", read(path+".back1"))
	assert.Equal(t, "c", read(path+".back2"))
	assert.Equal(t, "b", read(path+".back3"))
	_, err := os.Stat(path + ".back4")
	assert.True(t, os.IsNotExist(err))
}
