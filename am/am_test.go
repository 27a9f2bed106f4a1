package am

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/pixelcheck/internal/util"
)

func TestDefaults(t *testing.T) {
	v := viper.New()
	SetDefaults(v)

	cfg, err := LoadWithViper(v)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	assert.Equal(t, 30, cfg.Matcher.DebounceMS)
	assert.Equal(t, 15, cfg.Extract.MaxDepth)
	assert.Equal(t, "https://api.figma.com/v1", cfg.Figma.BaseURL)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "am.toml")
	content := `
[figma]
token = "figd_abc"

[oracle]
provider = "quickml"

[oracle.quickml]
endpoint = "https://api.catalyst.example/quickml/v2/project/1/llm/chat"
org_id = "600"

[matcher]
enabled = true
debounce_ms = 45
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "figd_abc", cfg.Figma.Token)
	assert.Equal(t, ProviderQuickML, cfg.Oracle.Provider)
	assert.Equal(t, "600", cfg.Oracle.QuickML.OrgID)
	assert.Equal(t, DefaultQuickMLModel, cfg.Oracle.QuickML.Model, "defaults fill unset keys")
	assert.True(t, cfg.Matcher.Enabled)
	assert.Equal(t, 45, cfg.Matcher.DebounceMS)
	assert.Equal(t, DefaultMatcherMaxBatch, cfg.Matcher.MaxBatch)
}

func TestMergeConfigFiles_Precedence(t *testing.T) {
	dir := t.TempDir()
	user := filepath.Join(dir, "user.toml")
	project := filepath.Join(dir, "project.toml")
	require.NoError(t, os.WriteFile(user, []byte("[figma]\ntoken = \"user-token\"\ntimeout_seconds = 10\n"), 0644))
	require.NoError(t, os.WriteFile(project, []byte("[figma]\ntimeout_seconds = 20\n"), 0644))

	v := viper.New()
	SetDefaults(v)
	mergeConfigFiles(v, []string{filepath.Join(dir, "missing.toml"), user, project})

	cfg, err := LoadWithViper(v)
	require.NoError(t, err)
	assert.Equal(t, "user-token", cfg.Figma.Token, "later files keep sibling keys of earlier ones")
	assert.Equal(t, 20, cfg.Figma.TimeoutSeconds)
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("PIXELCHECK_MATCHER_MAX_BATCH", "7")
	t.Setenv("FIGMA_TOKEN", "env-token")
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())

	cfg, err := LoadWithViper(NewViper())
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Matcher.MaxBatch)
	assert.Equal(t, "env-token", cfg.Figma.Token)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"defaults", func(*Config) {}, ""},
		{"unknown provider", func(c *Config) { c.Oracle.Provider = "gpt" }, "oracle.provider"},
		{"zero debounce", func(c *Config) { c.Matcher.DebounceMS = 0 }, "matcher.debounce_ms"},
		{"negative rpm", func(c *Config) { c.Oracle.RequestsPerMinute = -1 }, "requests_per_minute"},
		{"unlimited rpm", func(c *Config) { c.Oracle.RequestsPerMinute = 0 }, ""},
		{"zero depth", func(c *Config) { c.Extract.MaxDepth = 0 }, "extract.max_depth"},
		{"depth beyond decoding", func(c *Config) { c.Extract.MaxDepth = 65 }, "extract.max_depth must be <= 64"},
		{"temperature", func(c *Config) { c.Oracle.OpenRouter.Temperature = util.Ptr(3.0) }, "temperature"},
		{"ttl", func(c *Config) { c.Session.TTLMinutes = 0 }, "session.ttl_minutes"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestString_MasksSecrets(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Figma.Token = "figd_supersecret1234"
	s := cfg.String()
	assert.NotContains(t, s, "supersecret")
	assert.Contains(t, s, "****1234")
}

func TestRedacted(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Figma.Token = "figd_supersecret1234"
	cfg.Oracle.Anthropic.APIKey = "sk-ant-abcdefgh"

	r := cfg.Redacted()
	assert.Equal(t, "****1234", r.Figma.Token)
	assert.Equal(t, "****efgh", r.Oracle.Anthropic.APIKey)
	assert.Empty(t, r.Oracle.Gemini.APIKey, "unset secrets stay empty")
	assert.Equal(t, "figd_supersecret1234", cfg.Figma.Token, "original is untouched")
}
