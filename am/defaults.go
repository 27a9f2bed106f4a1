package am

import (
	"fmt"

	"github.com/spf13/viper"
)

// Default values, shared by SetDefaults and DefaultConfig
const (
	DefaultFigmaBaseURL      = "https://api.figma.com/v1"
	DefaultFigmaTimeout      = 30
	DefaultOracleProvider    = ProviderAuto
	DefaultOracleMaxTokens   = 1024
	DefaultOracleRPM         = 30
	DefaultOracleTimeout     = 60
	DefaultOpenRouterModel   = "openai/gpt-4o-mini"
	DefaultAnthropicModel    = "claude-3-5-haiku-latest"
	DefaultQuickMLModel      = "crm-di-qwen_text_14b-fp8-it"
	DefaultGeminiModel       = "gemini-2.0-flash"
	DefaultLocalBaseURL      = "http://localhost:11434"
	DefaultLocalModel        = "llama3.2:3b"
	DefaultMatcherDebounceMS = 30
	DefaultMatcherMaxBatch   = 50
	DefaultExtractMaxDepth   = 15
	DefaultSessionTTLMinutes = 60
)

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	v.SetDefault("figma.base_url", DefaultFigmaBaseURL)
	v.SetDefault("figma.timeout_seconds", DefaultFigmaTimeout)

	v.SetDefault("oracle.provider", DefaultOracleProvider)
	v.SetDefault("oracle.max_tokens", DefaultOracleMaxTokens)
	v.SetDefault("oracle.requests_per_minute", DefaultOracleRPM)
	v.SetDefault("oracle.timeout_seconds", DefaultOracleTimeout)
	v.SetDefault("oracle.openrouter.model", DefaultOpenRouterModel)
	v.SetDefault("oracle.anthropic.model", DefaultAnthropicModel)
	v.SetDefault("oracle.quickml.model", DefaultQuickMLModel)
	v.SetDefault("oracle.gemini.model", DefaultGeminiModel)
	v.SetDefault("oracle.local.base_url", DefaultLocalBaseURL)
	v.SetDefault("oracle.local.model", DefaultLocalModel)

	v.SetDefault("matcher.enabled", false) // Deterministic unless asked
	v.SetDefault("matcher.debounce_ms", DefaultMatcherDebounceMS)
	v.SetDefault("matcher.max_batch", DefaultMatcherMaxBatch)

	v.SetDefault("extract.max_depth", DefaultExtractMaxDepth)
	v.SetDefault("extract.vocabulary_file", "")

	// Empty defaults make these keys visible to AutomaticEnv during Unmarshal
	v.SetDefault("figma.token", "")
	v.SetDefault("oracle.quickml.endpoint", "")
	v.SetDefault("oracle.quickml.org_id", "")

	v.SetDefault("session.ttl_minutes", DefaultSessionTTLMinutes)
}

// BindSensitiveEnvVars explicitly binds credentials to their conventional
// environment variables in addition to the PIXELCHECK_ prefixed ones
func BindSensitiveEnvVars(v *viper.Viper) {
	v.BindEnv("figma.token", "PIXELCHECK_FIGMA_TOKEN", "FIGMA_TOKEN")
	v.BindEnv("oracle.openrouter.api_key", "PIXELCHECK_ORACLE_OPENROUTER_API_KEY", "OPENROUTER_API_KEY")
	v.BindEnv("oracle.anthropic.api_key", "PIXELCHECK_ORACLE_ANTHROPIC_API_KEY", "ANTHROPIC_API_KEY")
	v.BindEnv("oracle.gemini.api_key", "PIXELCHECK_ORACLE_GEMINI_API_KEY", "GEMINI_API_KEY")
	v.BindEnv("oracle.quickml.token", "PIXELCHECK_ORACLE_QUICKML_TOKEN")
}

// DefaultConfig returns the configuration SetDefaults describes
func DefaultConfig() *Config {
	return &Config{
		Figma: FigmaConfig{BaseURL: DefaultFigmaBaseURL, TimeoutSeconds: DefaultFigmaTimeout},
		Oracle: OracleConfig{
			Provider:          DefaultOracleProvider,
			MaxTokens:         DefaultOracleMaxTokens,
			RequestsPerMinute: DefaultOracleRPM,
			TimeoutSeconds:    DefaultOracleTimeout,
			OpenRouter:        OpenRouterConfig{Model: DefaultOpenRouterModel},
			Anthropic:         AnthropicConfig{Model: DefaultAnthropicModel},
			QuickML:           QuickMLConfig{Model: DefaultQuickMLModel},
			Gemini:            GeminiConfig{Model: DefaultGeminiModel},
			Local:             LocalConfig{BaseURL: DefaultLocalBaseURL, Model: DefaultLocalModel},
		},
		Matcher: MatcherConfig{DebounceMS: DefaultMatcherDebounceMS, MaxBatch: DefaultMatcherMaxBatch},
		Extract: ExtractConfig{MaxDepth: DefaultExtractMaxDepth},
		Session: SessionConfig{TTLMinutes: DefaultSessionTTLMinutes},
	}
}

// String returns a string representation of the config with secrets masked
func (c *Config) String() string {
	return fmt.Sprintf("Config{Figma: {BaseURL: %s, Token: %s}, Oracle: {Provider: %s, MaxTokens: %d}, Matcher: {Enabled: %t, DebounceMS: %d}, Extract: {MaxDepth: %d}}",
		c.Figma.BaseURL, mask(c.Figma.Token), c.Oracle.Provider, c.Oracle.MaxTokens,
		c.Matcher.Enabled, c.Matcher.DebounceMS, c.Extract.MaxDepth)
}

// Redacted returns a copy with every credential masked, for display
func (c *Config) Redacted() *Config {
	r := *c
	if r.Figma.Token != "" {
		r.Figma.Token = mask(r.Figma.Token)
	}
	for _, s := range []*string{
		&r.Oracle.OpenRouter.APIKey,
		&r.Oracle.Anthropic.APIKey,
		&r.Oracle.QuickML.Token,
		&r.Oracle.Gemini.APIKey,
	} {
		if *s != "" {
			*s = mask(*s)
		}
	}
	return &r
}

func mask(secret string) string {
	if secret == "" {
		return "<unset>"
	}
	if len(secret) <= 4 {
		return "****"
	}
	return "****" + secret[len(secret)-4:]
}
