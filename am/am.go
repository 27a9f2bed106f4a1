// Package am holds pixelcheck's configuration: the Figma source, the oracle
// providers, matcher batching, extraction limits and session retention.
package am

// Config represents the pixelcheck configuration
type Config struct {
	Figma   FigmaConfig   `mapstructure:"figma" toml:"figma"`
	Oracle  OracleConfig  `mapstructure:"oracle" toml:"oracle"`
	Matcher MatcherConfig `mapstructure:"matcher" toml:"matcher"`
	Extract ExtractConfig `mapstructure:"extract" toml:"extract"`
	Session SessionConfig `mapstructure:"session" toml:"session"`
}

// FigmaConfig configures the design-file API
type FigmaConfig struct {
	Token          string `mapstructure:"token" toml:"token"`                     // Personal access token, sent as X-Figma-Token
	BaseURL        string `mapstructure:"base_url" toml:"base_url"`               // default https://api.figma.com/v1
	TimeoutSeconds int    `mapstructure:"timeout_seconds" toml:"timeout_seconds"` // Per-fetch timeout
}

// OracleConfig selects and configures the LLM used by the semantic matcher
type OracleConfig struct {
	Provider          string `mapstructure:"provider" toml:"provider"`                       // auto, openrouter, anthropic, quickml, gemini, local, none
	MaxTokens         int    `mapstructure:"max_tokens" toml:"max_tokens"`                   // Per batch request
	RequestsPerMinute int    `mapstructure:"requests_per_minute" toml:"requests_per_minute"` // 0 = unlimited
	TimeoutSeconds    int    `mapstructure:"timeout_seconds" toml:"timeout_seconds"`

	OpenRouter OpenRouterConfig `mapstructure:"openrouter" toml:"openrouter"`
	Anthropic  AnthropicConfig  `mapstructure:"anthropic" toml:"anthropic"`
	QuickML    QuickMLConfig    `mapstructure:"quickml" toml:"quickml"`
	Gemini     GeminiConfig     `mapstructure:"gemini" toml:"gemini"`
	Local      LocalConfig      `mapstructure:"local" toml:"local"`
}

// OpenRouterConfig configures OpenRouter.ai API access
type OpenRouterConfig struct {
	APIKey      string   `mapstructure:"api_key" toml:"api_key"`
	Model       string   `mapstructure:"model" toml:"model"`
	Temperature *float64 `mapstructure:"temperature" toml:"temperature,omitempty"` // nil = client default
}

// AnthropicConfig configures direct Anthropic API access
type AnthropicConfig struct {
	APIKey      string   `mapstructure:"api_key" toml:"api_key"`
	Model       string   `mapstructure:"model" toml:"model"`
	Temperature *float64 `mapstructure:"temperature" toml:"temperature,omitempty"`
}

// QuickMLConfig configures a Catalyst QuickML chat endpoint
type QuickMLConfig struct {
	Endpoint string `mapstructure:"endpoint" toml:"endpoint"` // Full chat URL including project id
	OrgID    string `mapstructure:"org_id" toml:"org_id"`     // Sent as CATALYST-ORG
	Token    string `mapstructure:"token" toml:"token"`       // OAuth token, sent as Authorization
	Model    string `mapstructure:"model" toml:"model"`
}

// GeminiConfig configures the Google Gemini API
type GeminiConfig struct {
	APIKey string `mapstructure:"api_key" toml:"api_key"`
	Model  string `mapstructure:"model" toml:"model"`
}

// LocalConfig configures an OpenAI-compatible local server (Ollama, LocalAI)
type LocalConfig struct {
	BaseURL string `mapstructure:"base_url" toml:"base_url"` // e.g. http://localhost:11434
	Model   string `mapstructure:"model" toml:"model"`
}

// MatcherConfig configures the debounced oracle queue
type MatcherConfig struct {
	Enabled    bool `mapstructure:"enabled" toml:"enabled"`         // Consult the oracle for unmatched identities
	DebounceMS int  `mapstructure:"debounce_ms" toml:"debounce_ms"` // Batch window
	MaxBatch   int  `mapstructure:"max_batch" toml:"max_batch"`     // Flush early at this many pairs
}

// ExtractConfig configures tree traversal and classification
type ExtractConfig struct {
	MaxDepth       int    `mapstructure:"max_depth" toml:"max_depth"`             // Traversal cap
	VocabularyFile string `mapstructure:"vocabulary_file" toml:"vocabulary_file"` // Optional YAML or TOML override
}

// SessionConfig configures in-memory result retention
type SessionConfig struct {
	TTLMinutes int `mapstructure:"ttl_minutes" toml:"ttl_minutes"`
}

// Provider names accepted in oracle.provider
const (
	ProviderAuto       = "auto"
	ProviderOpenRouter = "openrouter"
	ProviderAnthropic  = "anthropic"
	ProviderQuickML    = "quickml"
	ProviderGemini     = "gemini"
	ProviderLocal      = "local"
	ProviderNone       = "none"
)

// File system constants
const (
	DefaultDirPermissions  = 0755
	DefaultFilePermissions = 0644
)
