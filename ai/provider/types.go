package provider

import (
	"strings"

	"github.com/teranos/pixelcheck/am"
	"github.com/teranos/pixelcheck/errors"
)

// Provider represents an LLM provider type
type Provider string

const (
	ProviderAuto       Provider = am.ProviderAuto       // Pick the first configured provider
	ProviderOpenRouter Provider = am.ProviderOpenRouter // OpenRouter cloud gateway
	ProviderAnthropic  Provider = am.ProviderAnthropic  // Direct Anthropic API (Claude)
	ProviderQuickML    Provider = am.ProviderQuickML    // Catalyst QuickML (Qwen)
	ProviderGemini     Provider = am.ProviderGemini     // Google Gemini via genai
	ProviderLocal      Provider = am.ProviderLocal      // Ollama, LocalAI, or any OpenAI-compatible local server
	ProviderNone       Provider = am.ProviderNone       // No oracle; the matcher falls back to name equality
)

// autoPriority is the order ProviderAuto tries. Local is never auto-selected
// because its base URL has a default and would always look configured.
var autoPriority = []Provider{ProviderQuickML, ProviderAnthropic, ProviderOpenRouter, ProviderGemini}

// ParseProvider converts a string to a Provider type
func ParseProvider(s string) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "local", "ollama", "localai":
		return ProviderLocal, nil
	case "openrouter", "or":
		return ProviderOpenRouter, nil
	case "anthropic", "claude":
		return ProviderAnthropic, nil
	case "quickml", "catalyst", "qwen":
		return ProviderQuickML, nil
	case "gemini", "google":
		return ProviderGemini, nil
	case "none", "off":
		return ProviderNone, nil
	case "auto", "":
		return ProviderAuto, nil
	default:
		return "", errors.NewInvalidRequestError("unknown provider: %s (valid: auto, openrouter, anthropic, quickml, gemini, local, none)", s)
	}
}

// Configured reports whether cfg carries the credentials p needs
func Configured(cfg am.OracleConfig, p Provider) bool {
	switch p {
	case ProviderOpenRouter:
		return cfg.OpenRouter.APIKey != ""
	case ProviderAnthropic:
		return cfg.Anthropic.APIKey != ""
	case ProviderQuickML:
		return cfg.QuickML.Endpoint != "" && cfg.QuickML.OrgID != "" && cfg.QuickML.Token != ""
	case ProviderGemini:
		return cfg.Gemini.APIKey != ""
	case ProviderLocal:
		return cfg.Local.BaseURL != ""
	}
	return false
}

// Available returns the configured providers in auto-selection order, then local
func Available(cfg am.OracleConfig) []Provider {
	var providers []Provider
	for _, p := range autoPriority {
		if Configured(cfg, p) {
			providers = append(providers, p)
		}
	}
	if Configured(cfg, ProviderLocal) {
		providers = append(providers, ProviderLocal)
	}
	return providers
}
