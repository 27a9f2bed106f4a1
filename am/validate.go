package am

import (
	"slices"

	"github.com/teranos/pixelcheck/design"
	"github.com/teranos/pixelcheck/errors"
)

var validProviders = []string{
	ProviderAuto, ProviderOpenRouter, ProviderAnthropic,
	ProviderQuickML, ProviderGemini, ProviderLocal, ProviderNone,
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.Figma.TimeoutSeconds <= 0 {
		return errors.Newf("figma.timeout_seconds must be > 0, got %d", c.Figma.TimeoutSeconds)
	}

	if !slices.Contains(validProviders, c.Oracle.Provider) {
		return errors.Newf("oracle.provider %q is not one of %v", c.Oracle.Provider, validProviders)
	}
	if c.Oracle.MaxTokens <= 0 {
		return errors.Newf("oracle.max_tokens must be > 0, got %d", c.Oracle.MaxTokens)
	}
	// 0 = unlimited, negative = invalid
	if c.Oracle.RequestsPerMinute < 0 {
		return errors.Newf("oracle.requests_per_minute must be >= 0, got %d", c.Oracle.RequestsPerMinute)
	}
	if c.Oracle.TimeoutSeconds <= 0 {
		return errors.Newf("oracle.timeout_seconds must be > 0, got %d", c.Oracle.TimeoutSeconds)
	}
	for _, t := range []struct {
		key string
		val *float64
	}{
		{"oracle.openrouter.temperature", c.Oracle.OpenRouter.Temperature},
		{"oracle.anthropic.temperature", c.Oracle.Anthropic.Temperature},
	} {
		if t.val != nil && (*t.val < 0 || *t.val > 2) {
			return errors.Newf("%s must be within [0, 2], got %f", t.key, *t.val)
		}
	}

	if c.Matcher.DebounceMS <= 0 {
		return errors.Newf("matcher.debounce_ms must be > 0, got %d", c.Matcher.DebounceMS)
	}
	if c.Matcher.MaxBatch <= 0 {
		return errors.Newf("matcher.max_batch must be > 0, got %d", c.Matcher.MaxBatch)
	}

	if c.Extract.MaxDepth <= 0 {
		return errors.Newf("extract.max_depth must be > 0, got %d", c.Extract.MaxDepth)
	}
	if c.Extract.MaxDepth > design.MaxDecodeDepth {
		// Levels below design.MaxDecodeDepth are never decoded
		return errors.Newf("extract.max_depth must be <= %d, got %d", design.MaxDecodeDepth, c.Extract.MaxDepth)
	}

	if c.Session.TTLMinutes <= 0 {
		return errors.Newf("session.ttl_minutes must be > 0, got %d", c.Session.TTLMinutes)
	}
	return nil
}
