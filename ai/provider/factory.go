// Package provider builds the matcher oracle from configuration.
package provider

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/teranos/pixelcheck/ai/anthropic"
	"github.com/teranos/pixelcheck/ai/gemini"
	"github.com/teranos/pixelcheck/ai/openrouter"
	"github.com/teranos/pixelcheck/ai/quickml"
	"github.com/teranos/pixelcheck/am"
	"github.com/teranos/pixelcheck/errors"
	"github.com/teranos/pixelcheck/logger"
	"github.com/teranos/pixelcheck/matcher"
)

// New creates the oracle named by cfg.Provider, rate limited per
// cfg.RequestsPerMinute. It returns (nil, nil) for "none" and for "auto" when
// nothing is configured; the matcher then uses its name-equality fallback.
func New(ctx context.Context, cfg am.OracleConfig, log *zap.SugaredLogger) (matcher.Oracle, error) {
	log = logger.OrNop(log)

	p, err := ParseProvider(cfg.Provider)
	if err != nil {
		return nil, err
	}
	if p == ProviderAuto {
		p = autoSelect(cfg)
		if p == ProviderNone {
			log.Infow("No oracle provider configured, semantic matching uses name equality")
			return nil, nil
		}
		log.Debugw("Auto-selected oracle provider", "provider", string(p))
	}
	if p == ProviderNone {
		return nil, nil
	}
	if !Configured(cfg, p) {
		return nil, errors.WithHintf(
			errors.Wrapf(errors.ErrOracleUnavailable, "provider %s is not configured", p),
			"set the oracle.%s credentials or choose oracle.provider = \"none\"", p)
	}

	oracle, err := newOracle(ctx, cfg, p, log)
	if err != nil {
		return nil, err
	}
	return NewRateLimited(oracle, cfg.RequestsPerMinute), nil
}

func autoSelect(cfg am.OracleConfig) Provider {
	for _, p := range autoPriority {
		if Configured(cfg, p) {
			return p
		}
	}
	return ProviderNone
}

func newOracle(ctx context.Context, cfg am.OracleConfig, p Provider, log *zap.SugaredLogger) (matcher.Oracle, error) {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	log = log.With("provider", string(p))

	switch p {
	case ProviderOpenRouter:
		return openrouter.NewClient(openrouter.Config{
			APIKey:       cfg.OpenRouter.APIKey,
			Model:        cfg.OpenRouter.Model,
			SystemPrompt: matcher.SystemPrompt,
			Temperature:  cfg.OpenRouter.Temperature,
			Timeout:      timeout,
			Logger:       log,
		}), nil
	case ProviderAnthropic:
		c := anthropic.Config{
			APIKey:       cfg.Anthropic.APIKey,
			Model:        cfg.Anthropic.Model,
			SystemPrompt: matcher.SystemPrompt,
			Logger:       log,
		}
		if cfg.Anthropic.Temperature != nil {
			c.Temperature = *cfg.Anthropic.Temperature
		}
		return anthropic.NewClient(c), nil
	case ProviderQuickML:
		return quickml.NewClient(quickml.Config{
			Endpoint:     cfg.QuickML.Endpoint,
			OrgID:        cfg.QuickML.OrgID,
			Token:        cfg.QuickML.Token,
			Model:        cfg.QuickML.Model,
			SystemPrompt: matcher.SystemPrompt,
			Timeout:      timeout,
			Logger:       log,
		}), nil
	case ProviderGemini:
		return gemini.NewClient(ctx, gemini.Config{
			APIKey:       cfg.Gemini.APIKey,
			Model:        cfg.Gemini.Model,
			SystemPrompt: matcher.SystemPrompt,
			Logger:       log,
		})
	case ProviderLocal:
		return NewLocalProvider(LocalConfig{
			BaseURL:      cfg.Local.BaseURL,
			Model:        cfg.Local.Model,
			SystemPrompt: matcher.SystemPrompt,
			Timeout:      timeout,
			Logger:       log,
		}), nil
	}
	return nil, errors.NewInvalidRequestError("unsupported provider %s", p)
}
