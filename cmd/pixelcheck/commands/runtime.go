package commands

import (
	"context"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/teranos/pixelcheck/ai/provider"
	"github.com/teranos/pixelcheck/am"
	"github.com/teranos/pixelcheck/analysis"
	"github.com/teranos/pixelcheck/classify"
	"github.com/teranos/pixelcheck/errors"
	"github.com/teranos/pixelcheck/extract"
	"github.com/teranos/pixelcheck/figma"
	"github.com/teranos/pixelcheck/matcher"
)

// runtime bundles what every analysis command needs. Close releases the
// matcher's pending batch and timers.
type runtime struct {
	analyzer *analysis.Analyzer
	matcher  *matcher.Matcher
}

func (r *runtime) Close() {
	if r.matcher != nil {
		r.matcher.Close()
	}
}

// newRuntime wires configuration into an Analyzer. useMatcher overrides
// matcher.enabled; the oracle is only built when the matcher is on.
func newRuntime(ctx context.Context, cfg *am.Config, useMatcher bool, log *zap.SugaredLogger) (*runtime, error) {
	vocab := classify.DefaultVocabulary()
	if cfg.Extract.VocabularyFile != "" {
		v, err := classify.LoadVocabulary(cfg.Extract.VocabularyFile)
		if err != nil {
			return nil, errors.Wrap(err, "failed to load vocabulary")
		}
		vocab = v
	}
	extractor := extract.New(classify.New(vocab), extract.Options{
		MaxDepth: cfg.Extract.MaxDepth,
		Logger:   log.Named("extract"),
	})

	opts := analysis.Options{Logger: log.Named("analysis")}
	if cfg.Figma.Token != "" {
		opts.Fetcher = figma.NewClient(figma.Config{
			Token:   cfg.Figma.Token,
			BaseURL: cfg.Figma.BaseURL,
			Timeout: time.Duration(cfg.Figma.TimeoutSeconds) * time.Second,
			Logger:  log.Named("figma"),
		})
	}

	rt := &runtime{}
	if useMatcher {
		oracle, err := provider.New(ctx, cfg.Oracle, log.Named("oracle"))
		if err != nil {
			return nil, err
		}
		if oracle == nil {
			log.Warnw("Matcher enabled but no oracle is configured, ambiguous pairs resolve by name")
		}
		rt.matcher = matcher.New(oracle, matcher.Options{
			Window:    time.Duration(cfg.Matcher.DebounceMS) * time.Millisecond,
			MaxBatch:  cfg.Matcher.MaxBatch,
			MaxTokens: cfg.Oracle.MaxTokens,
			Timeout:   time.Duration(cfg.Oracle.TimeoutSeconds) * time.Second,
			Logger:    log.Named("matcher"),
		})
		// Assigned only when non-nil so the interface never holds a typed nil
		opts.Matcher = rt.matcher
	}

	rt.analyzer = analysis.New(extractor, opts)
	return rt, nil
}

// sourceArg reads a CLI design argument: inline JSON, an existing file, or
// otherwise a Figma URL or file key
func sourceArg(arg string) analysis.Source {
	arg = strings.TrimSpace(arg)
	if strings.HasPrefix(arg, "{") {
		return analysis.Source{Raw: []byte(arg)}
	}
	if fi, err := os.Stat(arg); err == nil && !fi.IsDir() {
		return analysis.Source{Path: arg}
	}
	return analysis.Source{URL: arg}
}
