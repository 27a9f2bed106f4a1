// Package analysis runs one cross-platform comparison: load the three
// designs, extract them independently, then reconcile.
package analysis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/teranos/pixelcheck/design"
	"github.com/teranos/pixelcheck/errors"
	"github.com/teranos/pixelcheck/extract"
	"github.com/teranos/pixelcheck/logger"
	"github.com/teranos/pixelcheck/reconcile"
)

// Inputs names the three designs to compare
type Inputs struct {
	Android Source `json:"android"`
	IOS     Source `json:"ios"`
	Web     Source `json:"web"`
	// Cards also runs hierarchical extraction
	Cards bool `json:"cards"`
}

// Of returns the source for p
func (in Inputs) Of(p reconcile.Platform) Source {
	switch p {
	case reconcile.Android:
		return in.Android
	case reconcile.IOS:
		return in.IOS
	default:
		return in.Web
	}
}

// PlatformError reports which platform's input could not be used
type PlatformError struct {
	Platform reconcile.Platform
	Err      error
}

func (e *PlatformError) Error() string {
	return fmt.Sprintf("%s: %v", e.Platform.Title(), e.Err)
}

func (e *PlatformError) Unwrap() error { return e.Err }

// PlatformResult is one platform's extraction
type PlatformResult struct {
	Platform reconcile.Platform `json:"platform"`
	Source   string             `json:"source"`
	Document string             `json:"document"`
	Flat     extract.Result     `json:"flat"`
	Cards    *extract.Hierarchy `json:"cards,omitempty"`
}

// Report is the outcome of one run
type Report struct {
	RunID      string                                 `json:"run_id"`
	StartedAt  time.Time                              `json:"started_at"`
	FinishedAt time.Time                              `json:"finished_at"`
	Platforms  map[reconcile.Platform]*PlatformResult `json:"platforms"`
	Groups     reconcile.Result                       `json:"groups"`
	Features   reconcile.Result                       `json:"features"`
}

// Platform returns p's extraction
func (r *Report) Platform(p reconcile.Platform) *PlatformResult {
	return r.Platforms[p]
}

// Options configure an Analyzer
type Options struct {
	// Fetcher resolves Source.URL; nil disables URL inputs
	Fetcher Fetcher
	// Matcher is consulted by the reconciler; nil keeps it deterministic
	Matcher reconcile.SimilarityMatcher
	Logger  *zap.SugaredLogger
}

// Analyzer is safe for concurrent Runs
type Analyzer struct {
	extractor *extract.Extractor
	fetcher   Fetcher
	matcher   reconcile.SimilarityMatcher
	logger    *zap.SugaredLogger
}

// New creates an Analyzer
func New(extractor *extract.Extractor, opts Options) *Analyzer {
	return &Analyzer{
		extractor: extractor,
		fetcher:   opts.Fetcher,
		matcher:   opts.Matcher,
		logger:    logger.OrNop(opts.Logger),
	}
}

// Run loads and extracts the three platforms concurrently and reconciles
// once all three are done. Any platform failure fails the run with a
// *PlatformError; the other extractions are cancelled.
func (a *Analyzer) Run(ctx context.Context, in Inputs) (*Report, error) {
	report := &Report{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().UTC(),
		Platforms: make(map[reconcile.Platform]*PlatformResult, len(reconcile.Platforms)),
	}
	ctx = logger.WithRunID(ctx, report.RunID)
	log := logger.FromContext(ctx, a.logger)

	results := make([]*PlatformResult, len(reconcile.Platforms))
	g, gctx := errgroup.WithContext(ctx)
	for i, p := range reconcile.Platforms {
		g.Go(func() error {
			res, err := a.runPlatform(gctx, p, in.Of(p), in.Cards)
			if err != nil {
				return &PlatformError{Platform: p, Err: err}
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Warnw("Analysis failed", logger.FieldError, err.Error())
		return nil, err
	}

	for _, res := range results {
		report.Platforms[res.Platform] = res
	}
	android, ios, web := results[0].Flat, results[1].Flat, results[2].Flat

	rec := &reconcile.Reconciler{Matcher: a.matcher, Logger: a.logger}
	report.Groups = rec.Reconcile(ctx, android, ios, web)
	report.Features = reconcile.ReconcileFeatures(android, ios, web)
	report.FinishedAt = time.Now().UTC()

	log.Infow("Analysis complete",
		"group_score", report.Groups.Score(),
		"consistent", report.Groups.ConsistentIdentities,
		"inconsistent", report.Groups.InconsistentIdentities,
		logger.FieldDurationMS, report.FinishedAt.Sub(report.StartedAt).Milliseconds(),
	)
	return report, nil
}

func (a *Analyzer) runPlatform(ctx context.Context, p reconcile.Platform, src Source, cards bool) (*PlatformResult, error) {
	if src.IsZero() {
		return nil, errors.NewInvalidRequestError("no design given")
	}
	doc, err := src.load(ctx, a.fetcher)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := &PlatformResult{
		Platform: p,
		Source:   src.describe(),
		Document: doc.Name,
		Flat:     a.extractor.Extract(doc.Root),
	}
	if cards {
		h := a.extractor.ExtractHierarchical(doc.Root)
		res.Cards = &h
	}

	logger.FromContext(logger.WithPlatform(ctx, string(p)), a.logger).Debugw("Platform extracted",
		logger.FieldGroups, len(res.Flat.Groups),
		logger.FieldFeatures, len(res.Flat.Features()),
		"nodes", res.Flat.Visited,
	)
	return res, nil
}

// ExtractOne loads a single source, used by the extract and cards commands
func (a *Analyzer) ExtractOne(ctx context.Context, src Source) (*design.Document, error) {
	if src.IsZero() {
		return nil, errors.NewInvalidRequestError("no design given")
	}
	return src.load(ctx, a.fetcher)
}

// Extractor returns the extractor runs use
func (a *Analyzer) Extractor() *extract.Extractor {
	return a.extractor
}
