package provider

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/teranos/pixelcheck/errors"
	"github.com/teranos/pixelcheck/matcher"
)

// RateLimited spaces oracle calls to stay under a provider's request quota
type RateLimited struct {
	next    matcher.Oracle
	limiter *rate.Limiter
}

// NewRateLimited wraps next with a per-minute limit. rpm <= 0 returns next unchanged.
func NewRateLimited(next matcher.Oracle, rpm int) matcher.Oracle {
	if rpm <= 0 || next == nil {
		return next
	}
	return &RateLimited{
		next:    next,
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), 1),
	}
}

// Complete waits for a token and forwards the call
func (r *RateLimited) Complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return "", errors.Wrap(err, "oracle rate limit wait")
	}
	return r.next.Complete(ctx, prompt, maxTokens)
}
