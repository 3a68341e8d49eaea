package weather

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/powderline/snowfall-alert-service/internal/domain"
)

// RateLimitedSource wraps a SnowSource with a token bucket so polling many
// locations in a burst stays inside the provider's request quota.
type RateLimitedSource struct {
	inner   domain.SnowSource
	limiter *rate.Limiter
}

// NewRateLimitedSource creates a rate-limiting decorator. rps may be
// fractional for quotas below one request per second; burst is the number of
// immediate requests allowed before waiting begins.
func NewRateLimitedSource(inner domain.SnowSource, rps float64, burst int) *RateLimitedSource {
	return &RateLimitedSource{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

// Name implements domain.SnowSource.
func (r *RateLimitedSource) Name() string { return r.inner.Name() }

// FetchSnow waits for limiter permission, then forwards to the inner source.
// A canceled context surfaces as a *domain.FetchError.
func (r *RateLimitedSource) FetchSnow(ctx context.Context, loc domain.Location) (domain.SnowRecord, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return domain.SnowRecord{}, &domain.FetchError{
			Source: r.inner.Name(),
			Err:    fmt.Errorf("rate limit wait: %w", err),
		}
	}
	return r.inner.FetchSnow(ctx, loc)
}

var (
	_ domain.SnowSource = (*CachedSource)(nil)
	_ domain.SnowSource = (*RateLimitedSource)(nil)
)
