package ratelimit

import "context"

// RateLimiter paces outbound sends per identity.
type RateLimiter interface {
	Allow(ctx context.Context, identityID string) (bool, error)
	Wait(ctx context.Context, identityID string) error
}

var _ RateLimiter = Unlimited{}

// Unlimited admits every send. Used when pacing is disabled.
type Unlimited struct{}

func (Unlimited) Allow(context.Context, string) (bool, error) { return true, nil }

func (Unlimited) Wait(ctx context.Context, _ string) error {
	if ctx == nil {
		return nil
	}
	return ctx.Err()
}
