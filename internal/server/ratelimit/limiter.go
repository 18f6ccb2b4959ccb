// Package ratelimit implements fixed-window request limiters keyed by an
// arbitrary string (the client IP for the login and register endpoints).
package ratelimit

import (
	"context"
	"time"
)

// Limiter decides whether one more request for key fits in the current
// window. When it does not, retryAfter tells the caller how long to wait.
type Limiter interface {
	Allow(ctx context.Context, key string, now time.Time) (allowed bool, retryAfter time.Duration, err error)
}
