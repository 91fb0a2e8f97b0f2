package service

import (
	"context"
	"time"
)

type RateLimiter interface {
	// Allow counts one request for key and reports whether it fits the window.
	// retryAfter is meaningful only when allowed is false.
	Allow(ctx context.Context, key string) (allowed bool, retryAfter time.Duration, err error)
}
