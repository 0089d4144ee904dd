// Package ratelimit limits request rates per client key
package ratelimit

import (
	"context"
	"time"
)

// RateLimiter decides whether a request identified by key may proceed
type RateLimiter interface {
	Allow(ctx context.Context, key string) (*Info, error)
}

// Info describes the limit state after a call to Allow
type Info struct {
	// Limit is the number of requests allowed per window
	Limit int
	// Remaining is the number of requests left in the current window
	Remaining int
	// ResetAt is when the window resets
	ResetAt time.Time
	// Allowed reports whether the request may proceed
	Allowed bool
}

// RetryAfter returns the whole seconds until the window resets, never negative
func (i *Info) RetryAfter(now time.Time) int {
	seconds := int(i.ResetAt.Sub(now).Seconds())
	if seconds < 0 {
		return 0
	}
	return seconds
}
