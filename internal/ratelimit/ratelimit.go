// Package ratelimit counts requests per client and decides whether another
// one is allowed.
//
// Both implementations count in fixed windows: Memory keeps the counters in
// process, Redis shares them between every instance using the same server.
package ratelimit

import (
	"context"
	"errors"
	"time"
)

// Decision is the result of a single Allow call.
type Decision struct {
	Allowed bool
	// Limit is the configured maximum per window.
	Limit int
	// Remaining is how many more requests fit in the current window.
	Remaining int
	// ResetAfter is how long until the client may send again (when denied)
	// or until the window resets (when allowed).
	ResetAfter time.Duration
}

// Limiter decides whether the client identified by key may proceed. Every
// call counts as one request.
type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

var (
	ErrInvalidLimit  = errors.New("rate limit must be positive")
	ErrInvalidWindow = errors.New("rate limit window must be positive")
	ErrEmptyKey      = errors.New("rate limit key is empty")
)

func validate(limit int, window time.Duration) error {
	if limit <= 0 {
		return ErrInvalidLimit
	}
	if window <= 0 {
		return ErrInvalidWindow
	}
	return nil
}
