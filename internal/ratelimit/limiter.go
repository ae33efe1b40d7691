// Package ratelimit limits how many password requests a client may make per window.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrInvalidConfig is returned when a limiter is built from an unusable Config.
var ErrInvalidConfig = errors.New("invalid rate limit config")

// Result contains the outcome of a rate limit check.
type Result struct {
	Allowed    bool          // Whether the request is allowed
	Remaining  int           // Remaining requests in the current window
	ResetAfter time.Duration // Time until the oldest request leaves the window
	RetryAfter time.Duration // Suggested retry time when blocked
	Limit      int           // The configured limit
}

// Limiter decides whether a client identified by a string may make another request.
type Limiter interface {
	// Allow records a request for identifier if it fits in the window.
	Allow(ctx context.Context, identifier string) (*Result, error)

	// Reset clears the state for an identifier.
	Reset(ctx context.Context, identifier string) error

	// Close releases any resources held by the limiter.
	Close() error
}

// Config holds rate limiter configuration.
type Config struct {
	Requests int           // Maximum requests per window
	Window   time.Duration // Sliding window size
}

// DefaultConfig allows 100 requests per minute.
func DefaultConfig() Config {
	return Config{
		Requests: 100,
		Window:   time.Minute,
	}
}

// Validate reports whether the config can drive a limiter.
func (c Config) Validate() error {
	if c.Requests < 1 {
		return fmt.Errorf("%w: requests must be positive, got %d", ErrInvalidConfig, c.Requests)
	}
	if c.Window <= 0 {
		return fmt.Errorf("%w: window must be positive, got %s", ErrInvalidConfig, c.Window)
	}
	return nil
}

// blocked builds the result for a request that did not fit.
func blocked(limit int, resetAfter time.Duration) *Result {
	return &Result{
		Allowed:    false,
		Remaining:  0,
		ResetAfter: resetAfter,
		RetryAfter: resetAfter,
		Limit:      limit,
	}
}

// allowed builds the result for an accepted request; used counts it.
func allowed(limit, used int, resetAfter time.Duration) *Result {
	return &Result{
		Allowed:    true,
		Remaining:  limit - used,
		ResetAfter: resetAfter,
		Limit:      limit,
	}
}
