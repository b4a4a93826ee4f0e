package transport

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Sender delivers one rendered payload to the output sink. Errors are
// classified by the helpers below: rate-limit rejections carry a wait
// hint, transient failures may be retried, anything else is permanent.
type Sender interface {
	Send(ctx context.Context, target string, payload string) error
}

// RateLimitedError is a sink rejection carrying the quota wait hint.
// It reflects a shared quota: one rejection pauses every publisher.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited by sink, retry after %s", e.RetryAfter)
}

// TransientError marks a network/server-class failure worth a bounded
// retry.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string { return "transient send failure: " + e.Err.Error() }
func (e *TransientError) Unwrap() error { return e.Err }

// AsRateLimited extracts the wait hint when err is a rate-limit rejection.
func AsRateLimited(err error) (time.Duration, bool) {
	var rl *RateLimitedError
	if errors.As(err, &rl) {
		return rl.RetryAfter, true
	}
	return 0, false
}

// IsTransient reports whether err is worth a bounded retry.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}
