package pipeline

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateController is the single shared gate in front of the sink. It
// combines a steady token-bucket send budget with a global cooldown
// window set whenever the sink reports a rate-limit rejection. The
// rejection reflects a shared quota, so one Backoff pauses every
// publisher, not just the caller.
type RateController struct {
	mu            sync.Mutex
	cooldownUntil time.Time
	limiter       *rate.Limiter
	margin        time.Duration
}

// NewRateController builds a controller with the given sustained send
// rate, burst, and safety margin added to every sink wait hint.
func NewRateController(rps float64, burst int, margin time.Duration) *RateController {
	if rps <= 0 {
		rps = 0.5
	}
	if burst <= 0 {
		burst = 1
	}
	return &RateController{limiter: rate.NewLimiter(rate.Limit(rps), burst), margin: margin}
}

// Wait blocks until the cooldown window has passed and a send token is
// available, or ctx is done. The cooldown is global: a Backoff that
// lands while a caller is parked inside the token wait must still hold
// that caller, so the window is re-checked after the token is granted
// and the wait restarts until one pass sees both clear.
func (r *RateController) Wait(ctx context.Context) error {
	for {
		if err := r.waitCooldown(ctx); err != nil {
			return err
		}
		if err := r.limiter.Wait(ctx); err != nil {
			return err
		}
		if r.CooldownRemaining() <= 0 {
			return nil
		}
		// a rejection arrived mid-wait; the token is forfeited and the
		// caller goes back behind the window
	}
}

// waitCooldown sleeps out the current window, re-checking in case it
// was extended meanwhile.
func (r *RateController) waitCooldown(ctx context.Context) error {
	for {
		remaining := r.CooldownRemaining()
		if remaining <= 0 {
			return nil
		}
		t := time.NewTimer(remaining)
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		}
	}
}

// Backoff extends the global cooldown to now + hint + margin and
// returns the applied wait. A shorter concurrent hint never shrinks an
// already-longer window.
func (r *RateController) Backoff(hint time.Duration) time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	until := time.Now().Add(hint + r.margin)
	if until.After(r.cooldownUntil) {
		r.cooldownUntil = until
	}
	return time.Until(r.cooldownUntil)
}

// CooldownRemaining reports how long the gate stays closed; zero or
// negative means clear.
func (r *RateController) CooldownRemaining() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return time.Until(r.cooldownUntil)
}
