// Package backoff provides delay strategies for worker loops that hit
// store errors. Strategies are stateless; the caller counts consecutive
// failures and passes the count as the attempt number.
package backoff

import (
	"math"
	"math/rand/v2"
	"time"
)

// Strategy computes the pause after a failure.
type Strategy interface {
	// Delay returns how long to wait after the n-th consecutive failure
	// (1-indexed).
	Delay(attempt int) time.Duration
}

// ──────────────────────────────────────────────────
// Constant
// ──────────────────────────────────────────────────

// Constant always returns the same delay.
type Constant struct {
	Interval time.Duration
}

// NewConstant creates a constant backoff strategy.
func NewConstant(interval time.Duration) *Constant {
	return &Constant{Interval: interval}
}

// Delay returns the fixed interval.
func (c *Constant) Delay(_ int) time.Duration {
	return c.Interval
}

// ──────────────────────────────────────────────────
// Exponential
// ──────────────────────────────────────────────────

// Exponential doubles the delay with each consecutive failure.
// Delay = min(Initial * 2^(attempt-1), Max).
type Exponential struct {
	Initial time.Duration
	Max     time.Duration
}

// NewExponential creates an exponential backoff strategy. A non-positive
// maxDelay leaves the delay uncapped.
func NewExponential(initial, maxDelay time.Duration) *Exponential {
	return &Exponential{Initial: initial, Max: maxDelay}
}

// Delay returns Initial * 2^(attempt-1), capped at Max.
func (e *Exponential) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := float64(e.Initial) * math.Pow(2, float64(attempt-1))
	if e.Max > 0 && d > float64(e.Max) {
		return e.Max
	}
	if d > math.MaxInt64 {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(d)
}

// ──────────────────────────────────────────────────
// Jitter
// ──────────────────────────────────────────────────

// Jitter spreads the delays of an underlying strategy over [d/2, d] so
// that worker loops recovering from the same outage do not retry in
// lockstep.
type Jitter struct {
	Base Strategy
}

// WithJitter wraps base with equal jitter.
func WithJitter(base Strategy) *Jitter {
	return &Jitter{Base: base}
}

// Delay returns a random duration in [d/2, d] where d is the base delay.
func (j *Jitter) Delay(attempt int) time.Duration {
	d := j.Base.Delay(attempt)
	if d <= 0 {
		return d
	}
	half := d / 2
	return half + time.Duration(rand.Int64N(int64(d-half)+1)) //nolint:gosec // jitter does not need crypto rand
}

// ──────────────────────────────────────────────────
// Default
// ──────────────────────────────────────────────────

// ForErrors returns the strategy worker loops use after store errors:
// jittered exponential growth from initial up to maxDelay.
func ForErrors(initial, maxDelay time.Duration) Strategy {
	return WithJitter(NewExponential(initial, maxDelay))
}
