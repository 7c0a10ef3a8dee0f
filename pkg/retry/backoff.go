package retry

import (
	"context"
	"math"
	"math/rand"
	"time"

	errs "roost/pkg/errors"
)

// BackoffStrategy defines the interface for different backoff strategies
type BackoffStrategy interface {
	// NextDelay returns the delay before retry number attempt (1-based)
	NextDelay(attempt int) time.Duration
}

// ExponentialBackoff implements exponential backoff with jitter
type ExponentialBackoff struct {
	BaseDelay time.Duration
	MaxDelay  time.Duration
	// Multiplier is the factor by which delay increases
	Multiplier float64
	// JitterFactor spreads the delay by ±factor (0.0 to 1.0)
	JitterFactor float64
}

// DefaultExponentialBackoff returns a backoff with sensible defaults
func DefaultExponentialBackoff() *ExponentialBackoff {
	return &ExponentialBackoff{
		BaseDelay:    1 * time.Second,
		MaxDelay:     60 * time.Second,
		Multiplier:   2.0,
		JitterFactor: 0.1,
	}
}

// NextDelay calculates the next delay with exponential backoff and jitter
func (eb *ExponentialBackoff) NextDelay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}

	delay := float64(eb.BaseDelay) * math.Pow(eb.Multiplier, float64(attempt-1))
	if delay > float64(eb.MaxDelay) {
		delay = float64(eb.MaxDelay)
	}

	if eb.JitterFactor > 0 {
		jitter := delay * eb.JitterFactor
		delay += (rand.Float64() * 2 * jitter) - jitter
	}

	if delay < 0 {
		delay = 0
	}
	return time.Duration(delay)
}

// ConstantBackoff implements constant delay backoff
type ConstantBackoff struct {
	Delay time.Duration
}

// NextDelay returns a constant delay
func (cb *ConstantBackoff) NextDelay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	return cb.Delay
}

// Wait waits for the specified duration or until context is cancelled
func Wait(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ReasonBackoff picks a backoff strategy per retry reason. A nil strategy
// means no extra delay.
type ReasonBackoff struct {
	// OverCapacity is normally nil: the tracker already enforces the cooldown
	OverCapacity BackoffStrategy
	RateLimited  BackoffStrategy
	Default      BackoffStrategy
}

// NewReasonBackoff creates the default reason-based backoff
func NewReasonBackoff() *ReasonBackoff {
	return &ReasonBackoff{
		RateLimited: &ExponentialBackoff{
			BaseDelay:    5 * time.Second,
			MaxDelay:     5 * time.Minute,
			Multiplier:   2.0,
			JitterFactor: 0.1,
		},
		Default: DefaultExponentialBackoff(),
	}
}

// For returns the strategy for reason
func (rb *ReasonBackoff) For(reason errs.Reason) BackoffStrategy {
	switch reason {
	case errs.ReasonOverCapacity:
		return rb.OverCapacity
	case errs.ReasonRateLimited:
		return rb.RateLimited
	default:
		return rb.Default
	}
}

// Delay returns the delay before retry number attempt for reason.
func (rb *ReasonBackoff) Delay(reason errs.Reason, attempt int) time.Duration {
	s := rb.For(reason)
	if s == nil {
		return 0
	}
	return s.NextDelay(attempt)
}
