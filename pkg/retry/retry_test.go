package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	errs "roost/pkg/errors"
	"roost/pkg/logger"
)

func TestExponentialBackoff(t *testing.T) {
	backoff := &ExponentialBackoff{
		BaseDelay:  100 * time.Millisecond,
		MaxDelay:   1 * time.Second,
		Multiplier: 2.0,
	}

	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{0, 0},
		{1, 100 * time.Millisecond},
		{2, 200 * time.Millisecond},
		{3, 400 * time.Millisecond},
		{4, 800 * time.Millisecond},
		{5, 1 * time.Second},
		{9, 1 * time.Second},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, backoff.NextDelay(tt.attempt), "attempt %d", tt.attempt)
	}
}

func TestExponentialBackoffJitterBounds(t *testing.T) {
	backoff := &ExponentialBackoff{
		BaseDelay:    time.Second,
		MaxDelay:     time.Minute,
		Multiplier:   2.0,
		JitterFactor: 0.25,
	}

	for i := 0; i < 50; i++ {
		d := backoff.NextDelay(2)
		assert.GreaterOrEqual(t, d, 1500*time.Millisecond)
		assert.LessOrEqual(t, d, 2500*time.Millisecond)
	}
}

func TestConstantBackoff(t *testing.T) {
	b := &ConstantBackoff{Delay: 3 * time.Second}
	assert.Equal(t, time.Duration(0), b.NextDelay(0))
	assert.Equal(t, 3*time.Second, b.NextDelay(1))
	assert.Equal(t, 3*time.Second, b.NextDelay(7))
}

func TestReasonBackoff(t *testing.T) {
	rb := NewReasonBackoff()
	rb.RateLimited = &ConstantBackoff{Delay: 5 * time.Second}
	rb.Default = &ConstantBackoff{Delay: time.Second}

	assert.Equal(t, time.Duration(0), rb.Delay(errs.ReasonOverCapacity, 3))
	assert.Equal(t, 5*time.Second, rb.Delay(errs.ReasonRateLimited, 1))
	assert.Equal(t, time.Second, rb.Delay(errs.ReasonServerError, 1))
	assert.Equal(t, time.Second, rb.Delay(errs.ReasonNetwork, 2))
	assert.Nil(t, rb.For(errs.ReasonOverCapacity))
}

func TestWait(t *testing.T) {
	assert.NoError(t, Wait(context.Background(), 0))
	assert.NoError(t, Wait(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, Wait(ctx, time.Hour), context.Canceled)
	assert.ErrorIs(t, Wait(ctx, 0), context.Canceled)
}

type recordingSleeper struct {
	delays []time.Duration
}

func (r *recordingSleeper) sleep(ctx context.Context, d time.Duration) error {
	r.delays = append(r.delays, d)
	return ctx.Err()
}

func TestDoSucceedsAfterRetries(t *testing.T) {
	s := &recordingSleeper{}
	attempts := 0
	var retried []int

	err := Do(context.Background(), func(context.Context) error {
		attempts++
		if attempts < 3 {
			return errors.New("temporary error")
		}
		return nil
	}, &Config{
		MaxAttempts: 5,
		Backoff:     &ConstantBackoff{Delay: 10 * time.Millisecond},
		OnRetry:     func(attempt int, _ error, _ time.Duration) { retried = append(retried, attempt) },
		Sleep:       s.sleep,
		Logger:      logger.NewNopLogger(),
	})

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, []int{1, 2}, retried)
	assert.Equal(t, []time.Duration{10 * time.Millisecond, 10 * time.Millisecond}, s.delays)
}

func TestDoMaxAttempts(t *testing.T) {
	s := &recordingSleeper{}
	attempts := 0
	cause := errors.New("still broken")

	err := Do(context.Background(), func(context.Context) error {
		attempts++
		return cause
	}, &Config{MaxAttempts: 3, Backoff: &ConstantBackoff{Delay: time.Second}, Sleep: s.sleep})

	require.Error(t, err)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "max retry attempts (3)")
	assert.Equal(t, 3, attempts)
	assert.Len(t, s.delays, 2)
}

func TestDoUnlimitedAttempts(t *testing.T) {
	s := &recordingSleeper{}
	attempts := 0

	err := Do(context.Background(), func(context.Context) error {
		attempts++
		if attempts < 20 {
			return errors.New("again")
		}
		return nil
	}, &Config{MaxAttempts: 0, Backoff: &ConstantBackoff{}, Sleep: s.sleep})

	require.NoError(t, err)
	assert.Equal(t, 20, attempts)
}

func TestDoPermanentError(t *testing.T) {
	cause := errors.New("malformed")
	attempts := 0

	err := Do(context.Background(), func(context.Context) error {
		attempts++
		return Permanent(cause)
	}, &Config{MaxAttempts: 5, Sleep: (&recordingSleeper{}).sleep})

	assert.Same(t, cause, err)
	assert.Equal(t, 1, attempts)
	assert.Nil(t, Permanent(nil))
}

func TestDoRetryIf(t *testing.T) {
	attempts := 0
	notRetryable := errors.New("auth")

	err := Do(context.Background(), func(context.Context) error {
		attempts++
		return notRetryable
	}, &Config{
		MaxAttempts: 5,
		RetryIf:     func(err error) bool { return !errors.Is(err, notRetryable) },
		Sleep:       (&recordingSleeper{}).sleep,
	})

	assert.ErrorIs(t, err, notRetryable)
	assert.Equal(t, 1, attempts)
}

func TestDoContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0

	err := Do(ctx, func(context.Context) error {
		attempts++
		cancel()
		return errors.New("boom")
	}, &Config{MaxAttempts: 5, Backoff: &ConstantBackoff{Delay: time.Hour}})

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, attempts)
}

func TestDefaultRetryIf(t *testing.T) {
	assert.False(t, DefaultRetryIf(nil))
	assert.False(t, DefaultRetryIf(context.Canceled))
	assert.False(t, DefaultRetryIf(context.DeadlineExceeded))
	assert.True(t, DefaultRetryIf(errors.New("eof")))
}
