package ratelimit

import (
	"context"
	"math/rand"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
	"roost/pkg/retry"
)

// Header names carrying the server-reported quota.
const (
	HeaderLimit     = "X-Ratelimit-Limit"
	HeaderRemaining = "X-Ratelimit-Remaining"
	HeaderReset     = "X-Ratelimit-Reset"
)

const (
	DefaultCapacityWait = 60 * time.Second
	DefaultMaxJitter    = 10 * time.Second
)

// WaitReason says why BeforeCall asked for a wait.
type WaitReason string

const (
	WaitNone         WaitReason = ""
	WaitOverCapacity WaitReason = "over_capacity"
	WaitRateLimit    WaitReason = "rate_limit"
)

// RateState is the last known quota. ResetAt is zero until the server reports one.
type RateState struct {
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// CapacityState holds the capacity cooldown. Zero ResumeAt means none.
type CapacityState struct {
	ResumeAt time.Time
}

// Tracker owns the rate and capacity state of one client.
type Tracker struct {
	mu        sync.Mutex
	rate      RateState
	capacity  CapacityState
	maxJitter time.Duration

	now    func() time.Time
	jitter func(max time.Duration) time.Duration
	sleep  func(ctx context.Context, d time.Duration) error
	pacer  *rate.Limiter
}

// TrackerOption configures a Tracker.
type TrackerOption func(*Tracker)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) TrackerOption {
	return func(t *Tracker) { t.now = now }
}

// WithJitter replaces the random jitter source.
func WithJitter(jitter func(max time.Duration) time.Duration) TrackerOption {
	return func(t *Tracker) { t.jitter = jitter }
}

// WithSleeper replaces the blocking sleep.
func WithSleeper(sleep func(ctx context.Context, d time.Duration) error) TrackerOption {
	return func(t *Tracker) { t.sleep = sleep }
}

// WithMaxJitter sets the upper bound of the wait jitter.
func WithMaxJitter(max time.Duration) TrackerOption {
	return func(t *Tracker) {
		if max >= time.Second {
			t.maxJitter = max
		}
	}
}

// WithPacing enables client-side pacing. requestsPerMinute <= 0 disables it.
func WithPacing(requestsPerMinute, burst int) TrackerOption {
	return func(t *Tracker) {
		if requestsPerMinute <= 0 {
			t.pacer = nil
			return
		}
		if burst <= 0 {
			burst = 1
		}
		t.pacer = rate.NewLimiter(rate.Every(time.Minute/time.Duration(requestsPerMinute)), burst)
	}
}

// NewTracker creates a tracker with no known quota and no cooldown.
func NewTracker(opts ...TrackerOption) *Tracker {
	t := &Tracker{
		maxJitter: DefaultMaxJitter,
		now:       time.Now,
		jitter:    RandomJitter,
		sleep:     retry.Wait,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// RandomJitter returns a whole number of seconds uniformly drawn from [1s, max].
func RandomJitter(max time.Duration) time.Duration {
	secs := int(max / time.Second)
	if secs < 1 {
		secs = 1
	}
	return time.Duration(rand.Intn(secs)+1) * time.Second
}

// BeforeCall returns how long to wait before the next call. ok is false when
// the call may proceed immediately.
func (t *Tracker) BeforeCall(probe bool) (wait time.Duration, reason WaitReason, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	if now.Before(t.capacity.ResumeAt) {
		return t.capacity.ResumeAt.Sub(now) + t.jitter(t.maxJitter), WaitOverCapacity, true
	}
	if !probe && t.rate.Remaining == 0 && now.Before(t.rate.ResetAt) {
		return t.rate.ResetAt.Sub(now) + t.jitter(t.maxJitter), WaitRateLimit, true
	}
	return 0, WaitNone, false
}

// AfterCall overwrites the quota from response headers. Probe responses and
// responses missing any of the three headers leave the state untouched.
func (t *Tracker) AfterCall(probe bool, h http.Header) bool {
	if probe || h == nil {
		return false
	}
	limit, err1 := strconv.Atoi(h.Get(HeaderLimit))
	remaining, err2 := strconv.Atoi(h.Get(HeaderRemaining))
	reset, err3 := strconv.ParseInt(h.Get(HeaderReset), 10, 64)
	if err1 != nil || err2 != nil || err3 != nil {
		return false
	}

	t.Seed(RateState{Limit: limit, Remaining: remaining, ResetAt: time.Unix(reset, 0)})
	return true
}

// Seed overwrites the quota, typically from the rate limit status endpoint.
func (t *Tracker) Seed(s RateState) {
	if s.Remaining < 0 {
		s.Remaining = 0
	}
	t.mu.Lock()
	t.rate = s
	t.mu.Unlock()
}

// MarkOverCapacity starts a cooldown of d from now.
func (t *Tracker) MarkOverCapacity(d time.Duration) {
	t.mu.Lock()
	t.capacity.ResumeAt = t.now().Add(d)
	t.mu.Unlock()
}

// Rate returns a snapshot of the quota.
func (t *Tracker) Rate() RateState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.rate
}

// Capacity returns a snapshot of the capacity cooldown.
func (t *Tracker) Capacity() CapacityState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.capacity
}

// Now returns the tracker's clock reading.
func (t *Tracker) Now() time.Time {
	return t.now()
}

// Sleep blocks for d or until ctx is done.
func (t *Tracker) Sleep(ctx context.Context, d time.Duration) error {
	return t.sleep(ctx, d)
}

// Pace blocks until client-side pacing admits another call.
func (t *Tracker) Pace(ctx context.Context) error {
	if t.pacer == nil {
		return ctx.Err()
	}
	return t.pacer.Wait(ctx)
}
