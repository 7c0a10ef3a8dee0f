// Package ratelimit tracks the server-reported request quota and capacity
// cooldowns for a single API client.
//
// A Tracker is consulted before every call (BeforeCall) and updated after
// it (AfterCall). It never blocks on its own: callers sleep through
// Tracker.Sleep so that tests can replace the clock and the sleeper.
//
// Two waits exist and capacity always wins:
//
//   - capacity cooldown: set by MarkOverCapacity after a 502/503, lasts
//     until ResumeAt; applies to probes too
//   - quota exhaustion: Remaining == 0 and the reset time is in the future;
//     skipped for probe calls so the rate limit status endpoint stays reachable
//
// Both waits get a random whole-second jitter in [1s, MaxJitter].
//
// Pace adds optional client-side pacing through golang.org/x/time/rate.
package ratelimit
