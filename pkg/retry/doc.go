// Package retry provides backoff strategies and a retry loop for transient
// failures.
//
// The REST client does not use Do directly: it loops on its own so that
// every wait goes through the rate tracker, and only asks ReasonBackoff how
// long to pause for a given retry reason. Do drives stream reconnects and
// other whole-operation retries.
//
//	err := retry.Do(ctx, func(ctx context.Context) error {
//		return s.connect(ctx)
//	}, &retry.Config{
//		MaxAttempts: 5,
//		Backoff:     retry.DefaultExponentialBackoff(),
//	})
//
// Returning retry.Permanent(err) from the operation stops the loop at once.
package retry
