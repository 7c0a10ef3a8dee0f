package twittertest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"roost/pkg/auth"
	"roost/pkg/config"
	"roost/pkg/logger"
	"roost/pkg/ratelimit"
	"roost/pkg/retry"
	"roost/pkg/twitter"
)

// Credentials returns a complete, fake set of OAuth values.
func Credentials() auth.Credentials {
	return auth.Credentials{
		ConsumerKey:  "test_consumer_key",
		SecretKey:    "test_secret_key",
		OToken:       "test_otoken",
		OTokenSecret: "test_otoken_secret",
	}
}

// Backoff is a fixed retry delay: 5s after rate limiting, 1s otherwise.
func Backoff() *retry.ReasonBackoff {
	return &retry.ReasonBackoff{
		RateLimited: &retry.ConstantBackoff{Delay: 5 * time.Second},
		Default:     &retry.ConstantBackoff{Delay: time.Second},
	}
}

// NewClient builds a client against srv whose tracker runs on a fake clock
// with a one second jitter. Extra options are applied last.
func NewClient(t testing.TB, srv *Server, opts ...twitter.Option) (*twitter.Client, *Clock) {
	t.Helper()

	clock := NewClock(Epoch)
	tracker := ratelimit.NewTracker(
		ratelimit.WithClock(clock.Now),
		ratelimit.WithSleeper(clock.Sleep),
		ratelimit.WithJitter(func(time.Duration) time.Duration { return time.Second }),
	)

	cfg := config.DefaultConfig()
	cfg.Twitter.BaseURL = srv.URL

	base := []twitter.Option{
		twitter.WithHTTPClient(srv.Client()),
		twitter.WithTracker(tracker),
		twitter.WithLogger(logger.NewNopLogger()),
		twitter.WithBackoff(Backoff()),
	}
	client, err := twitter.NewClient(Credentials(), cfg, append(base, opts...)...)
	require.NoError(t, err)
	return client, clock
}
