package twitter_test

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "roost/pkg/errors"
	"roost/pkg/twitter"
	"roost/pkg/twitter/twittertest"
)

var jack = map[string]interface{}{"id": 12, "id_str": "12", "screen_name": "jack"}

func TestOverCapacityStartsCooldown(t *testing.T) {
	for _, code := range []int{http.StatusBadGateway, http.StatusServiceUnavailable} {
		t.Run(http.StatusText(code), func(t *testing.T) {
			srv := twittertest.NewServer(t)
			srv.Enqueue(twitter.PathUserShow, twittertest.Status(code, "over capacity"), twittertest.JSON(jack))
			client, clock := twittertest.NewClient(t, srv)

			u, err := client.Profile(context.Background(), twitter.ByHandle("jack"))
			require.NoError(t, err)
			assert.Equal(t, "jack", u.ScreenName)

			assert.Equal(t, twittertest.Epoch.Add(60*time.Second), client.Tracker().Capacity().ResumeAt)
			// the second attempt waited out the cooldown plus one second of jitter
			assert.Equal(t, []time.Duration{61 * time.Second}, clock.Sleeps())
			assert.Equal(t, 2, srv.Count(twitter.PathUserShow))
		})
	}
}

func TestRateHeadersOverwriteState(t *testing.T) {
	srv := twittertest.NewServer(t)
	reset := twittertest.Epoch.Add(100 * time.Second)
	srv.Enqueue(twitter.PathUserShow,
		twittertest.JSON(jack).WithRateLimit(150, 0, reset),
		twittertest.JSON(jack),
		twittertest.JSON(jack).WithRateLimit(150, 42, reset.Add(time.Hour)),
	)
	client, clock := twittertest.NewClient(t, srv)
	ctx := context.Background()

	_, err := client.Profile(ctx, twitter.ByID(12))
	require.NoError(t, err)
	state := client.Tracker().Rate()
	assert.Equal(t, 150, state.Limit)
	assert.Equal(t, 0, state.Remaining)
	assert.Equal(t, reset.Unix(), state.ResetAt.Unix())

	// quota spent: the next call waits for the reset, then a response
	// without headers leaves the state alone
	_, err = client.Profile(ctx, twitter.ByID(12))
	require.NoError(t, err)
	assert.Equal(t, []time.Duration{101 * time.Second}, clock.Sleeps())
	assert.Equal(t, 0, client.Tracker().Rate().Remaining)

	_, err = client.Profile(ctx, twitter.ByID(12))
	require.NoError(t, err)
	assert.Equal(t, 42, client.Tracker().Rate().Remaining)
	assert.Len(t, clock.Sleeps(), 1)
}

func TestUnacceptableIsFatal(t *testing.T) {
	srv := twittertest.NewServer(t)
	srv.Enqueue(twitter.PathStatusShow, twittertest.Status(http.StatusNotAcceptable, `{"error":"unacceptable"}`))
	client, _ := twittertest.NewClient(t, srv)

	tweet, err := client.Tweet(context.Background(), 99, false)
	require.Error(t, err)
	assert.Nil(t, tweet)

	fe, ok := errs.AsFatal(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotAcceptable, fe.Code)
	assert.Equal(t, "no idea what happened", fe.Description)
	assert.Equal(t, `{"error":"unacceptable"}`, string(fe.Body))
	assert.Contains(t, err.Error(), "406")
	assert.Equal(t, 1, srv.Count(twitter.PathStatusShow), "fatal outcomes are not retried")
}

func TestUnavailableStatuses(t *testing.T) {
	tests := []struct {
		name   string
		resp   twittertest.Response
		reason errs.Reason
	}{
		{"unauthorized", twittertest.Status(http.StatusUnauthorized, "protected"), errs.ReasonUnauthorized},
		{"forbidden", twittertest.Status(http.StatusForbidden, "suspended"), errs.ReasonForbidden},
		{"not found", twittertest.Status(http.StatusNotFound, "gone"), errs.ReasonNotFound},
		{"not modified", twittertest.Status(http.StatusNotModified, ""), errs.ReasonNotModified},
		{"empty body", twittertest.Status(http.StatusOK, ""), errs.ReasonEmptyBody},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := twittertest.NewServer(t)
			srv.Enqueue(twitter.PathUserShow, tt.resp)
			client, _ := twittertest.NewClient(t, srv)

			u, err := client.Profile(context.Background(), twitter.ByHandle("someone"))
			assert.Nil(t, u)
			assert.True(t, errs.IsUnavailable(err))

			var ue *errs.UnavailableError
			require.ErrorAs(t, err, &ue)
			assert.Equal(t, tt.resp.Status, ue.Status)
			assert.Equal(t, tt.reason, ue.Reason)
			assert.Equal(t, 1, srv.Count(twitter.PathUserShow))
		})
	}
}

func TestRetryableStatusesBackOff(t *testing.T) {
	tests := []struct {
		status int
		delay  time.Duration
	}{
		{http.StatusInternalServerError, time.Second},
		{http.StatusBadRequest, 5 * time.Second},
		{420, 5 * time.Second},
		{http.StatusTeapot, time.Second},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			srv := twittertest.NewServer(t)
			srv.Enqueue(twitter.PathUserShow, twittertest.Status(tt.status, "try later"), twittertest.JSON(jack))
			client, clock := twittertest.NewClient(t, srv)

			_, err := client.Profile(context.Background(), twitter.ByHandle("jack"))
			require.NoError(t, err)
			assert.Equal(t, []time.Duration{tt.delay}, clock.Sleeps())
			assert.Equal(t, 2, srv.Count(twitter.PathUserShow))
			assert.True(t, client.Tracker().Capacity().ResumeAt.IsZero())
		})
	}
}

type flakyTransport struct {
	failures int
	next     http.RoundTripper
}

func (f *flakyTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if f.failures > 0 {
		f.failures--
		return nil, errors.New("connection reset by peer")
	}
	return f.next.RoundTrip(req)
}

func TestTransportFailureIsRetried(t *testing.T) {
	srv := twittertest.NewServer(t)
	srv.Enqueue(twitter.PathUserShow, twittertest.JSON(jack))
	hc := &http.Client{Transport: &flakyTransport{failures: 2, next: srv.Client().Transport}}
	client, clock := twittertest.NewClient(t, srv, twitter.WithHTTPClient(hc))

	u, err := client.Profile(context.Background(), twitter.ByHandle("jack"))
	require.NoError(t, err)
	assert.Equal(t, int64(12), u.ID)
	assert.Equal(t, []time.Duration{time.Second, time.Second}, clock.Sleeps())
	assert.Equal(t, int64(3), client.Stats().RemoteCalls)
	assert.Equal(t, 1, srv.Count(twitter.PathUserShow))
}

func TestRequestsAreSigned(t *testing.T) {
	srv := twittertest.NewServer(t)
	srv.Enqueue(twitter.PathUserShow, twittertest.JSON(jack))
	client, _ := twittertest.NewClient(t, srv)

	_, err := client.Profile(context.Background(), twitter.ByHandle("jack"))
	require.NoError(t, err)

	reqs := srv.Requests(twitter.PathUserShow)
	require.Len(t, reqs, 1)
	assert.Equal(t, http.MethodGet, reqs[0].Method)
	header := reqs[0].Authorization
	assert.True(t, strings.HasPrefix(header, "OAuth "), header)
	assert.Contains(t, header, `oauth_consumer_key="test_consumer_key"`)
	assert.Contains(t, header, `oauth_token="test_otoken"`)
	assert.Contains(t, header, `oauth_signature_method="HMAC-SHA1"`)
	assert.Contains(t, header, "oauth_signature=")
}

func TestCancelledContextSendsNothing(t *testing.T) {
	srv := twittertest.NewServer(t)
	srv.Always(twitter.PathUserShow, twittertest.JSON(jack))
	client, _ := twittertest.NewClient(t, srv)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Profile(ctx, twitter.ByHandle("jack"))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, srv.Count(""))
}

func TestCancelledDuringCooldown(t *testing.T) {
	srv := twittertest.NewServer(t)
	srv.Always(twitter.PathUserShow, twittertest.JSON(jack))
	client, clock := twittertest.NewClient(t, srv)
	client.Tracker().MarkOverCapacity(time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Profile(ctx, twitter.ByHandle("jack"))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, clock.Sleeps())
	assert.Equal(t, 0, srv.Count(""))
}

func TestNewClientRejectsIncompleteCredentials(t *testing.T) {
	creds := twittertest.Credentials()
	creds.OTokenSecret = ""
	_, err := twitter.NewClient(creds, nil)
	assert.Error(t, err)
}
