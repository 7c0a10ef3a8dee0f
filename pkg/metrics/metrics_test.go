package metrics

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "roost/pkg/errors"
	"roost/pkg/ratelimit"
)

func TestCollectorRecords(t *testing.T) {
	c := NewCollector()

	c.ObserveRequest("/followers/ids.json", errs.Success, 120*time.Millisecond)
	c.ObserveRequest("/followers/ids.json", errs.Success, 80*time.Millisecond)
	c.ObserveRequest("/followers/ids.json", errs.Retryable, time.Second)
	c.ObserveWait("over_capacity", 61*time.Second)
	c.ObserveWait("over_capacity", 9*time.Second)
	c.ObserveRateLimit(ratelimit.RateState{Limit: 150, Remaining: 17})
	c.ObserveStreamObject()

	assert.Equal(t, 2.0, testutil.ToFloat64(c.requests.WithLabelValues("/followers/ids.json", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.requests.WithLabelValues("/followers/ids.json", "retryable")))
	assert.Equal(t, 70.0, testutil.ToFloat64(c.waits.WithLabelValues("over_capacity")))
	assert.Equal(t, 17.0, testutil.ToFloat64(c.remaining))
	assert.Equal(t, 150.0, testutil.ToFloat64(c.limit))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.streamObjects))
	assert.Equal(t, 1, testutil.CollectAndCount(c.latency))
}

func TestHandlerExposesMetrics(t *testing.T) {
	c := NewCollector()
	c.ObserveRequest("/users/show.json", errs.AccountUnavailable, time.Millisecond)

	srv := httptest.NewServer(c.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	out := string(body)
	assert.Contains(t, out, `roost_api_requests_total{endpoint="/users/show.json",outcome="unavailable"} 1`)
	assert.Contains(t, out, "roost_api_request_duration_seconds_bucket")
	assert.Contains(t, out, "go_goroutines")
}

func TestServeStopsWithContext(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	c := NewCollector()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Serve(ctx, addr) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get(fmt.Sprintf("http://%s/metrics", addr))
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		b, _ := io.ReadAll(resp.Body)
		return strings.Contains(string(b), "roost_stream_objects_total")
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}
