// Package metrics exposes client activity as Prometheus metrics.
package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	errs "roost/pkg/errors"
	"roost/pkg/ratelimit"
)

// Request latency buckets in seconds
var latencyBuckets = []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30}

// Collector records client and stream activity on its own registry. It
// satisfies twitter.Recorder and stream.Recorder.
type Collector struct {
	registry *prometheus.Registry

	requests      *prometheus.CounterVec
	latency       *prometheus.HistogramVec
	waits         *prometheus.CounterVec
	remaining     prometheus.Gauge
	limit         prometheus.Gauge
	streamObjects prometheus.Counter
}

// NewCollector creates a collector with Go runtime and process metrics
// already registered.
func NewCollector() *Collector {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(registry)

	return &Collector{
		registry: registry,
		requests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "roost_api_requests_total",
				Help: "API calls by endpoint and classified outcome",
			},
			[]string{"endpoint", "outcome"},
		),
		latency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "roost_api_request_duration_seconds",
				Help:    "API call latency in seconds",
				Buckets: latencyBuckets,
			},
			[]string{"endpoint"},
		),
		waits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "roost_tracker_wait_seconds_total",
				Help: "Time spent waiting before calls, by reason",
			},
			[]string{"reason"},
		),
		remaining: factory.NewGauge(prometheus.GaugeOpts{
			Name: "roost_rate_limit_remaining",
			Help: "Calls left in the current rate limit window",
		}),
		limit: factory.NewGauge(prometheus.GaugeOpts{
			Name: "roost_rate_limit_limit",
			Help: "Size of the current rate limit window",
		}),
		streamObjects: factory.NewCounter(prometheus.CounterOpts{
			Name: "roost_stream_objects_total",
			Help: "Objects stored from the streaming endpoint",
		}),
	}
}

func (c *Collector) ObserveRequest(endpoint string, outcome errs.OutcomeKind, d time.Duration) {
	c.requests.WithLabelValues(endpoint, outcome.String()).Inc()
	c.latency.WithLabelValues(endpoint).Observe(d.Seconds())
}

func (c *Collector) ObserveWait(reason string, d time.Duration) {
	c.waits.WithLabelValues(reason).Add(d.Seconds())
}

func (c *Collector) ObserveRateLimit(state ratelimit.RateState) {
	c.remaining.Set(float64(state.Remaining))
	c.limit.Set(float64(state.Limit))
}

func (c *Collector) ObserveStreamObject() {
	c.streamObjects.Inc()
}

// Registry returns the registry holding every metric of c.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is done.
func (c *Collector) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
