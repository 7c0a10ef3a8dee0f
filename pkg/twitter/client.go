package twitter

import (
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"roost/pkg/auth"
	"roost/pkg/config"
	errs "roost/pkg/errors"
	"roost/pkg/logger"
	"roost/pkg/ratelimit"
	"roost/pkg/retry"
)

// Recorder receives per-call measurements. pkg/metrics provides the
// Prometheus implementation.
type Recorder interface {
	ObserveRequest(endpoint string, outcome errs.OutcomeKind, d time.Duration)
	ObserveWait(reason string, d time.Duration)
	ObserveRateLimit(state ratelimit.RateState)
}

type nopRecorder struct{}

func (nopRecorder) ObserveRequest(string, errs.OutcomeKind, time.Duration) {}
func (nopRecorder) ObserveWait(string, time.Duration)                      {}
func (nopRecorder) ObserveRateLimit(ratelimit.RateState)                   {}

// Client talks to the REST API on behalf of one set of credentials.
type Client struct {
	httpClient   *http.Client
	transport    *http.Client
	baseURL      string
	tracker      *ratelimit.Tracker
	backoff      *retry.ReasonBackoff
	capacityWait time.Duration
	logger       logger.Logger
	recorder     Recorder

	remoteCalls atomic.Int64
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the client that carries the signed requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.transport = hc }
}

// WithBaseURL overrides the configured API root.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithTracker replaces the client's tracker.
func WithTracker(t *ratelimit.Tracker) Option {
	return func(c *Client) { c.tracker = t }
}

func WithLogger(l logger.Logger) Option {
	return func(c *Client) { c.logger = l }
}

func WithRecorder(r Recorder) Option {
	return func(c *Client) { c.recorder = r }
}

// WithBackoff replaces the delay applied between retryable attempts.
func WithBackoff(b *retry.ReasonBackoff) Option {
	return func(c *Client) { c.backoff = b }
}

// NewClient creates a client for creds. A nil cfg uses config.DefaultConfig.
func NewClient(creds auth.Credentials, cfg *config.Config, opts ...Option) (*Client, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	c := &Client{
		transport:    &http.Client{Timeout: cfg.Twitter.RequestTimeout},
		baseURL:      strings.TrimRight(cfg.Twitter.BaseURL, "/"),
		backoff:      BackoffFromConfig(cfg.Retry),
		capacityWait: cfg.Twitter.CapacityWait,
		logger:       logger.GetLogger(),
		recorder:     nopRecorder{},
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.tracker == nil {
		c.tracker = ratelimit.NewTracker(
			ratelimit.WithMaxJitter(cfg.Twitter.MaxWaitJitter),
			ratelimit.WithPacing(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst),
		)
	}
	if c.logger == nil {
		c.logger = logger.NewNopLogger()
	}
	if c.recorder == nil {
		c.recorder = nopRecorder{}
	}
	if c.backoff == nil {
		c.backoff = retry.NewReasonBackoff()
	}

	signed, err := NewOAuthClient(creds, c.transport)
	if err != nil {
		return nil, err
	}
	c.httpClient = signed

	return c, nil
}

// BackoffFromConfig builds the per-reason retry delays from cfg.
func BackoffFromConfig(cfg config.RetryConfig) *retry.ReasonBackoff {
	return &retry.ReasonBackoff{
		RateLimited: &retry.ExponentialBackoff{
			BaseDelay:    cfg.RateLimitBaseDelay,
			MaxDelay:     cfg.RateLimitMaxDelay,
			Multiplier:   cfg.Multiplier,
			JitterFactor: cfg.JitterFactor,
		},
		Default: &retry.ExponentialBackoff{
			BaseDelay:    cfg.BaseDelay,
			MaxDelay:     cfg.MaxDelay,
			Multiplier:   cfg.Multiplier,
			JitterFactor: cfg.JitterFactor,
		},
	}
}

// Tracker returns the rate and capacity tracker owned by the client.
func (c *Client) Tracker() *ratelimit.Tracker {
	return c.tracker
}

// Stats is a snapshot of the client's counters and tracker state.
type Stats struct {
	RemoteCalls int64
	Rate        ratelimit.RateState
	Capacity    ratelimit.CapacityState
}

func (c *Client) Stats() Stats {
	return Stats{
		RemoteCalls: c.remoteCalls.Load(),
		Rate:        c.tracker.Rate(),
		Capacity:    c.tracker.Capacity(),
	}
}
