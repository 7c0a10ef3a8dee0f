// Package stream connects to the filter streaming endpoint and stores every
// object it receives as one line of compact JSON.
package stream

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/valyala/fastjson"

	"roost/pkg/auth"
	"roost/pkg/config"
	"roost/pkg/logger"
	"roost/pkg/retry"
	"roost/pkg/twitter"
)

const maxChunkSize = 1 << 20

var (
	// ErrMalformedChunk ends a run when a chunk is not one whole JSON value.
	ErrMalformedChunk = errors.New("malformed stream chunk")
	// ErrDisconnected is returned when the server ends the stream and no
	// reconnects are left.
	ErrDisconnected = errors.New("stream disconnected")
	ErrNoTrackTerms = errors.New("no track terms")
)

// Sink receives each stored object. The record is reused after Append
// returns.
type Sink interface {
	Append(record []byte) error
}

// Recorder counts stored objects.
type Recorder interface {
	ObserveStreamObject()
}

type nopRecorder struct{}

func (nopRecorder) ObserveStreamObject() {}

// StatusError is a non-200 reply to the connect request.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("stream rejected with status %d: %s", e.Status, e.Body)
}

// Streamer holds one streaming session configuration.
type Streamer struct {
	url           string
	track         []string
	timeout       time.Duration
	maxReconnects int
	backoff       retry.BackoffStrategy

	transport *http.Client
	client    *http.Client
	sink      Sink
	logger    logger.Logger
	recorder  Recorder
	sleep     func(ctx context.Context, d time.Duration) error

	// reused across chunks; consume runs on one goroutine
	parser fastjson.Parser
	buf    []byte
}

// Option configures a Streamer.
type Option func(*Streamer)

// WithHTTPClient sets the client that carries the signed connect request.
func WithHTTPClient(hc *http.Client) Option {
	return func(s *Streamer) { s.transport = hc }
}

func WithLogger(l logger.Logger) Option {
	return func(s *Streamer) { s.logger = l }
}

func WithRecorder(r Recorder) Option {
	return func(s *Streamer) { s.recorder = r }
}

// WithSleeper replaces the wait between reconnects.
func WithSleeper(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(s *Streamer) { s.sleep = sleep }
}

// New creates a streamer for the terms and URL in cfg.Stream and
// cfg.Twitter.StreamURL.
func New(creds auth.Credentials, cfg *config.Config, sink Sink, opts ...Option) (*Streamer, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if len(cfg.Stream.Track) == 0 {
		return nil, ErrNoTrackTerms
	}
	if sink == nil {
		return nil, errors.New("sink is required")
	}

	s := &Streamer{
		url:           cfg.Twitter.StreamURL,
		track:         cfg.Stream.Track,
		timeout:       cfg.Stream.Timeout,
		maxReconnects: cfg.Stream.MaxReconnects,
		backoff: &retry.ExponentialBackoff{
			BaseDelay:    cfg.Retry.BaseDelay,
			MaxDelay:     cfg.Retry.MaxDelay,
			Multiplier:   cfg.Retry.Multiplier,
			JitterFactor: cfg.Retry.JitterFactor,
		},
		transport: &http.Client{},
		sink:      sink,
		logger:    logger.GetLogger(),
		recorder:  nopRecorder{},
		sleep:     retry.Wait,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.NewNopLogger()
	}
	if s.recorder == nil {
		s.recorder = nopRecorder{}
	}

	client, err := twitter.NewOAuthClient(creds, s.transport)
	if err != nil {
		return nil, err
	}
	s.client = client
	return s, nil
}

// Run streams until the configured timeout elapses, ctx is cancelled, a
// chunk is malformed or the reconnect budget is spent. Reaching the timeout
// is a normal end and returns nil.
func (s *Streamer) Run(ctx context.Context) error {
	runCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	err := retry.Do(runCtx, s.connect, &retry.Config{
		MaxAttempts: s.maxReconnects + 1,
		Backoff:     s.backoff,
		Sleep:       s.sleep,
		Logger:      s.logger,
		RetryIf: func(err error) bool {
			return retry.DefaultRetryIf(err) && !errors.Is(err, ErrMalformedChunk)
		},
	})

	if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		s.logger.Info("stream timeout reached")
		return nil
	}
	return err
}

// connect opens one connection and consumes it until it ends.
func (s *Streamer) connect(ctx context.Context) error {
	form := url.Values{"track": {strings.Join(s.track, ",")}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, strings.NewReader(form.Encode()))
	if err != nil {
		return retry.Permanent(err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	s.logger.InfoWithFields("connecting to stream", map[string]interface{}{
		"url":   s.url,
		"track": form.Get("track"),
	})

	resp, err := s.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		serr := &StatusError{Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
		switch {
		case resp.StatusCode == 420, resp.StatusCode >= 500:
			return serr
		default:
			return retry.Permanent(serr)
		}
	}

	return s.consume(ctx, resp.Body)
}

func (s *Streamer) consume(ctx context.Context, body io.Reader) error {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 64*1024), maxChunkSize)
	scanner.Split(splitChunks)

	for scanner.Scan() {
		chunk := bytes.TrimSpace(scanner.Bytes())
		if len(chunk) == 0 {
			// keep-alive
			continue
		}
		v, err := s.parser.ParseBytes(chunk)
		if err != nil {
			s.logger.ErrorWithFields("malformed chunk", map[string]interface{}{
				"size":  len(chunk),
				"error": err.Error(),
			})
			return retry.Permanent(fmt.Errorf("%w: %.80q", ErrMalformedChunk, chunk))
		}
		if v.Exists("limit") {
			s.logger.WarnWithFields("stream limit notice", map[string]interface{}{
				"undelivered": v.GetInt64("limit", "track"),
			})
		}

		s.buf = v.MarshalTo(s.buf[:0])
		if err := s.sink.Append(s.buf); err != nil {
			return retry.Permanent(err)
		}
		s.recorder.ObserveStreamObject()
	}

	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err := scanner.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			return retry.Permanent(fmt.Errorf("%w: %v", ErrMalformedChunk, err))
		}
		return fmt.Errorf("stream read failed: %w", err)
	}
	return ErrDisconnected
}

// splitChunks is a bufio.SplitFunc for \r\n terminated chunks. A trailing
// partial chunk at EOF is dropped.
func splitChunks(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if i := bytes.Index(data, []byte("\r\n")); i >= 0 {
		return i + 2, data[:i], nil
	}
	if atEOF {
		return len(data), nil, nil
	}
	return 0, nil, nil
}
