package twitter

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	errs "roost/pkg/errors"
	"roost/pkg/logger"
)

// Outcome is the classified result of a single API call.
type Outcome struct {
	Kind   errs.OutcomeKind
	Reason errs.Reason
	Status int
	Body   []byte
	Header http.Header
	// Err is set for fatal outcomes, transport failures and cancellation.
	Err error
}

// asError converts a terminal outcome into the error callers receive.
func (o Outcome) asError() error {
	switch o.Kind {
	case errs.AccountUnavailable:
		return &errs.UnavailableError{Status: o.Status, Reason: o.Reason}
	case errs.Fatal:
		if o.Err != nil {
			return o.Err
		}
		return &errs.FatalError{Code: o.Status, Description: string(o.Reason), Header: o.Header, Body: o.Body}
	}
	return o.Err
}

func (o Outcome) cancelled() bool {
	return o.Err != nil && (errors.Is(o.Err, context.Canceled) || errors.Is(o.Err, context.DeadlineExceeded))
}

func cancelledOutcome(err error) Outcome {
	return Outcome{Kind: errs.Fatal, Err: err}
}

// execute performs exactly one signed GET against path. It honours any wait
// the tracker asks for, but does not re-check afterwards and never retries;
// the callers' loops do that.
func (c *Client) execute(ctx context.Context, path string, params url.Values, probe bool) Outcome {
	if wait, reason, ok := c.tracker.BeforeCall(probe); ok {
		logger.LogWait(c.logger, string(reason), wait, c.tracker.Now())
		c.recorder.ObserveWait(string(reason), wait)
		if err := c.tracker.Sleep(ctx, wait); err != nil {
			return cancelledOutcome(err)
		}
	}
	if err := c.tracker.Pace(ctx); err != nil {
		return cancelledOutcome(err)
	}

	target := c.baseURL + path
	if len(params) > 0 {
		target += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return Outcome{Kind: errs.Fatal, Err: &errs.FatalError{Description: "failed to build request", Err: err}}
	}

	requestID := uuid.NewString()
	log := c.logger.WithFields(map[string]interface{}{
		"request_id": requestID,
		"endpoint":   path,
	})
	log.DebugWithFields("sending request", map[string]interface{}{
		"params": params.Encode(),
		"probe":  probe,
	})

	start := time.Now()
	c.remoteCalls.Add(1)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return cancelledOutcome(ctx.Err())
		}
		log.WithError(err).Warn("request failed")
		c.recorder.ObserveRequest(path, errs.Retryable, time.Since(start))
		return Outcome{Kind: errs.Retryable, Reason: errs.ReasonNetwork, Err: err}
	}
	defer resp.Body.Close()

	if c.tracker.AfterCall(probe, resp.Header) {
		c.recorder.ObserveRateLimit(c.tracker.Rate())
	}

	body, err := io.ReadAll(resp.Body)
	duration := time.Since(start)
	if err != nil {
		if ctx.Err() != nil {
			return cancelledOutcome(ctx.Err())
		}
		log.WithError(err).Warn("failed to read response body")
		c.recorder.ObserveRequest(path, errs.Retryable, duration)
		return Outcome{Kind: errs.Retryable, Reason: errs.ReasonNetwork, Status: resp.StatusCode, Err: err}
	}

	logger.LogRequest(c.logger, requestID, path, resp.StatusCode, duration)

	kind, reason := errs.Classify(resp.StatusCode, len(body))
	out := Outcome{
		Kind:   kind,
		Reason: reason,
		Status: resp.StatusCode,
		Body:   body,
		Header: resp.Header,
	}

	fields := map[string]interface{}{"status": resp.StatusCode, "reason": string(reason)}
	switch reason {
	case errs.ReasonOverCapacity:
		c.tracker.MarkOverCapacity(c.capacityWait)
		fields["cooldown"] = c.capacityWait.String()
		log.WarnWithFields("service over capacity", fields)
	case errs.ReasonServerError:
		log.WarnWithFields("server error", fields)
	case errs.ReasonRateLimited:
		log.WarnWithFields("rate limited by server", fields)
	case errs.ReasonUnknownStatus:
		log.WarnWithFields("unexpected status, will retry", fields)
	case errs.ReasonUnacceptable:
		out.Err = &errs.FatalError{
			Code:        resp.StatusCode,
			Description: "no idea what happened",
			Header:      resp.Header,
			Body:        body,
		}
		log.ErrorWithFields("unrecoverable response", fields)
	}
	if kind == errs.AccountUnavailable {
		log.DebugWithFields("account unavailable", fields)
	}

	c.recorder.ObserveRequest(path, kind, duration)
	return out
}

// call repeats execute until the outcome is no longer retryable. It serves
// the single-object endpoints.
func (c *Client) call(ctx context.Context, path string, params url.Values, probe bool) (Outcome, error) {
	attempts := 0
	for {
		o := c.execute(ctx, path, params, probe)
		if o.cancelled() {
			return o, o.Err
		}
		switch o.Kind {
		case errs.Success:
			return o, nil
		case errs.Retryable:
			attempts++
			if err := c.backoffWait(ctx, path, o.Reason, attempts); err != nil {
				return o, err
			}
		default:
			return o, o.asError()
		}
	}
}

// backoffWait sleeps before retry number attempt. Over-capacity retries have
// no delay of their own since the tracker already enforces the cooldown.
func (c *Client) backoffWait(ctx context.Context, path string, reason errs.Reason, attempt int) error {
	d := c.backoff.Delay(reason, attempt)
	c.logger.InfoWithFields("need to retry", map[string]interface{}{
		"endpoint": path,
		"reason":   string(reason),
		"attempt":  attempt,
		"delay":    d.String(),
	})
	if d <= 0 {
		return ctx.Err()
	}
	c.recorder.ObserveWait("backoff", d)
	return c.tracker.Sleep(ctx, d)
}

// malformed reports a 200 body that could not be decoded.
func malformed(o Outcome, err error) error {
	return &errs.FatalError{
		Code:        o.Status,
		Description: "malformed response body",
		Header:      o.Header,
		Body:        o.Body,
		Err:         err,
	}
}
