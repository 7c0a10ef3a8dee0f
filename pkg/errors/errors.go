package errors

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// OutcomeKind is the classification of a single API call. Callers switch on
// it instead of inspecting raw status codes.
type OutcomeKind int

const (
	Success OutcomeKind = iota
	Retryable
	AccountUnavailable
	Fatal
)

func (k OutcomeKind) String() string {
	switch k {
	case Success:
		return "success"
	case Retryable:
		return "retryable"
	case AccountUnavailable:
		return "unavailable"
	case Fatal:
		return "fatal"
	default:
		return fmt.Sprintf("outcome(%d)", int(k))
	}
}

// Reason refines an outcome. Retry backoff is chosen per reason.
type Reason string

const (
	ReasonNone          Reason = ""
	ReasonOverCapacity  Reason = "over_capacity"
	ReasonServerError   Reason = "server_error"
	ReasonRateLimited   Reason = "rate_limited"
	ReasonUnknownStatus Reason = "unknown_status"
	ReasonNetwork       Reason = "network"
	ReasonNotModified   Reason = "not_modified"
	ReasonEmptyBody     Reason = "empty_body"
	ReasonUnauthorized  Reason = "unauthorized"
	ReasonForbidden     Reason = "forbidden"
	ReasonNotFound      Reason = "not_found"
	ReasonUnacceptable  Reason = "unacceptable"
	ReasonMalformed     Reason = "malformed_body"
)

// Classify maps an HTTP status and body length to an outcome.
func Classify(status int, bodyLen int) (OutcomeKind, Reason) {
	switch status {
	case http.StatusOK:
		if bodyLen == 0 {
			return AccountUnavailable, ReasonEmptyBody
		}
		return Success, ReasonNone
	case http.StatusNotModified:
		return AccountUnavailable, ReasonNotModified
	case http.StatusBadGateway, http.StatusServiceUnavailable:
		return Retryable, ReasonOverCapacity
	case http.StatusInternalServerError:
		return Retryable, ReasonServerError
	case http.StatusBadRequest, 420:
		return Retryable, ReasonRateLimited
	case http.StatusNotAcceptable:
		return Fatal, ReasonUnacceptable
	case http.StatusUnauthorized:
		return AccountUnavailable, ReasonUnauthorized
	case http.StatusForbidden:
		return AccountUnavailable, ReasonForbidden
	case http.StatusNotFound:
		return AccountUnavailable, ReasonNotFound
	default:
		return Retryable, ReasonUnknownStatus
	}
}

// ErrAccountUnavailable is matched by every UnavailableError.
var ErrAccountUnavailable = errors.New("account unavailable")

// UnavailableError reports that the target account or resource cannot be
// read: protected, suspended, missing or not modified.
type UnavailableError struct {
	Status int
	Reason Reason
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("account unavailable (status %d, %s)", e.Status, e.Reason)
}

func (e *UnavailableError) Is(target error) bool {
	return target == ErrAccountUnavailable
}

// FatalError carries full diagnostics for an outcome that must not be retried.
type FatalError struct {
	Code        int
	Description string
	Header      http.Header
	Body        []byte
	Err         error
}

func (e *FatalError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "fatal api error (code %d): %s", e.Code, e.Description)
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	if len(e.Header) > 0 {
		keys := make([]string, 0, len(e.Header))
		for k := range e.Header {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteString("\nheaders:")
		for _, k := range keys {
			fmt.Fprintf(&b, "\n  %s: %s", k, strings.Join(e.Header[k], ", "))
		}
	}
	if len(e.Body) > 0 {
		fmt.Fprintf(&b, "\nbody: %s", e.Body)
	}
	return b.String()
}

func (e *FatalError) Unwrap() error {
	return e.Err
}

// IsUnavailable reports whether err signals an unavailable account.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrAccountUnavailable)
}

// AsFatal extracts a FatalError from err's chain.
func AsFatal(err error) (*FatalError, bool) {
	var fe *FatalError
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}
