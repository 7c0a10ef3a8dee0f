// Package twittertest provides a scripted fake of the REST API and a
// deterministic clock for exercising twitter.Client.
package twittertest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
	"testing"
	"time"

	"roost/pkg/ratelimit"
)

// Response is one scripted reply.
type Response struct {
	Status int
	Body   string
	Header http.Header
}

// JSON returns a 200 response with v encoded as the body.
func JSON(v interface{}) Response {
	b, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("twittertest: cannot encode body: %v", err))
	}
	return Response{Status: http.StatusOK, Body: string(b)}
}

// Status returns a response with the given code and raw body.
func Status(code int, body string) Response {
	return Response{Status: code, Body: body}
}

// WithRateLimit adds the three quota headers to r.
func (r Response) WithRateLimit(limit, remaining int, reset time.Time) Response {
	h := r.Header.Clone()
	if h == nil {
		h = http.Header{}
	}
	h.Set(ratelimit.HeaderLimit, strconv.Itoa(limit))
	h.Set(ratelimit.HeaderRemaining, strconv.Itoa(remaining))
	h.Set(ratelimit.HeaderReset, strconv.FormatInt(reset.Unix(), 10))
	r.Header = h
	return r
}

// Request is what the server saw.
type Request struct {
	Method        string
	Path          string
	Query         url.Values
	Form          url.Values
	Authorization string
}

// Server replays queued responses per path. When a path's queue is empty
// the response registered with Always is used, and failing that the server
// answers 406 so the client stops instead of retrying forever.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	queues   map[string][]Response
	fallback map[string]Response
	requests []Request
}

// NewServer starts a server that is closed when t finishes.
func NewServer(t testing.TB) *Server {
	s := &Server{
		queues:   make(map[string][]Response),
		fallback: make(map[string]Response),
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(s.Close)
	return s
}

// Enqueue appends responses for path, served in order.
func (s *Server) Enqueue(path string, rs ...Response) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queues[path] = append(s.queues[path], rs...)
}

// Always sets the response used once path's queue is drained.
func (s *Server) Always(path string, r Response) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fallback[path] = r
}

// Requests returns the requests received for path, or all of them when
// path is empty.
func (s *Server) Requests(path string) []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Request
	for _, r := range s.requests {
		if path == "" || r.Path == path {
			out = append(out, r)
		}
	}
	return out
}

// Count returns the number of requests received for path.
func (s *Server) Count(path string) int {
	return len(s.Requests(path))
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()

	s.mu.Lock()
	s.requests = append(s.requests, Request{
		Method:        r.Method,
		Path:          r.URL.Path,
		Query:         r.URL.Query(),
		Form:          r.PostForm,
		Authorization: r.Header.Get("Authorization"),
	})

	resp, ok := s.next(r.URL.Path)
	s.mu.Unlock()

	if !ok {
		http.Error(w, "no scripted response for "+r.URL.Path, http.StatusNotAcceptable)
		return
	}
	for k, vals := range resp.Header {
		for _, v := range vals {
			w.Header().Add(k, v)
		}
	}
	w.WriteHeader(resp.Status)
	_, _ = w.Write([]byte(resp.Body))
}

func (s *Server) next(path string) (Response, bool) {
	if q := s.queues[path]; len(q) > 0 {
		s.queues[path] = q[1:]
		return q[0], true
	}
	r, ok := s.fallback[path]
	return r, ok
}
