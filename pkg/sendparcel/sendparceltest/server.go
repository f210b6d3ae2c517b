// Package sendparceltest provides an in-process fake of the SendParcel API
// for tests and local development.
package sendparceltest

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
)

// Request is a request received by the fake server.
type Request struct {
	Method string
	// URL is the URL the client addressed, before rewriting to the fake.
	URL    string
	Path   string // operation path, e.g. "get_postcode_details"
	Header http.Header
	Body   string
	Form   url.Values
}

// Response is what a handler answers with.
type Response struct {
	StatusCode int
	Body       any // encoded as JSON unless it is a string or []byte
}

// HandlerFunc answers a single operation.
type HandlerFunc func(req Request) Response

// Server is a fake SendParcel API backed by httptest.
type Server struct {
	*httptest.Server

	// APIKey, when set, is the only credential accepted on form requests.
	APIKey string

	// SimulateErrors makes every request fail with HTTP 503.
	SimulateErrors bool

	mu       sync.Mutex
	requests []Request
	handlers map[string]HandlerFunc
	state    *state
}

// NewServer starts a fake server with the default fixtures.
func NewServer() *Server {
	s := &Server{
		handlers: make(map[string]HandlerFunc),
		state:    newState(),
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	return s
}

// On overrides the handler for an operation path.
func (s *Server) On(path string, h HandlerFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[path] = h
}

// Requests returns every request received so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}

// LastRequest returns the most recent request.
func (s *Server) LastRequest() (Request, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.requests) == 0 {
		return Request{}, false
	}
	return s.requests[len(s.requests)-1], true
}

// HTTPClient returns a client that delivers every request to the fake
// server while leaving the addressed path untouched.
func (s *Server) HTTPClient() *http.Client {
	target, _ := url.Parse(s.URL)
	return &http.Client{
		Transport: &rewriteTransport{target: target, base: http.DefaultTransport},
	}
}

type rewriteTransport struct {
	target *url.URL
	base   http.RoundTripper
}

func (t *rewriteTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	out := r.Clone(r.Context())
	out.Header.Set("X-Forwarded-Proto", r.URL.Scheme)
	out.Header.Set("X-Forwarded-Host", r.URL.Host)
	out.URL.Scheme = t.target.Scheme
	out.URL.Host = t.target.Host
	out.Host = t.target.Host
	return t.base.RoundTrip(out)
}

// FailingHTTPClient returns a client whose every request fails with err.
func FailingHTTPClient(err error) *http.Client {
	return &http.Client{Transport: failingTransport{err: err}}
}

type failingTransport struct {
	err error
}

func (t failingTransport) RoundTrip(*http.Request) (*http.Response, error) {
	return nil, t.err
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	req := Request{
		Method: r.Method,
		URL:    originalURL(r),
		Path:   operationPath(r.URL.Path),
		Header: r.Header.Clone(),
		Body:   string(body),
		Form:   url.Values{},
	}
	if len(body) > 0 {
		if form, err := url.ParseQuery(string(body)); err == nil {
			req.Form = form
		}
	}

	s.mu.Lock()
	s.requests = append(s.requests, req)
	h, ok := s.handlers[req.Path]
	simulate := s.SimulateErrors
	apiKey := s.APIKey
	s.mu.Unlock()

	var resp Response
	switch {
	case simulate:
		resp = Response{StatusCode: http.StatusServiceUnavailable, Body: "Service Unavailable"}
	case ok:
		resp = h(req)
	case apiKey != "" && len(body) > 0 && req.Form.Get("api_key") != apiKey:
		resp = reject("Invalid [api_key] parameter/value")
	default:
		resp = s.fixture(req)
	}
	writeResponse(w, resp)
}

func writeResponse(w http.ResponseWriter, resp Response) {
	status := resp.StatusCode
	if status == 0 {
		status = http.StatusOK
	}
	switch b := resp.Body.(type) {
	case string:
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(status)
		io.WriteString(w, b)
	case []byte:
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(status)
		w.Write(b)
	default:
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(b)
	}
}

func operationPath(p string) string {
	p = strings.TrimPrefix(p, "/")
	if i := strings.LastIndex(p, "/"); i >= 0 {
		return p[i+1:]
	}
	return p
}

func originalURL(r *http.Request) string {
	proto := r.Header.Get("X-Forwarded-Proto")
	host := r.Header.Get("X-Forwarded-Host")
	if proto == "" || host == "" {
		return "http://" + r.Host + r.URL.RequestURI()
	}
	return proto + "://" + host + r.URL.RequestURI()
}
