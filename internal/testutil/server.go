package testutil

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// RecordedRequest is a snapshot of a request received by MockServer
type RecordedRequest struct {
	Method  string
	Host    string
	Path    string
	RawPath string
	Query   string
	Header  http.Header
	Body    []byte
}

// MockServer is a configurable HTTP server that records every request and
// replies with a fixed status, headers and body. Bodies can be written as a
// sequence of flushed parts to imitate a streaming response.
type MockServer struct {
	t        testing.TB
	server   *httptest.Server
	status   int
	headers  map[string]string
	parts    [][]byte
	handler  http.HandlerFunc
	mu       sync.Mutex
	requests []RecordedRequest
}

// NewMockServer creates a new mock server with the given response and status code
func NewMockServer(t testing.TB, response string, statusCode int) *MockServer {
	m := &MockServer{
		t:       t,
		status:  statusCode,
		headers: map[string]string{"Content-Type": "application/json"},
	}
	if response != "" {
		m.parts = [][]byte{[]byte(response)}
	}
	return m
}

// SetHeader sets a header that will be returned by the mock server
func (m *MockServer) SetHeader(key, value string) *MockServer {
	m.headers[key] = value
	return m
}

// SetParts replaces the body with parts written and flushed one at a time
func (m *MockServer) SetParts(parts ...[]byte) *MockServer {
	m.parts = parts
	return m
}

// SetHandler replaces the canned reply; requests are still recorded
func (m *MockServer) SetHandler(h http.HandlerFunc) *MockServer {
	m.handler = h
	return m
}

// Start starts the mock server, registers cleanup and returns the URL
func (m *MockServer) Start() string {
	m.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		m.mu.Lock()
		m.requests = append(m.requests, RecordedRequest{
			Method:  r.Method,
			Host:    r.Host,
			Path:    r.URL.Path,
			RawPath: r.URL.EscapedPath(),
			Query:   r.URL.RawQuery,
			Header:  r.Header.Clone(),
			Body:    body,
		})
		m.mu.Unlock()

		if m.handler != nil {
			m.handler(w, r)
			return
		}

		for key, value := range m.headers {
			w.Header().Set(key, value)
		}
		w.WriteHeader(m.status)
		flusher, _ := w.(http.Flusher)
		for _, part := range m.parts {
			_, _ = w.Write(part)
			if flusher != nil {
				flusher.Flush()
			}
		}
	}))
	m.t.Cleanup(m.Close)
	return m.server.URL
}

// Close closes the mock server
func (m *MockServer) Close() {
	if m.server != nil {
		m.server.Close()
	}
}

// Requests returns the requests received so far
func (m *MockServer) Requests() []RecordedRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]RecordedRequest(nil), m.requests...)
}

// LastRequest returns the most recent request, failing the test if none arrived
func (m *MockServer) LastRequest() RecordedRequest {
	m.t.Helper()
	reqs := m.Requests()
	if len(reqs) == 0 {
		m.t.Fatalf("mock server received no requests")
	}
	return reqs[len(reqs)-1]
}
