// Package testutil provides shared testing utilities, mocks, and fixtures
// for use across the multigpt-gateway test suite.
package testutil

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sync"

	"github.com/cecil-the-coder/multigpt-gateway/pkg/types"
)

// MockStream is a types.ChunkStream that replays a fixed list of chunks.
type MockStream struct {
	mu         sync.Mutex
	chunks     []types.StreamChunk
	index      int
	err        error
	closeCalls int
}

// NewMockStream creates a new mock stream with the given chunks
func NewMockStream(chunks ...types.StreamChunk) *MockStream {
	return &MockStream{chunks: chunks}
}

// SetError makes Next return err once the chunks are exhausted
func (s *MockStream) SetError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// Next returns the next chunk, then the configured error or io.EOF
func (s *MockStream) Next() (types.StreamChunk, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.index >= len(s.chunks) {
		if s.err != nil {
			return types.StreamChunk{}, s.err
		}
		return types.StreamChunk{}, io.EOF
	}
	chunk := s.chunks[s.index]
	s.index++
	return chunk, nil
}

// Close records the call
func (s *MockStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeCalls++
	return nil
}

// CloseCalls returns how many times Close was called
func (s *MockStream) CloseCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closeCalls
}

// TransportFunc adapts a function to the Do(ctx, req) transport shape used
// by the gateway and the catalog.
type TransportFunc func(ctx context.Context, req *http.Request) (*http.Response, error)

// Do calls f(ctx, req)
func (f TransportFunc) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	return f(ctx, req)
}

// ErrTransport is the error returned by FailingTransport
var ErrTransport = errors.New("connection refused")

// FailingTransport returns a transport whose every call fails with err, or
// ErrTransport when err is nil. The number of calls is reported through calls.
func FailingTransport(err error, calls *int) TransportFunc {
	if err == nil {
		err = ErrTransport
	}
	var mu sync.Mutex
	return func(ctx context.Context, req *http.Request) (*http.Response, error) {
		mu.Lock()
		defer mu.Unlock()
		if calls != nil {
			*calls++
		}
		return nil, err
	}
}

// StaticResponse builds a response with the given status, content type and body
func StaticResponse(status int, contentType string, body io.ReadCloser) *http.Response {
	header := make(http.Header)
	if contentType != "" {
		header.Set("Content-Type", contentType)
	}
	return &http.Response{
		StatusCode: status,
		Status:     http.StatusText(status),
		Header:     header,
		Body:       body,
	}
}
