package testutil

import (
	"errors"
	"io"
	"strings"
	"sync"
	"sync/atomic"
)

// ErrBodyRead is returned by FailingBody after its data is consumed
var ErrBodyRead = errors.New("connection reset by peer")

// TrackingBody wraps a reader and records whether Close was called.
type TrackingBody struct {
	io.Reader
	closed atomic.Bool
}

// NewTrackingBody creates a body serving s
func NewTrackingBody(s string) *TrackingBody {
	return &TrackingBody{Reader: strings.NewReader(s)}
}

// Close records the call
func (b *TrackingBody) Close() error {
	b.closed.Store(true)
	return nil
}

// Closed reports whether Close was called
func (b *TrackingBody) Closed() bool {
	return b.closed.Load()
}

// FailingBody serves data and then fails every read with err.
type FailingBody struct {
	TrackingBody
	err error
}

// NewFailingBody creates a body that returns data, then err (ErrBodyRead when nil)
func NewFailingBody(data string, err error) *FailingBody {
	if err == nil {
		err = ErrBodyRead
	}
	return &FailingBody{TrackingBody: TrackingBody{Reader: strings.NewReader(data)}, err: err}
}

// Read returns the buffered data, then the configured error
func (b *FailingBody) Read(p []byte) (int, error) {
	n, err := b.TrackingBody.Read(p)
	if err == io.EOF {
		return n, b.err
	}
	return n, err
}

// BlockingBody serves data and then blocks until Close is called, the way a
// live connection waits for the next event.
type BlockingBody struct {
	data      *strings.Reader
	closed    chan struct{}
	closeOnce sync.Once
}

// NewBlockingBody creates a body that returns data, then blocks
func NewBlockingBody(data string) *BlockingBody {
	return &BlockingBody{data: strings.NewReader(data), closed: make(chan struct{})}
}

// Read returns the buffered data, then blocks until Close
func (b *BlockingBody) Read(p []byte) (int, error) {
	if b.data.Len() > 0 {
		return b.data.Read(p)
	}
	<-b.closed
	return 0, errors.New("read on closed body")
}

// Close unblocks pending reads
func (b *BlockingBody) Close() error {
	b.closeOnce.Do(func() { close(b.closed) })
	return nil
}

// Closed reports whether Close was called
func (b *BlockingBody) Closed() bool {
	select {
	case <-b.closed:
		return true
	default:
		return false
	}
}
