package streaming

import (
	"context"
	"io"
	"sync/atomic"

	"github.com/cecil-the-coder/multigpt-gateway/pkg/types"
)

// ContextStream wraps a stream with context awareness. Cancelling the context
// closes the wrapped stream at once, unblocking a pending read, and every
// later Next returns the context error.
type ContextStream struct {
	base types.ChunkStream
	ctx  context.Context
	stop func() bool
}

// WithContext ties base to ctx.
func WithContext(ctx context.Context, base types.ChunkStream) *ContextStream {
	return &ContextStream{
		base: base,
		ctx:  ctx,
		stop: context.AfterFunc(ctx, func() { _ = base.Close() }),
	}
}

// Next returns the next chunk, respecting context cancellation
func (cs *ContextStream) Next() (types.StreamChunk, error) {
	if err := cs.ctx.Err(); err != nil {
		return types.StreamChunk{}, err
	}

	chunk, err := cs.base.Next()
	if ctxErr := cs.ctx.Err(); ctxErr != nil {
		return types.StreamChunk{}, ctxErr
	}
	if err == io.EOF {
		cs.stop()
	}
	return chunk, err
}

// Close closes the underlying stream
func (cs *ContextStream) Close() error {
	cs.stop()
	return cs.base.Close()
}

// ErrorStream yields a single error chunk and then ends. Close may be called
// from another goroutine.
type ErrorStream struct {
	err  *types.ProviderError
	sent atomic.Bool
}

// NewErrorStream creates a stream that immediately reports err
func NewErrorStream(err *types.ProviderError) *ErrorStream {
	return &ErrorStream{err: err}
}

// Next returns the error chunk once, then io.EOF
func (es *ErrorStream) Next() (types.StreamChunk, error) {
	if es.sent.Swap(true) {
		return types.StreamChunk{}, io.EOF
	}
	return types.NewErrorChunk(es.err), nil
}

// Close marks the stream as finished
func (es *ErrorStream) Close() error {
	es.sent.Store(true)
	return nil
}
