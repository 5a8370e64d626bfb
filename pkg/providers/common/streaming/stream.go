// Package streaming turns a streamed provider response body into a pull-based
// types.ChunkStream. The framing (SSE lines, NDJSON lines or the binary AWS
// event-stream) is handled here; turning one decoded payload into a chunk is
// delegated to a provider-specific LineParser.
package streaming

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"sync/atomic"

	"github.com/cecil-the-coder/multigpt-gateway/pkg/providers/common/streaming/decoders"
	"github.com/cecil-the-coder/multigpt-gateway/pkg/types"
)

// DoneSentinel is the data payload that ends an SSE stream without a chunk.
const DoneSentinel = "[DONE]"

// ErrSkipLine is returned by a LineParser for a payload that decoded fine but
// carries nothing worth reporting (pings, block stops, empty deltas).
var ErrSkipLine = errors.New("streaming: line carries no chunk")

// LineParser defines provider-specific parsing of one stream payload.
// Any error other than ErrSkipLine is treated as a malformed line; either way
// the line is skipped and decoding continues.
type LineParser interface {
	ParseLine(data string) (types.StreamChunk, error)
}

// LineParserFunc adapts a function to LineParser
type LineParserFunc func(data string) (types.StreamChunk, error)

// ParseLine calls f(data)
func (f LineParserFunc) ParseLine(data string) (types.StreamChunk, error) {
	return f(data)
}

type streamOptions struct {
	provider types.ProviderType
	logger   *log.Logger
}

// Option configures a decoder
type Option func(*streamOptions)

// WithProvider sets the provider reported in error chunks
func WithProvider(provider types.ProviderType) Option {
	return func(o *streamOptions) {
		o.provider = provider
	}
}

// WithLogger logs skipped malformed lines to logger
func WithLogger(logger *log.Logger) Option {
	return func(o *streamOptions) {
		o.logger = logger
	}
}

func buildOptions(opts []Option) streamOptions {
	var o streamOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// baseStream holds the termination bookkeeping shared by every decoder.
// mu serializes Next; Close never takes it so it can interrupt a blocked read.
type baseStream struct {
	body   io.ReadCloser
	parser LineParser
	opts   streamOptions

	mu   sync.Mutex
	done bool

	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

func newBaseStream(body io.ReadCloser, parser LineParser, opts []Option) baseStream {
	return baseStream{
		body:   body,
		parser: parser,
		opts:   buildOptions(opts),
	}
}

// finish ends the stream and releases the body. Callers hold mu.
func (b *baseStream) finish() {
	b.done = true
	_ = b.closeBody()
}

func (b *baseStream) closeBody() error {
	b.closeOnce.Do(func() {
		if b.body != nil {
			b.closeErr = b.body.Close()
		}
	})
	return b.closeErr
}

// fail ends the stream after a read error. A clean EOF, or any error caused
// by Close, ends quietly; anything else becomes one network_error chunk.
func (b *baseStream) fail(err error) (types.StreamChunk, error) {
	closed := b.closed.Load()
	b.finish()
	if errors.Is(err, io.EOF) || closed {
		return types.StreamChunk{}, io.EOF
	}
	return types.NewErrorChunk(
		types.NewNetworkError(b.opts.provider, err.Error()).
			WithOperation("read_stream").
			WithOriginalErr(err),
	), nil
}

// parse hands one payload to the parser. ok is false when the payload was skipped.
func (b *baseStream) parse(data string) (chunk types.StreamChunk, ok bool) {
	chunk, err := b.parser.ParseLine(data)
	if err != nil {
		if !errors.Is(err, ErrSkipLine) && b.opts.logger != nil {
			b.opts.logger.Printf("streaming: skipping malformed line: %v", err)
		}
		return types.StreamChunk{}, false
	}
	if chunk.IsTerminal() {
		b.finish()
	}
	return chunk, true
}

// Close releases the body. It is safe to call from any goroutine, more than
// once, and while another goroutine is blocked in Next.
func (b *baseStream) Close() error {
	b.closed.Store(true)
	return b.closeBody()
}

type bufferedBody struct {
	*bufio.Reader
	io.Closer
}

// NewStream picks a decoder for body using the response content type and,
// when that is inconclusive, the first bytes of the body. Unknown formats are
// decoded as SSE.
func NewStream(body io.ReadCloser, contentType string, parser LineParser, opts ...Option) types.ChunkStream {
	detector := decoders.NewDefaultAutoDetector()
	format := detector.DetectFromContentType(contentType)

	if format == decoders.StreamFormatUnknown {
		reader := bufio.NewReader(body)
		// A short peek only means a short body; the decoder sees the same bytes.
		peek, _ := reader.Peek(decoders.PreludeLength)
		format = detector.DetectFromBytes(peek)
		body = bufferedBody{Reader: reader, Closer: body}
	}

	switch format {
	case decoders.StreamFormatEventStream:
		return NewEventStream(body, parser, opts...)
	case decoders.StreamFormatNDJSON:
		return NewNDJSONStream(body, parser, opts...)
	default:
		return NewSSEStream(body, parser, opts...)
	}
}

// Collect drains stream and closes it. A non-EOF error from Next is returned
// together with the chunks read so far.
func Collect(stream types.ChunkStream) ([]types.StreamChunk, error) {
	defer func() { _ = stream.Close() }()

	var chunks []types.StreamChunk
	for {
		chunk, err := stream.Next()
		if err == io.EOF {
			return chunks, nil
		}
		if err != nil {
			return chunks, fmt.Errorf("stream ended with error: %w", err)
		}
		chunks = append(chunks, chunk)
	}
}
