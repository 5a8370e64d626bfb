package streaming

import (
	"bufio"
	"io"
	"strings"

	"github.com/cecil-the-coder/multigpt-gateway/pkg/types"
)

// SSEStream decodes a line-oriented response body.
//
// For SSE framing the line terminator is dropped and then:
//   - blank lines and lines with unknown fields are ignored
//   - field prefixes must start the line, so indented lines are ignored
//   - "data:" lines end the stream on [DONE], otherwise go to the parser
//   - "event:" lines end the stream when the event is "completion" or "done"
//
// A final line without a trailing newline is still processed.
type SSEStream struct {
	baseStream
	reader   *bufio.Reader
	bareData bool
	readErr  error
}

// NewSSEStream creates a stream that decodes Server-Sent Events from body.
func NewSSEStream(body io.ReadCloser, parser LineParser, opts ...Option) *SSEStream {
	return &SSEStream{
		baseStream: newBaseStream(body, parser, opts),
		reader:     bufio.NewReader(body),
	}
}

// NewNDJSONStream creates a stream where every non-blank line is a payload.
func NewNDJSONStream(body io.ReadCloser, parser LineParser, opts ...Option) *SSEStream {
	s := NewSSEStream(body, parser, opts...)
	s.bareData = true
	return s
}

// Next returns the next chunk, or io.EOF once the stream has ended.
func (s *SSEStream) Next() (types.StreamChunk, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for !s.done {
		if s.readErr != nil {
			return s.fail(s.readErr)
		}
		if s.closed.Load() {
			s.finish()
			break
		}

		line, err := s.reader.ReadString('\n')
		s.readErr = err
		if chunk, ok := s.processLine(line); ok {
			return chunk, nil
		}
	}

	return types.StreamChunk{}, io.EOF
}

func (s *SSEStream) processLine(line string) (types.StreamChunk, bool) {
	line = strings.TrimRight(line, "\r\n")
	if strings.TrimSpace(line) == "" {
		return types.StreamChunk{}, false
	}

	if s.bareData {
		line = strings.TrimSpace(line)
		if line == DoneSentinel {
			s.finish()
			return types.StreamChunk{}, false
		}
		return s.parse(line)
	}

	switch {
	case strings.HasPrefix(line, "data:"):
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == DoneSentinel {
			s.finish()
			return types.StreamChunk{}, false
		}
		return s.parse(data)

	case strings.HasPrefix(line, "event:"):
		switch strings.TrimSpace(strings.TrimPrefix(line, "event:")) {
		case "completion", "done":
			s.finish()
		}
	}

	// comments, id:, retry: and anything else
	return types.StreamChunk{}, false
}
