package streaming

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws/protocol/eventstream"

	"github.com/cecil-the-coder/multigpt-gateway/pkg/types"
)

// Event-stream header names and values used by Bedrock.
const (
	HeaderMessageType   = ":message-type"
	HeaderEventType     = ":event-type"
	HeaderExceptionType = ":exception-type"
	HeaderErrorCode     = ":error-code"
	HeaderErrorMessage  = ":error-message"
	HeaderContentType   = ":content-type"

	MessageTypeEvent     = "event"
	MessageTypeException = "exception"
	MessageTypeError     = "error"

	EventTypeChunk = "chunk"
)

// EventStream decodes the binary application/vnd.amazon.eventstream framing.
// Every "chunk" event carries {"bytes": "<base64 JSON>"}; the decoded JSON is
// handed to the parser exactly like an SSE data line. Exception and error
// frames end the stream with one network_error chunk.
type EventStream struct {
	baseStream
	decoder *eventstream.Decoder
}

// NewEventStream creates a stream over a binary event-stream body.
func NewEventStream(body io.ReadCloser, parser LineParser, opts ...Option) *EventStream {
	return &EventStream{
		baseStream: newBaseStream(body, parser, opts),
		decoder:    eventstream.NewDecoder(),
	}
}

// Next returns the next chunk, or io.EOF once the stream has ended.
func (s *EventStream) Next() (types.StreamChunk, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for !s.done {
		if s.closed.Load() {
			s.finish()
			break
		}

		msg, err := s.decoder.Decode(s.body, nil)
		if err != nil {
			return s.fail(err)
		}
		if chunk, ok := s.processMessage(msg); ok {
			return chunk, nil
		}
	}

	return types.StreamChunk{}, io.EOF
}

func (s *EventStream) processMessage(msg eventstream.Message) (types.StreamChunk, bool) {
	switch HeaderString(msg.Headers, HeaderMessageType) {
	case MessageTypeException:
		return s.terminate(exceptionMessage(msg)), true
	case MessageTypeError:
		return s.terminate(fmt.Sprintf("%s: %s",
			HeaderString(msg.Headers, HeaderErrorCode),
			HeaderString(msg.Headers, HeaderErrorMessage))), true
	}

	if HeaderString(msg.Headers, HeaderEventType) != EventTypeChunk {
		return types.StreamChunk{}, false
	}

	var payload struct {
		Bytes []byte `json:"bytes"`
	}
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		if s.opts.logger != nil {
			s.opts.logger.Printf("streaming: skipping malformed event payload: %v", err)
		}
		return types.StreamChunk{}, false
	}
	return s.parse(string(payload.Bytes))
}

func (s *EventStream) terminate(message string) types.StreamChunk {
	s.finish()
	return types.NewErrorChunk(types.NewNetworkError(s.opts.provider, message).WithOperation("read_stream"))
}

func exceptionMessage(msg eventstream.Message) string {
	var body struct {
		Message string `json:"message"`
	}
	_ = json.Unmarshal(msg.Payload, &body)
	if body.Message == "" {
		body.Message = string(msg.Payload)
	}
	if kind := HeaderString(msg.Headers, HeaderExceptionType); kind != "" {
		return kind + ": " + body.Message
	}
	return body.Message
}

// HeaderString returns the string value of the named header, or "".
func HeaderString(headers eventstream.Headers, name string) string {
	if v, ok := headers.Get(name).(eventstream.StringValue); ok {
		return string(v)
	}
	return ""
}
