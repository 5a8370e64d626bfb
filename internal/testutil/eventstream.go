package testutil

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws/protocol/eventstream"
	"github.com/stretchr/testify/require"
)

// EventStreamBuilder assembles a binary application/vnd.amazon.eventstream
// body the way Bedrock's invoke-with-response-stream emits it.
type EventStreamBuilder struct {
	t       testing.TB
	buf     bytes.Buffer
	encoder *eventstream.Encoder
}

// NewEventStreamBuilder creates an empty builder
func NewEventStreamBuilder(t testing.TB) *EventStreamBuilder {
	return &EventStreamBuilder{t: t, encoder: eventstream.NewEncoder()}
}

// Chunk appends a "chunk" event wrapping payload as {"bytes": base64(payload)}
func (b *EventStreamBuilder) Chunk(payload string) *EventStreamBuilder {
	body, err := json.Marshal(map[string][]byte{"bytes": []byte(payload)})
	require.NoError(b.t, err)

	var headers eventstream.Headers
	headers.Set(":message-type", eventstream.StringValue("event"))
	headers.Set(":event-type", eventstream.StringValue("chunk"))
	headers.Set(":content-type", eventstream.StringValue("application/json"))
	return b.Message(eventstream.Message{Headers: headers, Payload: body})
}

// Exception appends an exception frame such as a throttlingException
func (b *EventStreamBuilder) Exception(kind, message string) *EventStreamBuilder {
	body, err := json.Marshal(map[string]string{"message": message})
	require.NoError(b.t, err)

	var headers eventstream.Headers
	headers.Set(":message-type", eventstream.StringValue("exception"))
	headers.Set(":exception-type", eventstream.StringValue(kind))
	headers.Set(":content-type", eventstream.StringValue("application/json"))
	return b.Message(eventstream.Message{Headers: headers, Payload: body})
}

// Message appends an arbitrary frame
func (b *EventStreamBuilder) Message(msg eventstream.Message) *EventStreamBuilder {
	require.NoError(b.t, b.encoder.Encode(&b.buf, msg))
	return b
}

// Bytes returns the encoded body
func (b *EventStreamBuilder) Bytes() []byte {
	return bytes.Clone(b.buf.Bytes())
}
