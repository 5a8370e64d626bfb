// Package decoders detects the framing of a streaming response body so the
// streaming package can pick the right decoder. Two framings are produced by
// the providers this module talks to: text Server-Sent Events and the binary
// AWS event-stream used by Bedrock's invoke-with-response-stream.
package decoders

// StreamFormat represents the format of a streaming response.
type StreamFormat string

const (
	// StreamFormatSSE represents Server-Sent Events format.
	StreamFormatSSE StreamFormat = "sse"

	// StreamFormatNDJSON represents Newline-Delimited JSON format.
	// Each line is a complete JSON object, separated by newlines.
	StreamFormatNDJSON StreamFormat = "ndjson"

	// StreamFormatEventStream represents the binary AWS event-stream framing
	// (application/vnd.amazon.eventstream).
	StreamFormatEventStream StreamFormat = "event-stream"

	// StreamFormatUnknown represents an unknown or undetected format.
	StreamFormatUnknown StreamFormat = "unknown"
)

// AutoDetector can automatically detect stream format from initial bytes or headers.
type AutoDetector interface {
	// DetectFromContentType detects format from HTTP Content-Type header.
	DetectFromContentType(contentType string) StreamFormat

	// DetectFromBytes detects format by examining the first bytes of the stream.
	DetectFromBytes(peek []byte) StreamFormat
}
