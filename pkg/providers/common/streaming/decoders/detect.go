package decoders

import (
	"encoding/binary"
	"hash/crc32"
	"strings"
)

// PreludeLength is the size of an event-stream message prelude: total length,
// headers length and the CRC32 of those two fields.
const PreludeLength = 12

// minEventStreamMessage is the smallest legal message: a prelude plus the
// trailing message CRC.
const minEventStreamMessage = PreludeLength + 4

// DefaultAutoDetector implements AutoDetector for the formats in this package.
type DefaultAutoDetector struct{}

// NewDefaultAutoDetector creates a new auto-detector.
func NewDefaultAutoDetector() *DefaultAutoDetector {
	return &DefaultAutoDetector{}
}

// Detect combines both strategies: the content type wins when it is
// recognized, otherwise the leading bytes decide.
func (d *DefaultAutoDetector) Detect(contentType string, peek []byte) StreamFormat {
	if format := d.DetectFromContentType(contentType); format != StreamFormatUnknown {
		return format
	}
	return d.DetectFromBytes(peek)
}

// DetectFromContentType detects the stream format from HTTP Content-Type header.
func (d *DefaultAutoDetector) DetectFromContentType(contentType string) StreamFormat {
	// Normalize content type (lowercase and remove parameters)
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	if idx := strings.Index(contentType, ";"); idx >= 0 {
		contentType = strings.TrimSpace(contentType[:idx])
	}

	switch contentType {
	case "text/event-stream":
		return StreamFormatSSE
	case "application/vnd.amazon.eventstream":
		return StreamFormatEventStream
	case "application/x-ndjson", "application/jsonlines", "application/ndjson":
		return StreamFormatNDJSON
	default:
		if strings.Contains(contentType, "amazon.eventstream") {
			return StreamFormatEventStream
		}
		if strings.Contains(contentType, "event-stream") {
			return StreamFormatSSE
		}
		if strings.Contains(contentType, "ndjson") || strings.Contains(contentType, "jsonlines") {
			return StreamFormatNDJSON
		}
		return StreamFormatUnknown
	}
}

// DetectFromBytes detects the format by examining initial bytes.
// A valid event-stream prelude checksum is checked first since binary frames
// can contain anything, including text that looks like SSE fields.
func (d *DefaultAutoDetector) DetectFromBytes(peek []byte) StreamFormat {
	if len(peek) == 0 {
		return StreamFormatUnknown
	}

	if hasEventStreamPrelude(peek) {
		return StreamFormatEventStream
	}

	content := string(peek)
	if hasSSEPattern(content) {
		return StreamFormatSSE
	}
	if hasNDJSONPattern(content) {
		return StreamFormatNDJSON
	}

	return StreamFormatUnknown
}

// hasEventStreamPrelude checks the prelude CRC of a binary event-stream message.
func hasEventStreamPrelude(peek []byte) bool {
	if len(peek) < PreludeLength {
		return false
	}
	total := binary.BigEndian.Uint32(peek[0:4])
	headers := binary.BigEndian.Uint32(peek[4:8])
	if total < minEventStreamMessage || headers > total-minEventStreamMessage {
		return false
	}
	return crc32.ChecksumIEEE(peek[0:8]) == binary.BigEndian.Uint32(peek[8:12])
}

// hasSSEPattern checks if the content contains SSE field patterns.
func hasSSEPattern(content string) bool {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "event:") ||
			strings.HasPrefix(line, "data:") ||
			strings.HasPrefix(line, "id:") ||
			strings.HasPrefix(line, "retry:") ||
			strings.HasPrefix(line, ":") {
			return true
		}
	}
	return false
}

// hasNDJSONPattern checks if the content looks like NDJSON.
func hasNDJSONPattern(content string) bool {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if (strings.HasPrefix(line, "{") && strings.Contains(line, "}")) ||
			(strings.HasPrefix(line, "[") && strings.Contains(line, "]")) {
			return true
		}
	}
	return false
}
