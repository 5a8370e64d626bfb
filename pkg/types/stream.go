package types

// ChunkKind discriminates the StreamChunk union
type ChunkKind string

const (
	ChunkKindText  ChunkKind = "text"
	ChunkKindUsage ChunkKind = "usage"
	ChunkKindError ChunkKind = "error"
	ChunkKindDone  ChunkKind = "done"
)

// Usage carries token accounting. Either side may be unknown.
type Usage struct {
	InputTokens  *int `json:"input_tokens,omitempty"`
	OutputTokens *int `json:"output_tokens,omitempty"`
}

// StreamChunk is one normalized unit of incremental model output.
// Exactly one of Text, Usage or Err is meaningful, selected by Kind.
// A stream produces nothing after a done or error chunk.
type StreamChunk struct {
	Kind  ChunkKind      `json:"kind"`
	Text  string         `json:"text,omitempty"`
	Usage *Usage         `json:"usage,omitempty"`
	Err   *ProviderError `json:"-"`
}

// NewTextChunk creates a text delta chunk
func NewTextChunk(text string) StreamChunk {
	return StreamChunk{Kind: ChunkKindText, Text: text}
}

// NewUsageChunk creates a usage chunk
func NewUsageChunk(usage Usage) StreamChunk {
	return StreamChunk{Kind: ChunkKindUsage, Usage: &usage}
}

// NewErrorChunk creates an error chunk
func NewErrorChunk(err *ProviderError) StreamChunk {
	return StreamChunk{Kind: ChunkKindError, Err: err}
}

// NewDoneChunk creates a completion chunk
func NewDoneChunk() StreamChunk {
	return StreamChunk{Kind: ChunkKindDone}
}

// IsTerminal reports whether no chunk may follow this one
func (c StreamChunk) IsTerminal() bool {
	return c.Kind == ChunkKindDone || c.Kind == ChunkKindError
}

// ErrorCode returns the error kind of an error chunk, or "" for other kinds
func (c StreamChunk) ErrorCode() ErrorCode {
	if c.Kind != ChunkKindError || c.Err == nil {
		return ""
	}
	return c.Err.Code
}

// ChunkStream is a single-consumer, pull-based sequence of chunks.
// Next returns io.EOF once the sequence has ended; Close releases the
// underlying connection and may be called at any time, from any goroutine.
type ChunkStream interface {
	Next() (StreamChunk, error)
	Close() error
}
