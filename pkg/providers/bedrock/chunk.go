package bedrock

import (
	"encoding/json"
	"fmt"

	"github.com/cecil-the-coder/multigpt-gateway/pkg/providers/common/streaming"
	"github.com/cecil-the-coder/multigpt-gateway/pkg/types"
)

type anthropicUsage struct {
	InputTokens  *int `json:"input_tokens"`
	OutputTokens *int `json:"output_tokens"`
}

type invocationMetrics struct {
	InputTokenCount  *int `json:"inputTokenCount"`
	OutputTokenCount *int `json:"outputTokenCount"`
}

// rawChunk is the union of every vendor's streamed chunk shape
type rawChunk struct {
	Type string `json:"type"`

	// Anthropic messages API
	Delta *struct {
		Text string `json:"text"`
	} `json:"delta"`
	ContentBlock *struct {
		Text string `json:"text"`
	} `json:"content_block"`
	Message json.RawMessage `json:"message"`
	Usage   *anthropicUsage `json:"usage"`
	Error   json.RawMessage `json:"error"`

	// Claude v2 text completions
	Completion *string `json:"completion"`
	// Titan
	OutputText *string `json:"outputText"`
	// Llama
	Generation *string `json:"generation"`
	// Cohere streaming and non-streaming
	Text        *string `json:"text"`
	Generations []struct {
		Text string `json:"text"`
	} `json:"generations"`
	// AI21
	Completions []struct {
		Data struct {
			Text string `json:"text"`
		} `json:"data"`
	} `json:"completions"`

	Metrics *invocationMetrics `json:"amazon-bedrock-invocationMetrics"`
}

// ChunkParser turns one decoded Bedrock chunk into a StreamChunk. It reads
// every vendor format Translate produces, so one parser serves all models.
// A line yields at most one chunk: an error, then message_stop, then text,
// then usage.
type ChunkParser struct{}

// NewChunkParser creates a parser for Bedrock stream payloads
func NewChunkParser() *ChunkParser {
	return &ChunkParser{}
}

var _ streaming.LineParser = (*ChunkParser)(nil)

// ParseLine implements streaming.LineParser
func (p *ChunkParser) ParseLine(data string) (types.StreamChunk, error) {
	var raw rawChunk
	if err := json.Unmarshal([]byte(data), &raw); err != nil {
		return types.StreamChunk{}, fmt.Errorf("failed to parse Bedrock chunk: %w", err)
	}

	if raw.Type == "error" || (len(raw.Error) > 0 && string(raw.Error) != "null") {
		return types.NewErrorChunk(types.NewNetworkError(types.ProviderTypeBedrock, errorMessage(raw)).
			WithOperation("stream_chat")), nil
	}

	if raw.Type == "message_stop" {
		return types.NewDoneChunk(), nil
	}

	if text := raw.text(); text != "" {
		return types.NewTextChunk(text), nil
	}

	if usage, ok := raw.usage(); ok {
		return types.NewUsageChunk(usage), nil
	}

	return types.StreamChunk{}, streaming.ErrSkipLine
}

func (r rawChunk) text() string {
	switch {
	case r.Delta != nil && r.Delta.Text != "":
		return r.Delta.Text
	case r.ContentBlock != nil && r.ContentBlock.Text != "":
		return r.ContentBlock.Text
	case r.Completion != nil && *r.Completion != "":
		return *r.Completion
	case r.OutputText != nil && *r.OutputText != "":
		return *r.OutputText
	case r.Generation != nil && *r.Generation != "":
		return *r.Generation
	case r.Text != nil && *r.Text != "":
		return *r.Text
	case len(r.Generations) > 0 && r.Generations[0].Text != "":
		return r.Generations[0].Text
	case len(r.Completions) > 0 && r.Completions[0].Data.Text != "":
		return r.Completions[0].Data.Text
	}
	return ""
}

func (r rawChunk) usage() (types.Usage, bool) {
	if len(r.Message) > 0 {
		var msg struct {
			Usage *anthropicUsage `json:"usage"`
		}
		if err := json.Unmarshal(r.Message, &msg); err == nil && msg.Usage != nil {
			if u := fromAnthropic(msg.Usage); u != (types.Usage{}) {
				return u, true
			}
		}
	}
	if r.Usage != nil {
		if u := fromAnthropic(r.Usage); u != (types.Usage{}) {
			return u, true
		}
	}
	if r.Metrics != nil && (r.Metrics.InputTokenCount != nil || r.Metrics.OutputTokenCount != nil) {
		return types.Usage{InputTokens: r.Metrics.InputTokenCount, OutputTokens: r.Metrics.OutputTokenCount}, true
	}
	return types.Usage{}, false
}

func fromAnthropic(u *anthropicUsage) types.Usage {
	return types.Usage{InputTokens: u.InputTokens, OutputTokens: u.OutputTokens}
}

// errorMessage renders {"error":{"type","message"}}, {"error":"..."} or a
// top-level {"type":"error","message":"..."}.
func errorMessage(r rawChunk) string {
	var detail struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(r.Error, &detail); err == nil && detail.Message != "" {
		if detail.Type != "" {
			return detail.Type + ": " + detail.Message
		}
		return detail.Message
	}

	var plain string
	if err := json.Unmarshal(r.Error, &plain); err == nil && plain != "" {
		return plain
	}

	var message string
	if err := json.Unmarshal(r.Message, &message); err == nil && message != "" {
		return message
	}
	return "Bedrock stream reported an error"
}
