package bedrock

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cecil-the-coder/multigpt-gateway/pkg/types"
)

var dialogue = []types.ChatMessage{
	types.NewUserMessage("Hello"),
	types.NewAssistantMessage("Hi there"),
	types.NewUserMessage("How are you?"),
}

func TestVendorFor(t *testing.T) {
	tests := []struct {
		model    string
		expected Vendor
	}{
		{"anthropic.claude-3-haiku-20240307-v1:0", VendorAnthropic},
		{"anthropic.claude-instant-v1", VendorAnthropic},
		{"amazon.titan-text-express-v1", VendorTitan},
		{"ai21.j2-ultra-v1", VendorAI21},
		{"cohere.command-text-v14", VendorCohere},
		{"meta.llama2-13b-chat-v1", VendorLlama},
		{"mistral.mistral-7b-instruct-v0:2", VendorGeneric},
		{"unknown-model", VendorGeneric},
		{"Anthropic.claude-v2", VendorGeneric},
		{"amazon.nova-lite-v1:0", VendorGeneric},
		{"", VendorGeneric},
	}

	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			assert.Equal(t, tt.expected, VendorFor(tt.model))
			assert.Equal(t, tt.expected, Translate(dialogue, tt.model, types.GenerationParams{}).Vendor())
		})
	}
}

func marshalMap(t *testing.T, req VendorRequest) map[string]interface{} {
	t.Helper()
	payload, err := MarshalRequest(req)
	require.NoError(t, err)
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(payload, &out))
	return out
}

func TestTranslate_Anthropic(t *testing.T) {
	params := types.GenerationParams{
		Temperature:  types.Float64(0.7),
		TopP:         types.Float64(0.9),
		SystemPrompt: "Be concise.",
	}
	req := Translate(dialogue, "anthropic.claude-3-haiku-20240307-v1:0", params)

	anthropic, ok := req.(AnthropicRequest)
	require.True(t, ok)
	assert.Equal(t, dialogue, anthropic.Messages)

	payload, err := MarshalRequest(req)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"anthropic_version": "bedrock-2023-05-31",
		"messages": [
			{"role": "user", "content": "Hello"},
			{"role": "assistant", "content": "Hi there"},
			{"role": "user", "content": "How are you?"}
		],
		"max_tokens": 4096,
		"temperature": 0.7,
		"top_p": 0.9,
		"system": "Be concise."
	}`, string(payload))
}

func TestTranslate_AbsentParamsOmitted(t *testing.T) {
	body := marshalMap(t, Translate(dialogue, "anthropic.claude-v2", types.GenerationParams{}))
	assert.NotContains(t, body, "temperature")
	assert.NotContains(t, body, "top_p")
	assert.NotContains(t, body, "system")
	assert.Equal(t, float64(4096), body["max_tokens"])

	text := marshalMap(t, Translate(dialogue, "amazon.titan-text-lite-v1", types.GenerationParams{MaxTokens: types.Int(100)}))
	config := text["textGenerationConfig"].(map[string]interface{})
	assert.Equal(t, map[string]interface{}{"maxTokenCount": float64(100)}, config)
}

func TestTranslate_Generic(t *testing.T) {
	body := marshalMap(t, Translate(dialogue, "unknown-model", types.GenerationParams{SystemPrompt: "sys"}))
	assert.NotContains(t, body, "anthropic_version")
	assert.Equal(t, "sys", body["system"])
	assert.Len(t, body["messages"], 3)
}

func TestTranslate_EmptyTurnsStillArray(t *testing.T) {
	payload, err := MarshalRequest(Translate(nil, "anthropic.claude-v2", types.GenerationParams{}))
	require.NoError(t, err)
	assert.Contains(t, string(payload), `"messages":[]`)
}

func TestTranslate_TextPrompts(t *testing.T) {
	withSystem := types.GenerationParams{SystemPrompt: "You are helpful."}

	tests := []struct {
		name     string
		model    string
		turns    []types.ChatMessage
		params   types.GenerationParams
		expected string
	}{
		{
			name:     "titan with system prompt",
			model:    "amazon.titan-text-express-v1",
			turns:    dialogue,
			params:   withSystem,
			expected: "System: You are helpful.\n\nUser: Hello\n\nAssistant: Hi there\n\nUser: How are you?\n\nAssistant:",
		},
		{
			name:     "titan capitalizes unknown roles",
			model:    "amazon.titan-text-lite-v1",
			turns:    []types.ChatMessage{{Role: "tool", Content: "42"}},
			expected: "Tool: 42\n\nAssistant:",
		},
		{
			name:     "ai21 without label on system prompt",
			model:    "ai21.j2-mid-v1",
			turns:    dialogue,
			params:   withSystem,
			expected: "You are helpful.\n\nHuman: Hello\n\nAssistant: Hi there\n\nHuman: How are you?\n\nAssistant:",
		},
		{
			name:     "ai21 empty conversation",
			model:    "ai21.j2-ultra-v1",
			expected: "Assistant:",
		},
		{
			name:     "cohere raw lines",
			model:    "cohere.command-text-v14",
			turns:    dialogue,
			params:   withSystem,
			expected: "You are helpful.\n\nHello\nHi there\nHow are you?\n",
		},
		{
			name:     "cohere without system prompt",
			model:    "cohere.command-light-text-v14",
			turns:    dialogue[:1],
			expected: "Hello\n",
		},
		{
			name:     "llama with system prompt",
			model:    "meta.llama2-13b-chat-v1",
			turns:    dialogue,
			params:   withSystem,
			expected: "<s>[INST] <<SYS>>\nYou are helpful.\n<</SYS>>\n\nHello [/INST] Hi there </s><s>[INST] How are you? [/INST]",
		},
		{
			name:     "llama without system prompt",
			model:    "meta.llama2-70b-chat-v1",
			turns:    dialogue,
			expected: "<s>[INST] <s>[INST] Hello [/INST] Hi there </s><s>[INST] How are you? [/INST]",
		},
		{
			name:     "llama ending on assistant opens a block",
			model:    "meta.llama2-13b-chat-v1",
			turns:    dialogue[:2],
			params:   withSystem,
			expected: "<s>[INST] <<SYS>>\nYou are helpful.\n<</SYS>>\n\nHello [/INST] Hi there </s><s>[INST] ",
		},
		{
			name:     "llama empty conversation",
			model:    "meta.llama3-8b-instruct-v1:0",
			expected: "<s>[INST] <s>[INST] ",
		},
		{
			name:     "llama skips other roles",
			model:    "meta.llama2-13b-chat-v1",
			turns:    []types.ChatMessage{{Role: "system", Content: "ignored"}, types.NewUserMessage("Hi")},
			expected: "<s>[INST] <s>[INST] Hi [/INST]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := marshalMap(t, Translate(tt.turns, tt.model, tt.params))
			assert.Equal(t, tt.expected, body["inputText"])
			assert.NotContains(t, body, "messages")
			assert.Contains(t, body, "textGenerationConfig")
		})
	}
}

func TestTranslate_FlattenedTextPreservesOrder(t *testing.T) {
	turns := []types.ChatMessage{
		types.NewUserMessage("first-alpha"),
		types.NewAssistantMessage("second-beta"),
		types.NewUserMessage("third-gamma"),
	}

	for _, model := range []string{"amazon.titan-x", "ai21.x", "cohere.x", "meta.llama-x"} {
		t.Run(model, func(t *testing.T) {
			body := marshalMap(t, Translate(turns, model, types.GenerationParams{}))
			text := body["inputText"].(string)

			last := -1
			for _, turn := range turns {
				idx := strings.Index(text, turn.Content)
				require.GreaterOrEqual(t, idx, 0, "missing %q", turn.Content)
				assert.Greater(t, idx, last, "%q out of order", turn.Content)
				last = idx
			}
		})
	}
}

func TestTranslate_DoesNotAliasTurns(t *testing.T) {
	turns := []types.ChatMessage{types.NewUserMessage("original")}
	req := Translate(turns, "anthropic.claude-v2", types.GenerationParams{}).(AnthropicRequest)
	turns[0].Content = "mutated"
	assert.Equal(t, "original", req.Messages[0].Content)
}

func TestCapitalize(t *testing.T) {
	assert.Equal(t, "Tool", capitalize("tool"))
	assert.Equal(t, "Éclair", capitalize("éclair"))
	assert.Equal(t, "", capitalize(""))
	assert.Equal(t, "X", capitalize("X"))
}
