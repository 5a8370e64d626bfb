package bedrock

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/cecil-the-coder/multigpt-gateway/pkg/types"
)

// AnthropicVersion is the protocol marker Bedrock requires on Anthropic requests
const AnthropicVersion = "bedrock-2023-05-31"

// Vendor identifies a Bedrock request wire format
type Vendor string

const (
	VendorAnthropic Vendor = "anthropic"
	VendorTitan     Vendor = "titan"
	VendorAI21      Vendor = "ai21"
	VendorCohere    Vendor = "cohere"
	VendorLlama     Vendor = "llama"
	VendorGeneric   Vendor = "generic"
)

// VendorRequest is the body of an invoke request in one vendor's format.
// The set of implementations is closed; switch on the concrete type or on Vendor().
type VendorRequest interface {
	Vendor() Vendor
	vendorRequest()
}

// AnthropicRequest is the Anthropic Messages format on Bedrock
type AnthropicRequest struct {
	AnthropicVersion string              `json:"anthropic_version"`
	Messages         []types.ChatMessage `json:"messages"`
	MaxTokens        int                 `json:"max_tokens"`
	Temperature      *float64            `json:"temperature,omitempty"`
	TopP             *float64            `json:"top_p,omitempty"`
	System           string              `json:"system,omitempty"`
}

// GenericRequest is the messages format without a version marker, used for
// models no other format claims
type GenericRequest struct {
	Messages    []types.ChatMessage `json:"messages"`
	MaxTokens   int                 `json:"max_tokens"`
	Temperature *float64            `json:"temperature,omitempty"`
	TopP        *float64            `json:"top_p,omitempty"`
	System      string              `json:"system,omitempty"`
}

// TextGenerationConfig holds the limits of the text-completion formats
type TextGenerationConfig struct {
	MaxTokenCount int      `json:"maxTokenCount"`
	Temperature   *float64 `json:"temperature,omitempty"`
	TopP          *float64 `json:"topP,omitempty"`
}

// TextRequest is the flattened prompt shared by the text-completion formats
type TextRequest struct {
	InputText            string               `json:"inputText"`
	TextGenerationConfig TextGenerationConfig `json:"textGenerationConfig"`
}

// TitanRequest is the Amazon Titan text format
type TitanRequest struct{ TextRequest }

// AI21Request is the AI21 Jurassic text format
type AI21Request struct{ TextRequest }

// CohereRequest is the Cohere Command text format
type CohereRequest struct{ TextRequest }

// LlamaRequest is the Meta Llama 2 chat prompt format
type LlamaRequest struct{ TextRequest }

func (AnthropicRequest) Vendor() Vendor { return VendorAnthropic }
func (GenericRequest) Vendor() Vendor   { return VendorGeneric }
func (TitanRequest) Vendor() Vendor     { return VendorTitan }
func (AI21Request) Vendor() Vendor      { return VendorAI21 }
func (CohereRequest) Vendor() Vendor    { return VendorCohere }
func (LlamaRequest) Vendor() Vendor     { return VendorLlama }

func (AnthropicRequest) vendorRequest() {}
func (GenericRequest) vendorRequest()   {}
func (TitanRequest) vendorRequest()     {}
func (AI21Request) vendorRequest()      {}
func (CohereRequest) vendorRequest()    {}
func (LlamaRequest) vendorRequest()     {}

type requestBuilder func(turns []types.ChatMessage, params types.GenerationParams) VendorRequest

type vendorRoute struct {
	prefix string
	vendor Vendor
	build  requestBuilder
}

// vendorRoutes is evaluated in order and the first case-sensitive prefix
// match wins. Models matching no row get the generic format.
var vendorRoutes = []vendorRoute{
	{prefix: "anthropic.claude", vendor: VendorAnthropic, build: buildAnthropic},
	{prefix: "amazon.titan", vendor: VendorTitan, build: buildTitan},
	{prefix: "ai21.", vendor: VendorAI21, build: buildAI21},
	{prefix: "cohere.", vendor: VendorCohere, build: buildCohere},
	{prefix: "meta.llama", vendor: VendorLlama, build: buildLlama},
}

func routeFor(model string) (vendorRoute, bool) {
	for _, r := range vendorRoutes {
		if strings.HasPrefix(model, r.prefix) {
			return r, true
		}
	}
	return vendorRoute{}, false
}

// VendorFor reports which wire format Translate uses for model
func VendorFor(model string) Vendor {
	if r, ok := routeFor(model); ok {
		return r.vendor
	}
	return VendorGeneric
}

// Translate builds the vendor request body for a conversation. Turn order is
// preserved; unset parameters are omitted except the token limit, which
// defaults to types.DefaultMaxTokens.
func Translate(turns []types.ChatMessage, model string, params types.GenerationParams) VendorRequest {
	if r, ok := routeFor(model); ok {
		return r.build(turns, params)
	}
	return buildGeneric(turns, params)
}

// MarshalRequest serializes a vendor request to its JSON payload
func MarshalRequest(req VendorRequest) ([]byte, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s request: %w", req.Vendor(), err)
	}
	return payload, nil
}

func copyTurns(turns []types.ChatMessage) []types.ChatMessage {
	return append(make([]types.ChatMessage, 0, len(turns)), turns...)
}

func buildAnthropic(turns []types.ChatMessage, params types.GenerationParams) VendorRequest {
	return AnthropicRequest{
		AnthropicVersion: AnthropicVersion,
		Messages:         copyTurns(turns),
		MaxTokens:        params.MaxTokensOrDefault(),
		Temperature:      params.Temperature,
		TopP:             params.TopP,
		System:           params.SystemPrompt,
	}
}

func buildGeneric(turns []types.ChatMessage, params types.GenerationParams) VendorRequest {
	return GenericRequest{
		Messages:    copyTurns(turns),
		MaxTokens:   params.MaxTokensOrDefault(),
		Temperature: params.Temperature,
		TopP:        params.TopP,
		System:      params.SystemPrompt,
	}
}

func textRequest(prompt string, params types.GenerationParams) TextRequest {
	return TextRequest{
		InputText: prompt,
		TextGenerationConfig: TextGenerationConfig{
			MaxTokenCount: params.MaxTokensOrDefault(),
			Temperature:   params.Temperature,
			TopP:          params.TopP,
		},
	}
}

// labelledDialogue renders "<Label>: <content>\n\n" per turn and ends with
// an "Assistant:" cue.
func labelledDialogue(b *strings.Builder, turns []types.ChatMessage, userLabel string) {
	for _, turn := range turns {
		var label string
		switch turn.Role {
		case types.RoleUser:
			label = userLabel
		case types.RoleAssistant:
			label = "Assistant"
		default:
			label = capitalize(turn.Role)
		}
		fmt.Fprintf(b, "%s: %s\n\n", label, turn.Content)
	}
	b.WriteString("Assistant:")
}

func buildTitan(turns []types.ChatMessage, params types.GenerationParams) VendorRequest {
	var b strings.Builder
	if params.HasSystemPrompt() {
		fmt.Fprintf(&b, "System: %s\n\n", params.SystemPrompt)
	}
	labelledDialogue(&b, turns, "User")
	return TitanRequest{textRequest(b.String(), params)}
}

func buildAI21(turns []types.ChatMessage, params types.GenerationParams) VendorRequest {
	var b strings.Builder
	if params.HasSystemPrompt() {
		fmt.Fprintf(&b, "%s\n\n", params.SystemPrompt)
	}
	labelledDialogue(&b, turns, "Human")
	return AI21Request{textRequest(b.String(), params)}
}

func buildCohere(turns []types.ChatMessage, params types.GenerationParams) VendorRequest {
	var b strings.Builder
	if params.HasSystemPrompt() {
		fmt.Fprintf(&b, "%s\n\n", params.SystemPrompt)
	}
	for _, turn := range turns {
		b.WriteString(turn.Content)
		b.WriteByte('\n')
	}
	return CohereRequest{textRequest(b.String(), params)}
}

// buildLlama renders the Llama 2 chat template. Without a system prompt the
// opening "<s>[INST] " is followed by the first user turn's own block, and a
// conversation that does not end on a user turn gets a trailing open block.
func buildLlama(turns []types.ChatMessage, params types.GenerationParams) VendorRequest {
	var b strings.Builder
	if params.HasSystemPrompt() {
		fmt.Fprintf(&b, "<s>[INST] <<SYS>>\n%s\n<</SYS>>\n\n", params.SystemPrompt)
	} else {
		b.WriteString("<s>[INST] ")
	}

	for i, turn := range turns {
		switch turn.Role {
		case types.RoleUser:
			if i == 0 && params.HasSystemPrompt() {
				fmt.Fprintf(&b, "%s [/INST]", turn.Content)
			} else {
				fmt.Fprintf(&b, "<s>[INST] %s [/INST]", turn.Content)
			}
		case types.RoleAssistant:
			fmt.Fprintf(&b, " %s </s>", turn.Content)
		}
	}

	if len(turns) == 0 || turns[len(turns)-1].Role != types.RoleUser {
		b.WriteString("<s>[INST] ")
	}
	return LlamaRequest{textRequest(b.String(), params)}
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToTitle(r)) + s[size:]
}
