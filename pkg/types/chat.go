package types

// Roles understood by every provider. Other role strings are passed through
// untouched and rendered by each vendor format as it sees fit.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// DefaultMaxTokens is the completion cap sent when a provider requires an
// explicit limit and the caller did not set one.
const DefaultMaxTokens = 4096

// ChatMessage is one turn of a conversation. A slice of messages is ordered
// and the order is the dialogue history.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// NewUserMessage creates a user turn
func NewUserMessage(content string) ChatMessage {
	return ChatMessage{Role: RoleUser, Content: content}
}

// NewAssistantMessage creates an assistant turn
func NewAssistantMessage(content string) ChatMessage {
	return ChatMessage{Role: RoleAssistant, Content: content}
}

// GenerationParams holds optional sampling parameters. Nil fields are never
// sent to a provider.
type GenerationParams struct {
	Temperature  *float64 `json:"temperature,omitempty" yaml:"temperature,omitempty"`
	TopP         *float64 `json:"top_p,omitempty" yaml:"top_p,omitempty"`
	MaxTokens    *int     `json:"max_tokens,omitempty" yaml:"max_tokens,omitempty"`
	SystemPrompt string   `json:"system_prompt,omitempty" yaml:"system_prompt,omitempty"`
}

// MaxTokensOrDefault returns the configured max tokens or DefaultMaxTokens
func (p GenerationParams) MaxTokensOrDefault() int {
	if p.MaxTokens != nil {
		return *p.MaxTokens
	}
	return DefaultMaxTokens
}

// HasSystemPrompt reports whether a non-empty system prompt is set
func (p GenerationParams) HasSystemPrompt() bool {
	return p.SystemPrompt != ""
}

// Float64 returns a pointer to v, for filling optional parameters
func Float64(v float64) *float64 {
	return &v
}

// Int returns a pointer to v, for filling optional parameters
func Int(v int) *int {
	return &v
}
