package types

import "strings"

// ProviderType represents the type of AI provider
type ProviderType string

const (
	ProviderTypeOpenAI    ProviderType = "openai"
	ProviderTypeGroq      ProviderType = "groq"
	ProviderTypeGoogle    ProviderType = "google"
	ProviderTypeAnthropic ProviderType = "anthropic"
	ProviderTypeOllama    ProviderType = "ollama"
	ProviderTypeBedrock   ProviderType = "bedrock"
)

// AllProviderTypes lists every provider the gateway knows about, in display order.
func AllProviderTypes() []ProviderType {
	return []ProviderType{
		ProviderTypeOpenAI,
		ProviderTypeAnthropic,
		ProviderTypeGoogle,
		ProviderTypeGroq,
		ProviderTypeOllama,
		ProviderTypeBedrock,
	}
}

// DisplayName returns the human readable provider name used in messages
func (p ProviderType) DisplayName() string {
	switch p {
	case ProviderTypeOpenAI:
		return "OpenAI"
	case ProviderTypeGroq:
		return "Groq"
	case ProviderTypeGoogle:
		return "Google AI"
	case ProviderTypeAnthropic:
		return "Anthropic"
	case ProviderTypeOllama:
		return "Ollama"
	case ProviderTypeBedrock:
		return "AWS Bedrock"
	default:
		return string(p)
	}
}

// IsValid reports whether p is one of the known provider types
func (p ProviderType) IsValid() bool {
	for _, known := range AllProviderTypes() {
		if p == known {
			return true
		}
	}
	return false
}

// ParseProviderType converts a case-insensitive name to a ProviderType.
// "gemini" is accepted as an alias for Google.
func ParseProviderType(name string) (ProviderType, bool) {
	normalized := ProviderType(strings.ToLower(strings.TrimSpace(name)))
	if normalized == "gemini" {
		return ProviderTypeGoogle, true
	}
	if normalized.IsValid() {
		return normalized, true
	}
	return "", false
}
