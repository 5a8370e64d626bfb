package bedrock

import (
	"sort"
	"strings"
	"sync"

	"github.com/cecil-the-coder/multigpt-gateway/pkg/types"
)

// DefaultModelAliases maps short Anthropic model names to Bedrock model IDs.
// Full Bedrock IDs never need an alias; they pass through Resolve unchanged.
var DefaultModelAliases = map[string]string{
	// Claude 3.5
	"claude-3-5-sonnet-20240620": "anthropic.claude-3-5-sonnet-20240620-v1:0",
	"claude-3-5-sonnet":          "anthropic.claude-3-5-sonnet-20240620-v1:0",
	"claude-3.5-sonnet":          "anthropic.claude-3-5-sonnet-20240620-v1:0",

	// Claude 3
	"claude-3-sonnet-20240229": "anthropic.claude-3-sonnet-20240229-v1:0",
	"claude-3-haiku-20240307":  "anthropic.claude-3-haiku-20240307-v1:0",
	"claude-3-sonnet":          "anthropic.claude-3-sonnet-20240229-v1:0",
	"claude-3-haiku":           "anthropic.claude-3-haiku-20240307-v1:0",

	// Legacy
	"claude-instant-1.2": "anthropic.claude-instant-v1",
	"claude-instant":     "anthropic.claude-instant-v1",

	// Other vendors
	"titan-text-express": "amazon.titan-text-express-v1",
	"titan-text-lite":    "amazon.titan-text-lite-v1",
	"j2-ultra":           "ai21.j2-ultra-v1",
	"j2-mid":             "ai21.j2-mid-v1",
	"command":            "cohere.command-text-v14",
	"command-light":      "cohere.command-light-text-v14",
	"llama2-13b-chat":    "meta.llama2-13b-chat-v1",
	"llama2-70b-chat":    "meta.llama2-70b-chat-v1",
}

// ModelMapper resolves friendly model names to Bedrock model IDs. It is safe
// for concurrent use.
type ModelMapper struct {
	mu      sync.RWMutex
	aliases map[string]string
}

// NewModelMapper creates a ModelMapper seeded with DefaultModelAliases
func NewModelMapper() *ModelMapper {
	aliases := make(map[string]string, len(DefaultModelAliases))
	for k, v := range DefaultModelAliases {
		aliases[strings.ToLower(k)] = v
	}
	return &ModelMapper{aliases: aliases}
}

// NewModelMapperWithAliases creates a ModelMapper with custom aliases layered
// over the defaults
func NewModelMapperWithAliases(custom map[string]string) *ModelMapper {
	m := NewModelMapper()
	m.AddAliases(custom)
	return m
}

// AddAliases adds or overrides aliases. Alias lookup is case-insensitive.
func (m *ModelMapper) AddAliases(aliases map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, v := range aliases {
		m.aliases[strings.ToLower(strings.TrimSpace(k))] = v
	}
}

// Resolve returns the Bedrock model ID for model and whether an alias was
// applied. Anything already shaped like a Bedrock ID, and any unknown name,
// is returned unchanged so the translator can still pick a vendor by prefix.
func (m *ModelMapper) Resolve(model string) (string, bool) {
	if IsBedrockModelID(model) {
		return model, false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if id, ok := m.aliases[strings.ToLower(strings.TrimSpace(model))]; ok {
		return id, true
	}
	return model, false
}

// Aliases returns a copy of the alias table
func (m *ModelMapper) Aliases() map[string]string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]string, len(m.aliases))
	for k, v := range m.aliases {
		out[k] = v
	}
	return out
}

// SupportedAliases returns every alias, sorted
func (m *ModelMapper) SupportedAliases() []string {
	m.mu.RLock()
	names := make([]string, 0, len(m.aliases))
	for k := range m.aliases {
		names = append(names, k)
	}
	m.mu.RUnlock()
	sort.Strings(names)
	return names
}

// IsBedrockModelID reports whether modelID carries a known vendor prefix
func IsBedrockModelID(modelID string) bool {
	return VendorFor(modelID) != VendorGeneric
}

// FoundationModels returns the curated list of Bedrock foundation models.
// Bedrock offers no unauthenticated listing endpoint, so the catalog serves
// this table. A fresh slice is returned on every call.
func FoundationModels() []types.ModelInfo {
	return []types.ModelInfo{
		{ID: "anthropic.claude-3-5-sonnet-20240620-v1:0", Name: "Claude 3.5 Sonnet", Description: "Anthropic's most intelligent model"},
		{ID: "anthropic.claude-3-sonnet-20240229-v1:0", Name: "Claude 3 Sonnet", Description: "Balance of intelligence and speed"},
		{ID: "anthropic.claude-3-haiku-20240307-v1:0", Name: "Claude 3 Haiku", Description: "Fast and lightweight model"},
		{ID: "anthropic.claude-instant-v1", Name: "Claude Instant", Description: "Fast, affordable model"},
		{ID: "amazon.titan-text-express-v1", Name: "Titan Text G1 - Express", Description: "Amazon's flagship text generation model"},
		{ID: "amazon.titan-text-lite-v1", Name: "Titan Text G1 - Lite", Description: "Lightweight text model"},
		{ID: "ai21.j2-ultra-v1", Name: "Jurassic-2 Ultra", Description: "AI21 Labs' most powerful model"},
		{ID: "ai21.j2-mid-v1", Name: "Jurassic-2 Mid", Description: "Balanced performance model"},
		{ID: "cohere.command-text-v14", Name: "Command", Description: "Cohere's instruction-following model"},
		{ID: "cohere.command-light-text-v14", Name: "Command Light", Description: "Fast and efficient model"},
		{ID: "meta.llama2-13b-chat-v1", Name: "Llama 2 Chat 13B", Description: "Meta's fine-tuned chat model"},
		{ID: "meta.llama2-70b-chat-v1", Name: "Llama 2 Chat 70B", Description: "Large parameter chat model"},
	}
}
