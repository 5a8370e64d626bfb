package catalog

import (
	_ "embed"
	"log"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/cecil-the-coder/multigpt-gateway/pkg/providers/bedrock"
	"github.com/cecil-the-coder/multigpt-gateway/pkg/types"
)

//go:embed fallbacks.yaml
var fallbacksYAML []byte

var (
	fallbackTable     map[types.ProviderType][]types.ModelInfo
	fallbackTableOnce sync.Once
)

func loadFallbacks() map[types.ProviderType][]types.ModelInfo {
	fallbackTableOnce.Do(func() {
		table, err := parseFallbacks(fallbacksYAML)
		if err != nil {
			// The file is embedded, so this only trips on a bad edit.
			log.Printf("Catalog: failed to parse fallback models: %v", err)
			table = map[types.ProviderType][]types.ModelInfo{}
		}
		fallbackTable = table
	})
	return fallbackTable
}

func parseFallbacks(data []byte) (map[types.ProviderType][]types.ModelInfo, error) {
	var table map[types.ProviderType][]types.ModelInfo
	if err := yaml.Unmarshal(data, &table); err != nil {
		return nil, err
	}
	return table, nil
}

// AnthropicModels returns the curated Anthropic model list. Anthropic has no
// public listing endpoint.
func AnthropicModels() []types.ModelInfo {
	return []types.ModelInfo{
		{ID: "claude-3-5-sonnet-20241022", Name: "Claude 3.5 Sonnet", Description: "Most intelligent model"},
		{ID: "claude-3-5-sonnet-20240620", Name: "Claude 3.5 Sonnet (Legacy)", Description: "Previous version of Claude 3.5 Sonnet"},
		{ID: "claude-3-5-haiku-20241022", Name: "Claude 3.5 Haiku", Description: "Fastest model"},
		{ID: "claude-3-opus-20240229", Name: "Claude 3 Opus", Description: "Powerful model for complex tasks"},
		{ID: "claude-3-sonnet-20240229", Name: "Claude 3 Sonnet", Description: "Balanced performance and speed"},
		{ID: "claude-3-haiku-20240307", Name: "Claude 3 Haiku", Description: "Fast and compact model"},
	}
}

// FallbackModels returns the static list to show when a live fetch for
// provider fails. Unknown providers get nil.
func FallbackModels(provider types.ProviderType) []types.ModelInfo {
	switch provider {
	case types.ProviderTypeAnthropic:
		return AnthropicModels()
	case types.ProviderTypeBedrock:
		return bedrock.FoundationModels()
	}

	models := loadFallbacks()[provider]
	if len(models) == 0 {
		return nil
	}
	return append([]types.ModelInfo(nil), models...)
}
