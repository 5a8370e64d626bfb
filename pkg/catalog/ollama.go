package catalog

import (
	"context"
	"fmt"

	"github.com/cecil-the-coder/multigpt-gateway/pkg/types"
)

type ollamaTagsResponse struct {
	Models []ollamaModel `json:"models"`
}

type ollamaModel struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
}

// fetchOllama lists locally pulled models from /api/tags. A key, when
// given, is sent as a bearer token for hosted or proxied servers.
func (c *Catalog) fetchOllama(ctx context.Context, apiURL, apiKey string) types.ModelFetchResult {
	provider := types.ProviderTypeOllama
	if apiURL == "" {
		return types.ErrorResult(types.ErrCodeNetwork, fmt.Sprintf("API URL is required for %s. %s", provider.DisplayName(), fallbackHint))
	}

	var resp ollamaTagsResponse
	if err := c.getJSON(ctx, apiURL+"/api/tags", apiKey, &resp); err != nil {
		return c.fetchFailed(provider, err)
	}

	models := make([]types.ModelInfo, 0, len(resp.Models))
	for _, m := range resp.Models {
		models = append(models, types.ModelInfo{
			ID:          m.Name,
			Name:        m.Name,
			Description: "Size: " + formatSize(m.Size),
		})
	}
	return types.SuccessResult(models)
}

// formatSize renders bytes in the largest unit that is at least 1, with two
// decimals. Below 1 MB the unit is KB.
func formatSize(bytes int64) string {
	kb := float64(bytes) / 1024
	mb := kb / 1024
	gb := mb / 1024

	switch {
	case gb >= 1:
		return fmt.Sprintf("%.2f GB", gb)
	case mb >= 1:
		return fmt.Sprintf("%.2f MB", mb)
	default:
		return fmt.Sprintf("%.2f KB", kb)
	}
}
