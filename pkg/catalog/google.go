package catalog

import (
	"context"
	"fmt"
	"net/url"
	"slices"
	"strings"

	"github.com/cecil-the-coder/multigpt-gateway/pkg/types"
)

type googleModelsResponse struct {
	Models        []googleModel `json:"models"`
	NextPageToken string        `json:"nextPageToken,omitempty"`
}

type googleModel struct {
	Name                       string   `json:"name"`
	DisplayName                string   `json:"displayName,omitempty"`
	Description                string   `json:"description,omitempty"`
	SupportedGenerationMethods []string `json:"supportedGenerationMethods"`
}

// fetchGoogle lists Gemini models that support generateContent, following
// nextPageToken across pages.
func (c *Catalog) fetchGoogle(ctx context.Context, apiURL, apiKey string) types.ModelFetchResult {
	provider := types.ProviderTypeGoogle
	if apiKey == "" {
		return types.ErrorResult(types.ErrCodeAuth, fmt.Sprintf("API key is required for %s. %s", provider.DisplayName(), fallbackHint))
	}

	var models []types.ModelInfo
	pageToken := ""
	for page := 0; page < maxGooglePages; page++ {
		query := url.Values{"key": {apiKey}}
		if pageToken != "" {
			query.Set("pageToken", pageToken)
		}

		var resp googleModelsResponse
		if err := c.getJSON(ctx, apiURL+"/v1beta/models?"+query.Encode(), "", &resp); err != nil {
			return c.fetchFailed(provider, redactKey(err, apiKey))
		}

		for _, m := range resp.Models {
			if !slices.Contains(m.SupportedGenerationMethods, "generateContent") {
				continue
			}
			id := m.Name[strings.LastIndex(m.Name, "/")+1:]
			name := m.DisplayName
			if name == "" {
				name = id
			}
			models = append(models, types.ModelInfo{ID: id, Name: name, Description: m.Description})
		}

		pageToken = resp.NextPageToken
		if pageToken == "" {
			break
		}
	}

	return types.SuccessResult(models)
}

// redactKey keeps the API key, which travels in the query string, out of
// error messages. The original error stays reachable through errors.As.
func redactKey(err error, apiKey string) error {
	msg := err.Error()
	escaped := url.QueryEscape(apiKey)
	if !strings.Contains(msg, apiKey) && !strings.Contains(msg, escaped) {
		return err
	}
	msg = strings.ReplaceAll(msg, escaped, "REDACTED")
	msg = strings.ReplaceAll(msg, apiKey, "REDACTED")
	return &redactedError{msg: msg, err: err}
}

type redactedError struct {
	msg string
	err error
}

func (e *redactedError) Error() string { return e.msg }
func (e *redactedError) Unwrap() error { return e.err }
