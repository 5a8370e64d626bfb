// Package catalog lists the models a provider offers and normalizes them to
// types.ModelInfo. Live listings are fetched for OpenAI, Groq, Google and
// Ollama; Anthropic and Bedrock are served from curated tables. A fetch never
// returns an error value: failures become an error ModelFetchResult whose
// message ends with a hint that fallback models are in use.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sort"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/sync/errgroup"

	gatewayhttp "github.com/cecil-the-coder/multigpt-gateway/pkg/http"
	"github.com/cecil-the-coder/multigpt-gateway/pkg/providers/bedrock"
	"github.com/cecil-the-coder/multigpt-gateway/pkg/types"
)

const fallbackHint = "Using fallback models."

// maxGooglePages bounds pagination against a server that never stops
// returning a page token.
const maxGooglePages = 20

// Catalog fetches model listings. It holds no mutable state and is safe for
// concurrent use.
type Catalog struct {
	transport   gatewayhttp.Transport
	logger      *log.Logger
	concurrency int
}

// Option configures a Catalog
type Option func(*Catalog)

// WithTransport replaces the HTTP transport
func WithTransport(transport gatewayhttp.Transport) Option {
	return func(c *Catalog) {
		c.transport = transport
	}
}

// WithLogger sets the logger used to report failed fetches
func WithLogger(logger *log.Logger) Option {
	return func(c *Catalog) {
		c.logger = logger
	}
}

// WithConcurrency caps how many fetches FetchAll runs at once. Zero or less
// means no cap.
func WithConcurrency(n int) Option {
	return func(c *Catalog) {
		c.concurrency = n
	}
}

// New creates a Catalog
func New(opts ...Option) *Catalog {
	c := &Catalog{logger: log.Default()}
	for _, opt := range opts {
		opt(c)
	}
	if c.transport == nil {
		c.transport = gatewayhttp.DefaultClient(types.ProviderTypeOpenAI)
	}
	return c
}

// FetchModels lists the models of provider. apiURL is the provider's base
// URL; apiKey may be empty for providers that do not need one.
func (c *Catalog) FetchModels(ctx context.Context, provider types.ProviderType, apiURL, apiKey string) types.ModelFetchResult {
	apiURL = strings.TrimRight(strings.TrimSpace(apiURL), "/")
	apiKey = strings.TrimSpace(apiKey)

	switch provider {
	case types.ProviderTypeOpenAI:
		return c.fetchOpenAICompatible(ctx, provider, apiURL, apiKey, true)
	case types.ProviderTypeGroq:
		return c.fetchOpenAICompatible(ctx, provider, apiURL, apiKey, false)
	case types.ProviderTypeGoogle:
		return c.fetchGoogle(ctx, apiURL, apiKey)
	case types.ProviderTypeOllama:
		return c.fetchOllama(ctx, apiURL, apiKey)
	case types.ProviderTypeAnthropic:
		return types.SuccessResult(AnthropicModels())
	case types.ProviderTypeBedrock:
		return types.SuccessResult(bedrock.FoundationModels())
	default:
		return types.ErrorResult(types.ErrCodeNetwork, fmt.Sprintf("Failed to fetch models: unsupported provider %q", provider))
	}
}

// FetchModelsAsync runs FetchModels in the background. The channel yields a
// loading result at once, then the final result, and is then closed.
func (c *Catalog) FetchModelsAsync(ctx context.Context, provider types.ProviderType, apiURL, apiKey string) <-chan types.ModelFetchResult {
	results := make(chan types.ModelFetchResult, 2)
	results <- types.LoadingResult()
	go func() {
		defer close(results)
		results <- c.FetchModels(ctx, provider, apiURL, apiKey)
	}()
	return results
}

// Target names one listing for FetchAll
type Target struct {
	Provider types.ProviderType `json:"provider" yaml:"provider"`
	APIURL   string             `json:"api_url" yaml:"api_url"`
	APIKey   string             `json:"api_key,omitempty" yaml:"api_key,omitempty"`
}

// FetchAll fetches every target concurrently. The result at index i belongs
// to targets[i].
func (c *Catalog) FetchAll(ctx context.Context, targets []Target) []types.ModelFetchResult {
	results := make([]types.ModelFetchResult, len(targets))

	var g errgroup.Group
	if c.concurrency > 0 {
		g.SetLimit(c.concurrency)
	}
	for i, target := range targets {
		g.Go(func() error {
			results[i] = c.FetchModels(ctx, target.Provider, target.APIURL, target.APIKey)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// ModelsOrFallback fetches the listing and substitutes FallbackModels when
// the fetch fails.
func (c *Catalog) ModelsOrFallback(ctx context.Context, provider types.ProviderType, apiURL, apiKey string) []types.ModelInfo {
	return c.FetchModels(ctx, provider, apiURL, apiKey).ModelsOr(FallbackModels(provider))
}

func (c *Catalog) fetchOpenAICompatible(ctx context.Context, provider types.ProviderType, apiURL, apiKey string, gptOnly bool) types.ModelFetchResult {
	name := provider.DisplayName()
	if apiKey == "" {
		return types.ErrorResult(types.ErrCodeAuth, fmt.Sprintf("API key is required for %s. %s", name, fallbackHint))
	}

	config := openai.DefaultConfig(apiKey)
	config.BaseURL = apiURL
	config.HTTPClient = gatewayhttp.AsDoer(c.transport)
	client := openai.NewClientWithConfig(config)

	list, err := client.ListModels(ctx)
	if err != nil {
		return c.fetchFailed(provider, err)
	}

	models := make([]types.ModelInfo, 0, len(list.Models))
	for _, m := range list.Models {
		if gptOnly && !strings.Contains(strings.ToLower(m.ID), "gpt") {
			continue
		}
		owner := m.OwnedBy
		if owner == "" {
			owner = name
		}
		info := types.ModelInfo{
			ID:          m.ID,
			Name:        m.ID,
			Description: "Owned by: " + owner,
		}
		if m.CreatedAt != 0 {
			created := m.CreatedAt
			info.CreatedAt = &created
		}
		models = append(models, info)
	}

	sort.SliceStable(models, func(i, j int) bool {
		return createdAt(models[i]) > createdAt(models[j])
	})

	return types.SuccessResult(models)
}

func createdAt(m types.ModelInfo) int64 {
	if m.CreatedAt == nil {
		return 0
	}
	return *m.CreatedAt
}

// fetchFailed logs err and converts it to an error result
func (c *Catalog) fetchFailed(provider types.ProviderType, err error) types.ModelFetchResult {
	if c.logger != nil {
		c.logger.Printf("Catalog: failed to fetch %s models: %v", provider, err)
	}

	message := "Unknown error"
	if err != nil && err.Error() != "" {
		message = err.Error()
	}
	return types.ErrorResult(classify(err),
		fmt.Sprintf("Failed to fetch %s models: %s. %s", provider.DisplayName(), message, fallbackHint))
}

// classify maps rejected credentials to auth_error and everything else to
// network_error
func classify(err error) types.ErrorCode {
	var apiErr *gatewayhttp.APIError
	if errors.As(err, &apiErr) {
		return types.ClassifyHTTPError(apiErr.StatusCode)
	}
	var openaiErr *openai.APIError
	if errors.As(err, &openaiErr) {
		return types.ClassifyHTTPError(openaiErr.HTTPStatusCode)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return types.ClassifyHTTPError(reqErr.HTTPStatusCode)
	}
	return types.ErrCodeNetwork
}

// getJSON issues a GET through the catalog transport and decodes the body
func (c *Catalog) getJSON(ctx context.Context, url, bearer string, target interface{}) error {
	req, err := gatewayhttp.NewJSONRequest(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	if bearer != "" {
		gatewayhttp.SetBearerToken(req, bearer)
	}

	resp, err := c.transport.Do(ctx, req)
	if err != nil {
		return err
	}
	return gatewayhttp.ProcessJSONResponse(resp, target)
}
