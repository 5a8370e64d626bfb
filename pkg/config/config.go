// Package config loads the gateway's YAML configuration file and turns it
// into a ready bedrock.Gateway and catalog.Catalog. Values of the form
// ${VAR} are expanded from the environment before parsing, so secrets can
// stay out of the file.
package config

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cecil-the-coder/multigpt-gateway/pkg/catalog"
	gatewayhttp "github.com/cecil-the-coder/multigpt-gateway/pkg/http"
	"github.com/cecil-the-coder/multigpt-gateway/pkg/providers/bedrock"
	"github.com/cecil-the-coder/multigpt-gateway/pkg/types"
)

// =============================================================================
// Config Structures
// =============================================================================

// Config represents the complete configuration file
type Config struct {
	Bedrock   BedrockConfig            `yaml:"bedrock"`
	Providers map[string]ProviderEntry `yaml:"providers,omitempty"`
	Catalog   CatalogConfig            `yaml:"catalog,omitempty"`

	// HTTP overrides the default transport settings for every provider
	HTTP *gatewayhttp.HTTPClientConfig `yaml:"http,omitempty"`
}

// BedrockConfig configures the Bedrock gateway
type BedrockConfig struct {
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	SessionToken    string `yaml:"session_token,omitempty"`
	Region          string `yaml:"region"`

	// UseDefaultChain resolves credentials through the AWS SDK default chain
	// (environment, shared files, SSO, instance roles) when no keys are set.
	UseDefaultChain bool `yaml:"use_default_chain,omitempty"`

	// Endpoint replaces https://bedrock-runtime.<region>.amazonaws.com,
	// e.g. for a VPC endpoint or a local proxy
	Endpoint string `yaml:"endpoint,omitempty"`

	Debug bool `yaml:"debug,omitempty"`

	// Aliases are layered over the built-in model aliases
	Aliases map[string]string `yaml:"aliases,omitempty"`
}

// ProviderEntry represents one model listing source
type ProviderEntry struct {
	// Base URL for the provider API (optional, uses the provider default if not set)
	APIURL string `yaml:"api_url"`

	APIKey string `yaml:"api_key"`
}

// CatalogConfig tunes model discovery
type CatalogConfig struct {
	// Concurrency caps parallel fetches in FetchAll; zero means no cap
	Concurrency int `yaml:"concurrency,omitempty"`
}

// DefaultAPIURLs are used for providers whose entry has no api_url
var DefaultAPIURLs = map[types.ProviderType]string{
	types.ProviderTypeOpenAI: "https://api.openai.com/v1",
	types.ProviderTypeGroq:   "https://api.groq.com/openai/v1",
	types.ProviderTypeGoogle: "https://generativelanguage.googleapis.com",
	types.ProviderTypeOllama: "http://localhost:11434",
}

// =============================================================================
// Configuration Loading
// =============================================================================

// Load reads and parses a YAML configuration file
func Load(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse expands ${VAR} references and decodes data. Unknown keys are
// rejected so typos surface instead of being ignored.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var config Config
	decoder := yaml.NewDecoder(strings.NewReader(expanded))
	decoder.KnownFields(true)
	if err := decoder.Decode(&config); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate checks provider names and that Bedrock keys come in pairs
func (c *Config) Validate() error {
	for name := range c.Providers {
		if _, ok := types.ParseProviderType(name); !ok {
			return fmt.Errorf("config: unknown provider %q", name)
		}
	}

	b := c.Bedrock
	if (b.AccessKeyID == "") != (b.SecretAccessKey == "") {
		return fmt.Errorf("config: bedrock access_key_id and secret_access_key must be set together")
	}
	if c.Catalog.Concurrency < 0 {
		return fmt.Errorf("config: catalog concurrency must not be negative")
	}
	return nil
}

// Marshal renders the config back to YAML
func (c *Config) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(c); err != nil {
		return nil, fmt.Errorf("failed to encode YAML: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// =============================================================================
// Construction
// =============================================================================

// Credentials returns the Bedrock credentials described by the config, or
// nil when none are configured. Explicit keys win over the default chain.
func (b BedrockConfig) Credentials(ctx context.Context) (*bedrock.Credentials, error) {
	if b.AccessKeyID != "" {
		creds := bedrock.Credentials{
			AccessKeyID:     b.AccessKeyID,
			SecretAccessKey: b.SecretAccessKey,
			SessionToken:    b.SessionToken,
			Region:          b.Region,
		}
		creds.Region = creds.RegionOrDefault()
		return &creds, nil
	}
	if b.UseDefaultChain {
		return bedrock.LoadDefaultCredentials(ctx, b.Region)
	}
	return nil, nil
}

// NewGateway builds a Bedrock gateway from the config. A gateway without
// credentials is still returned; its streams fail with an auth error until
// SetCredentials is called.
func (c *Config) NewGateway(ctx context.Context, logger *log.Logger) (*bedrock.Gateway, error) {
	creds, err := c.Bedrock.Credentials(ctx)
	if err != nil {
		return nil, err
	}

	opts := []bedrock.Option{
		bedrock.WithRegion(c.Bedrock.Region),
		bedrock.WithDebug(c.Bedrock.Debug),
		bedrock.WithModelMapper(bedrock.NewModelMapperWithAliases(c.Bedrock.Aliases)),
		bedrock.WithTransport(gatewayhttp.NewHTTPClient(c.httpConfig(types.ProviderTypeBedrock))),
	}
	if logger != nil {
		opts = append(opts, bedrock.WithLogger(logger))
	}
	if creds != nil {
		opts = append(opts, bedrock.WithCredentials(*creds))
		if c.Bedrock.Region == "" {
			opts = append(opts, bedrock.WithRegion(creds.Region))
		}
	}
	if c.Bedrock.Endpoint != "" {
		opts = append(opts, bedrock.WithEndpoint(c.Bedrock.Endpoint))
	}

	return bedrock.NewGateway(opts...), nil
}

// NewCatalog builds a model catalog using the configured transport
func (c *Config) NewCatalog(logger *log.Logger) *catalog.Catalog {
	opts := []catalog.Option{
		catalog.WithTransport(gatewayhttp.NewHTTPClient(c.httpConfig(types.ProviderTypeOpenAI))),
		catalog.WithConcurrency(c.Catalog.Concurrency),
	}
	if logger != nil {
		opts = append(opts, catalog.WithLogger(logger))
	}
	return catalog.New(opts...)
}

// Targets lists the configured providers in display order, filling in
// default API URLs
func (c *Config) Targets() []catalog.Target {
	entries := make(map[types.ProviderType]ProviderEntry, len(c.Providers))
	for name, entry := range c.Providers {
		if provider, ok := types.ParseProviderType(name); ok {
			entries[provider] = entry
		}
	}

	var targets []catalog.Target
	for _, provider := range types.AllProviderTypes() {
		entry, ok := entries[provider]
		if !ok {
			continue
		}
		apiURL := entry.APIURL
		if apiURL == "" {
			apiURL = DefaultAPIURLs[provider]
		}
		targets = append(targets, catalog.Target{
			Provider: provider,
			APIURL:   apiURL,
			APIKey:   entry.APIKey,
		})
	}
	return targets
}

// httpConfig layers the http section over the provider's defaults
func (c *Config) httpConfig(provider types.ProviderType) gatewayhttp.HTTPClientConfig {
	config := gatewayhttp.DefaultConfig(provider)
	if c.HTTP == nil {
		return config
	}

	override := *c.HTTP
	if override.Timeout > 0 {
		config.Timeout = override.Timeout
	}
	if override.UserAgent != "" {
		config.UserAgent = override.UserAgent
	}
	if len(override.Headers) > 0 {
		headers := make(map[string]string, len(config.Headers)+len(override.Headers))
		for k, v := range config.Headers {
			headers[k] = v
		}
		for k, v := range override.Headers {
			headers[k] = v
		}
		config.Headers = headers
	}
	if override.RateLimit > 0 {
		config.RateLimit = override.RateLimit
		config.Burst = override.Burst
	}
	config.EnableMetrics = config.EnableMetrics || override.EnableMetrics
	return config
}
