package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/cecil-the-coder/multigpt-gateway/pkg/types"
)

// MaxErrorExcerpt bounds how much of an error response body is kept
const MaxErrorExcerpt = 512

// NewJSONRequest creates a JSON HTTP request with proper headers
func NewJSONRequest(ctx context.Context, method, url string, body interface{}) (*http.Request, error) {
	var bodyReader io.Reader

	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	return req, nil
}

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
		Code    string `json:"code,omitempty"`
	} `json:"error"`
	Message string `json:"message,omitempty"`
}

// APIError represents a non-2xx response
type APIError struct {
	StatusCode int
	Message    string
	Type       string
	Code       string
	RawBody    string
	Timestamp  time.Time
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error %d: %s", e.StatusCode, e.Message)
}

// ProviderError converts the API error to a ProviderError for provider
func (e *APIError) ProviderError(provider types.ProviderType) *types.ProviderError {
	return types.NewProviderError(provider, types.ClassifyHTTPError(e.StatusCode), e.Message).
		WithStatusCode(e.StatusCode).
		WithOriginalErr(e)
}

// ProcessResponse reads and closes the body, returning an *APIError for non-2xx responses
func ProcessResponse(resp *http.Response) ([]byte, error) {
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, ParseAPIError(resp.StatusCode, string(body))
	}

	return body, nil
}

// ProcessJSONResponse processes an HTTP response and unmarshals JSON
func ProcessJSONResponse(resp *http.Response, target interface{}) error {
	body, err := ProcessResponse(resp)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, target); err != nil {
		return fmt.Errorf("failed to parse JSON response: %w", err)
	}

	return nil
}

// ParseAPIError creates a standardized API error from response. Both the
// OpenAI-style {"error":{...}} and the AWS-style {"message":...} bodies are
// understood; anything else is kept as a bounded excerpt.
func ParseAPIError(statusCode int, body string) *APIError {
	apiErr := &APIError{
		StatusCode: statusCode,
		RawBody:    body,
		Timestamp:  time.Now(),
	}

	var errorResp ErrorResponse
	if err := json.Unmarshal([]byte(body), &errorResp); err == nil {
		apiErr.Message = errorResp.Error.Message
		apiErr.Type = errorResp.Error.Type
		apiErr.Code = errorResp.Error.Code
		if apiErr.Message == "" {
			apiErr.Message = errorResp.Message
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = Excerpt(body, MaxErrorExcerpt)
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(statusCode)
	}

	return apiErr
}

// ReadAPIError drains at most MaxErrorExcerpt bytes of a failed response,
// closes it and parses the error.
func ReadAPIError(resp *http.Response) *APIError {
	defer func() { _ = resp.Body.Close() }()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, MaxErrorExcerpt))
	return ParseAPIError(resp.StatusCode, string(body))
}

// Excerpt trims s and cuts it to at most limit bytes
func Excerpt(s string, limit int) string {
	s = strings.TrimSpace(s)
	if len(s) > limit {
		return s[:limit] + "..."
	}
	return s
}

// SetBearerToken sets the Authorization header from token using the oauth2
// token type rules.
func SetBearerToken(req *http.Request, token string) {
	(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}).SetAuthHeader(req)
}

// CommonHTTPHeaders returns commonly used HTTP headers for AI providers
func CommonHTTPHeaders() map[string]string {
	return map[string]string{
		"Accept": "application/json",
	}
}

// DefaultConfig returns the transport configuration used for provider.
// Bedrock streams long responses, so its exchange is not time-bounded;
// model listing is.
func DefaultConfig(providerType types.ProviderType) HTTPClientConfig {
	config := HTTPClientConfig{
		Timeout:       60 * time.Second,
		Headers:       CommonHTTPHeaders(),
		EnableMetrics: true,
	}

	switch providerType {
	case types.ProviderTypeBedrock:
		config.Timeout = 0
		config.Headers = nil
	case types.ProviderTypeOllama:
		config.Timeout = 30 * time.Second
	}

	return config
}

// DefaultClient creates an HTTP client with sensible defaults for a provider
func DefaultClient(providerType types.ProviderType) *HTTPClient {
	return NewHTTPClient(DefaultConfig(providerType))
}
