package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cecil-the-coder/multigpt-gateway/pkg/types"
)

func TestNewJSONRequest(t *testing.T) {
	tests := []struct {
		name        string
		method      string
		body        interface{}
		expectError bool
	}{
		{name: "valid POST with body", method: http.MethodPost, body: map[string]string{"key": "value"}},
		{name: "valid GET without body", method: http.MethodGet},
		{name: "invalid body", method: http.MethodPost, body: make(chan int), expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := NewJSONRequest(context.Background(), tt.method, "http://example.com/api", tt.body)
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.method, req.Method)
			assert.Equal(t, "application/json", req.Header.Get("Accept"))

			if tt.body == nil {
				assert.Empty(t, req.Header.Get("Content-Type"))
				return
			}
			assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
			raw, _ := io.ReadAll(req.Body)
			var decoded map[string]string
			require.NoError(t, json.Unmarshal(raw, &decoded))
			assert.Equal(t, "value", decoded["key"])
		})
	}
}

func TestParseAPIError(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		expected string
		typ      string
	}{
		{"openai style", 401, `{"error":{"type":"invalid_request_error","message":"Incorrect API key"}}`, "Incorrect API key", "invalid_request_error"},
		{"aws style", 403, `{"message":"The security token included in the request is invalid."}`, "The security token included in the request is invalid.", ""},
		{"plain text", 500, "  upstream exploded \n", "upstream exploded", ""},
		{"empty body", 503, "", "Service Unavailable", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			apiErr := ParseAPIError(tt.status, tt.body)
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, tt.expected, apiErr.Message)
			assert.Equal(t, tt.typ, apiErr.Type)
			assert.Contains(t, apiErr.Error(), tt.expected)
		})
	}
}

func TestAPIError_ProviderError(t *testing.T) {
	tests := []struct {
		status int
		code   types.ErrorCode
	}{
		{http.StatusUnauthorized, types.ErrCodeAuth},
		{http.StatusForbidden, types.ErrCodeAuth},
		{http.StatusTooManyRequests, types.ErrCodeNetwork},
		{http.StatusBadGateway, types.ErrCodeNetwork},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			pe := ParseAPIError(tt.status, "nope").ProviderError(types.ProviderTypeGroq)
			assert.Equal(t, tt.code, pe.Code)
			assert.Equal(t, tt.status, pe.StatusCode)
			assert.Equal(t, types.ProviderTypeGroq, pe.Provider)
		})
	}
}

func response(status int, body string) *http.Response {
	return &http.Response{StatusCode: status, Body: io.NopCloser(strings.NewReader(body))}
}

func TestProcessJSONResponse(t *testing.T) {
	var out struct {
		Name string `json:"name"`
	}
	require.NoError(t, ProcessJSONResponse(response(200, `{"name":"llama3"}`), &out))
	assert.Equal(t, "llama3", out.Name)

	err := ProcessJSONResponse(response(200, `{broken`), &out)
	assert.ErrorContains(t, err, "failed to parse JSON response")

	err = ProcessJSONResponse(response(404, `not found`), &out)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 404, apiErr.StatusCode)
}

func TestReadAPIError_Bounded(t *testing.T) {
	apiErr := ReadAPIError(response(500, strings.Repeat("x", 4*MaxErrorExcerpt)))
	assert.LessOrEqual(t, len(apiErr.Message), MaxErrorExcerpt+3)
}

func TestExcerpt(t *testing.T) {
	assert.Equal(t, "abc", Excerpt("  abc  ", 10))
	assert.Equal(t, "ab...", Excerpt("abcdef", 2))
}

func TestSetBearerToken(t *testing.T) {
	req, _ := http.NewRequest(http.MethodGet, "http://localhost:11434/api/tags", nil)
	SetBearerToken(req, "secret")
	assert.Equal(t, "Bearer secret", req.Header.Get("Authorization"))
}

func TestDefaultConfig(t *testing.T) {
	bedrock := DefaultConfig(types.ProviderTypeBedrock)
	assert.Zero(t, bedrock.Timeout, "streaming must not be time-bounded")

	openai := DefaultConfig(types.ProviderTypeOpenAI)
	assert.NotZero(t, openai.Timeout)
	assert.Equal(t, "application/json", openai.Headers["Accept"])

	client := DefaultClient(types.ProviderTypeOllama)
	assert.NotNil(t, client)
}
