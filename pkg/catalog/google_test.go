package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cecil-the-coder/multigpt-gateway/internal/testutil"
	"github.com/cecil-the-coder/multigpt-gateway/pkg/types"
)

func TestFetchModels_Google(t *testing.T) {
	server := testutil.NewMockServer(t, "", http.StatusOK)
	server.SetHandler(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("pageToken") == "" {
			_, _ = io.WriteString(w, `{
				"models": [
					{"name": "models/gemini-1.5-pro", "displayName": "Gemini 1.5 Pro", "description": "Mid-size model",
					 "supportedGenerationMethods": ["generateContent", "countTokens"]},
					{"name": "models/embedding-001", "displayName": "Embedding 001",
					 "supportedGenerationMethods": ["embedContent"]}
				],
				"nextPageToken": "page-2"
			}`)
			return
		}
		_, _ = io.WriteString(w, `{
			"models": [
				{"name": "models/gemini-1.5-flash", "supportedGenerationMethods": ["generateContent"]},
				{"name": "models/aqa", "displayName": "AQA", "supportedGenerationMethods": ["generateAnswer"]}
			]
		}`)
	})
	url := server.Start()

	result := newTestCatalog().FetchModels(context.Background(), types.ProviderTypeGoogle, url+"/", "AIza-test")
	require.True(t, result.IsSuccess(), result.Message)
	assert.Equal(t, []types.ModelInfo{
		{ID: "gemini-1.5-pro", Name: "Gemini 1.5 Pro", Description: "Mid-size model"},
		{ID: "gemini-1.5-flash", Name: "gemini-1.5-flash"},
	}, result.Models)

	requests := server.Requests()
	require.Len(t, requests, 2)
	assert.Equal(t, "/v1beta/models", requests[0].Path)
	assert.Equal(t, "key=AIza-test", requests[0].Query)
	assert.Equal(t, "key=AIza-test&pageToken=page-2", requests[1].Query)
}

func TestFetchModels_GooglePaginationIsBounded(t *testing.T) {
	server := testutil.NewMockServer(t,
		`{"models":[{"name":"models/gemini-pro","supportedGenerationMethods":["generateContent"]}],"nextPageToken":"again"}`,
		http.StatusOK)
	url := server.Start()

	result := newTestCatalog().FetchModels(context.Background(), types.ProviderTypeGoogle, url, "AIza-test")
	require.True(t, result.IsSuccess())
	assert.Len(t, result.Models, maxGooglePages)
	assert.Len(t, server.Requests(), maxGooglePages)
}

func TestFetchModels_GoogleRedactsKey(t *testing.T) {
	const apiKey = "AIza-very-secret"
	transport := testutil.TransportFunc(func(ctx context.Context, req *http.Request) (*http.Response, error) {
		return nil, fmt.Errorf("Get %q: dial tcp: %w", req.URL.String(), testutil.ErrTransport)
	})
	c := New(WithTransport(transport), WithLogger(log.New(io.Discard, "", 0)))

	result := c.FetchModels(context.Background(), types.ProviderTypeGoogle, "https://generativelanguage.googleapis.com", apiKey)
	assert.True(t, result.IsError())
	assert.NotContains(t, result.Message, apiKey)
	assert.Contains(t, result.Message, "key=REDACTED")
	assert.Contains(t, result.Message, "connection refused")
}

func TestRedactKey(t *testing.T) {
	plain := errors.New("boom")
	assert.Same(t, plain, redactKey(plain, "secret"))

	wrapped := fmt.Errorf("request to ?key=a%%2Bb failed: %w", testutil.ErrTransport)
	redacted := redactKey(wrapped, "a+b")
	assert.Equal(t, "request to ?key=REDACTED failed: connection refused", redacted.Error())
	assert.ErrorIs(t, redacted, testutil.ErrTransport)
}
