package types

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestProviderError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *ProviderError
		expected string
	}{
		{
			name: "error with status code",
			err: &ProviderError{
				Provider:   ProviderTypeBedrock,
				Message:    "request rejected",
				StatusCode: 403,
				Code:       ErrCodeAuth,
			},
			expected: "[bedrock] request rejected (status=403, code=auth_error)",
		},
		{
			name: "error without status code",
			err: &ProviderError{
				Provider: ProviderTypeOpenAI,
				Message:  "connection reset",
				Code:     ErrCodeNetwork,
			},
			expected: "[openai] connection reset (code=network_error)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestProviderError_Unwrap(t *testing.T) {
	originalErr := errors.New("underlying error")
	providerErr := NewNetworkError(ProviderTypeBedrock, "wrapped error").WithOriginalErr(originalErr)

	if providerErr.Unwrap() != originalErr {
		t.Errorf("Unwrap() = %v, want %v", providerErr.Unwrap(), originalErr)
	}

	wrapped := fmt.Errorf("outer: %w", providerErr)
	if !errors.Is(wrapped, originalErr) {
		t.Error("errors.Is should find the original error through the provider error")
	}

	var pe *ProviderError
	if !errors.As(wrapped, &pe) {
		t.Fatal("errors.As should find the provider error")
	}
	if pe.Code != ErrCodeNetwork {
		t.Errorf("Code = %v, want %v", pe.Code, ErrCodeNetwork)
	}
}

func TestProviderError_Builders(t *testing.T) {
	err := NewAuthError(ProviderTypeBedrock, "AWS credentials not configured").
		WithOperation("stream_chat").
		WithStatusCode(http.StatusForbidden)

	if err.Operation != "stream_chat" {
		t.Errorf("Operation = %q", err.Operation)
	}
	if err.StatusCode != http.StatusForbidden {
		t.Errorf("StatusCode = %d", err.StatusCode)
	}
	if !IsAuthError(err) {
		t.Error("expected auth error")
	}
	if IsAuthError(nil) {
		t.Error("nil is not an auth error")
	}
}

func TestClassifyHTTPError(t *testing.T) {
	tests := []struct {
		status int
		want   ErrorCode
	}{
		{http.StatusUnauthorized, ErrCodeAuth},
		{http.StatusForbidden, ErrCodeAuth},
		{http.StatusBadRequest, ErrCodeNetwork},
		{http.StatusTooManyRequests, ErrCodeNetwork},
		{http.StatusInternalServerError, ErrCodeNetwork},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			if got := ClassifyHTTPError(tt.status); got != tt.want {
				t.Errorf("ClassifyHTTPError(%d) = %v, want %v", tt.status, got, tt.want)
			}
		})
	}
}

func TestGetErrorCode(t *testing.T) {
	if got := GetErrorCode(errors.New("plain")); got != ErrCodeNetwork {
		t.Errorf("plain error code = %v, want %v", got, ErrCodeNetwork)
	}
	if got := GetErrorCode(NewParseError(ProviderTypeBedrock, "bad line")); got != ErrCodeParse {
		t.Errorf("parse error code = %v, want %v", got, ErrCodeParse)
	}
}
