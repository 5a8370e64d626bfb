package types

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode categorizes gateway errors. The values double as the error kind
// carried by error stream chunks and failed model fetches.
type ErrorCode string

const (
	// ErrCodeAuth covers missing or rejected credentials and API keys
	ErrCodeAuth ErrorCode = "auth_error"
	// ErrCodeNetwork covers transport and I/O failures, including malformed responses
	ErrCodeNetwork ErrorCode = "network_error"
	// ErrCodeNoModels marks a successful model listing that returned nothing usable
	ErrCodeNoModels ErrorCode = "no_models_found"
	// ErrCodeParse marks a single undecodable stream line; it is never surfaced to callers
	ErrCodeParse ErrorCode = "parse_error"
)

// ProviderError represents a standardized error from a provider
type ProviderError struct {
	Code        ErrorCode    // Categorized error code
	Message     string       // Human-readable message
	StatusCode  int          // HTTP status code (0 if not applicable)
	Provider    ProviderType // Which provider generated this error
	Operation   string       // What operation failed (e.g., "stream_chat", "fetch_models")
	OriginalErr error        // Wrapped original error
}

// Error implements the error interface
func (e *ProviderError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("[%s] %s (status=%d, code=%s)", e.Provider, e.Message, e.StatusCode, e.Code)
	}
	return fmt.Sprintf("[%s] %s (code=%s)", e.Provider, e.Message, e.Code)
}

// Unwrap returns the original error for errors.Is/As
func (e *ProviderError) Unwrap() error {
	return e.OriginalErr
}

// WithOperation sets the operation field and returns the error for chaining
func (e *ProviderError) WithOperation(operation string) *ProviderError {
	e.Operation = operation
	return e
}

// WithStatusCode sets the status code field and returns the error for chaining
func (e *ProviderError) WithStatusCode(statusCode int) *ProviderError {
	e.StatusCode = statusCode
	return e
}

// WithOriginalErr sets the original error field and returns the error for chaining
func (e *ProviderError) WithOriginalErr(err error) *ProviderError {
	e.OriginalErr = err
	return e
}

// NewProviderError creates a new ProviderError
func NewProviderError(provider ProviderType, code ErrorCode, message string) *ProviderError {
	return &ProviderError{
		Code:     code,
		Message:  message,
		Provider: provider,
	}
}

// NewAuthError creates a new authentication error
func NewAuthError(provider ProviderType, message string) *ProviderError {
	return NewProviderError(provider, ErrCodeAuth, message)
}

// NewNetworkError creates a new network error
func NewNetworkError(provider ProviderType, message string) *ProviderError {
	return NewProviderError(provider, ErrCodeNetwork, message)
}

// NewParseError creates a new parse error
func NewParseError(provider ProviderType, message string) *ProviderError {
	return NewProviderError(provider, ErrCodeParse, message)
}

// ClassifyHTTPError determines error code from HTTP status
func ClassifyHTTPError(statusCode int) ErrorCode {
	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrCodeAuth
	default:
		return ErrCodeNetwork
	}
}

// GetErrorCode extracts the error code from err, defaulting to network_error
// for anything that is not a ProviderError.
func GetErrorCode(err error) ErrorCode {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Code
	}
	return ErrCodeNetwork
}

// IsAuthError reports whether err is an authentication error
func IsAuthError(err error) bool {
	return err != nil && GetErrorCode(err) == ErrCodeAuth
}
