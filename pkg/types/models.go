package types

// ModelInfo is the normalized description of a model offered by a provider
type ModelInfo struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	CreatedAt   *int64 `json:"created_at,omitempty" yaml:"created_at,omitempty"`
}

// FetchStatus tags a ModelFetchResult
type FetchStatus string

const (
	FetchStatusLoading FetchStatus = "loading"
	FetchStatusSuccess FetchStatus = "success"
	FetchStatusError   FetchStatus = "error"
)

// ModelFetchResult is the outcome of a model listing.
// A success result always carries at least one model.
type ModelFetchResult struct {
	Status  FetchStatus `json:"status"`
	Models  []ModelInfo `json:"models,omitempty"`
	Message string      `json:"message,omitempty"`
	Code    ErrorCode   `json:"code,omitempty"`
}

// LoadingResult returns the placeholder result shown while a fetch is in flight
func LoadingResult() ModelFetchResult {
	return ModelFetchResult{Status: FetchStatusLoading}
}

// SuccessResult wraps a model list. An empty list is coerced to an error
// result so callers fall back to a static list.
func SuccessResult(models []ModelInfo) ModelFetchResult {
	if len(models) == 0 {
		return ErrorResult(ErrCodeNoModels, "No models found. Using fallback models.")
	}
	return ModelFetchResult{Status: FetchStatusSuccess, Models: models}
}

// ErrorResult builds a failed result
func ErrorResult(code ErrorCode, message string) ModelFetchResult {
	return ModelFetchResult{Status: FetchStatusError, Message: message, Code: code}
}

// IsSuccess reports whether the result carries models
func (r ModelFetchResult) IsSuccess() bool {
	return r.Status == FetchStatusSuccess
}

// IsError reports whether the fetch failed
func (r ModelFetchResult) IsError() bool {
	return r.Status == FetchStatusError
}

// ModelsOr returns the fetched models, or fallback when the fetch did not succeed
func (r ModelFetchResult) ModelsOr(fallback []ModelInfo) []ModelInfo {
	if r.IsSuccess() {
		return r.Models
	}
	return fallback
}
