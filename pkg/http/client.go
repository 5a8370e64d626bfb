// Package http provides the HTTP transport shared by the gateway and the model
// catalog: default headers, request and response interceptors, metrics and
// an optional client-side rate limit. Requests are never retried.
package http

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// DefaultUserAgent is sent when the config does not name one
const DefaultUserAgent = "multigpt-gateway/1.0"

// Transport is the request collaborator used by every component that talks
// to a provider. *HTTPClient implements it; tests substitute their own.
type Transport interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// HTTPClient provides a reusable HTTP client with common patterns for AI providers
type HTTPClient struct {
	client       *http.Client
	config       HTTPClientConfig
	limiter      *rate.Limiter
	metrics      *ClientMetrics
	requestCount int64
	successCount int64
	errorCount   int64
	totalLatency int64 // Nanoseconds
	mu           sync.RWMutex
}

// HTTPClientConfig configures the HTTP client
type HTTPClientConfig struct {
	// Timeout bounds the whole exchange including reading the body.
	// Zero means no limit, which streaming callers want.
	Timeout   time.Duration     `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	Headers   map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	UserAgent string            `json:"user_agent,omitempty" yaml:"user_agent,omitempty"`
	// RateLimit caps requests per second; callers wait for a slot. Zero disables it.
	RateLimit     float64 `json:"rate_limit,omitempty" yaml:"rate_limit,omitempty"`
	Burst         int     `json:"burst,omitempty" yaml:"burst,omitempty"`
	EnableMetrics bool    `json:"enable_metrics,omitempty" yaml:"enable_metrics,omitempty"`

	RequestInterceptor  RequestInterceptor  `json:"-" yaml:"-"`
	ResponseInterceptor ResponseInterceptor `json:"-" yaml:"-"`
	// Client replaces the underlying *http.Client, e.g. an httptest server client.
	Client *http.Client `json:"-" yaml:"-"`
}

// ClientMetrics tracks HTTP client performance
type ClientMetrics struct {
	TotalRequests   int64         `json:"total_requests"`
	SuccessfulReqs  int64         `json:"successful_requests"`
	FailedReqs      int64         `json:"failed_requests"`
	AvgLatency      time.Duration `json:"avg_latency"`
	LastRequestTime time.Time     `json:"last_request_time"`
	RateLimitWaits  int64         `json:"rate_limit_waits"`
	StatusCodes     map[int]int64 `json:"status_codes"`
}

// RequestInterceptor allows modifying requests before sending
type RequestInterceptor interface {
	Intercept(req *http.Request) error
}

// ResponseInterceptor allows processing responses after receiving
type ResponseInterceptor interface {
	Intercept(resp *http.Response) error
}

// RequestInterceptorFunc adapts a function to RequestInterceptor
type RequestInterceptorFunc func(req *http.Request) error

// Intercept calls f(req)
func (f RequestInterceptorFunc) Intercept(req *http.Request) error { return f(req) }

// ResponseInterceptorFunc adapts a function to ResponseInterceptor
type ResponseInterceptorFunc func(resp *http.Response) error

// Intercept calls f(resp)
func (f ResponseInterceptorFunc) Intercept(resp *http.Response) error { return f(resp) }

// NewHTTPClient creates a new HTTP client with common configurations
func NewHTTPClient(config HTTPClientConfig) *HTTPClient {
	headers := make(map[string]string, len(config.Headers)+1)
	for k, v := range config.Headers {
		headers[k] = v
	}
	if config.UserAgent == "" {
		config.UserAgent = DefaultUserAgent
	}
	headers["User-Agent"] = config.UserAgent
	config.Headers = headers

	client := config.Client
	if client == nil {
		client = &http.Client{Timeout: config.Timeout}
	}

	c := &HTTPClient{
		client:  client,
		config:  config,
		metrics: &ClientMetrics{StatusCodes: make(map[int]int64)},
	}
	if config.RateLimit > 0 {
		burst := config.Burst
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(config.RateLimit), burst)
	}
	return c
}

// Do executes an HTTP request bound to ctx. Default headers never replace
// headers the caller already set, so signed requests stay intact.
func (c *HTTPClient) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	startTime := time.Now()
	atomic.AddInt64(&c.requestCount, 1)

	if c.limiter != nil {
		if c.limiter.Tokens() < 1 {
			c.mu.Lock()
			c.metrics.RateLimitWaits++
			c.mu.Unlock()
		}
		if err := c.limiter.Wait(ctx); err != nil {
			c.updateMetrics(nil, err, time.Since(startTime))
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	req = req.WithContext(ctx)

	if c.config.RequestInterceptor != nil {
		if err := c.config.RequestInterceptor.Intercept(req); err != nil {
			c.updateMetrics(nil, err, time.Since(startTime))
			return nil, fmt.Errorf("request interceptor failed: %w", err)
		}
	}

	for key, value := range c.config.Headers {
		if req.Header.Get(key) == "" {
			req.Header.Set(key, value)
		}
	}

	resp, err := c.client.Do(req)
	if err == nil && c.config.ResponseInterceptor != nil {
		if interceptErr := c.config.ResponseInterceptor.Intercept(resp); interceptErr != nil {
			_ = resp.Body.Close()
			resp, err = nil, fmt.Errorf("response interceptor failed: %w", interceptErr)
		}
	}

	c.updateMetrics(resp, err, time.Since(startTime))
	return resp, err
}

// Doer adapts the client to the Do(*http.Request) shape expected by SDKs
// such as go-openai. The request's own context is used.
func (c *HTTPClient) Doer() Doer {
	return DoerFunc(func(req *http.Request) (*http.Response, error) {
		return c.Do(req.Context(), req)
	})
}

// Doer is the *http.Client-shaped subset of a client
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// DoerFunc adapts a function to Doer
type DoerFunc func(req *http.Request) (*http.Response, error)

// Do calls f(req)
func (f DoerFunc) Do(req *http.Request) (*http.Response, error) { return f(req) }

// AsDoer adapts any Transport to Doer
func AsDoer(t Transport) Doer {
	if c, ok := t.(*HTTPClient); ok {
		return c.Doer()
	}
	return DoerFunc(func(req *http.Request) (*http.Response, error) {
		return t.Do(req.Context(), req)
	})
}

// updateMetrics updates client metrics after a request
func (c *HTTPClient) updateMetrics(resp *http.Response, err error, latency time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.metrics.LastRequestTime = time.Now()

	if err != nil {
		atomic.AddInt64(&c.errorCount, 1)
	} else {
		atomic.AddInt64(&c.successCount, 1)
	}

	// status breakdown and latency are opt-in
	if !c.config.EnableMetrics {
		return
	}
	if resp != nil {
		c.metrics.StatusCodes[resp.StatusCode]++
	}
	atomic.AddInt64(&c.totalLatency, latency.Nanoseconds())
	if totalReqs := atomic.LoadInt64(&c.requestCount); totalReqs > 0 {
		c.metrics.AvgLatency = time.Duration(atomic.LoadInt64(&c.totalLatency) / totalReqs)
	}
}

// GetMetrics returns current client metrics
func (c *HTTPClient) GetMetrics() ClientMetrics {
	c.mu.RLock()
	defer c.mu.RUnlock()

	metrics := *c.metrics
	metrics.StatusCodes = make(map[int]int64, len(c.metrics.StatusCodes))
	for code, n := range c.metrics.StatusCodes {
		metrics.StatusCodes[code] = n
	}
	metrics.TotalRequests = atomic.LoadInt64(&c.requestCount)
	metrics.SuccessfulReqs = atomic.LoadInt64(&c.successCount)
	metrics.FailedReqs = atomic.LoadInt64(&c.errorCount)

	return metrics
}

// ResetMetrics resets all metrics
func (c *HTTPClient) ResetMetrics() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.metrics = &ClientMetrics{StatusCodes: make(map[int]int64)}
	atomic.StoreInt64(&c.requestCount, 0)
	atomic.StoreInt64(&c.successCount, 0)
	atomic.StoreInt64(&c.errorCount, 0)
	atomic.StoreInt64(&c.totalLatency, 0)
}

// HTTPClientBuilder provides a builder pattern for HTTPClient
type HTTPClientBuilder struct {
	config HTTPClientConfig
}

// NewHTTPClientBuilder creates a new builder
func NewHTTPClientBuilder() *HTTPClientBuilder {
	return &HTTPClientBuilder{}
}

// WithTimeout sets the timeout
func (b *HTTPClientBuilder) WithTimeout(timeout time.Duration) *HTTPClientBuilder {
	b.config.Timeout = timeout
	return b
}

// WithHeaders sets default headers
func (b *HTTPClientBuilder) WithHeaders(headers map[string]string) *HTTPClientBuilder {
	if b.config.Headers == nil {
		b.config.Headers = make(map[string]string)
	}
	for k, v := range headers {
		b.config.Headers[k] = v
	}
	return b
}

// WithUserAgent sets the user agent
func (b *HTTPClientBuilder) WithUserAgent(userAgent string) *HTTPClientBuilder {
	b.config.UserAgent = userAgent
	return b
}

// WithRateLimit limits the client to rps requests per second
func (b *HTTPClientBuilder) WithRateLimit(rps float64, burst int) *HTTPClientBuilder {
	b.config.RateLimit = rps
	b.config.Burst = burst
	return b
}

// WithMetrics enables metrics collection
func (b *HTTPClientBuilder) WithMetrics(enabled bool) *HTTPClientBuilder {
	b.config.EnableMetrics = enabled
	return b
}

// WithRequestInterceptor sets a request interceptor
func (b *HTTPClientBuilder) WithRequestInterceptor(interceptor RequestInterceptor) *HTTPClientBuilder {
	b.config.RequestInterceptor = interceptor
	return b
}

// WithResponseInterceptor sets a response interceptor
func (b *HTTPClientBuilder) WithResponseInterceptor(interceptor ResponseInterceptor) *HTTPClientBuilder {
	b.config.ResponseInterceptor = interceptor
	return b
}

// WithClient replaces the underlying *http.Client
func (b *HTTPClientBuilder) WithClient(client *http.Client) *HTTPClientBuilder {
	b.config.Client = client
	return b
}

// Build creates the HTTP client
func (b *HTTPClientBuilder) Build() *HTTPClient {
	return NewHTTPClient(b.config)
}
