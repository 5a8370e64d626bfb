package bedrock

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	gatewayhttp "github.com/cecil-the-coder/multigpt-gateway/pkg/http"
	"github.com/cecil-the-coder/multigpt-gateway/pkg/providers/common/streaming"
	"github.com/cecil-the-coder/multigpt-gateway/pkg/types"
)

const (
	contentTypeJSON        = "application/json"
	contentTypeEventStream = "application/vnd.amazon.eventstream"

	invokeStreamSuffix = "/invoke-with-response-stream"

	errNoCredentials = "AWS credentials not configured"
)

// Gateway streams chat completions from AWS Bedrock. It holds the current
// credentials and region; both may be replaced at any time and take effect
// for streams started afterwards.
type Gateway struct {
	mu          sync.RWMutex
	credentials *Credentials
	region      string

	transport gatewayhttp.Transport
	endpoint  string
	signer    *Signer
	mapper    *ModelMapper
	logger    *log.Logger
	debug     bool
}

// Option configures a Gateway
type Option func(*Gateway)

// WithTransport replaces the HTTP transport
func WithTransport(transport gatewayhttp.Transport) Option {
	return func(g *Gateway) {
		g.transport = transport
	}
}

// WithEndpoint sends requests to baseURL instead of the regional Bedrock
// runtime host. The signature is still computed for the regional host.
func WithEndpoint(baseURL string) Option {
	return func(g *Gateway) {
		g.endpoint = strings.TrimSuffix(baseURL, "/")
	}
}

// WithSigner replaces the SigV4 signer, e.g. one with a pinned clock
func WithSigner(signer *Signer) Option {
	return func(g *Gateway) {
		g.signer = signer
	}
}

// WithLogger sets the logger for request tracing
func WithLogger(logger *log.Logger) Option {
	return func(g *Gateway) {
		g.logger = logger
	}
}

// WithDebug enables verbose logging, including SigV4 traces
func WithDebug(debug bool) Option {
	return func(g *Gateway) {
		g.debug = debug
	}
}

// WithModelMapper resolves model aliases before translation
func WithModelMapper(mapper *ModelMapper) Option {
	return func(g *Gateway) {
		g.mapper = mapper
	}
}

// WithCredentials sets the initial credentials
func WithCredentials(creds Credentials) Option {
	return func(g *Gateway) {
		g.credentials = &creds
	}
}

// WithRegion sets the initial region
func WithRegion(region string) Option {
	return func(g *Gateway) {
		g.region = region
	}
}

// NewGateway creates a Bedrock gateway. Without options it has no
// credentials, uses us-east-1 and the default Bedrock transport.
func NewGateway(opts ...Option) *Gateway {
	g := &Gateway{
		region: DefaultRegion,
		logger: log.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.region == "" {
		g.region = DefaultRegion
	}
	if g.transport == nil {
		g.transport = gatewayhttp.DefaultClient(types.ProviderTypeBedrock)
	}
	if g.signer == nil {
		g.signer = NewSigner(WithSignerLogger(g.logger), WithSignerDebug(g.debug))
	}
	return g
}

// SetCredentials replaces the credentials. Nil clears them.
func (g *Gateway) SetCredentials(creds *Credentials) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if creds == nil {
		g.credentials = nil
		return
	}
	c := *creds
	g.credentials = &c
}

// SetRegion replaces the region. An empty region resets to us-east-1.
func (g *Gateway) SetRegion(region string) {
	region = strings.TrimSpace(region)
	if region == "" {
		region = DefaultRegion
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.region = region
}

// Region returns the current region
func (g *Gateway) Region() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.region
}

// Credentials returns a copy of the current credentials, or nil
func (g *Gateway) Credentials() *Credentials {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.credentials == nil {
		return nil
	}
	c := *g.credentials
	return &c
}

func (g *Gateway) snapshot() (*Credentials, string) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.credentials == nil {
		return nil, g.region
	}
	c := *g.credentials
	return &c, g.region
}

// StreamChatMessage starts a streamed completion. Credentials and region are
// captured now; the request is sent on the first call to Next. Every failure
// is reported as a single error chunk, never as a panic or a Go error.
func (g *Gateway) StreamChatMessage(ctx context.Context, turns []types.ChatMessage, model string, params types.GenerationParams) *ChatStream {
	creds, region := g.snapshot()
	reqCtx, cancel := context.WithCancel(ctx)
	return &ChatStream{
		id:      uuid.New().String(),
		gateway: g,
		parent:  ctx,
		ctx:     reqCtx,
		cancel:  cancel,
		creds:   creds,
		region:  region,
		turns:   copyTurns(turns),
		model:   model,
		params:  params,
	}
}

// ChatStream is a lazy, single-consumer stream of chunks for one request.
type ChatStream struct {
	id      string
	gateway *Gateway
	parent  context.Context
	ctx     context.Context // cancelled by Close and at the end of the stream
	cancel  context.CancelFunc
	creds   *Credentials
	region  string
	turns   []types.ChatMessage
	model   string
	params  types.GenerationParams

	mu      sync.Mutex
	started bool
	inner   types.ChunkStream
	ended   bool

	closed atomic.Bool
}

// ID identifies the stream in log lines
func (s *ChatStream) ID() string {
	return s.id
}

// Next returns the next chunk, opening the connection on the first call.
// It returns io.EOF after the stream has ended or been closed, and the
// context error once the caller's context is cancelled.
func (s *ChatStream) Next() (types.StreamChunk, error) {
	s.mu.Lock()
	if s.closed.Load() || s.ended {
		s.mu.Unlock()
		return types.StreamChunk{}, io.EOF
	}
	if !s.started {
		s.started = true
		s.inner = s.gateway.open(s.ctx, s.id, s.creds, s.region, s.turns, s.model, s.params)
	}
	inner := s.inner
	s.mu.Unlock()

	chunk, err := inner.Next()

	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.closed.Load():
		return types.StreamChunk{}, io.EOF
	case err == io.EOF:
		s.ended = true
		s.cancel()
		return types.StreamChunk{}, io.EOF
	case err != nil:
		return types.StreamChunk{}, err
	}
	// a failure caused by the caller cancelling is not a network error
	if ctxErr := s.parent.Err(); ctxErr != nil {
		return types.StreamChunk{}, ctxErr
	}
	return chunk, nil
}

// Close releases the connection. It may be called before the first Next,
// more than once, and from another goroutine; a request still being set up
// is aborted.
func (s *ChatStream) Close() error {
	s.closed.Store(true)
	s.cancel()

	s.mu.Lock()
	inner := s.inner
	s.mu.Unlock()

	if inner == nil {
		return nil
	}
	return inner.Close()
}

// open performs the request and returns the decoding stream, or a single
// error chunk stream when the request could not be made.
func (g *Gateway) open(ctx context.Context, id string, creds *Credentials, region string, turns []types.ChatMessage, model string, params types.GenerationParams) types.ChunkStream {
	if creds == nil {
		g.logger.Printf("[Bedrock %s] %s", id, errNoCredentials)
		return streaming.NewErrorStream(
			types.NewAuthError(types.ProviderTypeBedrock, errNoCredentials).WithOperation("stream_chat"),
		)
	}

	resp, err := g.send(ctx, id, creds.WithRegion(region), turns, model, params)
	if err != nil {
		g.logger.Printf("[Bedrock %s] request failed: %v", id, err)
		return streaming.NewErrorStream(toProviderError(err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := gatewayhttp.ReadAPIError(resp)
		g.logger.Printf("[Bedrock %s] HTTP %d: %s", id, apiErr.StatusCode, apiErr.Message)
		return streaming.NewErrorStream(apiErr.ProviderError(types.ProviderTypeBedrock).WithOperation("stream_chat"))
	}

	if g.debug {
		g.logger.Printf("[Bedrock %s] streaming %s (%s)", id, model, resp.Header.Get("Content-Type"))
	}

	opts := []streaming.Option{streaming.WithProvider(types.ProviderTypeBedrock)}
	if g.debug {
		opts = append(opts, streaming.WithLogger(g.logger))
	}
	stream := streaming.NewStream(resp.Body, resp.Header.Get("Content-Type"), NewChunkParser(), opts...)
	return streaming.WithContext(ctx, stream)
}

// send translates, signs and posts the request
func (g *Gateway) send(ctx context.Context, id string, creds Credentials, turns []types.ChatMessage, model string, params types.GenerationParams) (*http.Response, error) {
	if g.mapper != nil {
		if resolved, ok := g.mapper.Resolve(model); ok {
			if g.debug {
				g.logger.Printf("[Bedrock %s] model %s resolved to %s", id, model, resolved)
			}
			model = resolved
		}
	}

	payload, err := MarshalRequest(Translate(turns, model, params))
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	target, err := g.invokeURL(creds.Region, model)
	if err != nil {
		return nil, err
	}

	signed, err := g.signer.Sign(SigningRequest{
		Method: http.MethodPost,
		URI:    target.EscapedPath(),
		Headers: map[string]string{
			"Content-Type": contentTypeJSON,
			"Accept":       contentTypeEventStream,
		},
		Payload: payload,
	}, creds, ServiceName)
	if err != nil {
		return nil, fmt.Errorf("failed to sign request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target.String(), bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for name, value := range signed {
		if name == hostHeader {
			continue
		}
		req.Header.Set(name, value)
	}
	req.Host = signed.Host()

	resp, err := g.transport.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	return resp, nil
}

// invokeURL builds the streaming invoke URL. The model ID is escaped as a
// single path segment, so ':' travels as %3A.
func (g *Gateway) invokeURL(region, model string) (*url.URL, error) {
	base := g.endpoint
	if base == "" {
		base = "https://" + HostFor(ServiceName, region)
	}
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint %q: %w", base, err)
	}
	prefix := strings.TrimSuffix(u.Path, "/")
	u.Path = prefix + "/model/" + model + invokeStreamSuffix
	u.RawPath = prefix + "/model/" + uriEncode(model, true) + invokeStreamSuffix
	return u, nil
}

func toProviderError(err error) *types.ProviderError {
	return types.NewNetworkError(types.ProviderTypeBedrock, err.Error()).
		WithOperation("stream_chat").
		WithOriginalErr(err)
}
