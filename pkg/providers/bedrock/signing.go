package bedrock

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"
)

const (
	// AWS Signature V4 constants
	algorithm       = "AWS4-HMAC-SHA256"
	requestType     = "aws4_request"
	timeFormat      = "20060102T150405Z"
	shortTimeFormat = "20060102"

	// ServiceName is the signing name of the Bedrock runtime
	ServiceName = "bedrock"

	// Header names, lower-cased as they appear in the canonical request
	authorizationHeader = "authorization"
	hostHeader          = "host"
	dateHeader          = "x-amz-date"
	securityTokenHeader = "x-amz-security-token" //nolint:gosec // G101: AWS header name, not a credential
)

// SigningRequest is everything that goes into a signature. URI is the path
// exactly as it is sent on the wire, already escaped.
type SigningRequest struct {
	Method  string
	URI     string
	Query   map[string]string
	Headers map[string]string
	Payload []byte
}

// SignedHeaders is the header set to send: the caller's headers plus host,
// x-amz-date, the optional x-amz-security-token and authorization. Names are
// lower-case.
type SignedHeaders map[string]string

// Get returns the value of the named header, ignoring case
func (h SignedHeaders) Get(name string) string {
	return h[strings.ToLower(name)]
}

// Host returns the host the signature was computed for
func (h SignedHeaders) Host() string {
	return h[hostHeader]
}

// Signer handles AWS Signature V4 signing for Bedrock requests.
// Apart from reading its clock it is pure and safe for concurrent use.
type Signer struct {
	now    func() time.Time
	logger *log.Logger
	debug  bool
}

// SignerOption configures a Signer
type SignerOption func(*Signer)

// WithClock replaces the wall clock, mainly so tests can pin time
func WithClock(now func() time.Time) SignerOption {
	return func(s *Signer) {
		s.now = now
	}
}

// WithSignerLogger sets the logger used for debug traces
func WithSignerLogger(logger *log.Logger) SignerOption {
	return func(s *Signer) {
		s.logger = logger
	}
}

// WithSignerDebug logs the canonical request and string to sign for every signature
func WithSignerDebug(debug bool) SignerOption {
	return func(s *Signer) {
		s.debug = debug
	}
}

// NewSigner creates a new AWS Signature V4 signer
func NewSigner(opts ...SignerOption) *Signer {
	s := &Signer{
		now:    time.Now,
		logger: log.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// HostFor returns the runtime endpoint host for a service in a region
func HostFor(service, region string) string {
	return fmt.Sprintf("%s-runtime.%s.amazonaws.com", service, region)
}

// Sign computes the SigV4 headers for req. The host is derived from service
// and the credentials' region.
func (s *Signer) Sign(req SigningRequest, creds Credentials, service string) (SignedHeaders, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}
	if service == "" {
		return nil, fmt.Errorf("bedrock: signing service name is required")
	}
	region := creds.RegionOrDefault()
	return s.sign(req, creds, region, service, HostFor(service, region), s.now().UTC()), nil
}

// canonicalRequest holds the pieces of a SigV4 canonical request
type canonicalRequest struct {
	method           string
	uri              string
	queryString      string
	canonicalHeaders string
	signedHeaders    string
	payloadHash      string
}

func (c canonicalRequest) String() string {
	return fmt.Sprintf("%s\n%s\n%s\n%s\n%s\n%s",
		c.method,
		c.uri,
		c.queryString,
		c.canonicalHeaders,
		c.signedHeaders,
		c.payloadHash,
	)
}

func (s *Signer) sign(req SigningRequest, creds Credentials, region, service, host string, t time.Time) SignedHeaders {
	amzDate := t.Format(timeFormat)
	dateStamp := t.Format(shortTimeFormat)

	headers := mergeHeaders(req.Headers)
	headers[dateHeader] = amzDate
	headers[hostHeader] = host
	if creds.SessionToken != "" {
		headers[securityTokenHeader] = creds.SessionToken
	}

	canonicalHeaders, signedHeaders := buildCanonicalHeaders(headers)
	canonical := canonicalRequest{
		method:           req.Method,
		uri:              canonicalURI(req.URI),
		queryString:      buildCanonicalQueryString(req.Query),
		canonicalHeaders: canonicalHeaders,
		signedHeaders:    signedHeaders,
		payloadHash:      hashPayload(req.Payload),
	}.String()

	credentialScope := buildCredentialScope(dateStamp, region, service)
	stringToSign := buildStringToSign(canonical, amzDate, credentialScope)
	signature := hex.EncodeToString(hmacSHA256(deriveSigningKey(creds.SecretAccessKey, dateStamp, region, service), []byte(stringToSign)))

	headers[authorizationHeader] = fmt.Sprintf("%s Credential=%s/%s, SignedHeaders=%s, Signature=%s",
		algorithm,
		creds.AccessKeyID,
		credentialScope,
		signedHeaders,
		signature,
	)

	if s.debug {
		s.debugLog(req, canonical, stringToSign, signature)
	}

	return headers
}

// mergeHeaders lower-cases names and trims values. Names that collide after
// lower-casing resolve deterministically: the last in sorted order wins.
func mergeHeaders(in map[string]string) SignedHeaders {
	names := make([]string, 0, len(in))
	for k := range in {
		names = append(names, k)
	}
	sort.Strings(names)

	out := make(SignedHeaders, len(in)+4)
	for _, k := range names {
		out[strings.ToLower(k)] = strings.TrimSpace(in[k])
	}
	return out
}

// hashPayload calculates SHA256 hash of the request payload
func hashPayload(payload []byte) string {
	hash := sha256.Sum256(payload)
	return hex.EncodeToString(hash[:])
}

// canonicalURI encodes every byte of the path except unreserved characters
// and '/'. An escaped path is therefore encoded twice, as AWS expects for
// every service but S3.
func canonicalURI(uri string) string {
	if uri == "" {
		return "/"
	}
	return uriEncode(uri, false)
}

// buildCanonicalQueryString creates the canonical query string
func buildCanonicalQueryString(values map[string]string) string {
	if len(values) == 0 {
		return ""
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, uriEncode(k, true)+"="+uriEncode(values[k], true))
	}

	return strings.Join(parts, "&")
}

// buildCanonicalHeaders creates canonical headers and signed headers list
func buildCanonicalHeaders(headers SignedHeaders) (canonical, signed string) {
	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteByte(':')
		b.WriteString(strings.TrimSpace(headers[k]))
		b.WriteByte('\n')
	}

	return b.String(), strings.Join(keys, ";")
}

// buildCredentialScope creates the credential scope string
func buildCredentialScope(dateStamp, region, service string) string {
	return fmt.Sprintf("%s/%s/%s/%s", dateStamp, region, service, requestType)
}

// buildStringToSign creates the string to sign
func buildStringToSign(canonicalRequest, amzDate, credentialScope string) string {
	hash := sha256.Sum256([]byte(canonicalRequest))
	return fmt.Sprintf("%s\n%s\n%s\n%s",
		algorithm,
		amzDate,
		credentialScope,
		hex.EncodeToString(hash[:]),
	)
}

// deriveSigningKey builds the scoped key from the secret
func deriveSigningKey(secret, dateStamp, region, service string) []byte {
	kDate := hmacSHA256([]byte("AWS4"+secret), []byte(dateStamp))
	kRegion := hmacSHA256(kDate, []byte(region))
	kService := hmacSHA256(kRegion, []byte(service))
	return hmacSHA256(kService, []byte(requestType))
}

// hmacSHA256 computes HMAC-SHA256
func hmacSHA256(key, data []byte) []byte {
	h := hmac.New(sha256.New, key)
	h.Write(data)
	return h.Sum(nil)
}

// uriEncode encodes a URI component according to AWS requirements
func uriEncode(s string, encodeSlash bool) string {
	var buf bytes.Buffer
	for i := 0; i < len(s); i++ {
		c := s[i]
		if shouldEscape(c, encodeSlash) {
			fmt.Fprintf(&buf, "%%%02X", c)
		} else {
			buf.WriteByte(c)
		}
	}
	return buf.String()
}

// shouldEscape determines if a character should be percent-encoded
func shouldEscape(c byte, encodeSlash bool) bool {
	// Unreserved characters (RFC 3986)
	if 'A' <= c && c <= 'Z' || 'a' <= c && c <= 'z' || '0' <= c && c <= '9' {
		return false
	}
	switch c {
	case '-', '_', '.', '~':
		return false
	case '/':
		return encodeSlash
	}
	return true
}

// debugLog prints the signing inputs. Secrets never reach the log.
func (s *Signer) debugLog(req SigningRequest, canonical, stringToSign, signature string) {
	if s.logger == nil {
		return
	}
	s.logger.Printf("=== AWS Signature V4 Debug ===")
	s.logger.Printf("Method: %s URI: %s", req.Method, req.URI)
	s.logger.Printf("Canonical Request:\n%s", canonical)
	s.logger.Printf("String to Sign:\n%s", stringToSign)
	s.logger.Printf("Signature: %s", signature)
}
