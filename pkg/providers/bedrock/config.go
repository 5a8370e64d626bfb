package bedrock

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
)

// DefaultRegion is used whenever no region is configured
const DefaultRegion = "us-east-1"

// Credentials are the AWS keys used to sign Bedrock requests. The value is
// immutable once handed to a Gateway; replace it with SetCredentials.
type Credentials struct {
	AccessKeyID     string `json:"accessKeyId" yaml:"access_key_id"`
	SecretAccessKey string `json:"secretAccessKey" yaml:"secret_access_key"`
	SessionToken    string `json:"sessionToken,omitempty" yaml:"session_token,omitempty"` // Optional, for temporary credentials
	Region          string `json:"region" yaml:"region"`
}

// Validate checks that the keys needed for signing are present
func (c Credentials) Validate() error {
	if c.AccessKeyID == "" {
		return fmt.Errorf("bedrock: access_key_id is required")
	}
	if c.SecretAccessKey == "" {
		return fmt.Errorf("bedrock: secret_access_key is required")
	}
	return nil
}

// RegionOrDefault returns the region, or DefaultRegion when it is blank
func (c Credentials) RegionOrDefault() string {
	if r := strings.TrimSpace(c.Region); r != "" {
		return r
	}
	return DefaultRegion
}

// WithRegion returns a copy of the credentials scoped to region
func (c Credentials) WithRegion(region string) Credentials {
	c.Region = region
	return c
}

// String never prints the secret or the session token
func (c Credentials) String() string {
	return fmt.Sprintf("Credentials{AccessKeyID: %s, Region: %s, SessionToken: %t}",
		c.AccessKeyID, c.RegionOrDefault(), c.SessionToken != "")
}

// ParseCredentialsJSON decodes the stored credential blob
// {"accessKeyId","secretAccessKey","region","sessionToken"}. A missing
// region defaults to us-east-1.
func ParseCredentialsJSON(data []byte) (*Credentials, error) {
	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("bedrock: invalid credentials JSON: %w", err)
	}
	creds.Region = creds.RegionOrDefault()
	if err := creds.Validate(); err != nil {
		return nil, err
	}
	return &creds, nil
}

// CredentialsFromEnv reads the standard AWS environment variables:
// AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY, AWS_SESSION_TOKEN and
// AWS_REGION (falling back to AWS_DEFAULT_REGION).
func CredentialsFromEnv() (*Credentials, error) {
	creds := &Credentials{
		AccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
		SecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
		SessionToken:    os.Getenv("AWS_SESSION_TOKEN"),
		Region:          getEnvOrDefault("AWS_REGION", getEnvOrDefault("AWS_DEFAULT_REGION", DefaultRegion)),
	}

	if err := creds.Validate(); err != nil {
		return nil, fmt.Errorf("failed to read credentials from environment: %w", err)
	}
	return creds, nil
}

// CredentialsFromProvider retrieves keys from any AWS SDK credentials provider.
// The SDK is only used to resolve keys; requests are signed by Signer.
func CredentialsFromProvider(ctx context.Context, provider aws.CredentialsProvider, region string) (*Credentials, error) {
	if provider == nil {
		return nil, fmt.Errorf("bedrock: no credentials provider")
	}
	v, err := provider.Retrieve(ctx)
	if err != nil {
		return nil, fmt.Errorf("bedrock: retrieve credentials: %w", err)
	}
	creds := &Credentials{
		AccessKeyID:     v.AccessKeyID,
		SecretAccessKey: v.SecretAccessKey,
		SessionToken:    v.SessionToken,
		Region:          region,
	}
	creds.Region = creds.RegionOrDefault()
	if err := creds.Validate(); err != nil {
		return nil, err
	}
	return creds, nil
}

// LoadDefaultCredentials resolves keys through the AWS SDK default chain:
// environment, shared config and credentials files, SSO, web identity and
// instance roles. An empty region falls back to the shared config region.
func LoadDefaultCredentials(ctx context.Context, region string) (*Credentials, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("bedrock: load AWS config: %w", err)
	}
	return CredentialsFromProvider(ctx, cfg.Credentials, cfg.Region)
}

// getEnvOrDefault returns the environment variable value or a default
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
