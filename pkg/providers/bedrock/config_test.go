package bedrock

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCredentials_Validate(t *testing.T) {
	tests := []struct {
		name    string
		creds   Credentials
		wantErr string
	}{
		{"valid", Credentials{AccessKeyID: "AKID", SecretAccessKey: "secret"}, ""},
		{"missing access key", Credentials{SecretAccessKey: "secret"}, "access_key_id is required"},
		{"missing secret", Credentials{AccessKeyID: "AKID"}, "secret_access_key is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.creds.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestCredentials_RegionOrDefault(t *testing.T) {
	assert.Equal(t, "us-east-1", Credentials{}.RegionOrDefault())
	assert.Equal(t, "us-east-1", Credentials{Region: "  "}.RegionOrDefault())
	assert.Equal(t, "eu-west-1", Credentials{Region: "eu-west-1"}.RegionOrDefault())

	scoped := Credentials{AccessKeyID: "AKID", Region: "us-east-1"}.WithRegion("ap-south-1")
	assert.Equal(t, "ap-south-1", scoped.Region)
	assert.Equal(t, "AKID", scoped.AccessKeyID)
}

func TestCredentials_StringRedactsSecrets(t *testing.T) {
	creds := Credentials{AccessKeyID: "AKID", SecretAccessKey: "top-secret", SessionToken: "session-token", Region: "us-west-2"}
	s := creds.String()
	assert.Contains(t, s, "AKID")
	assert.Contains(t, s, "us-west-2")
	assert.NotContains(t, s, "top-secret")
	assert.NotContains(t, s, "session-token")
}

func TestParseCredentialsJSON(t *testing.T) {
	t.Run("full blob", func(t *testing.T) {
		creds, err := ParseCredentialsJSON([]byte(`{"accessKeyId":"AKID","secretAccessKey":"secret","region":"eu-west-3","sessionToken":"tok"}`))
		require.NoError(t, err)
		assert.Equal(t, Credentials{AccessKeyID: "AKID", SecretAccessKey: "secret", SessionToken: "tok", Region: "eu-west-3"}, *creds)
	})

	t.Run("region defaults", func(t *testing.T) {
		creds, err := ParseCredentialsJSON([]byte(`{"accessKeyId":"AKID","secretAccessKey":"secret"}`))
		require.NoError(t, err)
		assert.Equal(t, DefaultRegion, creds.Region)
		assert.Empty(t, creds.SessionToken)
	})

	t.Run("invalid JSON", func(t *testing.T) {
		_, err := ParseCredentialsJSON([]byte(`{"accessKeyId":`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid credentials JSON")
	})

	t.Run("missing secret", func(t *testing.T) {
		_, err := ParseCredentialsJSON([]byte(`{"accessKeyId":"AKID"}`))
		assert.Error(t, err)
	})
}

func TestCredentialsFromEnv(t *testing.T) {
	t.Run("all variables", func(t *testing.T) {
		t.Setenv("AWS_ACCESS_KEY_ID", "AKID")
		t.Setenv("AWS_SECRET_ACCESS_KEY", "secret")
		t.Setenv("AWS_SESSION_TOKEN", "tok")
		t.Setenv("AWS_REGION", "us-west-2")
		t.Setenv("AWS_DEFAULT_REGION", "eu-west-1")

		creds, err := CredentialsFromEnv()
		require.NoError(t, err)
		assert.Equal(t, "AKID", creds.AccessKeyID)
		assert.Equal(t, "secret", creds.SecretAccessKey)
		assert.Equal(t, "tok", creds.SessionToken)
		assert.Equal(t, "us-west-2", creds.Region)
	})

	t.Run("default region variable", func(t *testing.T) {
		t.Setenv("AWS_ACCESS_KEY_ID", "AKID")
		t.Setenv("AWS_SECRET_ACCESS_KEY", "secret")
		t.Setenv("AWS_REGION", "")
		t.Setenv("AWS_DEFAULT_REGION", "eu-west-1")

		creds, err := CredentialsFromEnv()
		require.NoError(t, err)
		assert.Equal(t, "eu-west-1", creds.Region)
	})

	t.Run("no region at all", func(t *testing.T) {
		t.Setenv("AWS_ACCESS_KEY_ID", "AKID")
		t.Setenv("AWS_SECRET_ACCESS_KEY", "secret")
		t.Setenv("AWS_REGION", "")
		t.Setenv("AWS_DEFAULT_REGION", "")

		creds, err := CredentialsFromEnv()
		require.NoError(t, err)
		assert.Equal(t, DefaultRegion, creds.Region)
	})

	t.Run("missing keys", func(t *testing.T) {
		t.Setenv("AWS_ACCESS_KEY_ID", "")
		t.Setenv("AWS_SECRET_ACCESS_KEY", "")

		_, err := CredentialsFromEnv()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "environment")
	})
}

func TestCredentialsFromProvider(t *testing.T) {
	provider := aws.CredentialsProviderFunc(func(ctx context.Context) (aws.Credentials, error) {
		return aws.Credentials{AccessKeyID: "AKID", SecretAccessKey: "secret", SessionToken: "tok"}, nil
	})

	creds, err := CredentialsFromProvider(context.Background(), provider, "")
	require.NoError(t, err)
	assert.Equal(t, Credentials{AccessKeyID: "AKID", SecretAccessKey: "secret", SessionToken: "tok", Region: DefaultRegion}, *creds)

	creds, err = CredentialsFromProvider(context.Background(), provider, "eu-north-1")
	require.NoError(t, err)
	assert.Equal(t, "eu-north-1", creds.Region)
}

func TestCredentialsFromProvider_Errors(t *testing.T) {
	_, err := CredentialsFromProvider(context.Background(), nil, "us-east-1")
	assert.Error(t, err)

	boom := errors.New("no IMDS")
	failing := aws.CredentialsProviderFunc(func(ctx context.Context) (aws.Credentials, error) {
		return aws.Credentials{}, boom
	})
	_, err = CredentialsFromProvider(context.Background(), failing, "us-east-1")
	assert.ErrorIs(t, err, boom)

	empty := aws.CredentialsProviderFunc(func(ctx context.Context) (aws.Credentials, error) {
		return aws.Credentials{}, nil
	})
	_, err = CredentialsFromProvider(context.Background(), empty, "us-east-1")
	assert.Error(t, err)
}

func TestLoadDefaultCredentials_FromEnvironment(t *testing.T) {
	t.Setenv("AWS_ACCESS_KEY_ID", "AKIDENV")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "env-secret")
	t.Setenv("AWS_SESSION_TOKEN", "")
	t.Setenv("AWS_CONFIG_FILE", t.TempDir()+"/config")
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", t.TempDir()+"/credentials")

	creds, err := LoadDefaultCredentials(context.Background(), "us-west-2")
	require.NoError(t, err)
	assert.Equal(t, "AKIDENV", creds.AccessKeyID)
	assert.Equal(t, "env-secret", creds.SecretAccessKey)
	assert.Equal(t, "us-west-2", creds.Region)
}
