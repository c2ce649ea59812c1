package providers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"unidrive/internal/common"
	"unidrive/internal/server/config"
)

func TestInitializeUnconfiguredProvider(t *testing.T) {
	_, err := Initialize(context.Background(), Amazon, config.ProviderCredential{})
	assert.ErrorIs(t, err, common.ErrorInvalidCredential)
}

func TestInitializeUnsupportedType(t *testing.T) {
	_, err := Initialize(context.Background(), Type("dropbox"), config.ProviderCredential{Identity: "x"})
	assert.ErrorIs(t, err, common.ErrorCreatingContext)
}

func TestInitializeAzureBadKey(t *testing.T) {
	// shared key must be base64; "!!!" is not
	_, err := Initialize(context.Background(), Azure, config.ProviderCredential{
		Identity:   "account",
		Credential: "!!!",
	})
	assert.ErrorIs(t, err, common.ErrorInvalidCredential)
}

func TestInitializeGoogleMissingKeyFile(t *testing.T) {
	_, err := Initialize(context.Background(), Google, config.ProviderCredential{
		Identity:   "project-id",
		Credential: "/nonexistent/sa.json",
	})
	assert.ErrorIs(t, err, common.ErrorInvalidCredential)
}

func TestInitializeBackblaze(t *testing.T) {
	// client construction is offline; no bucket I/O happens here
	c, err := Initialize(context.Background(), Backblaze, config.ProviderCredential{
		Identity:   "keyId",
		Credential: "appKey",
		Bucket:     "unidrive",
		Location:   "us-west-004",
	})
	require.NoError(t, err)
	assert.NotNil(t, c)
}

func TestInitializeAmazon(t *testing.T) {
	c, err := Initialize(context.Background(), Amazon, config.ProviderCredential{
		Identity:   "AKIAEXAMPLE",
		Credential: "secret",
		Bucket:     "unidrive",
		Location:   "us-east-1",
	})
	require.NoError(t, err)
	assert.NotNil(t, c)
}

func TestCredentialFor(t *testing.T) {
	cfg := &config.Config{
		Amazon:    config.ProviderCredential{Identity: "a"},
		Azure:     config.ProviderCredential{Identity: "z"},
		Google:    config.ProviderCredential{Identity: "g"},
		Backblaze: config.ProviderCredential{Identity: "b"},
	}

	assert.Equal(t, "a", CredentialFor(cfg, Amazon).Identity)
	assert.Equal(t, "z", CredentialFor(cfg, Azure).Identity)
	assert.Equal(t, "g", CredentialFor(cfg, Google).Identity)
	assert.Equal(t, "b", CredentialFor(cfg, Backblaze).Identity)
}
