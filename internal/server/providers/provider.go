// Package providers wraps the four supported cloud blob stores behind one
// capability interface. Each vendor binding lives in its own file and fully
// isolates vendor types from the core: nothing outside this package imports
// an SDK.
package providers

import (
	"context"
	"fmt"
	"time"

	"unidrive/internal/common"
	"unidrive/internal/server/config"
)

// Type identifies one of the supported providers.
type Type string

const (
	Amazon    Type = "amazon"
	Azure     Type = "azure"
	Google    Type = "google"
	Backblaze Type = "backblaze"
)

// Context is the provider-agnostic blob operation set. Implementations
// translate vendor not-found conditions to common.ErrorBlobNotFound; every
// other failure is returned wrapped for the service layer to classify.
type Context interface {
	// EnsureBucket creates the bucket if it does not exist. Idempotent.
	EnsureBucket(ctx context.Context, bucket string) error

	// Upload writes data to (bucket, path) with the given content type.
	Upload(ctx context.Context, bucket, path string, data []byte, contentType string) error

	// Download reads the blob at (bucket, path).
	Download(ctx context.Context, bucket, path string) ([]byte, error)

	// Move renames a blob. Where the backing SDK lacks an atomic rename it
	// is implemented as copy+delete; a delete failure after a successful
	// copy leaves a duplicate behind and is logged, not returned.
	Move(ctx context.Context, bucket, from, to string) error

	// Delete removes the blob at (bucket, path).
	Delete(ctx context.Context, bucket, path string) error

	// List returns the paths of blobs under prefix.
	List(ctx context.Context, bucket, prefix string) ([]string, error)

	// SignURL returns a time-bounded read URL for (bucket, path).
	SignURL(ctx context.Context, bucket, path string, ttl time.Duration) (string, error)
}

// Initializer builds a provider Context from a credential block. It is the
// seam the service layer uses so tests can substitute fakes.
type Initializer func(ctx context.Context, t Type, cred config.ProviderCredential) (Context, error)

// Initialize dispatches to the vendor binding for t. For Google, the
// credential is a path to a service-account key exchanged for an OAuth
// credential; other providers use the raw secret.
func Initialize(ctx context.Context, t Type, cred config.ProviderCredential) (Context, error) {
	if cred.Identity == "" {
		return nil, fmt.Errorf("%w: provider %s is not configured", common.ErrorInvalidCredential, t)
	}

	switch t {
	case Amazon:
		return newAmazonContext(ctx, cred)
	case Azure:
		return newAzureContext(cred)
	case Google:
		return newGoogleContext(ctx, cred)
	case Backblaze:
		return newBackblazeContext(cred)
	default:
		return nil, fmt.Errorf("%w: unsupported provider %q", common.ErrorCreatingContext, t)
	}
}

// CredentialFor picks the credential block for t from the server config.
func CredentialFor(cfg *config.Config, t Type) config.ProviderCredential {
	switch t {
	case Amazon:
		return cfg.Amazon
	case Azure:
		return cfg.Azure
	case Google:
		return cfg.Google
	default:
		return cfg.Backblaze
	}
}
