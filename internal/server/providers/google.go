package providers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"unidrive/internal/common"
	"unidrive/internal/server/config"
)

// googleContext implements Context over Google Cloud Storage. The credential
// block carries a service-account key file path, which the client library
// exchanges for an OAuth credential; Identity is the project id used for
// bucket creation.
type googleContext struct {
	client  *storage.Client
	project string
}

func newGoogleContext(ctx context.Context, cred config.ProviderCredential) (Context, error) {
	client, err := storage.NewClient(ctx, option.WithCredentialsFile(cred.Credential))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorInvalidCredential, err)
	}
	return &googleContext{client: client, project: cred.Identity}, nil
}

func (c *googleContext) EnsureBucket(ctx context.Context, bucket string) error {
	_, err := c.client.Bucket(bucket).Attrs(ctx)
	if err == nil {
		return nil
	}
	if !errors.Is(err, storage.ErrBucketNotExist) {
		return fmt.Errorf("check bucket %q: %w", bucket, err)
	}

	if err := c.client.Bucket(bucket).Create(ctx, c.project, nil); err != nil {
		return fmt.Errorf("create bucket %q: %w", bucket, err)
	}
	return nil
}

func (c *googleContext) Upload(ctx context.Context, bucket, path string, data []byte, contentType string) error {
	w := c.client.Bucket(bucket).Object(path).NewWriter(ctx)
	w.ContentType = contentType

	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("write object %q: %w", path, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalize object %q: %w", path, err)
	}
	return nil
}

func (c *googleContext) Download(ctx context.Context, bucket, path string) ([]byte, error) {
	r, err := c.client.Bucket(bucket).Object(path).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, fmt.Errorf("%w: %s", common.ErrorBlobNotFound, path)
		}
		return nil, fmt.Errorf("open object %q: %w", path, err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read object %q: %w", path, err)
	}
	return data, nil
}

func (c *googleContext) Move(ctx context.Context, bucket, from, to string) error {
	b := c.client.Bucket(bucket)
	src := b.Object(from)

	if _, err := b.Object(to).CopierFrom(src).Run(ctx); err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return fmt.Errorf("%w: %s", common.ErrorBlobNotFound, from)
		}
		return fmt.Errorf("copy object %q: %w", from, err)
	}

	if err := src.Delete(ctx); err != nil {
		// the copy succeeded; a duplicate at the old path is tolerated
		slog.Warn("gcs move: source delete failed, duplicate left behind",
			"bucket", bucket, "path", from, "err", err)
	}
	return nil
}

func (c *googleContext) Delete(ctx context.Context, bucket, path string) error {
	if err := c.client.Bucket(bucket).Object(path).Delete(ctx); err != nil {
		return fmt.Errorf("delete object %q: %w", path, err)
	}
	return nil
}

func (c *googleContext) List(ctx context.Context, bucket, prefix string) ([]string, error) {
	var paths []string

	it := c.client.Bucket(bucket).Objects(ctx, &storage.Query{Prefix: prefix})
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list objects %q: %w", prefix, err)
		}
		paths = append(paths, attrs.Name)
	}
	return paths, nil
}

func (c *googleContext) SignURL(ctx context.Context, bucket, path string, ttl time.Duration) (string, error) {
	url, err := c.client.Bucket(bucket).SignedURL(path, &storage.SignedURLOptions{
		Scheme:  storage.SigningSchemeV4,
		Method:  "GET",
		Expires: time.Now().Add(ttl),
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrorSigningURL, err)
	}
	return url, nil
}
