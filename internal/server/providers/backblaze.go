package providers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"unidrive/internal/common"
	"unidrive/internal/server/config"
)

// backblazeContext implements Context over the B2 S3-compatible API using
// the minio client. The credential Location selects the B2 region endpoint.
type backblazeContext struct {
	client *minio.Client
	region string
}

func newBackblazeContext(cred config.ProviderCredential) (Context, error) {
	endpoint := fmt.Sprintf("s3.%s.backblazeb2.com", cred.Location)

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cred.Identity, cred.Credential, ""),
		Secure: true,
		Region: cred.Location,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorCreatingContext, err)
	}

	return &backblazeContext{client: client, region: cred.Location}, nil
}

func (c *backblazeContext) EnsureBucket(ctx context.Context, bucket string) error {
	exists, err := c.client.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("check bucket %q: %w", bucket, err)
	}
	if exists {
		return nil
	}
	if err := c.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: c.region}); err != nil {
		return fmt.Errorf("create bucket %q: %w", bucket, err)
	}
	return nil
}

func (c *backblazeContext) Upload(ctx context.Context, bucket, path string, data []byte, contentType string) error {
	_, err := c.client.PutObject(ctx, bucket, path, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return fmt.Errorf("put object %q: %w", path, err)
	}
	return nil
}

func (c *backblazeContext) Download(ctx context.Context, bucket, path string) ([]byte, error) {
	obj, err := c.client.GetObject(ctx, bucket, path, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get object %q: %w", path, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		if resp := minio.ToErrorResponse(err); resp.Code == "NoSuchKey" {
			return nil, fmt.Errorf("%w: %s", common.ErrorBlobNotFound, path)
		}
		return nil, fmt.Errorf("read object %q: %w", path, err)
	}
	return data, nil
}

func (c *backblazeContext) Move(ctx context.Context, bucket, from, to string) error {
	_, err := c.client.CopyObject(ctx,
		minio.CopyDestOptions{Bucket: bucket, Object: to},
		minio.CopySrcOptions{Bucket: bucket, Object: from})
	if err != nil {
		if resp := minio.ToErrorResponse(err); resp.Code == "NoSuchKey" {
			return fmt.Errorf("%w: %s", common.ErrorBlobNotFound, from)
		}
		return fmt.Errorf("copy object %q: %w", from, err)
	}

	if err := c.client.RemoveObject(ctx, bucket, from, minio.RemoveObjectOptions{}); err != nil {
		// the copy succeeded; a duplicate at the old path is tolerated
		slog.Warn("b2 move: source delete failed, duplicate left behind",
			"bucket", bucket, "path", from, "err", err)
	}
	return nil
}

func (c *backblazeContext) Delete(ctx context.Context, bucket, path string) error {
	if err := c.client.RemoveObject(ctx, bucket, path, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("delete object %q: %w", path, err)
	}
	return nil
}

func (c *backblazeContext) List(ctx context.Context, bucket, prefix string) ([]string, error) {
	var paths []string
	for obj := range c.client.ListObjects(ctx, bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("list objects %q: %w", prefix, obj.Err)
		}
		paths = append(paths, obj.Key)
	}
	return paths, nil
}

func (c *backblazeContext) SignURL(ctx context.Context, bucket, path string, ttl time.Duration) (string, error) {
	u, err := c.client.PresignedGetObject(ctx, bucket, path, ttl, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrorSigningURL, err)
	}
	return u.String(), nil
}
