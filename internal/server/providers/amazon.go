package providers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"unidrive/internal/common"
	"unidrive/internal/server/config"
)

// seams for tests
var (
	loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}
)

// amazonContext implements Context over the AWS SDK v2 S3 client.
type amazonContext struct {
	client *s3.Client
	region string
}

func newAmazonContext(ctx context.Context, cred config.ProviderCredential) (Context, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		awsconfig.WithRegion(cred.Location),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cred.Identity,
			cred.Credential,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorCreatingContext, err)
	}

	return &amazonContext{client: newS3ClientFromConfig(cfg), region: cred.Location}, nil
}

func (c *amazonContext) EnsureBucket(ctx context.Context, bucket string) error {
	_, err := c.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(bucket)})
	if err == nil {
		return nil
	}

	input := &s3.CreateBucketInput{Bucket: aws.String(bucket)}
	// us-east-1 must not carry a location constraint
	if c.region != "" && c.region != "us-east-1" {
		input.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(c.region),
		}
	}

	if _, err := c.client.CreateBucket(ctx, input); err != nil {
		var owned *types.BucketAlreadyOwnedByYou
		if errors.As(err, &owned) {
			return nil
		}
		return fmt.Errorf("create bucket %q: %w", bucket, err)
	}
	return nil
}

func (c *amazonContext) Upload(ctx context.Context, bucket, path string, data []byte, contentType string) error {
	_, err := c.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(path),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("put object %q: %w", path, err)
	}
	return nil
}

func (c *amazonContext) Download(ctx context.Context, bucket, path string) ([]byte, error) {
	out, err := c.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(path),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, fmt.Errorf("%w: %s", common.ErrorBlobNotFound, path)
		}
		return nil, fmt.Errorf("get object %q: %w", path, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read object body %q: %w", path, err)
	}
	return data, nil
}

func (c *amazonContext) Move(ctx context.Context, bucket, from, to string) error {
	_, err := c.client.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:     aws.String(bucket),
		CopySource: aws.String(bucket + "/" + from),
		Key:        aws.String(to),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return fmt.Errorf("%w: %s", common.ErrorBlobNotFound, from)
		}
		return fmt.Errorf("copy object %q: %w", from, err)
	}

	if _, err := c.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(from),
	}); err != nil {
		// the copy succeeded; a duplicate at the old path is tolerated
		slog.Warn("s3 move: source delete failed, duplicate left behind",
			"bucket", bucket, "path", from, "err", err)
	}
	return nil
}

func (c *amazonContext) Delete(ctx context.Context, bucket, path string) error {
	_, err := c.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(path),
	})
	if err != nil {
		return fmt.Errorf("delete object %q: %w", path, err)
	}
	return nil
}

func (c *amazonContext) List(ctx context.Context, bucket, prefix string) ([]string, error) {
	var paths []string

	paginator := s3.NewListObjectsV2Paginator(c.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list objects %q: %w", prefix, err)
		}
		for _, obj := range page.Contents {
			paths = append(paths, aws.ToString(obj.Key))
		}
	}
	return paths, nil
}

func (c *amazonContext) SignURL(ctx context.Context, bucket, path string, ttl time.Duration) (string, error) {
	presignClient := newS3PresignClient(c.client)

	req, err := presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(path),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrorSigningURL, err)
	}
	return req.URL, nil
}
