package providers

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/sas"

	"unidrive/internal/common"
	"unidrive/internal/server/config"
)

// azureContext implements Context over Azure Blob Storage. Buckets map to
// containers; signed URLs are shared-key SAS tokens.
type azureContext struct {
	client *azblob.Client
}

func newAzureContext(cred config.ProviderCredential) (Context, error) {
	shared, err := azblob.NewSharedKeyCredential(cred.Identity, cred.Credential)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorInvalidCredential, err)
	}

	serviceURL := fmt.Sprintf("https://%s.blob.core.windows.net/", cred.Identity)
	client, err := azblob.NewClientWithSharedKeyCredential(serviceURL, shared, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorCreatingContext, err)
	}

	return &azureContext{client: client}, nil
}

func (c *azureContext) EnsureBucket(ctx context.Context, bucket string) error {
	_, err := c.client.CreateContainer(ctx, bucket, nil)
	if err != nil && !bloberror.HasCode(err, bloberror.ContainerAlreadyExists) {
		return fmt.Errorf("create container %q: %w", bucket, err)
	}
	return nil
}

func (c *azureContext) Upload(ctx context.Context, bucket, path string, data []byte, contentType string) error {
	_, err := c.client.UploadBuffer(ctx, bucket, path, data, &azblob.UploadBufferOptions{
		HTTPHeaders: &blob.HTTPHeaders{BlobContentType: &contentType},
	})
	if err != nil {
		return fmt.Errorf("upload blob %q: %w", path, err)
	}
	return nil
}

func (c *azureContext) Download(ctx context.Context, bucket, path string) ([]byte, error) {
	resp, err := c.client.DownloadStream(ctx, bucket, path, nil)
	if err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound) {
			return nil, fmt.Errorf("%w: %s", common.ErrorBlobNotFound, path)
		}
		return nil, fmt.Errorf("download blob %q: %w", path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read blob body %q: %w", path, err)
	}
	return data, nil
}

func (c *azureContext) Move(ctx context.Context, bucket, from, to string) error {
	container := c.client.ServiceClient().NewContainerClient(bucket)
	src := container.NewBlobClient(from)
	dst := container.NewBlobClient(to)

	if _, err := dst.CopyFromURL(ctx, src.URL(), nil); err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound) {
			return fmt.Errorf("%w: %s", common.ErrorBlobNotFound, from)
		}
		return fmt.Errorf("copy blob %q: %w", from, err)
	}

	if _, err := src.Delete(ctx, nil); err != nil {
		// the copy succeeded; a duplicate at the old path is tolerated
		slog.Warn("azure move: source delete failed, duplicate left behind",
			"container", bucket, "path", from, "err", err)
	}
	return nil
}

func (c *azureContext) Delete(ctx context.Context, bucket, path string) error {
	if _, err := c.client.DeleteBlob(ctx, bucket, path, nil); err != nil {
		return fmt.Errorf("delete blob %q: %w", path, err)
	}
	return nil
}

func (c *azureContext) List(ctx context.Context, bucket, prefix string) ([]string, error) {
	var paths []string

	pager := c.client.NewListBlobsFlatPager(bucket, &azblob.ListBlobsFlatOptions{Prefix: &prefix})
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list blobs %q: %w", prefix, err)
		}
		for _, item := range page.Segment.BlobItems {
			if item.Name != nil {
				paths = append(paths, *item.Name)
			}
		}
	}
	return paths, nil
}

func (c *azureContext) SignURL(ctx context.Context, bucket, path string, ttl time.Duration) (string, error) {
	blobClient := c.client.ServiceClient().NewContainerClient(bucket).NewBlobClient(path)

	url, err := blobClient.GetSASURL(
		sas.BlobPermissions{Read: true},
		time.Now().UTC().Add(ttl),
		nil,
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrorSigningURL, err)
	}
	return url, nil
}
