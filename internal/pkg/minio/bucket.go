package minio

import (
	"context"
	"time"

	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

// ObjectInfo is the subset of object metadata the storage layer uses
type ObjectInfo struct {
	Key          string
	Size         int64
	ETag         string
	ContentType  string
	LastModified time.Time
}

// MakeBucket creates a bucket in region (empty uses the client region)
func (c *Client) MakeBucket(ctx context.Context, bucketName, region string) error {
	if err := c.checkClosed(); err != nil {
		return err
	}
	if bucketName == "" {
		return WrapError("MakeBucket", ErrInvalidBucketName, bucketName, "")
	}
	if region == "" {
		region = c.config.Region
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	if err := c.client.MakeBucket(ctx, bucketName, minio.MakeBucketOptions{Region: region}); err != nil {
		return WrapError("MakeBucket", err, bucketName, "")
	}

	c.logger.Info("bucket created", zap.String("bucket", bucketName), zap.String("region", region))
	return nil
}

// BucketExists checks if a bucket exists
func (c *Client) BucketExists(ctx context.Context, bucketName string) (bool, error) {
	if err := c.checkClosed(); err != nil {
		return false, err
	}
	if bucketName == "" {
		return false, WrapError("BucketExists", ErrInvalidBucketName, bucketName, "")
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	exists, err := c.client.BucketExists(ctx, bucketName)
	if err != nil {
		return false, WrapError("BucketExists", err, bucketName, "")
	}
	return exists, nil
}

// ListObjects streams every object under prefix. The object channel is
// unbuffered; the error channel receives at most one error and both close when
// listing ends. Cancel ctx to stop early.
func (c *Client) ListObjects(ctx context.Context, bucketName, prefix string) (<-chan ObjectInfo, <-chan error) {
	objCh := make(chan ObjectInfo)
	errCh := make(chan error, 1)

	go func() {
		defer close(objCh)
		defer close(errCh)

		if err := c.checkClosed(); err != nil {
			errCh <- err
			return
		}
		if bucketName == "" {
			errCh <- WrapError("ListObjects", ErrInvalidBucketName, bucketName, "")
			return
		}

		opts := minio.ListObjectsOptions{Prefix: prefix, Recursive: true}
		for object := range c.client.ListObjects(ctx, bucketName, opts) {
			if object.Err != nil {
				errCh <- WrapError("ListObjects", object.Err, bucketName, "")
				return
			}
			if object.Key == "" || object.Key[len(object.Key)-1] == '/' {
				continue
			}

			select {
			case objCh <- ObjectInfo{
				Key:          object.Key,
				Size:         object.Size,
				ETag:         object.ETag,
				ContentType:  object.ContentType,
				LastModified: object.LastModified,
			}:
			case <-ctx.Done():
				errCh <- ctx.Err()
				return
			}
		}
	}()

	return objCh, errCh
}
