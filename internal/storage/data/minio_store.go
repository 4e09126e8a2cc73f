package data

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/lk2023060901/dealer-backend/internal/pkg/logger"
	"github.com/lk2023060901/dealer-backend/internal/pkg/minio"
	"github.com/lk2023060901/dealer-backend/internal/storage/biz"
)

// MinIOStore implements biz.ObjectStore for one bucket over the minio wrapper.
type MinIOStore struct {
	client *minio.Client
	bucket string
	region string
	logger *logger.Logger
}

func NewMinIOStore(client *minio.Client, bucket, region string, log *logger.Logger) *MinIOStore {
	return &MinIOStore{client: client, bucket: bucket, region: region, logger: log.Named("minio-store")}
}

var _ biz.ObjectStore = (*MinIOStore)(nil)

func (s *MinIOStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	if err := s.client.PutObject(ctx, s.bucket, key, data, contentType); err != nil {
		return fmt.Errorf("%w: put %s: %v", biz.ErrStoreWrite, key, err)
	}
	return nil
}

func (s *MinIOStore) Delete(ctx context.Context, key string) error {
	err := s.client.RemoveObject(ctx, s.bucket, key)
	if err != nil && !minio.IsObjectNotFound(err) {
		return fmt.Errorf("%w: delete %s: %v", biz.ErrStoreWrite, key, err)
	}
	return nil
}

func (s *MinIOStore) ListAll(ctx context.Context) (<-chan biz.ObjectEntry, <-chan error) {
	out := make(chan biz.ObjectEntry)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		objects, listErr := s.client.ListObjects(ctx, s.bucket, "")
		for obj := range objects {
			select {
			case out <- biz.ObjectEntry{Key: obj.Key, Size: obj.Size}:
			case <-ctx.Done():
				// drain so the producer goroutine can exit
				for range objects {
				}
				errCh <- ctx.Err()
				return
			}
		}
		if err := <-listErr; err != nil {
			s.logger.Warn("object listing failed", zap.String("bucket", s.bucket), zap.Error(err))
			errCh <- fmt.Errorf("%w: %v", biz.ErrStoreUnavailable, err)
		}
	}()

	return out, errCh
}

func (s *MinIOStore) Stat(ctx context.Context, key string) (*biz.ObjectInfo, error) {
	info, err := s.client.StatObject(ctx, s.bucket, key)
	if err != nil {
		if minio.IsObjectNotFound(err) {
			return nil, biz.ErrObjectNotFound
		}
		return nil, fmt.Errorf("%w: %v", biz.ErrStoreUnavailable, err)
	}
	return &biz.ObjectInfo{
		Key:          info.Key,
		Size:         info.Size,
		ContentType:  info.ContentType,
		ETag:         info.ETag,
		LastModified: info.LastModified,
	}, nil
}

func (s *MinIOStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("%w: %v", biz.ErrStoreUnavailable, err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, s.region); err != nil {
		return fmt.Errorf("%w: create bucket %s: %v", biz.ErrStoreWrite, s.bucket, err)
	}
	s.logger.Info("bucket created", zap.String("bucket", s.bucket))
	return nil
}

func (s *MinIOStore) SetBucketPolicy(ctx context.Context, policy string) error {
	if err := s.client.SetBucketPolicy(ctx, s.bucket, policy); err != nil {
		return fmt.Errorf("%w: set policy: %v", biz.ErrStoreWrite, err)
	}
	return nil
}

func (s *MinIOStore) GetLifecycle(ctx context.Context) ([]biz.LifecycleRule, error) {
	rules, err := s.client.GetBucketLifecycle(ctx, s.bucket)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", biz.ErrStoreUnavailable, err)
	}
	out := make([]biz.LifecycleRule, 0, len(rules))
	for _, r := range rules {
		out = append(out, biz.LifecycleRule(r))
	}
	return out, nil
}

func (s *MinIOStore) SetLifecycle(ctx context.Context, rules []biz.LifecycleRule) error {
	in := make([]minio.LifecycleRule, 0, len(rules))
	for _, r := range rules {
		in = append(in, minio.LifecycleRule(r))
	}
	if err := s.client.SetBucketLifecycle(ctx, s.bucket, in); err != nil {
		return fmt.Errorf("%w: set lifecycle: %v", biz.ErrStoreWrite, err)
	}
	return nil
}
