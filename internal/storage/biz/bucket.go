package biz

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/lk2023060901/dealer-backend/internal/pkg/logger"
)

// BucketAdmin prepares the bucket and manages its lifecycle rules.
type BucketAdmin struct {
	store          ObjectStore
	bucket         string
	publicPrefixes []string
	logger         *logger.Logger
}

func NewBucketAdmin(store ObjectStore, bucket string, publicPrefixes []string, log *logger.Logger) *BucketAdmin {
	return &BucketAdmin{
		store:          store,
		bucket:         bucket,
		publicPrefixes: publicPrefixes,
		logger:         log.Named("bucket"),
	}
}

// EnsureBucket creates the bucket when missing and applies the read policy.
func (a *BucketAdmin) EnsureBucket(ctx context.Context) error {
	if err := a.store.EnsureBucket(ctx); err != nil {
		return fmt.Errorf("failed to ensure bucket %s: %w", a.bucket, err)
	}
	if len(a.publicPrefixes) == 0 {
		return nil
	}

	policy, err := PublicReadPolicy(a.bucket, a.publicPrefixes)
	if err != nil {
		return err
	}
	if err := a.store.SetBucketPolicy(ctx, policy); err != nil {
		return fmt.Errorf("failed to set bucket policy: %w", err)
	}
	a.logger.Info("bucket ready", zap.String("bucket", a.bucket), zap.Strings("public_prefixes", a.publicPrefixes))
	return nil
}

// PublicReadPolicy grants anonymous GetObject under each prefix.
func PublicReadPolicy(bucket string, prefixes []string) (string, error) {
	type statement struct {
		Effect    string              `json:"Effect"`
		Principal map[string][]string `json:"Principal"`
		Action    []string            `json:"Action"`
		Resource  []string            `json:"Resource"`
	}
	resources := make([]string, 0, len(prefixes))
	for _, p := range prefixes {
		resources = append(resources, fmt.Sprintf("arn:aws:s3:::%s/%s*", bucket, strings.TrimPrefix(p, "/")))
	}
	doc := struct {
		Version   string      `json:"Version"`
		Statement []statement `json:"Statement"`
	}{
		Version: "2012-10-17",
		Statement: []statement{{
			Effect:    "Allow",
			Principal: map[string][]string{"AWS": {"*"}},
			Action:    []string{"s3:GetObject"},
			Resource:  resources,
		}},
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("failed to encode bucket policy: %w", err)
	}
	return string(b), nil
}

func (a *BucketAdmin) GetLifecycle(ctx context.Context) ([]LifecycleRule, error) {
	return a.store.GetLifecycle(ctx)
}

// SetLifecycle replaces every lifecycle rule of the bucket.
func (a *BucketAdmin) SetLifecycle(ctx context.Context, rules []LifecycleRule) error {
	seen := make(map[string]bool, len(rules))
	for _, r := range rules {
		if r.ID == "" {
			return fmt.Errorf("%w: id is required", ErrInvalidLifecycleRule)
		}
		if seen[r.ID] {
			return fmt.Errorf("%w: duplicate id %q", ErrInvalidLifecycleRule, r.ID)
		}
		seen[r.ID] = true
		if r.ExpirationDays <= 0 {
			return fmt.Errorf("%w: %q expiration days must be positive", ErrInvalidLifecycleRule, r.ID)
		}
	}
	if err := a.store.SetLifecycle(ctx, rules); err != nil {
		return err
	}
	a.logger.WithContext(ctx).Info("lifecycle rules updated", zap.Int("rules", len(rules)))
	return nil
}

// StatObject returns ErrObjectNotFound or ErrStoreUnavailable when the object cannot be described.
func (a *BucketAdmin) StatObject(ctx context.Context, key string) (*ObjectInfo, error) {
	if key == "" {
		return nil, ErrObjectNotFound
	}
	return a.store.Stat(ctx, key)
}
