package data

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"go.uber.org/zap"

	"github.com/lk2023060901/dealer-backend/internal/pkg/logger"
	"github.com/lk2023060901/dealer-backend/internal/storage/biz"
)

const defaultS3Region = "us-east-1"

// S3Options configures the AWS SDK backed store.
type S3Options struct {
	Bucket string
	Region string
	// Endpoint is a full URL such as http://localhost:9000. Empty uses AWS.
	Endpoint string
	// AccessKey and SecretKey fall back to the default credential chain when empty.
	AccessKey    string
	SecretKey    string
	SessionToken string
	UsePathStyle bool
}

// S3Store implements biz.ObjectStore with aws-sdk-go-v2. It talks to AWS S3
// or any compatible endpoint.
type S3Store struct {
	client *s3.Client
	bucket string
	region string
	logger *logger.Logger
}

func NewS3Store(ctx context.Context, opts S3Options, log *logger.Logger) (*S3Store, error) {
	if opts.Bucket == "" {
		return nil, errors.New("s3: bucket name is required")
	}
	region := opts.Region
	if region == "" {
		region = defaultS3Region
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if opts.AccessKey != "" && opts.SecretKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, opts.SessionToken),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("s3: failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.DisableLogOutputChecksumValidationSkipped = true
		o.UsePathStyle = opts.UsePathStyle
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
	})

	return &S3Store{client: client, bucket: opts.Bucket, region: region, logger: log.Named("s3-store")}, nil
}

var _ biz.ObjectStore = (*S3Store)(nil)

func (s *S3Store) Put(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("%w: put %s: %v", biz.ErrStoreWrite, key, err)
	}
	return nil
}

// Delete succeeds for absent keys; S3 answers 204 for them.
func (s *S3Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil && s3ErrorCode(err) != "NoSuchKey" {
		return fmt.Errorf("%w: delete %s: %v", biz.ErrStoreWrite, key, err)
	}
	return nil
}

func (s *S3Store) ListAll(ctx context.Context) (<-chan biz.ObjectEntry, <-chan error) {
	out := make(chan biz.ObjectEntry)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
			Bucket: aws.String(s.bucket),
		})
		for paginator.HasMorePages() {
			page, err := paginator.NextPage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					errCh <- ctx.Err()
					return
				}
				s.logger.Warn("object listing failed", zap.String("bucket", s.bucket), zap.Error(err))
				errCh <- fmt.Errorf("%w: %v", biz.ErrStoreUnavailable, err)
				return
			}
			for _, obj := range page.Contents {
				entry := biz.ObjectEntry{Key: aws.ToString(obj.Key), Size: aws.ToInt64(obj.Size)}
				select {
				case out <- entry:
				case <-ctx.Done():
					errCh <- ctx.Err()
					return
				}
			}
		}
	}()

	return out, errCh
}

// Stat cannot tell a missing bucket from a missing key: HEAD responses carry no error body.
func (s *S3Store) Stat(ctx context.Context, key string) (*biz.ObjectInfo, error) {
	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isS3NotFound(err) {
			return nil, biz.ErrObjectNotFound
		}
		return nil, fmt.Errorf("%w: %v", biz.ErrStoreUnavailable, err)
	}
	return &biz.ObjectInfo{
		Key:          key,
		Size:         aws.ToInt64(out.ContentLength),
		ContentType:  aws.ToString(out.ContentType),
		ETag:         aws.ToString(out.ETag),
		LastModified: aws.ToTime(out.LastModified),
	}, nil
}

func (s *S3Store) EnsureBucket(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	if err == nil {
		return nil
	}
	if !isS3NotFound(err) {
		return fmt.Errorf("%w: %v", biz.ErrStoreUnavailable, err)
	}

	input := &s3.CreateBucketInput{Bucket: aws.String(s.bucket)}
	if s.region != defaultS3Region {
		input.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(s.region),
		}
	}
	if _, err := s.client.CreateBucket(ctx, input); err != nil {
		return fmt.Errorf("%w: create bucket %s: %v", biz.ErrStoreWrite, s.bucket, err)
	}
	s.logger.Info("bucket created", zap.String("bucket", s.bucket))
	return nil
}

// SetBucketPolicy with an empty policy removes the current one.
func (s *S3Store) SetBucketPolicy(ctx context.Context, policy string) error {
	var err error
	if policy == "" {
		_, err = s.client.DeleteBucketPolicy(ctx, &s3.DeleteBucketPolicyInput{Bucket: aws.String(s.bucket)})
	} else {
		_, err = s.client.PutBucketPolicy(ctx, &s3.PutBucketPolicyInput{
			Bucket: aws.String(s.bucket),
			Policy: aws.String(policy),
		})
	}
	if err != nil {
		return fmt.Errorf("%w: set policy: %v", biz.ErrStoreWrite, err)
	}
	return nil
}

func (s *S3Store) GetLifecycle(ctx context.Context) ([]biz.LifecycleRule, error) {
	out, err := s.client.GetBucketLifecycleConfiguration(ctx, &s3.GetBucketLifecycleConfigurationInput{
		Bucket: aws.String(s.bucket),
	})
	if err != nil {
		if s3ErrorCode(err) == "NoSuchLifecycleConfiguration" {
			return []biz.LifecycleRule{}, nil
		}
		return nil, fmt.Errorf("%w: %v", biz.ErrStoreUnavailable, err)
	}

	rules := make([]biz.LifecycleRule, 0, len(out.Rules))
	for _, r := range out.Rules {
		rule := biz.LifecycleRule{
			ID:      aws.ToString(r.ID),
			Enabled: r.Status == types.ExpirationStatusEnabled,
		}
		if r.Filter != nil {
			rule.Prefix = aws.ToString(r.Filter.Prefix)
		}
		if rule.Prefix == "" {
			rule.Prefix = aws.ToString(r.Prefix)
		}
		if r.Expiration != nil {
			rule.ExpirationDays = int(aws.ToInt32(r.Expiration.Days))
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

// SetLifecycle replaces the configuration. An empty rule set deletes it.
func (s *S3Store) SetLifecycle(ctx context.Context, rules []biz.LifecycleRule) error {
	if len(rules) == 0 {
		if _, err := s.client.DeleteBucketLifecycle(ctx, &s3.DeleteBucketLifecycleInput{Bucket: aws.String(s.bucket)}); err != nil {
			return fmt.Errorf("%w: delete lifecycle: %v", biz.ErrStoreWrite, err)
		}
		return nil
	}

	in := make([]types.LifecycleRule, 0, len(rules))
	for _, r := range rules {
		status := types.ExpirationStatusDisabled
		if r.Enabled {
			status = types.ExpirationStatusEnabled
		}
		in = append(in, types.LifecycleRule{
			ID:         aws.String(r.ID),
			Status:     status,
			Filter:     &types.LifecycleRuleFilter{Prefix: aws.String(r.Prefix)},
			Expiration: &types.LifecycleExpiration{Days: aws.Int32(int32(r.ExpirationDays))},
		})
	}
	_, err := s.client.PutBucketLifecycleConfiguration(ctx, &s3.PutBucketLifecycleConfigurationInput{
		Bucket:                 aws.String(s.bucket),
		LifecycleConfiguration: &types.BucketLifecycleConfiguration{Rules: in},
	})
	if err != nil {
		return fmt.Errorf("%w: set lifecycle: %v", biz.ErrStoreWrite, err)
	}
	s.logger.Info("bucket lifecycle updated", zap.String("bucket", s.bucket), zap.Int("rules", len(rules)))
	return nil
}

func isS3NotFound(err error) bool {
	var respErr *awshttp.ResponseError
	if errors.As(err, &respErr) && respErr.HTTPStatusCode() == http.StatusNotFound {
		return true
	}
	switch s3ErrorCode(err) {
	case "NotFound", "NoSuchKey", "NoSuchBucket":
		return true
	}
	return false
}

func s3ErrorCode(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode()
	}
	return ""
}
