package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Config holds the configuration for an S3-backed Mirror.
type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string // optional, for S3-compatible endpoints
	AccessKeyID     string // optional static credentials
	SecretAccessKey string
}

// Enabled reports whether cfg carries enough information to build a
// working S3Mirror.
func (cfg S3Config) Enabled() bool {
	return cfg.Bucket != "" && cfg.Region != ""
}

// S3Mirror uploads job deliverables to an S3 bucket.
type S3Mirror struct {
	client *s3.Client
	bucket string
	region string
}

// NewS3Mirror builds an S3Mirror from cfg.
func NewS3Mirror(ctx context.Context, cfg S3Config) (*S3Mirror, error) {
	var configOpts []func(*config.LoadOptions) error
	configOpts = append(configOpts, config.WithRegion(cfg.Region))

	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		configOpts = append(configOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, configOpts...)
	if err != nil {
		return nil, fmt.Errorf("storage: load aws config: %w", err)
	}

	var clientOpts []func(*s3.Options)
	if cfg.Endpoint != "" {
		clientOpts = append(clientOpts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	}

	return &S3Mirror{
		client: s3.NewFromConfig(awsCfg, clientOpts...),
		bucket: cfg.Bucket,
		region: cfg.Region,
	}, nil
}

// Enabled always reports true for a constructed S3Mirror.
func (m *S3Mirror) Enabled() bool { return true }

// Upload puts data at key in the configured bucket and returns its
// virtual-hosted-style URL.
func (m *S3Mirror) Upload(ctx context.Context, key string, data io.Reader) (string, error) {
	_, err := m.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(m.bucket),
		Key:    aws.String(key),
		Body:   data,
	})
	if err != nil {
		return "", fmt.Errorf("storage: upload %s: %w", key, err)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", m.bucket, m.region, key), nil
}

var _ Mirror = (*S3Mirror)(nil)
