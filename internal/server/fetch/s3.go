package fetch

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ObjectGetter is the part of *s3.Client used by S3Fetcher.
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Options configures the S3 client. BaseEndpoint points at MinIO or
// another S3-compatible store; empty means AWS.
type S3Options struct {
	Region       string
	AccessKey    string
	SecretKey    string
	BaseEndpoint string
}

// S3Fetcher reads s3://bucket/key URLs.
type S3Fetcher struct {
	client ObjectGetter
}

func NewS3Fetcher(client ObjectGetter) *S3Fetcher {
	return &S3Fetcher{client: client}
}

// loadDefaultConfig is a seam for testing config.LoadDefaultConfig.
var loadDefaultConfig = config.LoadDefaultConfig

// NewS3Client builds the S3 client once at start-up.
func NewS3Client(ctx context.Context, opts S3Options) (*s3.Client, error) {
	cfgOpts := []func(*config.LoadOptions) error{
		config.WithRegion(opts.Region),
	}
	if opts.AccessKey != "" {
		cfgOpts = append(cfgOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, ""),
		))
	}

	cfg, err := loadDefaultConfig(ctx, cfgOpts...)
	if err != nil {
		return nil, fmt.Errorf("s3 config: %w", err)
	}

	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(opts.BaseEndpoint)
			o.UsePathStyle = true
		}
	}), nil
}

// ParseS3URL splits s3://bucket/key into its parts.
func ParseS3URL(rawURL string) (bucket, key string, err error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if u.Scheme != "s3" {
		return "", "", fmt.Errorf("%w: %s", ErrUnsupportedScheme, u.Scheme)
	}
	key = strings.TrimPrefix(u.Path, "/")
	if u.Host == "" || key == "" {
		return "", "", fmt.Errorf("%w: %s", ErrInvalidURL, rawURL)
	}
	return u.Host, key, nil
}

func (f *S3Fetcher) Fetch(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	bucket, key, err := ParseS3URL(rawURL)
	if err != nil {
		return nil, err
	}

	out, err := f.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("s3 get %s/%s: %w", bucket, key, err)
	}

	return out.Body, nil
}
