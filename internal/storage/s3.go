// Package storage uploads generated SEO cover images to an S3-compatible bucket.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/toolsdir/api/internal/config"
)

// ObjectAPI is the subset of the S3 client used here.
type ObjectAPI interface {
	HeadBucket(ctx context.Context, in *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	CreateBucket(ctx context.Context, in *s3.CreateBucketInput, optFns ...func(*s3.Options)) (*s3.CreateBucketOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// CoverStore writes SVG covers under covers/<slug>.svg.
type CoverStore struct {
	client    ObjectAPI
	bucket    string
	publicURL string
}

// NewCoverStore builds an S3-compatible client for cfg. It returns nil, nil
// when no bucket is configured.
func NewCoverStore(cfg config.StorageConfig) (*CoverStore, error) {
	if cfg.Bucket == "" {
		return nil, nil
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	awsCfg := aws.Config{Region: region}
	if cfg.AccessKey != "" {
		awsCfg.Credentials = aws.NewCredentialsCache(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""))
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	publicURL := cfg.PublicURL
	if publicURL == "" {
		publicURL = defaultPublicURL(cfg.Endpoint, cfg.Bucket, region)
	}
	return NewCoverStoreWithClient(client, cfg.Bucket, publicURL), nil
}

// NewCoverStoreWithClient wraps an existing client.
func NewCoverStoreWithClient(client ObjectAPI, bucket, publicURL string) *CoverStore {
	return &CoverStore{client: client, bucket: bucket, publicURL: strings.TrimRight(publicURL, "/")}
}

func defaultPublicURL(endpoint, bucket, region string) string {
	if endpoint != "" {
		return strings.TrimRight(endpoint, "/") + "/" + bucket
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", bucket, region)
}

// EnsureBucket creates the bucket if it does not exist.
func (c *CoverStore) EnsureBucket(ctx context.Context) error {
	if c == nil {
		return nil
	}
	_, err := c.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(c.bucket)})
	if err == nil {
		return nil
	}
	_, createErr := c.client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(c.bucket)})
	if createErr != nil {
		var apiErr smithy.APIError
		if errors.As(createErr, &apiErr) {
			switch apiErr.ErrorCode() {
			case "BucketAlreadyOwnedByYou", "BucketAlreadyExists":
				return nil
			}
		}
		return createErr
	}
	return nil
}

// KeyForCover returns the object key of a page cover.
func KeyForCover(slug string) string {
	return path.Join("covers", slug+".svg")
}

// PutCover uploads svg for slug and returns its public URL.
func (c *CoverStore) PutCover(ctx context.Context, slug string, svg []byte) (string, error) {
	if c == nil {
		return "", errors.New("cover storage not configured")
	}
	key := KeyForCover(slug)
	_, err := c.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(c.bucket),
		Key:          aws.String(key),
		Body:         bytes.NewReader(svg),
		ContentType:  aws.String("image/svg+xml"),
		CacheControl: aws.String("public, max-age=86400"),
	})
	if err != nil {
		return "", fmt.Errorf("put %s: %w", key, err)
	}
	return c.publicURL + "/" + (&url.URL{Path: key}).EscapedPath(), nil
}
