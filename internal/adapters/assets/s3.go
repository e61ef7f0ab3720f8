package assets

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gabriel-vasile/mimetype"

	"celltracker/internal/metrics"
)

// S3Config configures an S3-compatible bucket (AWS S3, MinIO, RustFS).
type S3Config struct {
	Endpoint     string
	Region       string
	Bucket       string
	AccessKey    string
	SecretKey    string
	Prefix       string // key prefix, e.g. "profile_pictures/"
	PublicURL    string // base URL the bucket is readable from
	UsePathStyle bool
}

// objectAPI is the subset of *s3.Client used here.
type objectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Store keeps pictures in a bucket.
type S3Store struct {
	client    objectAPI
	bucket    string
	prefix    string
	publicURL string
}

// NewS3Store builds an S3 client from static credentials.
// PRE: cfg.Bucket, cfg.AccessKey, cfg.SecretKey and cfg.PublicURL are set
// POST: Returns a ready store; no network call is made
func NewS3Store(ctx context.Context, cfg S3Config) (*S3Store, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("storage bucket is required")
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, errors.New("storage access key and secret key are required")
	}
	if cfg.PublicURL == "" {
		return nil, errors.New("storage public url is required")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return newS3Store(client, cfg), nil
}

func newS3Store(client objectAPI, cfg S3Config) *S3Store {
	return &S3Store{
		client:    client,
		bucket:    cfg.Bucket,
		prefix:    cfg.Prefix,
		publicURL: strings.TrimSuffix(cfg.PublicURL, "/"),
	}
}

func (s *S3Store) key(filename string) string {
	return s.prefix + filename
}

// Save uploads data with a sniffed content type.
func (s *S3Store) Save(ctx context.Context, filename string, data []byte) (err error) {
	defer func() { metrics.RecordAssetOperation(s.Backend(), "save", err) }()
	if err = checkName(filename); err != nil {
		return err
	}
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key(filename)),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(mimetype.Detect(data).String()),
	})
	if err != nil {
		return fmt.Errorf("put object %s: %w", s.key(filename), err)
	}
	return nil
}

// Delete removes the object. S3 treats a missing key as success.
func (s *S3Store) Delete(ctx context.Context, filename string) (err error) {
	defer func() { metrics.RecordAssetOperation(s.Backend(), "delete", err) }()
	if err = checkName(filename); err != nil {
		return err
	}
	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(filename)),
	})
	if err != nil {
		return fmt.Errorf("delete object %s: %w", s.key(filename), err)
	}
	return nil
}

// URL returns the public object URL.
func (s *S3Store) URL(filename string) string {
	return s.publicURL + "/" + s.key(filename)
}

// Backend names the store for logs and metrics.
func (s *S3Store) Backend() string {
	return "s3"
}
