package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// S3Options locates the bucket that holds the story document and the
// analytics exports. Static keys are optional; without them the default
// AWS credential chain applies.
type S3Options struct {
	Bucket          string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
}

// S3Service reads the story from and writes analytics exports to one bucket.
type S3Service struct {
	client *s3.Client
	bucket string
}

func NewS3Service(ctx context.Context, o S3Options) (*S3Service, error) {
	if o.Bucket == "" {
		return nil, errors.New("s3: bucket is required")
	}
	loaders := []func(*config.LoadOptions) error{config.WithRegion(o.Region)}
	if o.AccessKeyID != "" && o.SecretAccessKey != "" {
		static := credentials.NewStaticCredentialsProvider(o.AccessKeyID, o.SecretAccessKey, "")
		loaders = append(loaders, config.WithCredentialsProvider(static))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loaders...)
	if err != nil {
		return nil, fmt.Errorf("s3: load aws config: %w", err)
	}
	return &S3Service{client: s3.NewFromConfig(awsCfg), bucket: o.Bucket}, nil
}

// Upload stores body under prefix with a random name that keeps the
// extension of filename. Returns the object key.
func (s *S3Service) Upload(ctx context.Context, prefix, filename string, body io.Reader, contentType string) (string, error) {
	key := prefix + uuid.New().String() + filepath.Ext(filename)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", err
	}
	return key, nil
}

// GetObject returns the object body. Caller must close it.
func (s *S3Service) GetObject(ctx context.Context, key string) (io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, err
	}
	return out.Body, nil
}

// PresignedGetURL returns a temporary download URL. A non-empty filename is
// sent back as the attachment name.
func (s *S3Service) PresignedGetURL(ctx context.Context, key string, expiry time.Duration, filename string) (string, error) {
	input := &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}
	if filename != "" {
		safe := strings.ReplaceAll(filename, "\\", "\\\\")
		safe = strings.ReplaceAll(safe, "\"", "\\\"")
		input.ResponseContentDisposition = aws.String(`attachment; filename="` + safe + `"`)
	}
	req, err := s3.NewPresignClient(s.client).PresignGetObject(ctx, input, func(opts *s3.PresignOptions) {
		opts.Expires = expiry
	})
	if err != nil {
		return "", err
	}
	return req.URL, nil
}
