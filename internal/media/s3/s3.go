// Package s3 stores media in an S3 compatible bucket using the AWS SDK.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/wallpaperhub/wallpaper-server/internal/media"
)

// ErrIncompleteConfig is returned when a required setting is missing.
var ErrIncompleteConfig = errors.New("incomplete S3 configuration")

// Config configures the bucket connection.
type Config struct {
	Endpoint      string
	Region        string
	Bucket        string
	AccessKeyID   string
	SecretKey     string
	PublicBaseURL string
	Timeout       time.Duration
}

// Client is the subset of the S3 API the backend calls.
type Client interface {
	manager.UploadAPIClient
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Backend implements media.Backend on an S3 bucket.
type Backend struct {
	client   Client
	uploader *manager.Uploader
	bucket   string
	baseURL  string
	timeout  time.Duration
	logger   *slog.Logger
}

var _ media.Backend = (*Backend)(nil)

// New creates a path-style S3 client from static credentials.
func New(cfg Config, logger *slog.Logger) (*Backend, error) {
	if strings.TrimSpace(cfg.Endpoint) == "" ||
		strings.TrimSpace(cfg.Region) == "" ||
		strings.TrimSpace(cfg.Bucket) == "" ||
		strings.TrimSpace(cfg.AccessKeyID) == "" ||
		strings.TrimSpace(cfg.SecretKey) == "" {
		return nil, ErrIncompleteConfig
	}

	client := s3.New(s3.Options{
		UsePathStyle: true,
		BaseEndpoint: aws.String(cfg.Endpoint),
		Region:       cfg.Region,
		Credentials: aws.NewCredentialsCache(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretKey, ""),
		),
	})

	baseURL := cfg.PublicBaseURL
	if baseURL == "" {
		baseURL = strings.TrimRight(cfg.Endpoint, "/") + "/" + cfg.Bucket
	}
	return NewWithClient(client, cfg.Bucket, baseURL, cfg.Timeout, logger), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client Client, bucket, baseURL string, timeout time.Duration, logger *slog.Logger) *Backend {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Backend{
		client:   client,
		uploader: manager.NewUploader(client),
		bucket:   bucket,
		baseURL:  baseURL,
		timeout:  timeout,
		logger:   logger,
	}
}

// Upload puts data at folder/name.
func (b *Backend) Upload(ctx context.Context, folder, name string, data []byte, contentType string) (media.Asset, error) {
	key := media.ObjectKey(folder, name)

	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	_, err := b.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(b.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		var mu manager.MultiUploadFailure
		if errors.As(err, &mu) {
			return media.Asset{}, fmt.Errorf("multi-upload failure (upload_id: %s): %w", mu.UploadID(), mu)
		}
		return media.Asset{}, fmt.Errorf("upload %s: %w", key, err)
	}

	b.logger.Debug("uploaded object", "bucket", b.bucket, "key", key, "size", len(data))
	return media.Asset{ID: key, URL: media.PublicURL(b.baseURL, key)}, nil
}

// Delete removes assetID. S3 deletes are idempotent, so existence is
// checked first to report media.ErrNotFound.
func (b *Backend) Delete(ctx context.Context, assetID string) error {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	_, err := b.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(assetID),
	})
	if err != nil {
		if isNotFound(err) {
			return media.ErrNotFound
		}
		return fmt.Errorf("head %s: %w", assetID, err)
	}

	if _, err := b.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(assetID),
	}); err != nil {
		return fmt.Errorf("delete %s: %w", assetID, err)
	}
	return nil
}

func isNotFound(err error) bool {
	var notFound *types.NotFound
	if errors.As(err, &notFound) {
		return true
	}
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchKey":
			return true
		}
	}
	return false
}
