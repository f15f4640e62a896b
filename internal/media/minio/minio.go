// Package minio stores media in a MinIO bucket.
package minio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/wallpaperhub/wallpaper-server/internal/media"
)

// Client is the subset of minio.Client the backend calls.
type Client interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	StatObject(ctx context.Context, bucketName, objectName string, opts minio.StatObjectOptions) (minio.ObjectInfo, error)
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
}

// Config configures the MinIO connection. Endpoint is host[:port] without scheme.
type Config struct {
	Endpoint      string
	AccessKeyID   string
	SecretKey     string
	Bucket        string
	UseSSL        bool
	PublicBaseURL string
	Timeout       time.Duration
}

// Backend implements media.Backend on MinIO.
type Backend struct {
	client  Client
	bucket  string
	baseURL string
	timeout time.Duration
	logger  *slog.Logger
}

var _ media.Backend = (*Backend)(nil)

// New connects to MinIO with static V4 credentials.
func New(cfg Config, logger *slog.Logger) (*Backend, error) {
	endpoint := strings.TrimPrefix(strings.TrimPrefix(cfg.Endpoint, "https://"), "http://")

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	baseURL := cfg.PublicBaseURL
	if baseURL == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		baseURL = scheme + "://" + endpoint + "/" + cfg.Bucket
	}
	return NewWithClient(client, cfg.Bucket, baseURL, cfg.Timeout, logger), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client Client, bucket, baseURL string, timeout time.Duration, logger *slog.Logger) *Backend {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Backend{
		client:  client,
		bucket:  bucket,
		baseURL: baseURL,
		timeout: timeout,
		logger:  logger,
	}
}

// Upload puts data at folder/name.
func (b *Backend) Upload(ctx context.Context, folder, name string, data []byte, contentType string) (media.Asset, error) {
	key := media.ObjectKey(folder, name)

	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	info, err := b.client.PutObject(ctx, b.bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return media.Asset{}, fmt.Errorf("upload %s: %w", key, err)
	}

	b.logger.Debug("uploaded object", "bucket", b.bucket, "key", key, "etag", info.ETag)
	return media.Asset{ID: key, URL: media.PublicURL(b.baseURL, key)}, nil
}

// Delete removes assetID, reporting media.ErrNotFound for missing objects.
func (b *Backend) Delete(ctx context.Context, assetID string) error {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	if _, err := b.client.StatObject(ctx, b.bucket, assetID, minio.StatObjectOptions{}); err != nil {
		if isNotFound(err) {
			return media.ErrNotFound
		}
		return fmt.Errorf("stat %s: %w", assetID, err)
	}

	if err := b.client.RemoveObject(ctx, b.bucket, assetID, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove %s: %w", assetID, err)
	}
	return nil
}

func isNotFound(err error) bool {
	resp := minio.ToErrorResponse(err)
	return resp.Code == "NoSuchKey" || resp.StatusCode == http.StatusNotFound
}
