package objectstore

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/makkenzo/alttext-service-api/internal/config"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

var ErrEmptyKey = errors.New("empty object key")

// Resolver turns object keys from the images bucket into URLs the captioning
// backend can fetch.
type Resolver struct {
	client        *minio.Client
	bucket        string
	expiry        time.Duration
	publicBaseURL string
	logger        *zap.Logger
}

func NewResolver(cfg config.StorageConfig, logger *zap.Logger) (*Resolver, error) {
	r := &Resolver{
		bucket:        cfg.Bucket,
		expiry:        cfg.PresignExpiry,
		publicBaseURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
		logger:        logger.Named("ObjectResolver"),
	}

	if r.publicBaseURL != "" {
		return r, nil
	}
	if cfg.Endpoint == "" {
		return nil, errors.New("storage endpoint or public base URL is required")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	r.client = client

	return r, nil
}

// URL returns a fetchable URL for key: a static public URL when configured,
// otherwise a presigned GET.
func (r *Resolver) URL(ctx context.Context, key string) (string, error) {
	key = strings.TrimLeft(key, "/")
	if key == "" {
		return "", ErrEmptyKey
	}

	if r.publicBaseURL != "" {
		return r.publicBaseURL + "/" + escapePath(key), nil
	}

	u, err := r.client.PresignedGetObject(ctx, r.bucket, key, r.expiry, url.Values{})
	if err != nil {
		r.logger.Error("Failed to presign object URL", zap.String("bucket", r.bucket), zap.String("key", key), zap.Error(err))
		return "", fmt.Errorf("presign %s: %w", key, err)
	}
	return u.String(), nil
}

func escapePath(key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}
