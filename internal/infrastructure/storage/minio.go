package storage

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"publisher-backend/internal/config"
	"publisher-backend/internal/domains/publication/model"
)

// MinIOStorage holds publication media and hands out presigned URLs the
// posting gateway can fetch without bucket credentials.
type MinIOStorage struct {
	client    *minio.Client
	bucket    string
	urlExpiry time.Duration
}

func NewMinIOStorage(cfg config.MinIOConfig) (*MinIOStorage, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	ctx := context.Background()
	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	expiry := cfg.URLExpiry
	if expiry == 0 {
		expiry = time.Hour
	}

	return &MinIOStorage{
		client:    client,
		bucket:    cfg.Bucket,
		urlExpiry: expiry,
	}, nil
}

// ResolveURL implements platform.MediaURLResolver: a presigned GET URL for
// one snapshot media reference. The URL outlives the delivery attempt but
// not the lock TTL by much, so a leaked URL goes stale quickly.
func (s *MinIOStorage) ResolveURL(ctx context.Context, media model.SnapshotMedia) (string, error) {
	presigned, err := s.client.PresignedGetObject(ctx, s.bucket, media.StoragePath, s.urlExpiry, url.Values{})
	if err != nil {
		return "", fmt.Errorf("presign media %s: %w", media.MediaID, err)
	}
	return presigned.String(), nil
}
