// Package attachment removes quote attachments from S3-compatible object
// storage. Uploads happen elsewhere; this service only cleans up.
package attachment

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/heartmarshall/salesdesk-backend/internal/config"
)

// Store deletes objects from one bucket.
type Store struct {
	client *minio.Client
	bucket string
	log    *slog.Logger
}

// New creates a Store from configuration.
func New(cfg config.StorageConfig, log *slog.Logger) (*Store, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return &Store{
		client: client,
		bucket: cfg.Bucket,
		log:    log.With("adapter", "attachment"),
	}, nil
}

// Remove deletes the object at path. Removing a missing object is not an
// error; an empty path is a no-op.
func (s *Store) Remove(ctx context.Context, path string) error {
	key := strings.TrimPrefix(strings.TrimSpace(path), "/")
	if key == "" {
		return nil
	}

	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		resp := minio.ToErrorResponse(err)
		if resp.Code == "NoSuchKey" {
			return nil
		}
		return fmt.Errorf("remove %s/%s: %w", s.bucket, key, err)
	}

	s.log.InfoContext(ctx, "attachment removed",
		slog.String("bucket", s.bucket),
		slog.String("path", key),
	)
	return nil
}
