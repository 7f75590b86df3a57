package storage

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/config"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

type gcsStore struct {
	client        *storage.Client
	bucket        string
	publicBaseURL string
}

// NewGCSStore creates a BlobStore backed by Google Cloud Storage
func NewGCSStore(ctx context.Context, cfg config.StorageConfig) (BlobStore, error) {
	var clientOpts []option.ClientOption
	if cfg.CredentialsFile != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	if cfg.Endpoint != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(cfg.Endpoint), option.WithoutAuthentication())
	}

	client, err := storage.NewClient(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gcs client: %w", err)
	}

	return newGCSStore(client, cfg), nil
}

func newGCSStore(client *storage.Client, cfg config.StorageConfig) *gcsStore {
	base := cfg.PublicBaseURL
	if base == "" {
		base = "https://storage.googleapis.com/" + cfg.Bucket
	}
	return &gcsStore{client: client, bucket: cfg.Bucket, publicBaseURL: base}
}

func (s *gcsStore) Upload(ctx context.Context, path string, data []byte, contentType string) error {
	w := s.client.Bucket(s.bucket).Object(path).NewWriter(ctx)
	w.ContentType = contentType
	w.CacheControl = "public, max-age=3600"

	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("failed to upload %s: %w", path, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to upload %s: %w", path, err)
	}
	return nil
}

func (s *gcsStore) PublicURL(path string) string {
	return joinURL(s.publicBaseURL, path)
}

func (s *gcsStore) Remove(ctx context.Context, path string) error {
	err := s.client.Bucket(s.bucket).Object(path).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("failed to remove %s: %w", path, err)
	}
	return nil
}
