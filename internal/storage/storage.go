package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"storefront/internal/config"
)

var ErrUnknownBackend = errors.New("unknown storage backend")

// BlobStore is the public object store holding product and profile images
type BlobStore interface {
	Upload(ctx context.Context, path string, data []byte, contentType string) error
	PublicURL(path string) string
	Remove(ctx context.Context, path string) error
}

// New builds the blob store selected by cfg.Backend
func New(ctx context.Context, cfg config.StorageConfig) (BlobStore, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("storage bucket is required")
	}

	switch cfg.Backend {
	case "", "s3":
		return NewS3Store(ctx, cfg)
	case "gcs":
		return NewGCSStore(ctx, cfg)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
}

func joinURL(base, path string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}
