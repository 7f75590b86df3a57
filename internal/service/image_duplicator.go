package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"storefront/internal/domain"
	"storefront/internal/repository"
	"storefront/internal/storage"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	DefaultImageFetchTimeout = 30 * time.Second
	DefaultMaxImageBytes     = 10 * 1024 * 1024

	productImagePrefix = "products"
	profileImagePrefix = "profiles"
	defaultImageExt    = "jpg"
)

// ImageResult describes a successfully duplicated image
type ImageResult struct {
	URL         string
	WasFeatured bool
}

// ImageDuplicator re-hosts images in the blob store under the target account.
// Every image is attempted exactly once; a returned error means the image was skipped.
type ImageDuplicator interface {
	Duplicate(ctx context.Context, image *domain.Image, targetProductID, ownerID uuid.UUID) (*ImageResult, error)
	Rehost(ctx context.Context, sourceURL string, ownerID uuid.UUID) (string, error)
}

// ImageDuplicatorConfig bounds a single image fetch
type ImageDuplicatorConfig struct {
	FetchTimeout time.Duration
	MaxBytes     int64
}

type imageDuplicator struct {
	images       repository.ImageRepository
	store        storage.BlobStore
	client       *http.Client
	fetchTimeout time.Duration
	maxBytes     int64
	logger       *zap.Logger
	now          func() time.Time
}

// NewImageDuplicator creates a new instance of ImageDuplicator
func NewImageDuplicator(
	images repository.ImageRepository,
	store storage.BlobStore,
	client *http.Client,
	cfg ImageDuplicatorConfig,
	logger *zap.Logger,
) ImageDuplicator {
	if client == nil {
		client = http.DefaultClient
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = DefaultImageFetchTimeout
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = DefaultMaxImageBytes
	}
	return &imageDuplicator{
		images:       images,
		store:        store,
		client:       client,
		fetchTimeout: cfg.FetchTimeout,
		maxBytes:     cfg.MaxBytes,
		logger:       logger,
		now:          time.Now,
	}
}

// Duplicate copies image into the store and records it against targetProductID.
// If the row insert fails the uploaded object is removed again.
func (d *imageDuplicator) Duplicate(ctx context.Context, image *domain.Image, targetProductID, ownerID uuid.UUID) (*ImageResult, error) {
	data, err := d.fetch(ctx, image.URL)
	if err != nil {
		return nil, err
	}

	objectPath := d.objectPath(productImagePrefix, ownerID, image.URL)
	if err := d.store.Upload(ctx, objectPath, data, mimetype.Detect(data).String()); err != nil {
		return nil, fmt.Errorf("image %s: upload failed: %w", image.URL, err)
	}

	publicURL := d.store.PublicURL(objectPath)
	row := &domain.Image{
		ID:         uuid.New(),
		ProductID:  targetProductID,
		URL:        publicURL,
		IsFeatured: image.IsFeatured,
		CreatedAt:  d.now(),
	}
	if err := d.images.Create(ctx, row); err != nil {
		if rmErr := d.store.Remove(ctx, objectPath); rmErr != nil {
			d.logger.Warn("Failed to remove orphaned image copy",
				zap.Error(rmErr),
				zap.String("path", objectPath),
			)
		}
		return nil, fmt.Errorf("image %s: failed to record copy: %w", image.URL, err)
	}

	return &ImageResult{URL: publicURL, WasFeatured: image.IsFeatured}, nil
}

// Rehost copies a profile image and returns its new public URL. No row is written.
func (d *imageDuplicator) Rehost(ctx context.Context, sourceURL string, ownerID uuid.UUID) (string, error) {
	data, err := d.fetch(ctx, sourceURL)
	if err != nil {
		return "", err
	}

	objectPath := d.objectPath(profileImagePrefix, ownerID, sourceURL)
	if err := d.store.Upload(ctx, objectPath, data, mimetype.Detect(data).String()); err != nil {
		return "", fmt.Errorf("image %s: upload failed: %w", sourceURL, err)
	}

	return d.store.PublicURL(objectPath), nil
}

func (d *imageDuplicator) fetch(ctx context.Context, rawURL string) ([]byte, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, d.fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(fetchCtx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("image %s: invalid url: %w", rawURL, err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		if d.timedOut(fetchCtx, err) {
			return nil, fmt.Errorf("image %s: fetch timed out after %s", rawURL, d.fetchTimeout)
		}
		return nil, fmt.Errorf("image %s: fetch failed: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("image %s: fetch returned status %d", rawURL, resp.StatusCode)
	}
	if resp.ContentLength > d.maxBytes {
		return nil, fmt.Errorf("image %s: %d bytes exceeds the %d byte limit", rawURL, resp.ContentLength, d.maxBytes)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, d.maxBytes+1))
	if err != nil {
		if d.timedOut(fetchCtx, err) {
			return nil, fmt.Errorf("image %s: fetch timed out after %s", rawURL, d.fetchTimeout)
		}
		return nil, fmt.Errorf("image %s: read failed: %w", rawURL, err)
	}
	if int64(len(data)) > d.maxBytes {
		return nil, fmt.Errorf("image %s: payload exceeds the %d byte limit", rawURL, d.maxBytes)
	}

	return data, nil
}

func (d *imageDuplicator) timedOut(ctx context.Context, err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded)
}

// objectPath builds {prefix}/{owner}-{unixMillis}-{token}.{ext}
func (d *imageDuplicator) objectPath(prefix string, ownerID uuid.UUID, sourceURL string) string {
	token := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	name := fmt.Sprintf("%s-%d-%s.%s", ownerID, d.now().UnixMilli(), token, extensionOf(sourceURL))
	return prefix + "/" + name
}

// extensionOf returns the lower-cased file extension of the URL path, or jpg
func extensionOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return defaultImageExt
	}

	ext := strings.ToLower(strings.TrimPrefix(path.Ext(u.Path), "."))
	if ext == "" || len(ext) > 5 {
		return defaultImageExt
	}
	for _, r := range ext {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return defaultImageExt
		}
	}
	return ext
}
