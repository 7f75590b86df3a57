package service

import (
	"context"
	"fmt"
	"time"

	"storefront/internal/domain"
	"storefront/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	DefaultBatchSize  = 5
	DefaultBatchPause = 500 * time.Millisecond
)

// ProductOptions selects how products are cloned
type ProductOptions struct {
	Strategy    domain.MergeStrategy
	CopyImages  bool
	MaxProducts int
}

// ProductResult is the outcome of the product phase. Cloned + Skipped equals the
// number of source products read.
type ProductResult struct {
	Cloned       int
	ImagesCloned int
	Skipped      int
	Errors       []string
}

// ProductProgressFunc is called after each source product is processed
type ProductProgressFunc func(done, total int, title string)

// ProductCloner copies products, and optionally their images, into another account
type ProductCloner interface {
	Clone(ctx context.Context, sourceID, targetID uuid.UUID, listingLimit int, opts ProductOptions, progress ProductProgressFunc) (ProductResult, error)
}

// ProductClonerConfig paces the product loop. DefaultMaxProducts bounds the source
// read when the request sets no MaxProducts.
type ProductClonerConfig struct {
	BatchSize          int
	BatchPause         time.Duration
	DefaultMaxProducts int
}

type productCloner struct {
	products    repository.ProductRepository
	images      repository.ImageRepository
	duplicator  ImageDuplicator
	batchSize   int
	batchPause  time.Duration
	maxProducts int
	logger      *zap.Logger
	now         func() time.Time
}

// NewProductCloner creates a new instance of ProductCloner
func NewProductCloner(
	products repository.ProductRepository,
	images repository.ImageRepository,
	duplicator ImageDuplicator,
	cfg ProductClonerConfig,
	logger *zap.Logger,
) ProductCloner {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.BatchPause < 0 {
		cfg.BatchPause = 0
	}
	if cfg.DefaultMaxProducts <= 0 {
		cfg.DefaultMaxProducts = domain.DefaultMaxProducts
	}
	return &productCloner{
		products:    products,
		images:      images,
		duplicator:  duplicator,
		batchSize:   cfg.BatchSize,
		batchPause:  cfg.BatchPause,
		maxProducts: cfg.DefaultMaxProducts,
		logger:      logger,
		now:         time.Now,
	}
}

// Clone fails with ErrQuotaExceeded before writing anything when the clone would
// exceed listingLimit. Past that point only read failures and replace deletes abort;
// per-product and per-image failures are recorded and skipped.
func (c *productCloner) Clone(
	ctx context.Context,
	sourceID, targetID uuid.UUID,
	listingLimit int,
	opts ProductOptions,
	progress ProductProgressFunc,
) (ProductResult, error) {
	result := ProductResult{Errors: []string{}}

	maxProducts := opts.MaxProducts
	if maxProducts <= 0 {
		maxProducts = c.maxProducts
	}

	source, err := c.products.ListByOwner(ctx, sourceID, maxProducts)
	if err != nil {
		return result, fmt.Errorf("failed to read source products: %w", err)
	}

	if err := c.checkQuota(ctx, targetID, len(source), listingLimit, opts.Strategy); err != nil {
		return result, err
	}

	if opts.Strategy == domain.MergeStrategyReplace {
		// Images first, then the products they belong to.
		if _, err := c.images.DeleteByProductOwner(ctx, targetID); err != nil {
			return result, fmt.Errorf("failed to remove target images: %w", err)
		}
		deleted, err := c.products.DeleteByOwner(ctx, targetID)
		if err != nil {
			return result, fmt.Errorf("failed to remove target products: %w", err)
		}
		c.logger.Debug("Removed target products", zap.Int64("deleted", deleted))
	}

	for i, product := range source {
		if i > 0 && i%c.batchSize == 0 {
			c.pause(ctx)
		}

		clone := product.CloneFor(targetID, c.now())
		if err := c.products.Create(ctx, clone); err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("product %q: %v", product.Title, err))
		} else {
			result.Cloned++
			if opts.CopyImages {
				c.copyImages(ctx, product, clone, targetID, &result)
			}
		}

		if progress != nil {
			progress(i+1, len(source), product.Title)
		}
	}

	return result, nil
}

func (c *productCloner) checkQuota(ctx context.Context, targetID uuid.UUID, sourceCount, limit int, strategy domain.MergeStrategy) error {
	if strategy == domain.MergeStrategyReplace {
		if sourceCount > limit {
			return fmt.Errorf("%w: %d products exceed the limit of %d", ErrQuotaExceeded, sourceCount, limit)
		}
		return nil
	}

	existing, err := c.products.CountByOwner(ctx, targetID)
	if err != nil {
		return fmt.Errorf("failed to count target products: %w", err)
	}
	if existing+sourceCount > limit {
		return fmt.Errorf("%w: %d existing + %d new products exceed the limit of %d",
			ErrQuotaExceeded, existing, sourceCount, limit)
	}
	return nil
}

// copyImages duplicates the images of source onto clone in read order. When several
// source images are flagged featured the last successful copy becomes the featured URL.
func (c *productCloner) copyImages(ctx context.Context, source, clone *domain.Product, ownerID uuid.UUID, result *ProductResult) {
	images, err := c.images.ListByProduct(ctx, source.ID)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("product %q: failed to read images: %v", source.Title, err))
		return
	}

	var featuredURL string
	for _, image := range images {
		copied, err := c.duplicator.Duplicate(ctx, image, clone.ID, ownerID)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("product %q: %v", source.Title, err))
			continue
		}
		result.ImagesCloned++
		if copied.WasFeatured {
			featuredURL = copied.URL
		}
	}

	if featuredURL == "" {
		return
	}
	if err := c.products.UpdateFeaturedImage(ctx, clone.ID, featuredURL); err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("product %q: failed to set featured image: %v", source.Title, err))
		return
	}
	clone.FeaturedImageURL = &featuredURL
}

func (c *productCloner) pause(ctx context.Context) {
	if c.batchPause <= 0 {
		return
	}
	timer := time.NewTimer(c.batchPause)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
